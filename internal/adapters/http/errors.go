package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Detail    string `json:"detail"` // Human-readable message
	Code      string `json:"code"`   // validation_error, not_found, insufficient_seats, ...
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, detail string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Detail:    detail,
		Code:      code,
		RequestID: reqID,
	})
}

// errValidation returns a 422 error.
func errValidation(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnprocessableEntity, "validation_error", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// writeDomainError maps a domain error to its status code. Storage and
// unexpected failures are logged and reported without internals.
func writeDomainError(c *fiber.Ctx, err error) error {
	kind := domain.Kind(err)
	switch kind {
	case "validation_error":
		return errValidation(c, err.Error())
	case "not_found":
		return errNotFound(c, err.Error())
	case "insufficient_seats":
		return newError(c, fiber.StatusConflict, kind, err.Error())
	case "persistence_failure":
		LoggerFromCtx(c.UserContext()).Error("storage failure", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusServiceUnavailable, kind, "service temporarily unavailable, please retry")
	default:
		LoggerFromCtx(c.UserContext()).Error("unexpected failure", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusInternalServerError, "internal_error", "internal error")
	}
}
