package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input. The caller can correct it and retry.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

// NotFoundError reports an unknown identity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientSeatsError reports that a trip could not cover a reservation at commit time.
type InsufficientSeatsError struct {
	TripID    string
	Requested int
	Remaining int
}

func (e InsufficientSeatsError) Error() string {
	return fmt.Sprintf("not enough seats: %d requested, %d remaining", e.Requested, e.Remaining)
}

// PersistenceError reports an unavailable storage collaborator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + ": storage unavailable"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError unless it already carries a domain kind.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || IsInsufficientSeats(err) || IsPersistence(err) {
		return err
	}
	return PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsInsufficientSeats(err error) bool {
	var target InsufficientSeatsError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}

// Kind returns a short machine-readable label for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation_error"
	case IsNotFound(err):
		return "not_found"
	case IsInsufficientSeats(err):
		return "insufficient_seats"
	case IsPersistence(err):
		return "persistence_failure"
	default:
		return "internal_error"
	}
}
