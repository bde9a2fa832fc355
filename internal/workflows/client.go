package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// Booker runs bookings through BookingWorkflow on a Temporal cluster.
type Booker struct {
	client    client.Client
	taskQueue string
	now       func() time.Time
}

// NewBooker creates a Booker that starts workflows on taskQueue.
func NewBooker(c client.Client, taskQueue string) *Booker {
	return &Booker{client: c, taskQueue: taskQueue, now: time.Now}
}

// Book starts a booking workflow and waits for its result. Rejections come
// back as the same domain errors the in-process booking service returns.
func (b *Booker) Book(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	req.TripID = strings.TrimSpace(req.TripID)
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	req.PassengerEmail = strings.TrimSpace(req.PassengerEmail)

	input := BookingInput{
		BookingID:   uuid.NewString(),
		Request:     req,
		RequestedAt: b.now().UTC(),
	}

	run, err := b.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "booking-" + input.BookingID,
		TaskQueue: b.taskQueue,
	}, BookingWorkflow, input)
	if err != nil {
		return rejectedBooking(input, err), domain.Persistence("start booking workflow", err)
	}

	var booking domain.Booking
	if err := run.Get(ctx, &booking); err != nil {
		derr := fromWorkflowError(err)
		slog.InfoContext(ctx, "booking workflow failed",
			"workflow_id", run.GetID(), "reason", domain.Kind(derr), "error", err)
		return rejectedBooking(input, derr), derr
	}
	return &booking, nil
}

func rejectedBooking(input BookingInput, reason error) *domain.Booking {
	return &domain.Booking{
		ID:             input.BookingID,
		TripID:         input.Request.TripID,
		PassengerName:  input.Request.PassengerName,
		PassengerEmail: input.Request.PassengerEmail,
		Seats:          input.Request.Seats,
		Status:         domain.BookingRejected,
		Reason:         reason.Error(),
		CreatedAt:      input.RequestedAt,
	}
}

// fromWorkflowError rebuilds the domain error carried by a non-retryable
// application error. Anything else is a persistence failure.
func fromWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return domain.PersistenceError{Op: "booking workflow", Err: err}
	}

	var d rejectionDetails
	if appErr.HasDetails() {
		if derr := appErr.Details(&d); derr != nil {
			return domain.PersistenceError{Op: "booking workflow", Err: fmt.Errorf("%s: %w", appErr.Error(), derr)}
		}
	}

	switch appErr.Type() {
	case "validation_error":
		return domain.ValidationError{Field: d.Field, Msg: d.Msg}
	case "not_found":
		return domain.NotFoundError{Resource: d.Resource, ID: d.ID}
	case "insufficient_seats":
		return domain.InsufficientSeatsError{TripID: d.TripID, Requested: d.Requested, Remaining: d.Remaining}
	}
	return domain.PersistenceError{Op: "booking workflow", Err: err}
}
