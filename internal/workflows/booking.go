package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// BookingInput is the input for the booking workflow. The booking id and
// timestamp are chosen by the caller so replays stay deterministic.
type BookingInput struct {
	BookingID   string
	Request     domain.BookingRequest
	RequestedAt time.Time
}

// BookingWorkflow reserves seats under the booking id and stores the booking.
// Reservations are idempotent per booking id, so ReserveSeats may be retried.
// If the booking cannot be stored, or the reservation outcome is unknown, the
// hold is released (saga compensation) before the workflow fails.
func BookingWorkflow(ctx workflow.Context, input BookingInput) (domain.Booking, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting booking workflow", "tripID", input.Request.TripID, "seats", input.Request.Seats)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	booking := domain.Booking{
		ID:             input.BookingID,
		TripID:         input.Request.TripID,
		PassengerName:  input.Request.PassengerName,
		PassengerEmail: input.Request.PassengerEmail,
		Seats:          input.Request.Seats,
		Status:         domain.BookingConfirmed,
		CreatedAt:      input.RequestedAt.UTC(),
	}

	// Step 1: Reserve seats
	var remaining int
	if err := workflow.ExecuteActivity(ctx, "ReserveSeats", booking.ID, input.Request).Get(ctx, &remaining); err != nil {
		// Only a rejection proves nothing was reserved. Any other failure may
		// hide a reservation that landed before its reply was lost.
		if !isRejection(err) {
			logger.Warn("reservation outcome unknown, compensating", "error", err)
			releaseSeats(ctx, booking)
		}
		booking.Status = domain.BookingRejected
		booking.Reason = err.Error()
		publish(ctx, booking, nil)
		return booking, err
	}

	// Step 2: Store the booking
	if err := workflow.ExecuteActivity(ctx, "PersistBooking", booking).Get(ctx, nil); err != nil {
		logger.Warn("storing booking failed, compensating", "error", err)
		releaseSeats(ctx, booking)

		booking.Status = domain.BookingRejected
		booking.Reason = err.Error()
		publish(ctx, booking, nil)
		return booking, err
	}

	publish(ctx, booking, &remaining)
	logger.Info("Booking confirmed", "bookingID", booking.ID)
	return booking, nil
}

// isRejection reports whether err is a non-retryable domain rejection.
func isRejection(err error) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.NonRetryable()
}

// releaseSeats frees the booking's hold even if the workflow is being cancelled.
func releaseSeats(ctx workflow.Context, b domain.Booking) {
	releaseCtx, _ := workflow.NewDisconnectedContext(ctx)
	releaseCtx = workflow.WithActivityOptions(releaseCtx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 10,
		},
	})
	if err := workflow.ExecuteActivity(releaseCtx, "ReleaseSeats", b.TripID, b.ID).Get(releaseCtx, nil); err != nil {
		workflow.GetLogger(ctx).Error("seat release failed", "tripID", b.TripID, "bookingID", b.ID, "error", err)
	}
}

func publish(ctx workflow.Context, b domain.Booking, remaining *int) {
	event := domain.BookingEvent{
		BookingID:      b.ID,
		TripID:         b.TripID,
		Seats:          b.Seats,
		Status:         b.Status,
		Reason:         b.Reason,
		SeatsAvailable: remaining,
		OccurredAt:     b.CreatedAt,
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	_ = workflow.ExecuteActivity(ctx, "PublishOutcome", event).Get(ctx, nil)
}
