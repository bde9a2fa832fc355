package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/core/usecases"
)

// BookingActivities holds the activity implementations for the booking saga.
type BookingActivities struct {
	Catalog   *usecases.CatalogService
	Ledger    *usecases.Ledger
	Bookings  ports.BookingRepository
	Publisher ports.EventPublisher
}

// ReserveSeats validates the request, checks the trip exists and takes the
// seats from the ledger under the booking id. It returns the seats left on the
// trip. A retry after a reservation that did land applies nothing new.
func (a *BookingActivities) ReserveSeats(ctx context.Context, bookingID string, req domain.BookingRequest) (int, error) {
	req.TripID = strings.TrimSpace(req.TripID)
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	req.PassengerEmail = strings.TrimSpace(req.PassengerEmail)

	if err := req.Validate(a.Ledger.MaxSeats()); err != nil {
		return 0, asApplicationError(err)
	}
	if _, err := a.Catalog.Get(ctx, req.TripID); err != nil {
		return 0, asApplicationError(err)
	}
	remaining, err := a.Ledger.TryReserve(ctx, req.TripID, bookingID, req.Seats)
	if err != nil {
		return 0, asApplicationError(err)
	}
	return remaining, nil
}

// PersistBooking stores a confirmed booking. A retry after a write that did
// land finds the booking already stored and succeeds.
func (a *BookingActivities) PersistBooking(ctx context.Context, b domain.Booking) error {
	err := a.Bookings.Create(ctx, &b)
	if err == nil {
		return nil
	}
	if domain.IsValidation(err) {
		if existing, getErr := a.Bookings.GetByID(ctx, b.ID); getErr == nil && existing.TripID == b.TripID {
			return nil
		}
	}
	return fmt.Errorf("persist booking %s: %w", b.ID, err)
}

// ReleaseSeats frees the seats held by the booking (saga compensation). It is
// a no-op when the reservation never landed.
func (a *BookingActivities) ReleaseSeats(ctx context.Context, tripID, bookingID string) error {
	if err := a.Ledger.Release(ctx, tripID, bookingID); err != nil {
		return fmt.Errorf("release booking %s on %s: %w", bookingID, tripID, err)
	}
	slog.WarnContext(ctx, "reservation released (saga compensation)", "trip_id", tripID, "booking_id", bookingID)
	return nil
}

// PublishOutcome announces the booking outcome. Failures are logged, not retried.
func (a *BookingActivities) PublishOutcome(ctx context.Context, event domain.BookingEvent) error {
	if a.Publisher == nil {
		return nil
	}
	if err := a.Publisher.PublishBookingEvent(ctx, &event); err != nil {
		slog.WarnContext(ctx, "publish booking event", "booking_id", event.BookingID, "error", err)
	}
	return nil
}

// asApplicationError marks rejections as non-retryable and keeps the kind so
// the caller can rebuild the domain error. Storage failures stay retryable.
func asApplicationError(err error) error {
	kind := domain.Kind(err)
	switch kind {
	case "persistence_failure", "internal_error":
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), kind, nil, rejectionDetailsOf(err))
}

// rejectionDetails carries the fields needed to rebuild the typed error.
type rejectionDetails struct {
	Field     string `json:"field,omitempty"`
	Msg       string `json:"msg,omitempty"`
	Resource  string `json:"resource,omitempty"`
	ID        string `json:"id,omitempty"`
	TripID    string `json:"trip_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
}

func rejectionDetailsOf(err error) rejectionDetails {
	var (
		v  domain.ValidationError
		nf domain.NotFoundError
		is domain.InsufficientSeatsError
	)
	switch {
	case errors.As(err, &v):
		return rejectionDetails{Field: v.Field, Msg: v.Msg}
	case errors.As(err, &nf):
		return rejectionDetails{Resource: nf.Resource, ID: nf.ID}
	case errors.As(err, &is):
		return rejectionDetails{TripID: is.TripID, Requested: is.Requested, Remaining: is.Remaining}
	}
	return rejectionDetails{Msg: err.Error()}
}
