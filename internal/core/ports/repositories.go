package ports

import (
	"context"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// TripRepository persists trips. It is append-only: trips are never updated or deleted.
type TripRepository interface {
	// Insert stores t, assigning t.Seq and t.CreatedAt.
	Insert(ctx context.Context, t *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	// FindByRoute matches case-normalized city keys and the exact date.
	FindByRoute(ctx context.Context, originKey, destinationKey, date string) ([]domain.Trip, error)
}

// LedgerStore is the atomic seat counter per trip.
//
// Implementations must serialize Reserve and Release per trip id so that two
// concurrent reservations never both observe seats only one of them can take.
// Entries are created lazily with zero seats reserved the first time a trip is seen.
//
// Every reservation is recorded under a hold id (the booking id). Applying a
// hold twice or releasing it twice changes nothing, so callers may retry.
type LedgerStore interface {
	// Open registers the entry for a new trip with an initial reservation offset.
	// If the entry was already created lazily, the offset is added to it, capped
	// at capacity.
	Open(ctx context.Context, tripID string, capacity, reserved int) error
	// Available returns capacity minus reserved seats.
	Available(ctx context.Context, tripID string) (int, error)
	// Reserve applies hold holdID for count seats if they fit and returns the
	// seats still available. A hold that is already applied is not applied again.
	// It returns domain.InsufficientSeatsError when the seats do not fit.
	Reserve(ctx context.Context, tripID, holdID string, count int) (int, error)
	// Release frees the seats held by holdID and returns how many were freed.
	// An unknown hold frees nothing.
	Release(ctx context.Context, tripID, holdID string) (int, error)
}

// BookingRepository persists confirmed bookings. It is append-only.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}
