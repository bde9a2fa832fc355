package usecases

import (
	"context"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/pkg/metrics"
)

// Ledger tracks reserved seats per trip and enforces the no-oversell invariant.
// Atomicity is delegated to the store; Ledger validates input before any store access.
type Ledger struct {
	store    ports.LedgerStore
	maxSeats int
}

// NewLedger creates a Ledger. maxSeats <= 0 selects domain.DefaultMaxSeatsPerBooking.
func NewLedger(store ports.LedgerStore, maxSeats int) *Ledger {
	if maxSeats <= 0 {
		maxSeats = domain.DefaultMaxSeatsPerBooking
	}
	return &Ledger{store: store, maxSeats: maxSeats}
}

// MaxSeats is the largest seat count accepted by a single reservation.
func (l *Ledger) MaxSeats() int { return l.maxSeats }

// AvailableSeats returns capacity minus reserved seats for the trip.
func (l *Ledger) AvailableSeats(ctx context.Context, tripID string) (int, error) {
	n, err := l.store.Available(ctx, tripID)
	if err != nil {
		return 0, domain.Persistence("read availability", err)
	}
	return n, nil
}

// TryReserve atomically reserves count seats under holdID and returns the
// seats left afterwards. Retrying with the same holdID is safe.
func (l *Ledger) TryReserve(ctx context.Context, tripID, holdID string, count int) (int, error) {
	if err := domain.ValidateSeatCount(count, l.maxSeats); err != nil {
		return 0, err
	}
	if holdID == "" {
		return 0, domain.ValidationError{Field: "hold_id", Msg: "must not be empty"}
	}
	remaining, err := l.store.Reserve(ctx, tripID, holdID, count)
	if err != nil {
		return remaining, domain.Persistence("reserve seats", err)
	}
	metrics.SeatsReserved.Add(float64(count))
	return remaining, nil
}

// Release returns the seats held by holdID to the trip. It compensates a
// reservation whose booking could not be stored and does nothing for a hold
// that was never applied or is already released.
func (l *Ledger) Release(ctx context.Context, tripID, holdID string) error {
	if holdID == "" {
		return domain.ValidationError{Field: "hold_id", Msg: "must not be empty"}
	}
	freed, err := l.store.Release(ctx, tripID, holdID)
	if err != nil {
		return domain.Persistence("release seats", err)
	}
	metrics.SeatsReleased.Add(float64(freed))
	return nil
}

func (l *Ledger) open(ctx context.Context, tripID string, capacity, reserved int) error {
	if err := l.store.Open(ctx, tripID, capacity, reserved); err != nil {
		return domain.Persistence("open ledger entry", err)
	}
	return nil
}
