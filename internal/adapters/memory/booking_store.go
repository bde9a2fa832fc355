package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// BookingStore implements ports.BookingRepository in process memory.
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

// NewBookingStore creates an empty BookingStore.
func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]domain.Booking)}
}

func (s *BookingStore) Create(ctx context.Context, b *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID]; exists {
		return domain.ValidationError{Field: "id", Msg: "duplicate booking id"}
	}
	s.bookings[b.ID] = *b
	return nil
}

func (s *BookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "booking", ID: id}
	}
	return &b, nil
}

// ListByTrip returns the stored bookings for a trip.
func (s *BookingStore) ListByTrip(tripID string) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Booking
	for _, b := range s.bookings {
		if b.TripID == tripID {
			out = append(out, b)
		}
	}
	return out
}
