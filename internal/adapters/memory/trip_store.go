package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// TripStore implements ports.TripRepository in process memory.
type TripStore struct {
	mu    sync.RWMutex
	trips map[string]domain.Trip
	order []string
	seq   int64
}

// NewTripStore creates an empty TripStore.
func NewTripStore() *TripStore {
	return &TripStore{trips: make(map[string]domain.Trip)}
}

func (s *TripStore) Insert(ctx context.Context, t *domain.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[t.ID]; exists {
		return domain.ValidationError{Field: "id", Msg: "duplicate trip id"}
	}
	s.seq++
	t.Seq = s.seq
	t.CreatedAt = time.Now().UTC()
	s.trips[t.ID] = cloneTrip(*t)
	s.order = append(s.order, t.ID)
	return nil
}

func (s *TripStore) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "trip", ID: id}
	}
	out := cloneTrip(t)
	return &out, nil
}

func (s *TripStore) FindByRoute(ctx context.Context, originKey, destinationKey, date string) ([]domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := []domain.Trip{}
	for _, id := range s.order {
		t := s.trips[id]
		if t.Date == date && domain.CityKey(t.FromCity) == originKey && domain.CityKey(t.ToCity) == destinationKey {
			trips = append(trips, cloneTrip(t))
		}
	}
	return trips, nil
}

func cloneTrip(t domain.Trip) domain.Trip {
	if t.Amenities != nil {
		t.Amenities = append([]string(nil), t.Amenities...)
	}
	return t
}
