package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// --- Mock TripRepository ---

type mockTripRepo struct {
	insertFn      func(ctx context.Context, t *domain.Trip) error
	getByIDFn     func(ctx context.Context, id string) (*domain.Trip, error)
	findByRouteFn func(ctx context.Context, originKey, destinationKey, date string) ([]domain.Trip, error)
}

func (m *mockTripRepo) Insert(ctx context.Context, t *domain.Trip) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, t)
	}
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "trip", ID: id}
}

func (m *mockTripRepo) FindByRoute(ctx context.Context, originKey, destinationKey, date string) ([]domain.Trip, error) {
	if m.findByRouteFn != nil {
		return m.findByRouteFn(ctx, originKey, destinationKey, date)
	}
	return nil, nil
}

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	createFn  func(ctx context.Context, b *domain.Booking) error
	getByIDFn func(ctx context.Context, id string) (*domain.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	return nil
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NotFoundError{Resource: "booking", ID: id}
}

// --- Mock LedgerStore ---

type mockLedgerStore struct {
	openFn      func(ctx context.Context, tripID string, capacity, reserved int) error
	availableFn func(ctx context.Context, tripID string) (int, error)
	reserveFn   func(ctx context.Context, tripID, holdID string, count int) (int, error)
	releaseFn   func(ctx context.Context, tripID, holdID string) (int, error)
}

func (m *mockLedgerStore) Open(ctx context.Context, tripID string, capacity, reserved int) error {
	if m.openFn != nil {
		return m.openFn(ctx, tripID, capacity, reserved)
	}
	return nil
}

func (m *mockLedgerStore) Available(ctx context.Context, tripID string) (int, error) {
	if m.availableFn != nil {
		return m.availableFn(ctx, tripID)
	}
	return 0, nil
}

func (m *mockLedgerStore) Reserve(ctx context.Context, tripID, holdID string, count int) (int, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, tripID, holdID, count)
	}
	return 0, nil
}

func (m *mockLedgerStore) Release(ctx context.Context, tripID, holdID string) (int, error) {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, tripID, holdID)
	}
	return 0, nil
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, e *domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) Events() []domain.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.BookingEvent(nil), p.events...)
}

// --- Map cache ---

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return nil, domain.NotFoundError{Resource: "cache key", ID: key}
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
