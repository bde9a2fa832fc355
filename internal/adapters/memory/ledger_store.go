package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
)

type ledgerEntry struct {
	mu       sync.Mutex
	capacity int
	reserved int
	holds    map[string]int // hold id -> seats
}

func newLedgerEntry(capacity, reserved int) *ledgerEntry {
	return &ledgerEntry{capacity: capacity, reserved: reserved, holds: make(map[string]int)}
}

// LedgerStore implements ports.LedgerStore with one mutex per trip.
// Reservations on different trips never contend.
type LedgerStore struct {
	mu      sync.RWMutex
	entries map[string]*ledgerEntry
	trips   ports.TripRepository
}

// NewLedgerStore creates a LedgerStore. Entries for trips it has not seen are
// created lazily from the capacity recorded in trips.
func NewLedgerStore(trips ports.TripRepository) *LedgerStore {
	return &LedgerStore{entries: make(map[string]*ledgerEntry), trips: trips}
}

func (s *LedgerStore) Open(ctx context.Context, tripID string, capacity, reserved int) error {
	if capacity <= 0 || reserved < 0 || reserved > capacity {
		return fmt.Errorf("open ledger %s: reserved %d outside capacity %d", tripID, reserved, capacity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[tripID]
	if !exists {
		s.entries[tripID] = newLedgerEntry(capacity, reserved)
		return nil
	}

	// Created lazily by a reader between the trip insert and this call.
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reserved = min(e.capacity, e.reserved+reserved)
	return nil
}

func (s *LedgerStore) Available(ctx context.Context, tripID string) (int, error) {
	e, err := s.entry(ctx, tripID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capacity - e.reserved, nil
}

func (s *LedgerStore) Reserve(ctx context.Context, tripID, holdID string, count int) (int, error) {
	e, err := s.entry(ctx, tripID)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, applied := e.holds[holdID]; applied {
		return e.capacity - e.reserved, nil
	}

	remaining := e.capacity - e.reserved
	if count > remaining {
		return remaining, domain.InsufficientSeatsError{TripID: tripID, Requested: count, Remaining: remaining}
	}
	e.reserved += count
	e.holds[holdID] = count
	return e.capacity - e.reserved, nil
}

func (s *LedgerStore) Release(ctx context.Context, tripID, holdID string) (int, error) {
	s.mu.RLock()
	e, ok := s.entries[tripID]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	count, held := e.holds[holdID]
	if !held {
		return 0, nil
	}
	if count > e.reserved {
		return 0, fmt.Errorf("release %d seats on trip %s: only %d reserved", count, tripID, e.reserved)
	}
	e.reserved -= count
	delete(e.holds, holdID)
	return count, nil
}

// Reserved returns the seats currently reserved on the trip.
func (s *LedgerStore) Reserved(tripID string) int {
	s.mu.RLock()
	e, ok := s.entries[tripID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reserved
}

func (s *LedgerStore) entry(ctx context.Context, tripID string) (*ledgerEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[tripID]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	if s.trips == nil {
		return nil, domain.NotFoundError{Resource: "trip", ID: tripID}
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[tripID]; ok {
		return e, nil
	}
	e = newLedgerEntry(trip.SeatsTotal, 0)
	s.entries[tripID] = e
	return e, nil
}
