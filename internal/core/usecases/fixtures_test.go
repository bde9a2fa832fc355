package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/tripbook/internal/adapters/memory"
	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/core/usecases"
)

type harness struct {
	trips    *memory.TripStore
	ledger   *memory.LedgerStore
	bookings *memory.BookingStore

	catalog *usecases.CatalogService
	search  *usecases.SearchService
	booking *usecases.BookingService
}

func newHarness(t *testing.T, opts ...func(*harnessOptions)) *harness {
	t.Helper()

	o := harnessOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	h := &harness{
		trips:    memory.NewTripStore(),
		bookings: memory.NewBookingStore(),
	}
	h.ledger = memory.NewLedgerStore(h.trips)

	var bookings ports.BookingRepository = h.bookings
	if o.bookings != nil {
		bookings = o.bookings
	}

	var trips ports.TripRepository = h.trips
	if o.wrapTrips != nil {
		trips = o.wrapTrips(h.trips)
	}

	ledger := usecases.NewLedger(h.ledger, 0)
	h.catalog = usecases.NewCatalogService(trips, ledger, o.cache)
	h.search = usecases.NewSearchService(h.catalog, ledger)
	h.booking = usecases.NewBookingService(h.catalog, ledger, bookings, o.publisher)
	return h
}

type harnessOptions struct {
	bookings  ports.BookingRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
	wrapTrips func(ports.TripRepository) ports.TripRepository
}

func withBookings(r ports.BookingRepository) func(*harnessOptions) {
	return func(o *harnessOptions) { o.bookings = r }
}

func withPublisher(p ports.EventPublisher) func(*harnessOptions) {
	return func(o *harnessOptions) { o.publisher = p }
}

func withCache(c ports.CacheService) func(*harnessOptions) {
	return func(o *harnessOptions) { o.cache = c }
}

// withTripHooks routes the catalog's trip reads and writes through hooks.
func withTripHooks(hooks *hookedTrips) func(*harnessOptions) {
	return func(o *harnessOptions) {
		o.wrapTrips = func(inner ports.TripRepository) ports.TripRepository {
			hooks.TripRepository = inner
			return hooks
		}
	}
}

// hookedTrips runs afterInsert once the trip is stored and afterFind once the
// route has been read, each at most once.
type hookedTrips struct {
	ports.TripRepository
	afterInsert func()
	afterFind   func()
}

func (h *hookedTrips) Insert(ctx context.Context, t *domain.Trip) error {
	if err := h.TripRepository.Insert(ctx, t); err != nil {
		return err
	}
	if fn := h.afterInsert; fn != nil {
		h.afterInsert = nil
		fn()
	}
	return nil
}

func (h *hookedTrips) FindByRoute(ctx context.Context, originKey, destinationKey, date string) ([]domain.Trip, error) {
	trips, err := h.TripRepository.FindByRoute(ctx, originKey, destinationKey, date)
	if fn := h.afterFind; fn != nil {
		h.afterFind = nil
		fn()
	}
	return trips, err
}

func jakartaBandung(operator, departure string, price int64, seats int) domain.TripDraft {
	return domain.TripDraft{
		FromCity:      "Jakarta",
		ToCity:        "Bandung",
		Date:          "2024-06-01",
		Operator:      operator,
		DepartureTime: departure,
		ArrivalTime:   "23:00",
		Price:         price,
		SeatsTotal:    seats,
		Amenities:     []string{"AC"},
	}
}

func (h *harness) addTrip(t *testing.T, d domain.TripDraft) string {
	t.Helper()
	id, err := h.catalog.Add(context.Background(), d)
	require.NoError(t, err)
	return id
}

func (h *harness) available(t *testing.T, tripID string) int {
	t.Helper()
	n, err := usecases.NewLedger(h.ledger, 0).AvailableSeats(context.Background(), tripID)
	require.NoError(t, err)
	return n
}

func bookingReq(tripID string, seats int) domain.BookingRequest {
	return domain.BookingRequest{
		TripID:         tripID,
		PassengerName:  "Siti",
		PassengerEmail: "siti@example.com",
		Seats:          seats,
	}
}
