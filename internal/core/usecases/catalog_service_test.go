package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/usecases"
)

func TestCatalogService_AddAssignsDistinctIDs(t *testing.T) {
	h := newHarness(t)

	a := h.addTrip(t, jakartaBandung("A", "07:30", 85000, 40))
	b := h.addTrip(t, jakartaBandung("A", "07:30", 85000, 40))
	assert.NotEqual(t, a, b)

	trip, err := h.catalog.Get(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "Jakarta", trip.FromCity)
	assert.Equal(t, 40, h.available(t, a))
}

func TestCatalogService_AddRejectsInvalidDraft(t *testing.T) {
	h := newHarness(t)

	cases := map[string]func(d *domain.TripDraft){
		"same cities":      func(d *domain.TripDraft) { d.ToCity = " jakarta" },
		"missing from":     func(d *domain.TripDraft) { d.FromCity = "" },
		"bad date":         func(d *domain.TripDraft) { d.Date = "2024-13-01" },
		"bad departure":    func(d *domain.TripDraft) { d.DepartureTime = "7:30pm" },
		"bad arrival":      func(d *domain.TripDraft) { d.ArrivalTime = "" },
		"negative price":   func(d *domain.TripDraft) { d.Price = -1 },
		"zero capacity":    func(d *domain.TripDraft) { d.SeatsTotal = 0 },
		"missing operator": func(d *domain.TripDraft) { d.Operator = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := jakartaBandung("A", "07:30", 85000, 40)
			mutate(&d)
			_, err := h.catalog.Add(context.Background(), d)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestCatalogService_SeedOffsetsAvailability(t *testing.T) {
	h := newHarness(t)

	id, err := h.catalog.Seed(context.Background(), domain.SeedRequest{
		TripDraft:      jakartaBandung("BlueLine Express", "07:30", 85000, 40),
		SeatsAvailable: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, h.available(t, id))
	assert.Equal(t, 15, h.ledger.Reserved(id))
}

func TestCatalogService_SeedRejectsAvailabilityAboveCapacity(t *testing.T) {
	h := newHarness(t)

	_, err := h.catalog.Seed(context.Background(), domain.SeedRequest{
		TripDraft:      jakartaBandung("A", "07:30", 85000, 10),
		SeatsAvailable: 11,
	})
	assert.True(t, domain.IsValidation(err))
}

func TestCatalogService_GetUnknownTrip(t *testing.T) {
	h := newHarness(t)

	_, err := h.catalog.Get(context.Background(), "nope")
	assert.True(t, domain.IsNotFound(err))
}

func TestCatalogService_InsertFailureIsPersistence(t *testing.T) {
	repo := &mockTripRepo{
		insertFn: func(ctx context.Context, t *domain.Trip) error { return errors.New("disk full") },
	}
	catalog := usecases.NewCatalogService(repo, usecases.NewLedger(&mockLedgerStore{}, 0), nil)

	_, err := catalog.Add(context.Background(), jakartaBandung("A", "07:30", 85000, 10))
	assert.True(t, domain.IsPersistence(err))
}

func TestCatalogService_RouteCacheInvalidatedOnAdd(t *testing.T) {
	cache := newMapCache()
	h := newHarness(t, withCache(cache))
	q := domain.SearchQuery{Origin: "Jakarta", Destination: "Bandung", Date: "2024-06-01"}

	h.addTrip(t, jakartaBandung("A", "07:30", 85000, 10))
	views, err := h.search.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, views, 1)

	// Served from cache now; a new trip must still show up.
	h.addTrip(t, jakartaBandung("B", "06:00", 85000, 10))
	views, err = h.search.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "B", views[0].Operator)
}

func TestCatalogService_CachedTripsKeepInsertionOrder(t *testing.T) {
	cache := newMapCache()
	h := newHarness(t, withCache(cache))
	q := domain.SearchQuery{Origin: "Jakarta", Destination: "Bandung", Date: "2024-06-01"}

	first := h.addTrip(t, jakartaBandung("A", "09:00", 90000, 10))
	second := h.addTrip(t, jakartaBandung("B", "09:00", 90000, 10))

	_, err := h.search.Search(context.Background(), q)
	require.NoError(t, err)
	views, err := h.search.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, first, views[0].ID)
	assert.Equal(t, second, views[1].ID)
}

func TestCatalogService_SeedKeepsOffsetWhenSearchedMidInsert(t *testing.T) {
	hooks := &hookedTrips{}
	h := newHarness(t, withTripHooks(hooks))
	q := domain.SearchQuery{Origin: "Jakarta", Destination: "Bandung", Date: "2024-06-01"}

	// A search lands between the trip insert and the ledger entry.
	hooks.afterInsert = func() {
		views, err := h.search.Search(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, views, 1)
	}

	id, err := h.catalog.Seed(context.Background(), domain.SeedRequest{
		TripDraft:      jakartaBandung("BlueLine Express", "07:30", 85000, 40),
		SeatsAvailable: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, h.available(t, id))
}

func TestCatalogService_StaleRouteListIsNotServedAfterAdd(t *testing.T) {
	hooks := &hookedTrips{}
	cache := newMapCache()
	h := newHarness(t, withCache(cache), withTripHooks(hooks))
	q := domain.SearchQuery{Origin: "Jakarta", Destination: "Bandung", Date: "2024-06-01"}

	h.addTrip(t, jakartaBandung("A", "07:30", 85000, 10))

	// A trip is added after this search read the route but before it cached the list.
	hooks.afterFind = func() {
		h.addTrip(t, jakartaBandung("B", "06:00", 85000, 10))
	}
	views, err := h.search.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, err = h.search.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "B", views[0].Operator)
}
