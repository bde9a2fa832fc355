package usecases

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/tripbook/internal/core/usecases")

// SearchService resolves route queries into ordered trips with live availability.
type SearchService struct {
	catalog *CatalogService
	ledger  *Ledger
}

// NewSearchService creates a new SearchService.
func NewSearchService(catalog *CatalogService, ledger *Ledger) *SearchService {
	return &SearchService{catalog: catalog, ledger: ledger}
}

// Search returns the trips on the route and date ordered by departure time, then
// price, then insertion order. Sold-out trips are included. No matches yields an
// empty slice and a nil error.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.TripView, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Search", trace.WithAttributes(
		attribute.String("search.origin", q.Origin),
		attribute.String("search.destination", q.Destination),
		attribute.String("search.date", q.Date),
	))
	defer span.End()

	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	if err := q.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	trips, err := s.catalog.FindByRoute(ctx, q.Origin, q.Destination, q.Date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog lookup failed")
		return nil, err
	}

	sortTrips(trips)

	views := make([]domain.TripView, 0, len(trips))
	for _, t := range trips {
		available, err := s.ledger.AvailableSeats(ctx, t.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "availability lookup failed")
			return nil, err
		}
		views = append(views, domain.NewTripView(t, available))
	}

	metrics.SearchResults.Observe(float64(len(views)))
	span.SetAttributes(attribute.Int("search.results", len(views)))
	return views, nil
}

func sortTrips(trips []domain.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		a, b := trips[i], trips[j]
		if da, db := departureKey(a), departureKey(b); da != db {
			return da < db
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.Seq < b.Seq
	})
}

// departureKey orders unparsable times after every valid one.
func departureKey(t domain.Trip) int {
	m, err := domain.ClockMinutes(t.DepartureTime)
	if err != nil {
		return 24 * 60
	}
	return m
}

// Trip returns one trip with its live availability.
func (s *SearchService) Trip(ctx context.Context, id string) (*domain.TripView, error) {
	trip, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.AvailableSeats(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	view := domain.NewTripView(*trip, available)
	return &view, nil
}
