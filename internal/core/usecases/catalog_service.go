package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/pkg/logging"
	"github.com/samirrijal/tripbook/internal/pkg/metrics"
)

const (
	routeCacheTTL = 300
	// A route's version outlives every list cached under an older version.
	routeVersionTTL = 24 * 60 * 60
)

// CatalogService holds trip records and answers route lookups.
type CatalogService struct {
	trips  ports.TripRepository
	ledger *Ledger
	cache  ports.CacheService
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(trips ports.TripRepository, ledger *Ledger, cache ports.CacheService) *CatalogService {
	return &CatalogService{trips: trips, ledger: ledger, cache: cache}
}

// Add inserts a new trip with no seats reserved and returns its id.
func (s *CatalogService) Add(ctx context.Context, draft domain.TripDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}
	return s.insert(ctx, draft, 0)
}

// Seed inserts a trip with SeatsTotal-SeatsAvailable seats already reserved.
func (s *CatalogService) Seed(ctx context.Context, req domain.SeedRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return s.insert(ctx, req.TripDraft, req.SeatsTotal-req.SeatsAvailable)
}

func (s *CatalogService) insert(ctx context.Context, draft domain.TripDraft, reserved int) (string, error) {
	amenities := make([]string, 0, len(draft.Amenities))
	for _, a := range draft.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}

	trip := &domain.Trip{
		ID:            uuid.NewString(),
		FromCity:      strings.TrimSpace(draft.FromCity),
		ToCity:        strings.TrimSpace(draft.ToCity),
		Date:          draft.Date,
		Operator:      strings.TrimSpace(draft.Operator),
		DepartureTime: draft.DepartureTime,
		ArrivalTime:   draft.ArrivalTime,
		Price:         draft.Price,
		SeatsTotal:    draft.SeatsTotal,
		Amenities:     amenities,
	}
	if err := s.trips.Insert(ctx, trip); err != nil {
		return "", domain.Persistence("insert trip", err)
	}

	if err := s.ledger.open(ctx, trip.ID, trip.SeatsTotal, reserved); err != nil {
		return "", err
	}

	if s.cache != nil {
		// Bumping the version orphans any list a concurrent reader is about to cache.
		key := routeVersionKey(domain.CityKey(trip.FromCity), domain.CityKey(trip.ToCity), trip.Date)
		if err := s.cache.Set(ctx, key, []byte(trip.ID), routeVersionTTL); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "route cache invalidation failed", "key", key, "error", err)
		}
	}

	logging.FromContext(ctx).InfoContext(ctx, "trip added",
		"trip_id", trip.ID, "from", trip.FromCity, "to", trip.ToCity,
		"date", trip.Date, "seats_total", trip.SeatsTotal, "seats_reserved", reserved)
	return trip.ID, nil
}

// Get returns a trip by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get trip", err)
	}
	return trip, nil
}

// FindByRoute returns trips on the route and date in no particular order.
func (s *CatalogService) FindByRoute(ctx context.Context, origin, destination, date string) ([]domain.Trip, error) {
	originKey, destKey := domain.CityKey(origin), domain.CityKey(destination)

	var cacheKey string
	if s.cache != nil {
		version, err := s.cache.Get(ctx, routeVersionKey(originKey, destKey, date))
		if err != nil {
			version = nil
		}
		cacheKey = routeCacheKey(originKey, destKey, date, string(version))

		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var trips []domain.Trip
			if err := json.Unmarshal(data, &trips); err == nil {
				metrics.CacheHits.WithLabelValues("trips_by_route").Inc()
				return trips, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("trips_by_route").Inc()
	}

	trips, err := s.trips.FindByRoute(ctx, originKey, destKey, date)
	if err != nil {
		return nil, domain.Persistence("find trips by route", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(trips); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, routeCacheTTL)
		}
	}

	return trips, nil
}

func routeVersionKey(originKey, destKey, date string) string {
	return fmt.Sprintf("trips:route:%s:%s:%s:version", originKey, destKey, date)
}

func routeCacheKey(originKey, destKey, date, version string) string {
	return fmt.Sprintf("trips:route:%s:%s:%s@%s", originKey, destKey, date, version)
}
