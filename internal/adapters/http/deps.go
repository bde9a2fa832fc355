package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tripbook/internal/adapters/postgres"
	"github.com/samirrijal/tripbook/internal/adapters/valkey"
	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/usecases"
)

// Booker commits booking requests. It is satisfied by usecases.BookingService
// and by the Temporal-backed workflows.Booker.
type Booker interface {
	Book(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Catalog  *usecases.CatalogService
	Search   *usecases.SearchService
	Bookings *usecases.BookingService
	Booker   Booker
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}

func (d *Dependencies) booker() Booker {
	if d.Booker != nil {
		return d.Booker
	}
	return d.Bookings
}
