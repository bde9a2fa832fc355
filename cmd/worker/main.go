package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/tripbook/internal/adapters/nats"
	"github.com/samirrijal/tripbook/internal/adapters/postgres"
	"github.com/samirrijal/tripbook/internal/adapters/valkey"
	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/core/usecases"
	"github.com/samirrijal/tripbook/internal/pkg/config"
	"github.com/samirrijal/tripbook/internal/pkg/logging"
	"github.com/samirrijal/tripbook/internal/workflows"
)

func main() {
	cfg, err := config.Load("tripbook-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("worker needs shared storage: set storage.driver=postgres (got %q)", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	trips := postgres.NewTripRepo(db)

	var store ports.LedgerStore = postgres.NewLedgerRepo(db)
	if cfg.Ledger.Backend == "valkey" {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer cache.Close()
		store = valkey.NewLedgerStore(cache.Client(), trips)
	}
	ledger := usecases.NewLedger(store, cfg.Booking.MaxSeats)

	activities := &workflows.BookingActivities{
		Catalog:  usecases.NewCatalogService(trips, ledger, nil),
		Ledger:   ledger,
		Bookings: postgres.NewBookingRepo(db),
	}

	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, booking events disabled", "error", err)
		} else {
			defer pub.Close()
			activities.Publisher = pub

			sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "tripbook-worker-audit")
			if err != nil {
				slog.Warn("nats subscriber unavailable", "error", err)
			} else {
				defer sub.Close()
				if err := sub.SubscribeBookingEvents(ctx, auditBookingEvent); err != nil {
					slog.Warn("subscribe booking events", "error", err)
				}
			}
		}
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.BookingWorkflow)
	w.RegisterActivity(activities)

	slog.Info("booking worker started", "task_queue", cfg.Temporal.TaskQueue, "ledger", cfg.Ledger.Backend)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// auditBookingEvent records every booking outcome in the worker log.
func auditBookingEvent(_ context.Context, e *domain.BookingEvent) error {
	slog.Info("booking event",
		"booking_id", e.BookingID,
		"trip_id", e.TripID,
		"status", e.Status,
		"seats", e.Seats,
		"reason", e.Reason,
	)
	return nil
}
