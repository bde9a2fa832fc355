package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/tripbook/internal/adapters/http"
	"github.com/samirrijal/tripbook/internal/adapters/memory"
	natsadapter "github.com/samirrijal/tripbook/internal/adapters/nats"
	"github.com/samirrijal/tripbook/internal/adapters/postgres"
	"github.com/samirrijal/tripbook/internal/adapters/valkey"
	"github.com/samirrijal/tripbook/internal/core/ports"
	"github.com/samirrijal/tripbook/internal/core/usecases"
	"github.com/samirrijal/tripbook/internal/pkg/config"
	"github.com/samirrijal/tripbook/internal/pkg/logging"
	"github.com/samirrijal/tripbook/internal/pkg/metrics"
	"github.com/samirrijal/tripbook/internal/pkg/telemetry"
	"github.com/samirrijal/tripbook/internal/workflows"
)

func main() {
	cfg, err := config.Load("tripbook-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.CollectorAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Catalog and booking storage
	var (
		db       *postgres.DB
		trips    ports.TripRepository
		bookings ports.BookingRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		trips = postgres.NewTripRepo(db)
		bookings = postgres.NewBookingRepo(db)
	default:
		trips = memory.NewTripStore()
		bookings = memory.NewBookingStore()
	}

	// Cache
	var (
		cache    *valkey.Cache
		cacheSvc ports.CacheService
	)
	if cfg.Valkey.Enabled || cfg.Ledger.Backend == "valkey" {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			if cfg.Ledger.Backend == "valkey" {
				log.Fatalf("valkey: %v", err)
			}
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			if cfg.Valkey.Enabled {
				cacheSvc = cache
			}
		}
	}

	// Seat ledger
	var store ports.LedgerStore
	switch cfg.Ledger.Backend {
	case "postgres":
		store = postgres.NewLedgerRepo(db)
	case "valkey":
		store = valkey.NewLedgerStore(cache.Client(), trips)
	default:
		store = memory.NewLedgerStore(trips)
	}
	slog.Info("storage selected", "storage", cfg.Storage.Driver, "ledger", cfg.Ledger.Backend)

	// NATS
	var (
		publisher ports.EventPublisher
		natsConn  *natsadapter.Publisher
	)
	if cfg.NATS.Enabled {
		natsConn, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer natsConn.Close()
			publisher = natsConn
		}
	}

	// Use cases
	ledger := usecases.NewLedger(store, cfg.Booking.MaxSeats)
	catalogSvc := usecases.NewCatalogService(trips, ledger, cacheSvc)
	searchSvc := usecases.NewSearchService(catalogSvc, ledger)
	bookingSvc := usecases.NewBookingService(catalogSvc, ledger, bookings, publisher)

	deps := &http.Dependencies{
		Catalog:  catalogSvc,
		Search:   searchSvc,
		Bookings: bookingSvc,
		DB:       db,
		Cache:    cache,
	}
	if natsConn != nil {
		deps.NATS = natsConn.Conn()
	}

	// Bookings run through the workflow worker when Temporal is enabled.
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()
		deps.Booker = workflows.NewBooker(tc, cfg.Temporal.TaskQueue)
		slog.Info("booking via temporal", "task_queue", cfg.Temporal.TaskQueue)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Tripbook API",
	})

	http.SetupRoutes(app, deps)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	if db != nil {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(db.Pool.Stat())
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		// Give in-flight requests up to 10s to complete
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
