//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	handler "github.com/samirrijal/tripbook/internal/adapters/http"
	"github.com/samirrijal/tripbook/internal/adapters/postgres"
	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/usecases"
	"github.com/samirrijal/tripbook/internal/pkg/config"
)

// setupTestDB connects to the test database and applies the schema.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("tripbook-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 10)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(ctx, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with real repos, no cache.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	trips := postgres.NewTripRepo(db)
	ledger := usecases.NewLedger(postgres.NewLedgerRepo(db), 0)
	catalog := usecases.NewCatalogService(trips, ledger, nil)

	return &handler.Dependencies{
		Catalog:  catalog,
		Search:   usecases.NewSearchService(catalog, ledger),
		Bookings: usecases.NewBookingService(catalog, ledger, postgres.NewBookingRepo(db), nil),
		DB:       db,
	}
}

func TestBook_Integration_NoOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	id := seedTrip(t, app, "Nusantara Bus", "12:00", 95000, 36, 12)

	var wg sync.WaitGroup
	var mu sync.Mutex
	statuses := map[int]int{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/api/book", strings.NewReader(
				`{"trip_id":"`+id+`","passenger_name":"Siti","passenger_email":"siti@example.com","seats":1}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if statuses[200] != 12 {
		t.Errorf("expected 12 confirmed, got %v", statuses)
	}
	if statuses[409] != 8 {
		t.Errorf("expected 8 rejected, got %v", statuses)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/trips/"+id, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var view domain.TripView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.SeatsAvailable != 0 {
		t.Errorf("expected sold out, got %d", view.SeatsAvailable)
	}
}

func TestReady_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
