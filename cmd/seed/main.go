package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/tripbook/internal/adapters/postgres"
	"github.com/samirrijal/tripbook/internal/core/domain"
	"github.com/samirrijal/tripbook/internal/core/usecases"
	"github.com/samirrijal/tripbook/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists the routes to seed and the departures each route receives.
type Manifest struct {
	Source string       `json:"source"`
	Date   string       `json:"date,omitempty"`
	Routes []RouteEntry `json:"routes"`
	Trips  []TripEntry  `json:"trips"`
}

type RouteEntry struct {
	FromCity string `json:"from_city"`
	ToCity   string `json:"to_city"`
}

type TripEntry struct {
	Operator       string   `json:"bus_operator"`
	DepartureTime  string   `json:"departure_time"`
	ArrivalTime    string   `json:"arrival_time"`
	Price          int64    `json:"price"`
	SeatsTotal     int      `json:"seats_total"`
	SeatsAvailable *int     `json:"seats_available,omitempty"`
	Amenities      []string `json:"amenities"`
}

// seedPayload is the body accepted by POST /api/admin/seed.
type seedPayload struct {
	FromCity       string   `json:"from_city"`
	ToCity         string   `json:"to_city"`
	Date           string   `json:"date"`
	Operator       string   `json:"bus_operator"`
	DepartureTime  string   `json:"departure_time"`
	ArrivalTime    string   `json:"arrival_time"`
	Price          int64    `json:"price"`
	SeatsTotal     int      `json:"seats_total"`
	SeatsAvailable int      `json:"seats_available"`
	Amenities      []string `json:"amenities"`
}

func (p seedPayload) toDomain() domain.SeedRequest {
	return domain.SeedRequest{
		TripDraft: domain.TripDraft{
			FromCity:      p.FromCity,
			ToCity:        p.ToCity,
			Date:          p.Date,
			Operator:      p.Operator,
			DepartureTime: p.DepartureTime,
			ArrivalTime:   p.ArrivalTime,
			Price:         p.Price,
			SeatsTotal:    p.SeatsTotal,
			Amenities:     p.Amenities,
		},
		SeatsAvailable: p.SeatsAvailable,
	}
}

// expand crosses every route with every trip template. An empty manifest
// date means tomorrow.
func expand(m Manifest, now time.Time) []seedPayload {
	date := m.Date
	if date == "" {
		date = now.AddDate(0, 0, 1).Format("2006-01-02")
	}

	out := make([]seedPayload, 0, len(m.Routes)*len(m.Trips))
	for _, r := range m.Routes {
		for _, t := range m.Trips {
			available := t.SeatsTotal
			if t.SeatsAvailable != nil {
				available = *t.SeatsAvailable
			}
			out = append(out, seedPayload{
				FromCity:       r.FromCity,
				ToCity:         r.ToCity,
				Date:           date,
				Operator:       t.Operator,
				DepartureTime:  t.DepartureTime,
				ArrivalTime:    t.ArrivalTime,
				Price:          t.Price,
				SeatsTotal:     t.SeatsTotal,
				SeatsAvailable: available,
				Amenities:      t.Amenities,
			})
		}
	}
	return out
}

// seeder submits one trip and returns its id.
type seeder func(ctx context.Context, p seedPayload) (string, error)

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("tripbook-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	manifestPath := "seeds/sample_trips.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	payloads := expand(manifest, time.Now())
	log.Printf("Tripbook seeder: %d trips from %s", len(payloads), manifest.Source)

	// Optional second argument: base URL of a running API.
	var seed seeder
	if len(os.Args) > 2 {
		seed = apiSeeder(strings.TrimRight(os.Args[2], "/"))
	} else {
		db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		seed = catalogSeeder(db, cfg.Booking.MaxSeats)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, 4) // max 4 concurrent inserts

	for _, p := range payloads {
		wg.Add(1)
		go func(p seedPayload) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			id, err := seed(ctx, p)
			if err != nil {
				log.Printf("ERROR [%s %s→%s %s]: %v", p.Operator, p.FromCity, p.ToCity, p.DepartureTime, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			log.Printf("[%s %s→%s %s] trip_id=%s", p.Operator, p.FromCity, p.ToCity, p.DepartureTime, id)
		}(p)
	}

	wg.Wait()
	if failed > 0 {
		log.Fatalf("seeding finished with %d failures", failed)
	}
	log.Println("seeding complete")
}

func catalogSeeder(db *postgres.DB, maxSeats int) seeder {
	ledger := usecases.NewLedger(postgres.NewLedgerRepo(db), maxSeats)
	catalog := usecases.NewCatalogService(postgres.NewTripRepo(db), ledger, nil)
	return func(ctx context.Context, p seedPayload) (string, error) {
		return catalog.Seed(ctx, p.toDomain())
	}
}

func apiSeeder(baseURL string) seeder {
	client := &http.Client{Timeout: 30 * time.Second}
	return func(ctx context.Context, p seedPayload) (string, error) {
		body, err := json.Marshal(p)
		if err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/admin/seed", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("post seed: %w", err)
		}
		defer resp.Body.Close()

		var out struct {
			ID     string `json:"id"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if resp.StatusCode != http.StatusCreated {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, out.Detail)
		}
		return out.ID, nil
	}
}
