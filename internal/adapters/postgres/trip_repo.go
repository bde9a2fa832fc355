package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

const tripColumns = `id, seq, from_city, to_city, service_date, bus_operator,
	departure_time, arrival_time, price, seats_total, amenities, created_at`

func (r *TripRepo) Insert(ctx context.Context, t *domain.Trip) error {
	amenities := t.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO trips (id, from_city, to_city, service_date, bus_operator,
		                   departure_time, arrival_time, price, seats_total, amenities)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10)
		RETURNING seq, created_at
	`, t.ID, t.FromCity, t.ToCity, t.Date, t.Operator,
		t.DepartureTime, t.ArrivalTime, t.Price, t.SeatsTotal, amenities,
	).Scan(&t.Seq, &t.CreatedAt)
	return mapError(err, "trip", t.ID)
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	t, err := scanTrip(row)
	if err != nil {
		return nil, mapError(err, "trip", id)
	}
	return t, nil
}

func (r *TripRepo) FindByRoute(ctx context.Context, originKey, destinationKey, date string) ([]domain.Trip, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE lower(trim(from_city)) = $1
		  AND lower(trim(to_city)) = $2
		  AND service_date = $3::date
		ORDER BY seq
	`, originKey, destinationKey, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	var date time.Time
	if err := row.Scan(&t.ID, &t.Seq, &t.FromCity, &t.ToCity, &date, &t.Operator,
		&t.DepartureTime, &t.ArrivalTime, &t.Price, &t.SeatsTotal, &t.Amenities, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Date = date.Format("2006-01-02")
	return &t, nil
}
