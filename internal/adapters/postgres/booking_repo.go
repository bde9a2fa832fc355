package postgres

import (
	"context"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// BookingRepo implements ports.BookingRepository.
type BookingRepo struct {
	db *DB
}

func NewBookingRepo(db *DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO bookings (id, trip_id, passenger_name, passenger_email, seats, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.TripID, b.PassengerName, b.PassengerEmail, b.Seats, string(b.Status), b.CreatedAt)
	return mapError(err, "booking", b.ID)
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, trip_id, passenger_name, passenger_email, seats, status, created_at
		FROM bookings WHERE id = $1
	`, id).Scan(&b.ID, &b.TripID, &b.PassengerName, &b.PassengerEmail, &b.Seats, &status, &b.CreatedAt)
	if err != nil {
		return nil, mapError(err, "booking", id)
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}
