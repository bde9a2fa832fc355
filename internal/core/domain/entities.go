package domain

import (
	"fmt"
	"time"
)

// Trip is a single scheduled bus departure on a route with fixed capacity and price.
type Trip struct {
	ID            string    `json:"id"`
	FromCity      string    `json:"from_city"`
	ToCity        string    `json:"to_city"`
	Date          string    `json:"date"`
	Operator      string    `json:"bus_operator"`
	DepartureTime string    `json:"departure_time"`
	ArrivalTime   string    `json:"arrival_time"`
	Price         int64     `json:"price"` // minor currency units
	SeatsTotal    int       `json:"seats_total"`
	Amenities     []string  `json:"amenities"`
	Seq           int64     `json:"seq,omitempty"` // insertion order
	CreatedAt     time.Time `json:"created_at"`
}

// TripDraft is the caller-supplied part of a Trip before identity is assigned.
type TripDraft struct {
	FromCity      string
	ToCity        string
	Date          string
	Operator      string
	DepartureTime string
	ArrivalTime   string
	Price         int64
	SeatsTotal    int
	Amenities     []string
}

// SeedRequest inserts a trip with part of its capacity already reserved.
type SeedRequest struct {
	TripDraft
	SeatsAvailable int
}

// TripView joins a trip with its live seat availability.
type TripView struct {
	ID             string   `json:"id"`
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

// NewTripView builds the view of t with the given availability.
func NewTripView(t Trip, available int) TripView {
	amenities := t.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return TripView{
		ID:             t.ID,
		FromCity:       t.FromCity,
		ToCity:         t.ToCity,
		Date:           t.Date,
		Operator:       t.Operator,
		DepartureTime:  t.DepartureTime,
		ArrivalTime:    t.ArrivalTime,
		Price:          t.Price,
		SeatsTotal:     t.SeatsTotal,
		SeatsAvailable: available,
		Amenities:      amenities,
	}
}

// SearchQuery selects trips on one route and service date.
type SearchQuery struct {
	Origin      string
	Destination string
	Date        string
}

// BookingStatus is the terminal state of a booking attempt.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
)

// BookingRequest is one passenger's request to reserve seats on a trip.
type BookingRequest struct {
	TripID         string
	PassengerName  string
	PassengerEmail string
	Seats          int
}

// Booking records a confirmed or rejected booking attempt.
type Booking struct {
	ID             string        `json:"id"`
	TripID         string        `json:"trip_id"`
	PassengerName  string        `json:"passenger_name"`
	PassengerEmail string        `json:"passenger_email"`
	Seats          int           `json:"seats"`
	Status         BookingStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Message returns the human-readable outcome shown to the passenger.
func (b *Booking) Message() string {
	if b.Status == BookingConfirmed {
		return fmt.Sprintf("Booking %s confirmed: %d seat(s) for %s. Confirmation sent to %s.",
			b.ID, b.Seats, b.PassengerName, b.PassengerEmail)
	}
	if b.Reason != "" {
		return "Booking rejected: " + b.Reason
	}
	return "Booking rejected"
}

// BookingEvent is published for every booking attempt.
type BookingEvent struct {
	BookingID      string        `json:"booking_id,omitempty"`
	TripID         string        `json:"trip_id"`
	Seats          int           `json:"seats"`
	Status         BookingStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
	SeatsAvailable *int          `json:"seats_available,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}
