package domain

import (
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxSeatsPerBooking caps a single reservation when no limit is configured.
const DefaultMaxSeatsPerBooking = 6

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// CityKey normalizes a city name for exact, case-insensitive matching.
func CityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// ValidateDate checks a YYYY-MM-DD service date.
func ValidateDate(date string) error {
	if strings.TrimSpace(date) == "" {
		return ValidationError{Field: "date", Msg: "is required"}
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	return nil
}

// ClockMinutes converts an HH:MM local time into minutes after midnight.
func ClockMinutes(clock string) (int, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, ValidationError{Field: "time", Msg: "must be HH:MM"}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateSeatCount checks that count is within [1, max].
func ValidateSeatCount(count, max int) error {
	if max <= 0 {
		max = DefaultMaxSeatsPerBooking
	}
	if count < 1 || count > max {
		return ValidationError{Field: "seats", Msg: "must be between 1 and " + strconv.Itoa(max)}
	}
	return nil
}

// Validate checks the draft before it enters the catalog.
func (d TripDraft) Validate() error {
	if strings.TrimSpace(d.FromCity) == "" {
		return ValidationError{Field: "from_city", Msg: "is required"}
	}
	if strings.TrimSpace(d.ToCity) == "" {
		return ValidationError{Field: "to_city", Msg: "is required"}
	}
	if CityKey(d.FromCity) == CityKey(d.ToCity) {
		return ValidationError{Field: "to_city", Msg: "must differ from from_city"}
	}
	if err := ValidateDate(d.Date); err != nil {
		return err
	}
	if strings.TrimSpace(d.Operator) == "" {
		return ValidationError{Field: "bus_operator", Msg: "is required"}
	}
	if _, err := ClockMinutes(d.DepartureTime); err != nil {
		return ValidationError{Field: "departure_time", Msg: "must be HH:MM"}
	}
	// Arrival is only checked for shape; it may precede departure (overnight runs).
	if _, err := ClockMinutes(d.ArrivalTime); err != nil {
		return ValidationError{Field: "arrival_time", Msg: "must be HH:MM"}
	}
	if d.Price < 0 {
		return ValidationError{Field: "price", Msg: "must not be negative"}
	}
	if d.SeatsTotal <= 0 {
		return ValidationError{Field: "seats_total", Msg: "must be positive"}
	}
	return nil
}

// Validate checks the seed request, including the reservation offset.
func (r SeedRequest) Validate() error {
	if err := r.TripDraft.Validate(); err != nil {
		return err
	}
	if r.SeatsAvailable < 0 || r.SeatsAvailable > r.SeatsTotal {
		return ValidationError{Field: "seats_available", Msg: "must be between 0 and seats_total"}
	}
	return nil
}

// Validate checks passenger details and the seat count against max.
func (r BookingRequest) Validate(max int) error {
	if strings.TrimSpace(r.TripID) == "" {
		return ValidationError{Field: "trip_id", Msg: "is required"}
	}
	if strings.TrimSpace(r.PassengerName) == "" {
		return ValidationError{Field: "passenger_name", Msg: "is required"}
	}
	email := strings.TrimSpace(r.PassengerEmail)
	if email == "" {
		return ValidationError{Field: "passenger_email", Msg: "is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ValidationError{Field: "passenger_email", Msg: "is not a valid address"}
	}
	return ValidateSeatCount(r.Seats, max)
}

// Validate checks the search query.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Origin) == "" {
		return ValidationError{Field: "from_city", Msg: "is required"}
	}
	if strings.TrimSpace(q.Destination) == "" {
		return ValidationError{Field: "to_city", Msg: "is required"}
	}
	return ValidateDate(q.Date)
}
