package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// searchRequest accepts both from_city/to_city and origin/destination keys.
type searchRequest struct {
	FromCity    string `json:"from_city" query:"from_city"`
	Origin      string `json:"origin" query:"origin"`
	ToCity      string `json:"to_city" query:"to_city"`
	Destination string `json:"destination" query:"destination"`
	Date        string `json:"date" query:"date"`
}

func (r searchRequest) query() domain.SearchQuery {
	q := domain.SearchQuery{Origin: r.FromCity, Destination: r.ToCity, Date: strings.TrimSpace(r.Date)}
	if strings.TrimSpace(q.Origin) == "" {
		q.Origin = r.Origin
	}
	if strings.TrimSpace(q.Destination) == "" {
		q.Destination = r.Destination
	}
	return q
}

// SearchHandler returns trips for a route and date ordered by departure time.
// POST takes a JSON body, GET takes query parameters.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req searchRequest
		if c.Method() == fiber.MethodGet {
			if err := c.QueryParser(&req); err != nil {
				return errValidation(c, "invalid query parameters")
			}
		} else if err := c.BodyParser(&req); err != nil {
			return errValidation(c, "invalid request body")
		}

		trips, err := deps.Search.Search(c.UserContext(), req.query())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(trips)
	}
}

type bookRequest struct {
	TripID         string `json:"trip_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	Seats          int    `json:"seats"`
}

// BookResponse is returned for a confirmed booking.
type BookResponse struct {
	Message   string `json:"message"`
	BookingID string `json:"booking_id"`
}

// BookHandler commits a booking and returns the confirmation message.
func BookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bookRequest
		if err := c.BodyParser(&req); err != nil {
			return errValidation(c, "invalid request body")
		}

		booking, err := deps.booker().Book(c.UserContext(), domain.BookingRequest{
			TripID:         req.TripID,
			PassengerName:  req.PassengerName,
			PassengerEmail: req.PassengerEmail,
			Seats:          req.Seats,
		})
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(BookResponse{Message: booking.Message(), BookingID: booking.ID})
	}
}

type seedRequest struct {
	FromCity       string   `json:"from_city"`
	ToCity         string   `json:"to_city"`
	Date           string   `json:"date"`
	Operator       string   `json:"bus_operator"`
	DepartureTime  string   `json:"departure_time"`
	ArrivalTime    string   `json:"arrival_time"`
	Price          int64    `json:"price"`
	SeatsTotal     int      `json:"seats_total"`
	SeatsAvailable *int     `json:"seats_available"`
	Amenities      []string `json:"amenities"`
}

func (r seedRequest) toDomain() domain.SeedRequest {
	available := r.SeatsTotal
	if r.SeatsAvailable != nil {
		available = *r.SeatsAvailable
	}
	return domain.SeedRequest{
		TripDraft: domain.TripDraft{
			FromCity:      r.FromCity,
			ToCity:        r.ToCity,
			Date:          r.Date,
			Operator:      r.Operator,
			DepartureTime: r.DepartureTime,
			ArrivalTime:   r.ArrivalTime,
			Price:         r.Price,
			SeatsTotal:    r.SeatsTotal,
			Amenities:     r.Amenities,
		},
		SeatsAvailable: available,
	}
}

// SeedHandler inserts one trip. Omitting seats_available leaves every seat free.
func SeedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req seedRequest
		if err := c.BodyParser(&req); err != nil {
			return errValidation(c, "invalid request body")
		}

		id, err := deps.Catalog.Seed(c.UserContext(), req.toDomain())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}

// GetTripHandler returns one trip with live availability.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Search.Trip(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(trip)
	}
}

// GetBookingHandler returns a stored booking.
func GetBookingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		booking, err := deps.Bookings.GetBooking(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(booking)
	}
}
