package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/tripbook/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"from_city":       &graphql.Field{Type: graphql.String},
			"to_city":         &graphql.Field{Type: graphql.String},
			"date":            &graphql.Field{Type: graphql.String},
			"bus_operator":    &graphql.Field{Type: graphql.String},
			"departure_time":  &graphql.Field{Type: graphql.String},
			"arrival_time":    &graphql.Field{Type: graphql.String},
			"price":           &graphql.Field{Type: graphql.Float},
			"seats_total":     &graphql.Field{Type: graphql.Int},
			"seats_available": &graphql.Field{Type: graphql.Int},
			"amenities":       &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	bookingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Booking",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"trip_id":         &graphql.Field{Type: graphql.String},
			"passenger_name":  &graphql.Field{Type: graphql.String},
			"passenger_email": &graphql.Field{Type: graphql.String},
			"seats":           &graphql.Field{Type: graphql.Int},
			"status":          &graphql.Field{Type: graphql.String},
		},
	})

	bookResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BookResult",
		Fields: graphql.Fields{
			"booking_id": &graphql.Field{Type: graphql.String},
			"status":     &graphql.Field{Type: graphql.String},
			"message":    &graphql.Field{Type: graphql.String},
			"code":       &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"search": &graphql.Field{
				Type:        graphql.NewList(tripType),
				Description: "Trips on a route and date ordered by departure time",
				Args: graphql.FieldConfigArgument{
					"from_city": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to_city":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Search(p.Context, domain.SearchQuery{
						Origin:      p.Args["from_city"].(string),
						Destination: p.Args["to_city"].(string),
						Date:        p.Args["date"].(string),
					})
				},
			},
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "Get a trip by ID with live availability",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Trip(p.Context, p.Args["id"].(string))
				},
			},
			"booking": &graphql.Field{
				Type:        bookingType,
				Description: "Get a confirmed booking by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Bookings.GetBooking(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"book": &graphql.Field{
				Type:        bookResultType,
				Description: "Reserve seats on a trip. Rejections are returned as a result, not an error.",
				Args: graphql.FieldConfigArgument{
					"trip_id":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"passenger_name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"passenger_email": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"seats":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					booking, err := deps.booker().Book(p.Context, domain.BookingRequest{
						TripID:         p.Args["trip_id"].(string),
						PassengerName:  p.Args["passenger_name"].(string),
						PassengerEmail: p.Args["passenger_email"].(string),
						Seats:          p.Args["seats"].(int),
					})
					if err != nil && (domain.IsPersistence(err) || domain.Kind(err) == "internal_error") {
						return nil, errors.New("service temporarily unavailable, please retry")
					}
					result := map[string]interface{}{
						"booking_id": booking.ID,
						"status":     string(booking.Status),
						"message":    booking.Message(),
					}
					if err != nil {
						result["booking_id"] = nil
						result["code"] = domain.Kind(err)
					}
					return result, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errValidation(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
