package http_test

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func gql(t *testing.T, app *fiber.App, query string) gqlResponse {
	t.Helper()
	status, body := postJSON(t, app, "/graphql", map[string]string{"query": query})
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var out gqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return out
}

func TestGraphQL_SearchAndTrip(t *testing.T) {
	app := setupApp(makeDeps())
	id := seedTrip(t, app, "BlueLine Express", "07:30", 85000, 40, 25)
	seedTrip(t, app, "Maju Lancar", "18:30", 110000, 45, 30)

	out := gql(t, app, `{ search(from_city: "Jakarta", to_city: "bandung", date: "2024-06-01") { id bus_operator seats_available amenities } }`)
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors %v", out.Errors)
	}
	var trips []struct {
		ID             string   `json:"id"`
		Operator       string   `json:"bus_operator"`
		SeatsAvailable int      `json:"seats_available"`
		Amenities      []string `json:"amenities"`
	}
	if err := json.Unmarshal(out.Data["search"], &trips); err != nil {
		t.Fatal(err)
	}
	if len(trips) != 2 || trips[0].ID != id || trips[0].SeatsAvailable != 25 {
		t.Fatalf("unexpected trips %+v", trips)
	}

	out = gql(t, app, `{ trip(id: "`+id+`") { bus_operator seats_total } }`)
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors %v", out.Errors)
	}
}

func TestGraphQL_BookMutation(t *testing.T) {
	app := setupApp(makeDeps())
	id := seedTrip(t, app, "Nusantara Bus", "12:00", 95000, 36, 2)

	mutation := `mutation { book(trip_id: "` + id + `", passenger_name: "Siti", passenger_email: "siti@example.com", seats: 2) { booking_id status message code } }`
	out := gql(t, app, mutation)
	var res struct {
		BookingID *string `json:"booking_id"`
		Status    string  `json:"status"`
		Code      *string `json:"code"`
	}
	if err := json.Unmarshal(out.Data["book"], &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != "confirmed" || res.BookingID == nil {
		t.Fatalf("unexpected result %+v", res)
	}

	// Sold out now: a rejection is a result, not a GraphQL error.
	out = gql(t, app, mutation)
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors %v", out.Errors)
	}
	if err := json.Unmarshal(out.Data["book"], &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != "rejected" || res.Code == nil || *res.Code != "insufficient_seats" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGraphQL_UnknownBooking(t *testing.T) {
	app := setupApp(makeDeps())

	out := gql(t, app, `{ booking(id: "missing") { id } }`)
	if len(out.Errors) == 0 {
		t.Fatal("expected an error for an unknown booking")
	}
}
