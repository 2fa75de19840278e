package travel

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/knowledge"
	"github.com/hupe1980/travelmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*Catalog, *MemoryInventory) {
	t.Helper()

	kb := knowledge.NewInMemoryStore()
	require.NoError(t, knowledge.Seed(kb))

	inv := NewMemoryInventory(DefaultSeed())
	c := NewCatalog(inv, kb, func(o *CatalogOptions) {
		o.Now = func() time.Time { return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC) }
	})

	return c, inv
}

func call(t *testing.T, c *Catalog, userID, name string, args map[string]any) (any, error) {
	t.Helper()

	tl, ok := c.Tool(name)
	require.True(t, ok, "tool %s missing", name)

	uc := map[string]string{}
	if userID != "" {
		uc["user_id"] = userID
		uc["name"] = "Ada"
		uc["email"] = "ada@example.com"
	}

	tc := core.NewToolContext(context.Background(), "thread-1", "hotel", "call-1", uc, nil)

	return tl.Call(tc, args)
}

func codeOf(t *testing.T, err error) string {
	t.Helper()

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)

	return toolErr.Code
}

func TestCatalog_Names(t *testing.T) {
	c, _ := newTestCatalog(t)

	for _, n := range []string{
		"get_hotels", "search_hotels_by_location", "get_hotel_details", "check_available_rooms",
		"book_hotel_room", "process_hotel_payment", "check_unpaid_bookings", "get_booking_details",
		"cancel_hotel_booking", "get_flights", "search_flights_by_route", "get_flight_details",
		"book_flight", "process_flight_payment", "cancel_flight_booking", "get_tours",
		"search_tours_by_destination", "get_tour_details", "check_tour_availability", "book_tour",
		"process_tour_payment", "cancel_tour_booking", "get_user_booking_history",
		"search_currency_rates", "search_travel_articles", "search_general_info",
	} {
		_, ok := c.Tool(n)
		assert.True(t, ok, n)
	}

	_, err := c.Tools("get_hotels", "nope")
	assert.Error(t, err)
}

func TestCatalog_HotelBookingFlow(t *testing.T) {
	c, inv := newTestCatalog(t)

	out, err := call(t, c, "u1", "book_hotel_room", map[string]any{
		"hotel_id": 2.0, "check_in_date": "2026-02-01", "check_out_date": "2026-02-03", "room_type": "ocean view",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Hotel booking created")
	assert.Contains(t, out, "Ocean View")

	bookings, err := inv.ListBookings(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Ada", bookings[0].Name)

	out, err = call(t, c, "u1", "check_unpaid_bookings", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "payment unpaid")

	_, err = call(t, c, "u1", "process_hotel_payment", map[string]any{"booking_id": 1.0, "payment_method": "cash"})
	assert.Equal(t, tool.CodeValidation, codeOf(t, err))

	out, err = call(t, c, "u1", "process_hotel_payment", map[string]any{"booking_id": 1.0, "payment_method": "e_wallet"})
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed")

	out, err = call(t, c, "u1", "check_unpaid_bookings", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "You have no unpaid bookings.", out)

	_, err = call(t, c, "u1", "cancel_flight_booking", map[string]any{"booking_id": 1.0})
	assert.Equal(t, tool.CodeNotFound, codeOf(t, err))

	_, err = call(t, c, "u2", "cancel_hotel_booking", map[string]any{"booking_id": 1.0})
	assert.Equal(t, tool.CodeNotFound, codeOf(t, err))

	out, err = call(t, c, "u1", "cancel_hotel_booking", map[string]any{"booking_id": 1.0})
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	_, err = call(t, c, "u1", "cancel_hotel_booking", map[string]any{"booking_id": 1.0})
	assert.Equal(t, tool.CodeValidation, codeOf(t, err))
}

func TestCatalog_Validation(t *testing.T) {
	c, _ := newTestCatalog(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		code string
	}{
		{"missing required", "get_hotel_details", map[string]any{}, tool.CodeValidation},
		{"unknown hotel", "get_hotel_details", map[string]any{"hotel_id": 9.0}, tool.CodeNotFound},
		{"bad date", "book_flight", map[string]any{"flight_id": 1.0, "departure_date": "tomorrow"}, tool.CodeValidation},
		{"past date", "book_tour", map[string]any{"tour_id": 1.0, "tour_date": "2025-06-01"}, tool.CodeValidation},
		{"checkout before checkin", "check_available_rooms", map[string]any{"hotel_id": 1.0, "check_in_date": "2026-02-05", "check_out_date": "2026-02-04"}, tool.CodeValidation},
		{"unknown room type", "book_hotel_room", map[string]any{"hotel_id": 1.0, "check_in_date": "2026-02-01", "check_out_date": "2026-02-02", "room_type": "Penthouse"}, tool.CodeNotFound},
		{"bad booking type", "get_booking_details", map[string]any{"booking_id": 1.0, "booking_type": "car"}, tool.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, c, "u1", tt.tool, tt.args)
			assert.Equal(t, tt.code, codeOf(t, err))
		})
	}
}

func TestCatalog_AnonymousBookingNeedsIdentity(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := call(t, c, "", "book_tour", map[string]any{"tour_id": 1.0, "tour_date": "2026-03-01"})
	assert.Equal(t, tool.CodeValidation, codeOf(t, err))

	out, err := call(t, c, "", "book_tour", map[string]any{
		"tour_id": 1.0, "tour_date": "2026-03-01", "name": "Bo", "email": "bo@example.com", "participants": 2.0,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "x2")

	_, err = call(t, c, "", "get_user_booking_history", map[string]any{})
	assert.Equal(t, tool.CodeValidation, codeOf(t, err))
}

func TestCatalog_Searches(t *testing.T) {
	c, _ := newTestCatalog(t)

	out, err := call(t, c, "", "search_currency_rates", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "1. USD to IDR")

	out, err = call(t, c, "", "search_travel_articles", map[string]any{"destination": "Bali"})
	require.NoError(t, err)
	assert.Contains(t, out, "Bali travel guide")

	out, err = call(t, c, "", "search_general_info", map[string]any{"query": "zzzz"})
	require.NoError(t, err)
	assert.Contains(t, out, "No information found")

	out, err = call(t, c, "", "search_flights_by_route", map[string]any{"origin": "Bali", "destination": "Yogya"})
	require.NoError(t, err)
	assert.Contains(t, out, "QG100")
}
