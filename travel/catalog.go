package travel

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/knowledge"
	"github.com/hupe1980/travelmesh/tool"
)

const dateLayout = "2006-01-02"

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{"bank_transfer", "credit_card", "e_wallet"}

// CatalogOptions configures a Catalog.
type CatalogOptions struct {
	// Now is the clock used for date checks. Defaults to time.Now.
	Now func() time.Time
	// SearchLimit caps knowledge base hits per lookup.
	SearchLimit int
}

// Catalog is the registry of domain tools. Tools are created once and shared
// by every agent definition that lists them.
type Catalog struct {
	inv   Inventory
	kb    knowledge.Searcher
	opts  CatalogOptions
	tools map[string]tool.Tool
}

// NewCatalog builds every domain tool over inv and kb.
func NewCatalog(inv Inventory, kb knowledge.Searcher, optFns ...func(o *CatalogOptions)) *Catalog {
	opts := CatalogOptions{
		Now:         time.Now,
		SearchLimit: 3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Catalog{
		inv:   inv,
		kb:    kb,
		opts:  opts,
		tools: make(map[string]tool.Tool),
	}

	c.registerHotelTools()
	c.registerFlightTools()
	c.registerTourTools()
	c.registerBookingTools()
	c.registerSearchTools()

	return c
}

// Tool returns the named tool.
func (c *Catalog) Tool(name string) (tool.Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Tools resolves names in order. Unknown names are an error.
func (c *Catalog) Tools(names ...string) ([]tool.Tool, error) {
	out := make([]tool.Tool, 0, len(names))
	for _, n := range names {
		t, ok := c.tools[n]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}

// Names returns all registered tool names sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for n := range c.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// add registers a struct-schema tool. Inventory errors are mapped to tool
// error codes so the model sees a stable category.
func (c *Catalog) add(name, description string, args any, fn func(tc *core.ToolContext, args map[string]any) (string, error)) {
	c.tools[name] = tool.NewFunctionToolFromStruct(name, description, args,
		func(tc *core.ToolContext, a map[string]any) (any, error) {
			out, err := fn(tc, a)
			if err == nil {
				return out, nil
			}

			switch {
			case errors.Is(err, ErrNotFound):
				return nil, tool.NewToolError(name, err.Error(), tool.CodeNotFound)
			case errors.Is(err, ErrBookingState):
				return nil, tool.NewToolError(name, err.Error(), tool.CodeValidation)
			default:
				var vErr *tool.ValidationError
				if errors.As(err, &vErr) {
					return nil, tool.NewToolError(name, vErr.Error(), tool.CodeValidation)
				}
				return nil, err
			}
		})
}

type emptyArgs struct{}

type locationArgs struct {
	Location string `json:"location" description:"City or area, e.g. Bali"`
}

type hotelIDArgs struct {
	HotelID int64 `json:"hotel_id" description:"Hotel id"`
}

type roomAvailabilityArgs struct {
	HotelID      int64  `json:"hotel_id" description:"Hotel id"`
	CheckInDate  string `json:"check_in_date" description:"Check-in date (YYYY-MM-DD)" format:"date"`
	CheckOutDate string `json:"check_out_date" description:"Check-out date (YYYY-MM-DD)" format:"date"`
	Guests       int    `json:"guests,omitempty" description:"Number of guests"`
}

type bookHotelArgs struct {
	HotelID      int64  `json:"hotel_id" description:"Hotel id"`
	CheckInDate  string `json:"check_in_date" description:"Check-in date (YYYY-MM-DD)" format:"date"`
	CheckOutDate string `json:"check_out_date" description:"Check-out date (YYYY-MM-DD)" format:"date"`
	RoomType     string `json:"room_type" description:"Room type as listed by check_available_rooms"`
	Rooms        int    `json:"rooms,omitempty" description:"Number of rooms"`
	Guests       int    `json:"guests,omitempty" description:"Number of guests"`
	Name         string `json:"name,omitempty" description:"Guest name, defaults to the signed in user"`
	Email        string `json:"email,omitempty" description:"Guest email, defaults to the signed in user"`
}

type paymentArgs struct {
	BookingID     int64  `json:"booking_id" description:"Booking id"`
	PaymentMethod string `json:"payment_method" description:"Payment method" enum:"bank_transfer,credit_card,e_wallet"`
}

type bookingIDArgs struct {
	BookingID int64 `json:"booking_id" description:"Booking id"`
}

type bookingDetailsArgs struct {
	BookingID   int64  `json:"booking_id" description:"Booking id"`
	BookingType string `json:"booking_type" description:"Kind of booking" enum:"hotel,flight,tour"`
}

type userArgs struct {
	UserID string `json:"user_id,omitempty" description:"User id, defaults to the signed in user"`
}

type routeArgs struct {
	Origin      string `json:"origin" description:"Departure city"`
	Destination string `json:"destination" description:"Arrival city"`
	Date        string `json:"date,omitempty" description:"Departure date (YYYY-MM-DD)" format:"date"`
}

type flightIDArgs struct {
	FlightID int64 `json:"flight_id" description:"Flight id"`
}

type bookFlightArgs struct {
	FlightID      int64  `json:"flight_id" description:"Flight id"`
	DepartureDate string `json:"departure_date" description:"Departure date (YYYY-MM-DD)" format:"date"`
	SeatClass     string `json:"seat_class,omitempty" description:"Seat class" enum:"economy,business,first"`
	Passengers    int    `json:"passengers,omitempty" description:"Number of passengers"`
	Name          string `json:"name,omitempty" description:"Passenger name, defaults to the signed in user"`
	Email         string `json:"email,omitempty" description:"Passenger email, defaults to the signed in user"`
}

type destinationArgs struct {
	Destination string `json:"destination" description:"Tour destination"`
}

type tourIDArgs struct {
	TourID int64 `json:"tour_id" description:"Tour id"`
}

type tourAvailabilityArgs struct {
	TourID int64  `json:"tour_id" description:"Tour id"`
	Date   string `json:"date" description:"Tour date (YYYY-MM-DD)" format:"date"`
}

type bookTourArgs struct {
	TourID       int64  `json:"tour_id" description:"Tour id"`
	TourDate     string `json:"tour_date" description:"Tour date (YYYY-MM-DD)" format:"date"`
	Participants int    `json:"participants,omitempty" description:"Number of participants"`
	Name         string `json:"name,omitempty" description:"Participant name, defaults to the signed in user"`
	Email        string `json:"email,omitempty" description:"Participant email, defaults to the signed in user"`
}

type currencyArgs struct {
	CurrencyPair string `json:"currency_pair,omitempty" description:"Currency pair, e.g. USD to IDR"`
}

type articleArgs struct {
	Destination string `json:"destination,omitempty" description:"Destination, e.g. Bali"`
	Topic       string `json:"topic,omitempty" description:"Topic, e.g. culinary, tips"`
}

type queryArgs struct {
	Query string `json:"query" description:"Question or topic to look up"`
}

func (c *Catalog) registerHotelTools() {
	c.add("get_hotels", "List all hotels.", emptyArgs{}, func(tc *core.ToolContext, _ map[string]any) (string, error) {
		hotels, err := c.inv.ListHotels(tc.Context())
		if err != nil {
			return "", err
		}
		return formatHotels(hotels), nil
	})

	c.add("search_hotels_by_location", "Search hotels by location.", locationArgs{}, func(tc *core.ToolContext, args map[string]any) (string, error) {
		hotels, err := c.inv.SearchHotels(tc.Context(), stringArg(args, "location"))
		if err != nil {
			return "", err
		}
		return formatHotels(hotels), nil
	})

	c.add("get_hotel_details", "Show a hotel with its room types.", hotelIDArgs{}, func(tc *core.ToolContext, args map[string]any) (string, error) {
		h, err := c.inv.GetHotel(tc.Context(), intArg(args, "hotel_id"))
		if err != nil {
			return "", err
		}
		rooms, err := c.inv.ListRooms(tc.Context(), h.ID)
		if err != nil {
			return "", err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s (id %d), %s, %s, rating %.1f\n", h.Name, h.ID, h.Location, h.Address, h.Rating)
		b.WriteString(formatRooms(rooms))
		return b.String(), nil
	})

	c.add("check_available_rooms", "Check which room types of a hotel are available for a stay.", roomAvailabilityArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			if _, _, err := c.stay(args["check_in_date"], args["check_out_date"]); err != nil {
				return "", err
			}

			rooms, err := c.inv.ListRooms(tc.Context(), intArg(args, "hotel_id"))
			if err != nil {
				return "", err
			}

			guests := max(int(intArg(args, "guests")), 1)

			var fit []Room
			for _, r := range rooms {
				if r.Available > 0 && r.Capacity >= guests {
					fit = append(fit, r)
				}
			}
			if len(fit) == 0 {
				return "No rooms available for the requested stay.", nil
			}
			return formatRooms(fit), nil
		})

	c.add("book_hotel_room", "Create a hotel booking. The booking stays unpaid until process_hotel_payment.", bookHotelArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			hotelID := intArg(args, "hotel_id")
			checkIn, checkOut, err := c.stay(args["check_in_date"], args["check_out_date"])
			if err != nil {
				return "", err
			}

			rooms, err := c.inv.ListRooms(tc.Context(), hotelID)
			if err != nil {
				return "", err
			}

			roomType := stringArg(args, "room_type")
			found := false
			for _, r := range rooms {
				if strings.EqualFold(r.Type, roomType) {
					roomType, found = r.Type, true
					break
				}
			}
			if !found {
				return "", fmt.Errorf("room type %q at hotel %d: %w", roomType, hotelID, ErrNotFound)
			}

			b, err := c.book(tc, args, Booking{
				Kind:      KindHotel,
				ItemID:    hotelID,
				StartDate: checkIn,
				EndDate:   checkOut,
				Detail:    roomType,
				Quantity:  int(intArg(args, "rooms")),
			})
			if err != nil {
				return "", err
			}
			return "Hotel booking created.\n" + formatBooking(b), nil
		})

	c.add("process_hotel_payment", "Pay a hotel booking.", paymentArgs{}, c.payment(KindHotel))
	c.add("cancel_hotel_booking", "Cancel a hotel booking.", bookingIDArgs{}, c.cancellation(KindHotel))
}

func (c *Catalog) registerFlightTools() {
	c.add("get_flights", "List all flights.", emptyArgs{}, func(tc *core.ToolContext, _ map[string]any) (string, error) {
		flights, err := c.inv.ListFlights(tc.Context())
		if err != nil {
			return "", err
		}
		return formatFlights(flights), nil
	})

	c.add("search_flights_by_route", "Search flights by origin and destination.", routeArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			if d := stringArg(args, "date"); d != "" {
				if _, err := c.futureDate("date", d); err != nil {
					return "", err
				}
			}
			flights, err := c.inv.SearchFlights(tc.Context(), stringArg(args, "origin"), stringArg(args, "destination"))
			if err != nil {
				return "", err
			}
			return formatFlights(flights), nil
		})

	c.add("get_flight_details", "Show a flight.", flightIDArgs{}, func(tc *core.ToolContext, args map[string]any) (string, error) {
		f, err := c.inv.GetFlight(tc.Context(), intArg(args, "flight_id"))
		if err != nil {
			return "", err
		}
		return formatFlights([]Flight{f}), nil
	})

	c.add("book_flight", "Create a flight booking. The booking stays unpaid until process_flight_payment.", bookFlightArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			f, err := c.inv.GetFlight(tc.Context(), intArg(args, "flight_id"))
			if err != nil {
				return "", err
			}

			date, err := c.futureDate("departure_date", stringArg(args, "departure_date"))
			if err != nil {
				return "", err
			}

			class := strings.ToLower(stringArg(args, "seat_class"))
			if class == "" {
				class = "economy"
			}

			b, err := c.book(tc, args, Booking{
				Kind:      KindFlight,
				ItemID:    f.ID,
				StartDate: date,
				Detail:    class,
				Quantity:  int(intArg(args, "passengers")),
			})
			if err != nil {
				return "", err
			}
			return "Flight booking created.\n" + formatBooking(b), nil
		})

	c.add("process_flight_payment", "Pay a flight booking.", paymentArgs{}, c.payment(KindFlight))
	c.add("cancel_flight_booking", "Cancel a flight booking.", bookingIDArgs{}, c.cancellation(KindFlight))
}

func (c *Catalog) registerTourTools() {
	c.add("get_tours", "List all tour packages.", emptyArgs{}, func(tc *core.ToolContext, _ map[string]any) (string, error) {
		tours, err := c.inv.ListTours(tc.Context())
		if err != nil {
			return "", err
		}
		return formatTours(tours), nil
	})

	c.add("search_tours_by_destination", "Search tour packages by destination.", destinationArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			tours, err := c.inv.SearchTours(tc.Context(), stringArg(args, "destination"))
			if err != nil {
				return "", err
			}
			return formatTours(tours), nil
		})

	c.add("get_tour_details", "Show a tour package.", tourIDArgs{}, func(tc *core.ToolContext, args map[string]any) (string, error) {
		t, err := c.inv.GetTour(tc.Context(), intArg(args, "tour_id"))
		if err != nil {
			return "", err
		}
		return formatTours([]Tour{t}), nil
	})

	c.add("check_tour_availability", "Check whether a tour runs on a date.", tourAvailabilityArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			t, err := c.inv.GetTour(tc.Context(), intArg(args, "tour_id"))
			if err != nil {
				return "", err
			}
			date, err := c.futureDate("date", stringArg(args, "date"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s runs on %s with up to %d participants.", t.Name, date, t.Capacity), nil
		})

	c.add("book_tour", "Create a tour booking. The booking stays unpaid until process_tour_payment.", bookTourArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			t, err := c.inv.GetTour(tc.Context(), intArg(args, "tour_id"))
			if err != nil {
				return "", err
			}
			date, err := c.futureDate("tour_date", stringArg(args, "tour_date"))
			if err != nil {
				return "", err
			}

			b, err := c.book(tc, args, Booking{
				Kind:      KindTour,
				ItemID:    t.ID,
				StartDate: date,
				Quantity:  int(intArg(args, "participants")),
			})
			if err != nil {
				return "", err
			}
			return "Tour booking created.\n" + formatBooking(b), nil
		})

	c.add("process_tour_payment", "Pay a tour booking.", paymentArgs{}, c.payment(KindTour))
	c.add("cancel_tour_booking", "Cancel a tour booking.", bookingIDArgs{}, c.cancellation(KindTour))
}

func (c *Catalog) registerBookingTools() {
	c.add("check_unpaid_bookings", "List the user's unpaid bookings with payment instructions.", userArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			bookings, err := c.userBookings(tc, args)
			if err != nil {
				return "", err
			}

			var unpaid []Booking
			for _, b := range bookings {
				if b.PaymentStatus == PaymentUnpaid && b.Status != StatusCancelled {
					unpaid = append(unpaid, b)
				}
			}
			if len(unpaid) == 0 {
				return "You have no unpaid bookings.", nil
			}

			var sb strings.Builder
			for _, b := range unpaid {
				sb.WriteString(formatBooking(b))
			}
			fmt.Fprintf(&sb, "Pay with one of: %s.", strings.Join(PaymentMethods, ", "))
			return sb.String(), nil
		})

	c.add("get_booking_details", "Show one booking.", bookingDetailsArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			kind, err := ParseKind(stringArg(args, "booking_type"))
			if err != nil {
				return "", &tool.ValidationError{Field: "booking_type", Value: args["booking_type"], Message: err.Error()}
			}
			b, err := c.ownedBooking(tc, intArg(args, "booking_id"), kind)
			if err != nil {
				return "", err
			}
			return formatBooking(b), nil
		})

	c.add("get_user_booking_history", "List every booking of the user.", userArgs{},
		func(tc *core.ToolContext, args map[string]any) (string, error) {
			bookings, err := c.userBookings(tc, args)
			if err != nil {
				return "", err
			}
			if len(bookings) == 0 {
				return "No bookings found.", nil
			}

			var sb strings.Builder
			for _, b := range bookings {
				sb.WriteString(formatBooking(b))
			}
			return sb.String(), nil
		})
}

func (c *Catalog) registerSearchTools() {
	c.add("search_currency_rates", "Look up indicative currency exchange rates.", currencyArgs{},
		func(_ *core.ToolContext, args map[string]any) (string, error) {
			pair := stringArg(args, "currency_pair")
			if pair == "" {
				pair = "USD to IDR"
			}
			return c.lookup(knowledge.Currency, pair)
		})

	c.add("search_travel_articles", "Find travel articles about a destination and topic.", articleArgs{},
		func(_ *core.ToolContext, args map[string]any) (string, error) {
			dest := stringArg(args, "destination")
			if dest == "" {
				dest = "Indonesia"
			}
			return c.lookup(knowledge.Articles, strings.TrimSpace(dest+" "+stringArg(args, "topic")))
		})

	c.add("search_general_info", "Look up general travel information not tied to a booking.", queryArgs{},
		func(_ *core.ToolContext, args map[string]any) (string, error) {
			return c.lookup(knowledge.General, stringArg(args, "query"))
		})
}

func (c *Catalog) lookup(collection, query string) (string, error) {
	if c.kb == nil {
		return "Search is not available right now.", nil
	}

	results, err := c.kb.Search(collection, query, c.opts.SearchLimit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No information found for %q.", query), nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s: %s", i+1, r.Title, r.Content)
		if r.Source != "" {
			fmt.Fprintf(&b, " (source: %s)", r.Source)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (c *Catalog) payment(kind Kind) func(tc *core.ToolContext, args map[string]any) (string, error) {
	return func(tc *core.ToolContext, args map[string]any) (string, error) {
		method := strings.ToLower(stringArg(args, "payment_method"))
		if !slices.Contains(PaymentMethods, method) {
			return "", &tool.ValidationError{
				Field:   "payment_method",
				Value:   args["payment_method"],
				Message: "must be one of " + strings.Join(PaymentMethods, ", "),
			}
		}

		b, err := c.ownedBooking(tc, intArg(args, "booking_id"), kind)
		if err != nil {
			return "", err
		}

		b, err = c.inv.MarkPaid(tc.Context(), b.ID, method)
		if err != nil {
			return "", err
		}
		return "Payment received, booking confirmed.\n" + formatBooking(b), nil
	}
}

func (c *Catalog) cancellation(kind Kind) func(tc *core.ToolContext, args map[string]any) (string, error) {
	return func(tc *core.ToolContext, args map[string]any) (string, error) {
		b, err := c.ownedBooking(tc, intArg(args, "booking_id"), kind)
		if err != nil {
			return "", err
		}

		b, err = c.inv.Cancel(tc.Context(), b.ID)
		if err != nil {
			return "", err
		}
		return "Booking cancelled.\n" + formatBooking(b), nil
	}
}

// ownedBooking loads a booking of kind. A booking of another user is reported
// as missing.
func (c *Catalog) ownedBooking(tc *core.ToolContext, id int64, kind Kind) (Booking, error) {
	b, err := c.inv.GetBooking(tc.Context(), id)
	if err != nil {
		return Booking{}, err
	}

	if b.Kind != kind {
		return Booking{}, fmt.Errorf("%s booking %d: %w", kind, id, ErrNotFound)
	}

	if uid, ok := tc.UserValue("user_id"); ok && uid != "" && b.UserID != "" && b.UserID != uid {
		return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}

	return b, nil
}

func (c *Catalog) userBookings(tc *core.ToolContext, args map[string]any) ([]Booking, error) {
	uid := stringArg(args, "user_id")
	if ctxUID, ok := tc.UserValue("user_id"); ok && ctxUID != "" {
		uid = ctxUID
	}
	if uid == "" {
		return nil, &tool.ValidationError{Field: "user_id", Message: "user is not signed in and no user_id was given"}
	}
	return c.inv.ListBookings(tc.Context(), uid)
}

// book fills the guest identity from args or the user context and stores b.
func (c *Catalog) book(tc *core.ToolContext, args map[string]any, b Booking) (Booking, error) {
	b.UserID, _ = tc.UserValue("user_id")
	b.Name = firstNonEmpty(stringArg(args, "name"), userValue(tc, "name"))
	b.Email = firstNonEmpty(stringArg(args, "email"), userValue(tc, "email"))

	if b.UserID == "" && (b.Name == "" || b.Email == "") {
		return Booking{}, &tool.ValidationError{Field: "name", Message: "guest name and email are required when the user is not signed in"}
	}

	return c.inv.CreateBooking(tc.Context(), b)
}

// stay validates a check-in / check-out pair.
func (c *Catalog) stay(in, out any) (string, string, error) {
	checkIn, err := c.futureDate("check_in_date", fmt.Sprint(in))
	if err != nil {
		return "", "", err
	}

	checkOut, err := parseDate("check_out_date", fmt.Sprint(out))
	if err != nil {
		return "", "", err
	}

	if !checkOut.After(mustDate(checkIn)) {
		return "", "", &tool.ValidationError{Field: "check_out_date", Value: out, Message: "must be after check_in_date"}
	}

	return checkIn, checkOut.Format(dateLayout), nil
}

func (c *Catalog) futureDate(field, s string) (string, error) {
	d, err := parseDate(field, s)
	if err != nil {
		return "", err
	}

	today := c.opts.Now().UTC().Truncate(24 * time.Hour)
	if d.Before(today) {
		return "", &tool.ValidationError{Field: field, Value: s, Message: "date lies in the past"}
	}

	return d.Format(dateLayout), nil
}

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &tool.ValidationError{Field: field, Value: s, Message: "use the format YYYY-MM-DD"}
	}
	return d, nil
}

func mustDate(s string) time.Time {
	d, _ := time.Parse(dateLayout, s)
	return d
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intArg(args map[string]any, key string) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func userValue(tc *core.ToolContext, key string) string {
	v, _ := tc.UserValue(key)
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
