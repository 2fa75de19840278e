package travel

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a hotel, flight, tour or booking does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBookingState is returned when a booking cannot change to the requested status.
	ErrBookingState = errors.New("invalid booking state")
)

// Kind identifies what a booking reserves.
type Kind string

const (
	KindHotel  Kind = "hotel"
	KindFlight Kind = "flight"
	KindTour   Kind = "tour"
)

// ParseKind validates a booking kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindHotel, KindFlight, KindTour:
		return k, nil
	default:
		return "", errors.New("booking type must be one of hotel, flight, tour")
	}
}

// Booking status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Hotel is a bookable property.
type Hotel struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Address  string  `json:"address,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// Room is a room type offered by a hotel.
type Room struct {
	HotelID   int64  `json:"hotel_id"`
	Type      string `json:"type"`
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
}

// Flight is a scheduled flight.
type Flight struct {
	ID          int64  `json:"id"`
	Airline     string `json:"airline"`
	Code        string `json:"code"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"` // HH:MM local time
}

// Tour is a tour package.
type Tour struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Destination  string `json:"destination"`
	DurationDays int    `json:"duration_days"`
	Capacity     int    `json:"capacity"`
}

// Booking is a reservation of a hotel, flight or tour.
type Booking struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	Kind          Kind      `json:"kind"`
	ItemID        int64     `json:"item_id"`
	UserID        string    `json:"user_id,omitempty"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email,omitempty"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date,omitempty"`
	Detail        string    `json:"detail,omitempty"` // room type, seat class, ...
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Created       time.Time `json:"created"`
}

// Inventory is the datastore behind the domain tools.
type Inventory interface {
	ListHotels(ctx context.Context) ([]Hotel, error)
	SearchHotels(ctx context.Context, location string) ([]Hotel, error)
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListRooms(ctx context.Context, hotelID int64) ([]Room, error)

	ListFlights(ctx context.Context) ([]Flight, error)
	SearchFlights(ctx context.Context, origin, destination string) ([]Flight, error)
	GetFlight(ctx context.Context, id int64) (Flight, error)

	ListTours(ctx context.Context) ([]Tour, error)
	SearchTours(ctx context.Context, destination string) ([]Tour, error)
	GetTour(ctx context.Context, id int64) (Tour, error)

	// CreateBooking stores b as pending and unpaid, assigning ID, Reference and Created.
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, userID string) ([]Booking, error)
	// MarkPaid records the payment and confirms the booking.
	MarkPaid(ctx context.Context, id int64, method string) (Booking, error)
	Cancel(ctx context.Context, id int64) (Booking, error)
}
