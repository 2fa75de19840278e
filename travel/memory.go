package travel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryInventory is a process-local Inventory. Safe for concurrent use.
type MemoryInventory struct {
	mu       sync.RWMutex
	seed     SeedData
	bookings map[int64]Booking
	nextID   int64
}

var _ Inventory = (*MemoryInventory)(nil)

// NewMemoryInventory creates an inventory holding seed.
func NewMemoryInventory(seed SeedData) *MemoryInventory {
	return &MemoryInventory{
		seed:     seed,
		bookings: make(map[int64]Booking),
		nextID:   1,
	}
}

func (m *MemoryInventory) ListHotels(_ context.Context) ([]Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Hotel(nil), m.seed.Hotels...), nil
}

func (m *MemoryInventory) SearchHotels(_ context.Context, location string) ([]Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Hotel
	for _, h := range m.seed.Hotels {
		if containsFold(h.Location, location) || containsFold(h.Address, location) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MemoryInventory) GetHotel(_ context.Context, id int64) (Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, h := range m.seed.Hotels {
		if h.ID == id {
			return h, nil
		}
	}
	return Hotel{}, fmt.Errorf("hotel %d: %w", id, ErrNotFound)
}

func (m *MemoryInventory) ListRooms(ctx context.Context, hotelID int64) ([]Room, error) {
	if _, err := m.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Room
	for _, r := range m.seed.Rooms {
		if r.HotelID == hotelID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryInventory) ListFlights(_ context.Context) ([]Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Flight(nil), m.seed.Flights...), nil
}

func (m *MemoryInventory) SearchFlights(_ context.Context, origin, destination string) ([]Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Flight
	for _, f := range m.seed.Flights {
		if containsFold(f.Origin, origin) && containsFold(f.Destination, destination) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemoryInventory) GetFlight(_ context.Context, id int64) (Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.seed.Flights {
		if f.ID == id {
			return f, nil
		}
	}
	return Flight{}, fmt.Errorf("flight %d: %w", id, ErrNotFound)
}

func (m *MemoryInventory) ListTours(_ context.Context) ([]Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Tour(nil), m.seed.Tours...), nil
}

func (m *MemoryInventory) SearchTours(_ context.Context, destination string) ([]Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Tour
	for _, t := range m.seed.Tours {
		if containsFold(t.Destination, destination) || containsFold(t.Name, destination) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryInventory) GetTour(_ context.Context, id int64) (Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.seed.Tours {
		if t.ID == id {
			return t, nil
		}
	}
	return Tour{}, fmt.Errorf("tour %d: %w", id, ErrNotFound)
}

func (m *MemoryInventory) CreateBooking(_ context.Context, b Booking) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b.ID = m.nextID
	m.nextID++
	b.Reference = uuid.NewString()
	b.Status = StatusPending
	b.PaymentStatus = PaymentUnpaid
	b.PaymentMethod = ""
	b.Created = time.Now().UTC()
	if b.Quantity <= 0 {
		b.Quantity = 1
	}

	m.bookings[b.ID] = b

	return b, nil
}

func (m *MemoryInventory) GetBooking(_ context.Context, id int64) (Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return b, nil
}

func (m *MemoryInventory) ListBookings(_ context.Context, userID string) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Booking
	for id := int64(1); id < m.nextID; id++ {
		if b, ok := m.bookings[id]; ok && b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemoryInventory) MarkPaid(_ context.Context, id int64, method string) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if b.Status == StatusCancelled || b.PaymentStatus == PaymentPaid {
		return Booking{}, fmt.Errorf("booking %d is %s/%s: %w", id, b.Status, b.PaymentStatus, ErrBookingState)
	}

	b.PaymentStatus = PaymentPaid
	b.PaymentMethod = method
	b.Status = StatusConfirmed
	m.bookings[id] = b

	return b, nil
}

func (m *MemoryInventory) Cancel(_ context.Context, id int64) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if b.Status == StatusCancelled {
		return Booking{}, fmt.Errorf("booking %d already cancelled: %w", id, ErrBookingState)
	}

	b.Status = StatusCancelled
	m.bookings[id] = b

	return b, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
