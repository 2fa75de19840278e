package travel

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteInventory is an Inventory backed by SQLite (pure Go driver).
type SQLiteInventory struct {
	db *sql.DB
}

var _ Inventory = (*SQLiteInventory)(nil)

// OpenSQLite opens (creating if needed) the database at dsn, applies the
// schema and loads seed when the hotel table is empty. Use ":memory:" for an
// ephemeral database.
func OpenSQLite(ctx context.Context, dsn string, seed SeedData) (*SQLiteInventory, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	inv := &SQLiteInventory{db: db}
	if err := inv.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := inv.seed(ctx, seed); err != nil {
		_ = db.Close()
		return nil, err
	}

	return inv, nil
}

// Close releases the database handle.
func (s *SQLiteInventory) Close() error { return s.db.Close() }

func (s *SQLiteInventory) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteInventory) seed(ctx context.Context, seed SeedData) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotels").Scan(&n); err != nil {
		return fmt.Errorf("count hotels: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, h := range seed.Hotels {
		if _, err := tx.ExecContext(ctx, "INSERT INTO hotels (id, name, location, address, rating) VALUES (?,?,?,?,?)",
			h.ID, h.Name, h.Location, h.Address, h.Rating); err != nil {
			return fmt.Errorf("seed hotel %d: %w", h.ID, err)
		}
	}
	for _, r := range seed.Rooms {
		if _, err := tx.ExecContext(ctx, "INSERT INTO rooms (hotel_id, type, capacity, available) VALUES (?,?,?,?)",
			r.HotelID, r.Type, r.Capacity, r.Available); err != nil {
			return fmt.Errorf("seed room %s: %w", r.Type, err)
		}
	}
	for _, f := range seed.Flights {
		if _, err := tx.ExecContext(ctx, "INSERT INTO flights (id, airline, code, origin, destination, departure) VALUES (?,?,?,?,?,?)",
			f.ID, f.Airline, f.Code, f.Origin, f.Destination, f.Departure); err != nil {
			return fmt.Errorf("seed flight %d: %w", f.ID, err)
		}
	}
	for _, t := range seed.Tours {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tours (id, name, destination, duration_days, capacity) VALUES (?,?,?,?,?)",
			t.ID, t.Name, t.Destination, t.DurationDays, t.Capacity); err != nil {
			return fmt.Errorf("seed tour %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

const (
	hotelColumns   = "id, name, location, address, rating"
	flightColumns  = "id, airline, code, origin, destination, departure"
	tourColumns    = "id, name, destination, duration_days, capacity"
	bookingColumns = "id, reference, kind, item_id, user_id, name, email, start_date, end_date, detail, quantity, status, payment_status, payment_method, created"
)

func (s *SQLiteInventory) ListHotels(ctx context.Context) ([]Hotel, error) {
	return s.queryHotels(ctx, "SELECT "+hotelColumns+" FROM hotels ORDER BY id")
}

func (s *SQLiteInventory) SearchHotels(ctx context.Context, location string) ([]Hotel, error) {
	like := likePattern(location)
	return s.queryHotels(ctx, "SELECT "+hotelColumns+" FROM hotels WHERE lower(location) LIKE ? OR lower(address) LIKE ? ORDER BY id", like, like)
}

func (s *SQLiteInventory) GetHotel(ctx context.Context, id int64) (Hotel, error) {
	hotels, err := s.queryHotels(ctx, "SELECT "+hotelColumns+" FROM hotels WHERE id = ?", id)
	if err != nil {
		return Hotel{}, err
	}
	if len(hotels) == 0 {
		return Hotel{}, fmt.Errorf("hotel %d: %w", id, ErrNotFound)
	}
	return hotels[0], nil
}

func (s *SQLiteInventory) queryHotels(ctx context.Context, query string, args ...any) ([]Hotel, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hotels: %w", err)
	}
	defer rows.Close()

	var out []Hotel
	for rows.Next() {
		var h Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Location, &h.Address, &h.Rating); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteInventory) ListRooms(ctx context.Context, hotelID int64) ([]Room, error) {
	if _, err := s.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT hotel_id, type, capacity, available FROM rooms WHERE hotel_id = ? ORDER BY type", hotelID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.HotelID, &r.Type, &r.Capacity, &r.Available); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteInventory) ListFlights(ctx context.Context) ([]Flight, error) {
	return s.queryFlights(ctx, "SELECT "+flightColumns+" FROM flights ORDER BY id")
}

func (s *SQLiteInventory) SearchFlights(ctx context.Context, origin, destination string) ([]Flight, error) {
	return s.queryFlights(ctx, "SELECT "+flightColumns+" FROM flights WHERE lower(origin) LIKE ? AND lower(destination) LIKE ? ORDER BY id",
		likePattern(origin), likePattern(destination))
}

func (s *SQLiteInventory) GetFlight(ctx context.Context, id int64) (Flight, error) {
	flights, err := s.queryFlights(ctx, "SELECT "+flightColumns+" FROM flights WHERE id = ?", id)
	if err != nil {
		return Flight{}, err
	}
	if len(flights) == 0 {
		return Flight{}, fmt.Errorf("flight %d: %w", id, ErrNotFound)
	}
	return flights[0], nil
}

func (s *SQLiteInventory) queryFlights(ctx context.Context, query string, args ...any) ([]Flight, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer rows.Close()

	var out []Flight
	for rows.Next() {
		var f Flight
		if err := rows.Scan(&f.ID, &f.Airline, &f.Code, &f.Origin, &f.Destination, &f.Departure); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteInventory) ListTours(ctx context.Context) ([]Tour, error) {
	return s.queryTours(ctx, "SELECT "+tourColumns+" FROM tours ORDER BY id")
}

func (s *SQLiteInventory) SearchTours(ctx context.Context, destination string) ([]Tour, error) {
	like := likePattern(destination)
	return s.queryTours(ctx, "SELECT "+tourColumns+" FROM tours WHERE lower(destination) LIKE ? OR lower(name) LIKE ? ORDER BY id", like, like)
}

func (s *SQLiteInventory) GetTour(ctx context.Context, id int64) (Tour, error) {
	tours, err := s.queryTours(ctx, "SELECT "+tourColumns+" FROM tours WHERE id = ?", id)
	if err != nil {
		return Tour{}, err
	}
	if len(tours) == 0 {
		return Tour{}, fmt.Errorf("tour %d: %w", id, ErrNotFound)
	}
	return tours[0], nil
}

func (s *SQLiteInventory) queryTours(ctx context.Context, query string, args ...any) ([]Tour, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tours: %w", err)
	}
	defer rows.Close()

	var out []Tour
	for rows.Next() {
		var t Tour
		if err := rows.Scan(&t.ID, &t.Name, &t.Destination, &t.DurationDays, &t.Capacity); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteInventory) CreateBooking(ctx context.Context, b Booking) (Booking, error) {
	b.Reference = uuid.NewString()
	b.Status = StatusPending
	b.PaymentStatus = PaymentUnpaid
	b.PaymentMethod = ""
	b.Created = time.Now().UTC()
	if b.Quantity <= 0 {
		b.Quantity = 1
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO bookings (reference, kind, item_id, user_id, name, email, start_date, end_date, detail, quantity, status, payment_status, payment_method, created) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		b.Reference, string(b.Kind), b.ItemID, b.UserID, b.Name, b.Email, b.StartDate, b.EndDate, b.Detail,
		b.Quantity, b.Status, b.PaymentStatus, b.PaymentMethod, b.Created.Format(time.RFC3339Nano))
	if err != nil {
		return Booking{}, fmt.Errorf("insert booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Booking{}, fmt.Errorf("booking id: %w", err)
	}
	b.ID = id

	return b, nil
}

func (s *SQLiteInventory) GetBooking(ctx context.Context, id int64) (Booking, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return b, err
}

func (s *SQLiteInventory) ListBookings(ctx context.Context, userID string) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteInventory) MarkPaid(ctx context.Context, id int64, method string) (Booking, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET payment_status = ?, payment_method = ?, status = ? WHERE id = ? AND status != ? AND payment_status != ?",
		PaymentPaid, method, StatusConfirmed, id, StatusCancelled, PaymentPaid)
	if err != nil {
		return Booking{}, fmt.Errorf("update booking: %w", err)
	}

	return s.afterUpdate(ctx, res, id)
}

func (s *SQLiteInventory) Cancel(ctx context.Context, id int64) (Booking, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ? AND status != ?",
		StatusCancelled, id, StatusCancelled)
	if err != nil {
		return Booking{}, fmt.Errorf("update booking: %w", err)
	}

	return s.afterUpdate(ctx, res, id)
}

// afterUpdate distinguishes a missing booking from one in the wrong state
// when an UPDATE matched no rows.
func (s *SQLiteInventory) afterUpdate(ctx context.Context, res sql.Result, id int64) (Booking, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return Booking{}, err
	}

	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, err
	}

	if n == 0 {
		return Booking{}, fmt.Errorf("booking %d is %s/%s: %w", id, b.Status, b.PaymentStatus, ErrBookingState)
	}

	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(r rowScanner) (Booking, error) {
	var (
		b       Booking
		kind    string
		created string
	)

	if err := r.Scan(&b.ID, &b.Reference, &kind, &b.ItemID, &b.UserID, &b.Name, &b.Email, &b.StartDate,
		&b.EndDate, &b.Detail, &b.Quantity, &b.Status, &b.PaymentStatus, &b.PaymentMethod, &created); err != nil {
		return Booking{}, err
	}

	b.Kind = Kind(kind)
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		b.Created = t
	}

	return b, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
