package travel

// SeedData is the demo inventory shared by both backends.
type SeedData struct {
	Hotels  []Hotel
	Rooms   []Room
	Flights []Flight
	Tours   []Tour
}

// DefaultSeed returns a small Indonesian travel inventory.
func DefaultSeed() SeedData {
	return SeedData{
		Hotels: []Hotel{
			{ID: 1, Name: "Grand Hyatt Jakarta", Location: "Jakarta", Address: "Jl. M.H. Thamrin No.28-30", Rating: 4.7},
			{ID: 2, Name: "The Mulia Bali", Location: "Bali", Address: "Jl. Raya Nusa Dua Selatan", Rating: 4.8},
			{ID: 3, Name: "Hotel Tentrem", Location: "Yogyakarta", Address: "Jl. P. Mangkubumi No.72A", Rating: 4.6},
		},
		Rooms: []Room{
			{HotelID: 1, Type: "Deluxe", Capacity: 2, Available: 10},
			{HotelID: 1, Type: "Suite", Capacity: 4, Available: 2},
			{HotelID: 2, Type: "Ocean View", Capacity: 2, Available: 5},
			{HotelID: 2, Type: "Villa", Capacity: 6, Available: 1},
			{HotelID: 3, Type: "Superior", Capacity: 2, Available: 8},
		},
		Flights: []Flight{
			{ID: 1, Airline: "Garuda Indonesia", Code: "GA402", Origin: "Jakarta", Destination: "Bali", Departure: "07:30"},
			{ID: 2, Airline: "Lion Air", Code: "JT34", Origin: "Jakarta", Destination: "Bali", Departure: "13:15"},
			{ID: 3, Airline: "Citilink", Code: "QG100", Origin: "Bali", Destination: "Yogyakarta", Departure: "09:45"},
		},
		Tours: []Tour{
			{ID: 1, Name: "Ubud Culture Day", Destination: "Bali", DurationDays: 1, Capacity: 15},
			{ID: 2, Name: "Borobudur Sunrise", Destination: "Yogyakarta", DurationDays: 1, Capacity: 20},
			{ID: 3, Name: "Komodo Island Hopping", Destination: "Labuan Bajo", DurationDays: 3, Capacity: 10},
		},
	}
}
