package travel

import (
	"fmt"
	"strings"
)

func formatHotels(hotels []Hotel) string {
	if len(hotels) == 0 {
		return "No hotels found."
	}

	var b strings.Builder
	for _, h := range hotels {
		fmt.Fprintf(&b, "- [%d] %s, %s (rating %.1f)\n", h.ID, h.Name, h.Location, h.Rating)
	}
	return b.String()
}

func formatRooms(rooms []Room) string {
	if len(rooms) == 0 {
		return "No rooms listed."
	}

	var b strings.Builder
	for _, r := range rooms {
		fmt.Fprintf(&b, "- %s: up to %d guests, %d available\n", r.Type, r.Capacity, r.Available)
	}
	return b.String()
}

func formatFlights(flights []Flight) string {
	if len(flights) == 0 {
		return "No flights found."
	}

	var b strings.Builder
	for _, f := range flights {
		fmt.Fprintf(&b, "- [%d] %s %s: %s -> %s, departs %s\n", f.ID, f.Airline, f.Code, f.Origin, f.Destination, f.Departure)
	}
	return b.String()
}

func formatTours(tours []Tour) string {
	if len(tours) == 0 {
		return "No tours found."
	}

	var b strings.Builder
	for _, t := range tours {
		fmt.Fprintf(&b, "- [%d] %s in %s, %d day(s), up to %d participants\n", t.ID, t.Name, t.Destination, t.DurationDays, t.Capacity)
	}
	return b.String()
}

func formatBooking(bk Booking) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Booking %d (%s) ref %s: %s item %d", bk.ID, bk.Kind, bk.Reference, bk.Status, bk.ItemID)
	if bk.Detail != "" {
		fmt.Fprintf(&b, ", %s", bk.Detail)
	}
	fmt.Fprintf(&b, ", x%d, from %s", bk.Quantity, bk.StartDate)
	if bk.EndDate != "" {
		fmt.Fprintf(&b, " to %s", bk.EndDate)
	}
	fmt.Fprintf(&b, ", payment %s", bk.PaymentStatus)
	if bk.PaymentMethod != "" {
		fmt.Fprintf(&b, " via %s", bk.PaymentMethod)
	}
	b.WriteString("\n")

	return b.String()
}
