// Package travel holds the booking inventory the specialist agents work on
// (hotels, rooms, flights, tours and bookings) and the catalog of domain tools
// exposed to them.
//
// Two Inventory backends ship with the package: MemoryInventory for tests and
// demos, and SQLiteInventory for a durable single-node store. Booking records
// are plain bookkeeping: creating, paying and cancelling change status fields
// only. Prices and stock levels are not computed.
package travel
