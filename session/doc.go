// Package session houses implementations of core.StateStore, the persistence
// contract for conversation threads.
//
// InMemoryStore is volatile and suited for tests and single process demos.
// Durable backends live in sub-packages (sqlite, afs). FallbackStore wraps a
// durable backend and serves from memory while the backend is unavailable, so
// a storage outage degrades durability instead of failing requests.
package session
