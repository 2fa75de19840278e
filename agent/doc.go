// Package agent describes the agents of the travel assistant: the supervisor
// and the hotel, flight, tour and customer-service specialists.
//
// A Definition is immutable once constructed: its name, domain label, system
// prompt and ordered tool set never change afterwards. NewDefinitions builds
// the complete set in one step from a tool source plus the optional extension
// tools available at startup, so tool lists are composed explicitly instead of
// being mutated after agents exist.
package agent
