// Package core provides the foundational domain types and interfaces used by
// travelmesh. It defines the core abstractions for:
//
//   - Messages and tool calls (the conversation log and its pairing contract)
//   - ConversationState and AgentStack (per-thread durable state)
//   - ToolContext (scoped execution surface handed to tools)
//   - StateStore (pluggable persistence)
//   - Error kinds shared by turns, tool batches and runs
//
// The package keeps implementation concerns (model adapters, routing, stores)
// out of scope, exposing small interfaces to enable custom backends.
package core
