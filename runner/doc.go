// Package runner is the thread-level entry point of the travel assistant.
//
// A Runner loads the conversation state of a thread, appends the inbound
// user message, drives the routing graph until it ends and persists the
// result. It always answers with a well-formed Response: model, tool and
// recursion-limit failures are folded into the answer text, and persistence
// failures are logged while the request is still served.
//
// # Responsibilities
//   - HandleMessage, NewThread, DeleteThread, TruncateThread, CurrentAgent
//   - per-thread serialization of concurrent messages
//   - invocation metrics per agent
package runner
