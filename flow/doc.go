// Package flow implements the dialog-routing state machine of the travel
// assistant.
//
// One inbound user message is processed as a sequential run over a small
// graph of nodes:
//
//	agent:<name>   one model turn for the agent, followed by routing
//	tools:<name>   execution of the requested domain tools
//	entry:<name>   hand-off acknowledgement, pushes the specialist
//	return         escalation back to the supervisor, pops the stack
//	end            control returns to the caller
//
// Every tool call appended to the log receives exactly one tool result before
// the next assistant message, whichever node answers it.
package flow
