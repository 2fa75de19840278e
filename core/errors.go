package core

import (
	"errors"
	"fmt"
)

var (
	// ErrThreadNotFound is returned by StateStore.Load for unknown thread ids.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrStoreUnavailable is returned by StateStore.Load when the store cannot
	// tell whether a thread exists.
	ErrStoreUnavailable = errors.New("state store unavailable")
	// ErrDuplicateCallID is returned when a tool call id or its result is appended twice.
	ErrDuplicateCallID = errors.New("duplicate tool call id")
	// ErrRecursionLimit is returned when a run exceeds its step budget.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
)

// ErrorKind classifies recoverable failures surfaced by turns, tool batches and runs.
type ErrorKind int

const (
	// KindModel is a failed model invocation.
	KindModel ErrorKind = iota + 1
	// KindMalformed is a model reply that cannot be used (empty, calls without id or name).
	KindMalformed
	// KindTool is a failed tool invocation.
	KindTool
	// KindProtocol is a tool-call pairing violation or an unroutable call.
	KindProtocol
	// KindRecursionLimit is a run that exceeded its step budget.
	KindRecursionLimit
	// KindPersistence is an unavailable state store.
	KindPersistence
)

// String returns the snake_case name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindMalformed:
		return "malformed_output"
	case KindTool:
		return "tool"
	case KindProtocol:
		return "protocol"
	case KindRecursionLimit:
		return "recursion_limit"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// TurnError is a recoverable failure attributed to one agent.
type TurnError struct {
	Kind  ErrorKind
	Agent string
	Err   error
}

func (e *TurnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error in agent %s", e.Kind, e.Agent)
	}
	return fmt.Sprintf("%s error in agent %s: %v", e.Kind, e.Agent, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TurnError) Unwrap() error { return e.Err }

// ProtocolError reports a violation of the tool call / tool result contract.
type ProtocolError struct {
	CallID string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation for call %q: %s", e.CallID, e.Reason)
}

// KindOf extracts the ErrorKind of err, or 0 if err carries none.
func KindOf(err error) ErrorKind {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind
	}

	var pe *ProtocolError
	if errors.As(err, &pe) {
		return KindProtocol
	}

	if errors.Is(err, ErrRecursionLimit) {
		return KindRecursionLimit
	}

	return 0
}
