package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a Message.
type Role string

const (
	// RoleUser marks messages typed by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks model generated messages (optionally carrying tool calls).
	RoleAssistant Role = "assistant"
	// RoleTool marks tool results answering exactly one tool call.
	RoleTool Role = "tool"
)

// FunctionCall describes a tool/function invocation request.
type FunctionCall struct {
	ID        string `json:"id"`                  // Stable id, answered by exactly one tool result
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized argument payload (JSON object)
}

// DecodeArguments parses the JSON argument payload. An empty payload yields an
// empty map.
func (fc FunctionCall) DecodeArguments() (map[string]any, error) {
	if strings.TrimSpace(fc.Arguments) == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}

	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

// Message is a single turn in a conversation. After it has been appended to a
// ConversationState it should be treated as immutable.
type Message struct {
	ID         string         `json:"id"`
	Role       Role           `json:"role"`
	Author     string         `json:"author,omitempty"`
	Content    string         `json:"content"`
	ToolCalls  []FunctionCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"` // set on tool results
	Name       string         `json:"name,omitempty"`         // tool name on tool results
	IsError    bool           `json:"is_error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewID generates a new unique identifier for messages, threads and calls.
func NewID() string { return uuid.NewString() }

func newMessage(role Role, author, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(content string) Message {
	return newMessage(RoleUser, "user", content)
}

// NewAssistantMessage creates an assistant message authored by an agent,
// optionally requesting tool calls.
func NewAssistantMessage(author, content string, calls ...FunctionCall) Message {
	m := newMessage(RoleAssistant, author, content)
	if len(calls) > 0 {
		m.ToolCalls = append([]FunctionCall(nil), calls...)
	}
	return m
}

// NewToolResultMessage records the successful outcome of the call identified by callID.
func NewToolResultMessage(author, callID, name, content string) Message {
	m := newMessage(RoleTool, author, content)
	m.ToolCallID = callID
	m.Name = name
	return m
}

// NewToolErrorMessage records a failed call. The content is still a
// human-readable text so the model can react to it.
func NewToolErrorMessage(author, callID, name, content string) Message {
	m := NewToolResultMessage(author, callID, name, content)
	m.IsError = true
	return m
}

// HasToolCalls reports whether the message requests at least one tool call.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// IsToolResult reports whether the message answers a tool call.
func (m Message) IsToolResult() bool { return m.Role == RoleTool }

// ToolCallNames returns the names of the requested calls preserving order.
func (m Message) ToolCallNames() []string {
	names := make([]string, len(m.ToolCalls))
	for i, c := range m.ToolCalls {
		names[i] = c.Name
	}
	return names
}

// IsEmpty reports whether an assistant message carries neither text nor calls.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.ToolCalls) == 0
}

// ValidatePairing checks the tool call / tool result contract over an ordered
// message log: every result answers a known, not yet answered call, and every
// call of an assistant message is answered before the next assistant message.
// Calls of the final assistant message may still be pending.
func ValidatePairing(messages []Message) error {
	pending := map[string]bool{}
	seen := map[string]bool{}
	var order []string

	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			for _, id := range order {
				if pending[id] {
					return &ProtocolError{CallID: id, Reason: "tool call left unanswered before next assistant message"}
				}
			}
			order = order[:0]
			for _, c := range m.ToolCalls {
				if seen[c.ID] {
					return &ProtocolError{CallID: c.ID, Reason: "tool call id reused"}
				}
				seen[c.ID] = true
				pending[c.ID] = true
				order = append(order, c.ID)
			}
		case RoleTool:
			if !pending[m.ToolCallID] {
				return &ProtocolError{CallID: m.ToolCallID, Reason: "tool result does not answer a pending call"}
			}
			delete(pending, m.ToolCallID)
		}
	}

	return nil
}
