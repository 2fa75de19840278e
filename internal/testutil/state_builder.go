package testutil

import (
	"fmt"

	"github.com/hupe1980/travelmesh/core"
)

// Call builds a tool call with a fixed id. args may be empty.
func Call(id, name, args string) core.FunctionCall {
	return core.FunctionCall{ID: id, Name: name, Arguments: args}
}

// StateBuilder helps construct conversation states with fluent chaining for tests.
// Example:
//
//	st := NewStateBuilder("t-1").Stack("hotel").User("book a room").
//		Assistant("hotel", "", Call("c1", "book_hotel_room", `{"room_id":1}`)).Build()
//
// Messages are appended through ConversationState.Append; Build panics if an
// append is rejected so broken fixtures fail loudly.
type StateBuilder struct {
	threadID    string
	userContext map[string]string
	stack       []string
	messages    []core.Message
}

// NewStateBuilder creates a builder for threadID.
func NewStateBuilder(threadID string) *StateBuilder {
	return &StateBuilder{threadID: threadID, userContext: map[string]string{}}
}

// UserContext sets a user context value (chainable).
func (b *StateBuilder) UserContext(key, val string) *StateBuilder {
	b.userContext[key] = val
	return b
}

// Stack sets the agent stack, bottom first (chainable).
func (b *StateBuilder) Stack(names ...string) *StateBuilder {
	b.stack = append([]string(nil), names...)
	return b
}

// User appends a user message (chainable).
func (b *StateBuilder) User(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewUserMessage(text))
	return b
}

// Assistant appends an assistant message authored by agent (chainable).
func (b *StateBuilder) Assistant(agent, text string, calls ...core.FunctionCall) *StateBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(agent, text, calls...))
	return b
}

// ToolResult appends a tool result answering callID (chainable).
func (b *StateBuilder) ToolResult(agent, callID, name, content string) *StateBuilder {
	b.messages = append(b.messages, core.NewToolResultMessage(agent, callID, name, content))
	return b
}

// Build returns the populated state.
func (b *StateBuilder) Build() *core.ConversationState {
	st := core.NewConversationState(b.threadID, b.userContext)

	for _, name := range b.stack {
		st.PushAgent(name)
	}

	for _, m := range b.messages {
		if err := st.Append(m); err != nil {
			panic(fmt.Sprintf("testutil: invalid fixture: %v", err))
		}
	}

	return st
}

// Roles returns the role sequence of messages, handy for compact assertions.
func Roles(messages []core.Message) []core.Role {
	roles := make([]core.Role, len(messages))
	for i, m := range messages {
		roles[i] = m.Role
	}
	return roles
}
