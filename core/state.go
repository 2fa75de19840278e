package core

import (
	"context"
	"fmt"
	"maps"
	"time"
)

// ConversationState is the durable state of one conversation thread: an
// append-only message log, the active agent stack and the caller supplied
// user context.
//
// Contract:
//   - Exactly one run mutates a state at a time (the runner serializes per thread)
//   - Messages are only appended; Truncate is the one explicit exception
//   - UserContext is set once at creation and read-only afterwards
//   - Clone performs deep copies of maps/slices for safe divergence
type ConversationState struct {
	ThreadID    string            `json:"thread_id"`
	Messages    []Message         `json:"messages"`
	Stack       AgentStack        `json:"stack"`
	UserContext map[string]string `json:"user_context,omitempty"`
	Created     time.Time         `json:"created"`
	Updated     time.Time         `json:"updated"`
}

// NewConversationState creates an empty state for threadID.
func NewConversationState(threadID string, userContext map[string]string) *ConversationState {
	now := time.Now().UTC()
	s := &ConversationState{
		ThreadID: threadID,
		Messages: []Message{},
		Stack:    AgentStack{},
		Created:  now,
		Updated:  now,
	}
	if len(userContext) > 0 {
		s.UserContext = maps.Clone(userContext)
	}
	return s
}

// Append adds msg to the log. It rejects tool call ids that already occur in
// the log and tool results answering an id that already has a result.
func (s *ConversationState) Append(msg Message) error {
	for _, c := range msg.ToolCalls {
		if s.hasCallID(c.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateCallID, c.ID)
		}
	}

	if msg.Role == RoleTool && s.hasResultFor(msg.ToolCallID) {
		return fmt.Errorf("%w: result for %s", ErrDuplicateCallID, msg.ToolCallID)
	}

	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now().UTC()

	return nil
}

func (s *ConversationState) hasCallID(id string) bool {
	for _, m := range s.Messages {
		for _, c := range m.ToolCalls {
			if c.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *ConversationState) hasResultFor(id string) bool {
	for _, m := range s.Messages {
		if m.Role == RoleTool && m.ToolCallID == id {
			return true
		}
	}
	return false
}

// CurrentAgent returns the top of the agent stack, or Supervisor when empty.
func (s *ConversationState) CurrentAgent() string { return s.Stack.Current() }

// PushAgent makes name the active agent.
func (s *ConversationState) PushAgent(name string) {
	s.Stack.Push(name)
	s.Updated = time.Now().UTC()
}

// PopAgent returns control to the previous agent.
func (s *ConversationState) PopAgent() (string, bool) {
	name, ok := s.Stack.Pop()
	if ok {
		s.Updated = time.Now().UTC()
	}
	return name, ok
}

// LastMessage returns the most recent message.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastAssistant returns the most recent assistant message.
func (s *ConversationState) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// PendingToolCalls returns the calls of the last assistant message that do not
// have a result yet, preserving call order.
func (s *ConversationState) PendingToolCalls() []FunctionCall {
	idx := -1
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	answered := map[string]bool{}
	for _, m := range s.Messages[idx+1:] {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}

	var pending []FunctionCall
	for _, c := range s.Messages[idx].ToolCalls {
		if !answered[c.ID] {
			pending = append(pending, c)
		}
	}

	return pending
}

// UserValue returns a user context value.
func (s *ConversationState) UserValue(key string) (string, bool) {
	v, ok := s.UserContext[key]
	return v, ok
}

// Truncate keeps roughly the last keepLast messages. The cut never starts on a
// tool result, so every kept result still follows the call it answers.
func (s *ConversationState) Truncate(keepLast int) {
	if keepLast < 0 || len(s.Messages) <= keepLast {
		return
	}

	start := len(s.Messages) - keepLast
	for start < len(s.Messages) && s.Messages[start].Role == RoleTool {
		start++
	}

	kept := make([]Message, len(s.Messages)-start)
	copy(kept, s.Messages[start:])
	s.Messages = kept
	s.Updated = time.Now().UTC()
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *ConversationState) Clone() *ConversationState {
	clone := &ConversationState{
		ThreadID:    s.ThreadID,
		Messages:    make([]Message, len(s.Messages)),
		Stack:       AgentStack(s.Stack.Items()),
		UserContext: maps.Clone(s.UserContext),
		Created:     s.Created,
		Updated:     s.Updated,
	}

	for i, m := range s.Messages {
		m.ToolCalls = append([]FunctionCall(nil), m.ToolCalls...)
		clone.Messages[i] = m
	}

	return clone
}

// StateStore persists conversation states keyed by thread id.
type StateStore interface {
	// Load returns the stored state or ErrThreadNotFound.
	Load(ctx context.Context, threadID string) (*ConversationState, error)
	// Save stores a snapshot of state, replacing any previous one.
	Save(ctx context.Context, state *ConversationState) error
	// Delete removes the thread. Deleting an unknown thread is not an error.
	Delete(ctx context.Context, threadID string) error
}
