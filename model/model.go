package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/travelmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by an agent turn.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Messages     []core.Message   `json:"messages"`     // Conversation history
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry a text delta in Message.Content; the final chunk carries the complete
// assistant message including tool calls.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agent turns to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final assistant message.
// When a provider only streamed partial chunks, their text is concatenated.
func Collect(ctx context.Context, m Model, req Request) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}

	respCh, errCh := m.Generate(ctx, req)

	var (
		final    *core.Message
		partials strings.Builder
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.Message{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partials.WriteString(r.Message.Content)
				continue
			}
			msg := r.Message
			final = &msg
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.Message{}, err
			}
		}
	}

	if final != nil {
		return *final, nil
	}

	if partials.Len() > 0 {
		return core.Message{Role: core.RoleAssistant, Content: partials.String()}, nil
	}

	return core.Message{}, fmt.Errorf("model %s returned no response", m.Info().Name)
}

// Reply is one scripted MockModel answer. A non-nil Err makes the
// generation fail instead.
type Reply struct {
	Content   string
	ToolCalls []core.FunctionCall
	Err       error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Replies are served in FIFO order; once the queue is empty Responder is
// consulted, and without a Responder the model echoes the last user message.
type MockModel struct {
	info      Info
	Responder func(req Request) Reply

	mu       sync.Mutex
	replies  []Reply
	requests []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string, replies ...Reply) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		replies: replies,
	}
}

// Enqueue appends scripted replies.
func (m *MockModel) Enqueue(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns how many times Generate was invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockModel) next(req Request) Reply {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		m.mu.Unlock()
		return r
	}
	responder := m.Responder
	m.mu.Unlock()

	if responder != nil {
		return responder(req)
	}

	var input string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			input = req.Messages[i].Content
			break
		}
	}

	return Reply{Content: fmt.Sprintf("Mock response to: %s", input)}
}

// Generate implements Model; emits optional streaming char chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	reply := m.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if reply.Err != nil {
			errCh <- reply.Err
			return
		}

		if req.Stream {
			for _, r := range reply.Content {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Message: core.Message{Role: core.RoleAssistant, Content: string(r)}}:
				}
			}
		}

		finish := "stop"
		if len(reply.ToolCalls) > 0 {
			finish = "tool_calls"
		}

		msg := core.Message{
			Role:      core.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: append([]core.FunctionCall(nil), reply.ToolCalls...),
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Message: msg, FinishReason: finish}:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
