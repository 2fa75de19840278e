package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/travelmesh/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by an agent: the cancellation context, correlation ids and a read-only view
// of the caller supplied user context.
type ToolContext struct {
	ctx            context.Context
	threadID       string
	agentName      string
	functionCallID string
	userContext    map[string]string
	logger         logging.Logger
}

// NewToolContext constructs a tool context for one function call.
func NewToolContext(
	ctx context.Context,
	threadID, agentName, functionCallID string,
	userContext map[string]string,
	logger logging.Logger,
) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}

	return &ToolContext{
		ctx:            ctx,
		threadID:       threadID,
		agentName:      agentName,
		functionCallID: functionCallID,
		userContext:    maps.Clone(userContext),
		logger:         logging.OrNoOp(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// ThreadID returns the conversation thread the call belongs to.
func (tc *ToolContext) ThreadID() string { return tc.threadID }

// AgentName returns the agent that requested the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// FunctionCallID returns the id of the call being answered.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the run's logger; never nil.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// UserValue returns a value from the caller supplied user context.
func (tc *ToolContext) UserValue(key string) (string, bool) {
	v, ok := tc.userContext[key]
	return v, ok
}

// UserContext returns a copy of the caller supplied user context.
func (tc *ToolContext) UserContext() map[string]string { return maps.Clone(tc.userContext) }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.threadID == "" || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext: thread=%q call=%q", tc.threadID, tc.functionCallID)
	}
	return nil
}
