package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/model"
)

// DefaultFallbackText is appended when a model turn fails twice.
const DefaultFallbackText = "I'm sorry, something went wrong while processing your request. Please try again with a simpler request."

// TurnOptions configures an AgentTurn.
type TurnOptions struct {
	// Attempts is the number of model invocations per turn (default 2: one retry).
	Attempts int
	// FallbackText is the content of the apology message after the last failed attempt.
	FallbackText string
	// Stream requests streamed model output. Only the final message is used.
	Stream bool
	// Now supplies the date and time rendered into the instructions.
	Now    func() time.Time
	Logger logging.Logger
}

// AgentTurn produces exactly one assistant message per invocation.
type AgentTurn struct {
	model model.Model
	opts  TurnOptions
}

// NewAgentTurn creates an AgentTurn driving m.
func NewAgentTurn(m model.Model, optFns ...func(o *TurnOptions)) *AgentTurn {
	opts := TurnOptions{
		Attempts:     2,
		FallbackText: DefaultFallbackText,
		Now:          time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &AgentTurn{model: m, opts: opts}
}

// TurnResult is the outcome of one Agent Turn. Message is the appended
// assistant message. Err is a recoverable *core.TurnError when Message is the
// fallback apology.
type TurnResult struct {
	Message  core.Message
	Attempts int
	Err      error
}

// Fallback reports whether the turn ended with the apology message.
func (r TurnResult) Fallback() bool { return r.Err != nil }

// Run invokes the model for def and appends its reply to st. Model failures,
// empty replies and malformed tool calls are retried and finally replaced by
// the fallback message; they are reported in TurnResult.Err. The returned
// error is non-nil only when ctx is done or the log rejects the fallback.
func (t *AgentTurn) Run(ctx context.Context, st *core.ConversationState, def *agent.Definition) (TurnResult, error) {
	logger := t.opts.Logger

	instructions, err := def.Instructions(t.opts.Now(), st.UserContext)
	if err != nil {
		return t.fallback(st, def, 0, &core.TurnError{Kind: core.KindModel, Agent: def.Name(), Err: err})
	}

	req := model.Request{
		Instructions: instructions,
		Messages:     slices.Clone(st.Messages),
		Tools:        def.ToolDefinitions(),
		Stream:       t.opts.Stream,
	}

	var lastErr error

	for attempt := 1; attempt <= t.opts.Attempts; attempt++ {
		start := time.Now()

		reply, err := model.Collect(ctx, t.model, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return TurnResult{Attempts: attempt}, ctxErr
		}

		if err != nil {
			lastErr = &core.TurnError{Kind: core.KindModel, Agent: def.Name(), Err: err}
		} else if err := checkReply(reply); err != nil {
			lastErr = &core.TurnError{Kind: core.KindMalformed, Agent: def.Name(), Err: err}
		} else {
			msg := core.NewAssistantMessage(def.Name(), reply.Content, reply.ToolCalls...)

			if err := st.Append(msg); err != nil {
				lastErr = &core.TurnError{Kind: core.KindMalformed, Agent: def.Name(), Err: err}
			} else {
				logger.Debug("flow.turn.completed",
					"thread_id", st.ThreadID,
					"agent", def.Name(),
					"attempt", attempt,
					"tool_calls", len(msg.ToolCalls),
					"duration_ms", time.Since(start).Milliseconds(),
				)

				return TurnResult{Message: msg, Attempts: attempt}, nil
			}
		}

		logger.Warn("flow.turn.failed",
			"thread_id", st.ThreadID,
			"agent", def.Name(),
			"attempt", attempt,
			"error", lastErr.Error(),
		)
	}

	return t.fallback(st, def, t.opts.Attempts, lastErr)
}

func (t *AgentTurn) fallback(st *core.ConversationState, def *agent.Definition, attempts int, cause error) (TurnResult, error) {
	msg := core.NewAssistantMessage(def.Name(), t.opts.FallbackText)
	if err := st.Append(msg); err != nil {
		return TurnResult{Attempts: attempts, Err: cause}, err
	}

	t.opts.Logger.Error("flow.turn.fallback",
		"thread_id", st.ThreadID,
		"agent", def.Name(),
		"error", cause.Error(),
	)

	return TurnResult{Message: msg, Attempts: attempts, Err: cause}, nil
}

var (
	errEmptyReply = errors.New("model returned neither text nor tool calls")
)

// checkReply rejects replies that cannot be routed or answered.
func checkReply(reply core.Message) error {
	if reply.IsEmpty() {
		return errEmptyReply
	}

	seen := make(map[string]bool, len(reply.ToolCalls))

	for i, c := range reply.ToolCalls {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("tool call %d has no id", i)
		}

		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("tool call %s has no name", c.ID)
		}

		if seen[c.ID] {
			return fmt.Errorf("tool call id %s repeated", c.ID)
		}

		seen[c.ID] = true
	}

	return nil
}
