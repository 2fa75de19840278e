package flow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/tool"
)

// SimplifyToolErrorText replaces tool errors that leak tool-call protocol details.
const SimplifyToolErrorText = "Sorry, an error occurred while processing your request. Please try a simpler request."

// ExecutorConfig configures the ToolExecutor.
type ExecutorConfig struct {
	MaxParallel    int           // 0 or 1 => sequential
	CallTimeout    time.Duration // per call; 0 => no timeout
	LogStartEvents bool          // log a start line per call
}

// ExecutorOptions configures NewToolExecutor.
type ExecutorOptions struct {
	ExecutorConfig
	Logger logging.Logger
}

// ToolExecutor executes the pending tool calls of the latest assistant
// message. Implementations guarantee:
//   - exactly one tool result per call, appended in call order
//   - pseudo-tools and tools outside the agent's set are never executed
//   - errors, panics and timeouts become error results, never Go errors
type ToolExecutor struct {
	cfg    ExecutorConfig
	logger logging.Logger
}

// NewToolExecutor constructs an executor. The default is sequential with a
// 30 second per-call timeout.
func NewToolExecutor(optFns ...func(o *ExecutorOptions)) *ToolExecutor {
	opts := ExecutorOptions{
		ExecutorConfig: ExecutorConfig{
			MaxParallel: 1,
			CallTimeout: 30 * time.Second,
		},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ToolExecutor{cfg: opts.ExecutorConfig, logger: logging.OrNoOp(opts.Logger)}
}

// ExecResult lists the appended tool results. Failed counts error results.
type ExecResult struct {
	Results []core.Message
	Failed  int
}

// Execute runs the pending calls of the latest assistant message against
// def's tool set and appends their results to st. An empty call set is a
// no-op. The returned error is ctx.Err() when the run was cancelled; results
// for every call are appended regardless.
func (e *ToolExecutor) Execute(ctx context.Context, st *core.ConversationState, def *agent.Definition) (ExecResult, error) {
	calls := st.PendingToolCalls()

	n := len(calls)
	if n == 0 {
		return ExecResult{}, nil
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 {
		maxPar = 1
	}

	if maxPar > n {
		maxPar = n
	}

	results := make([]core.Message, n)

	var wg sync.WaitGroup

	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i := range calls {
		wg.Add(1)

		sem <- struct{}{}

		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.executeOne(ctx, st, def, fc)
		}(i, calls[i])
	}

	wg.Wait()

	res := ExecResult{Results: make([]core.Message, 0, n)}

	for i, msg := range results {
		if err := st.Append(msg); err != nil {
			return res, fmt.Errorf("append result for %s: %w", calls[i].ID, err)
		}

		res.Results = append(res.Results, msg)

		if msg.IsError {
			res.Failed++
		}
	}

	e.logger.Debug("flow.tools.batch.complete",
		"thread_id", st.ThreadID,
		"agent", def.Name(),
		"count", n,
		"failed", res.Failed,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return res, ctx.Err()
}

func (e *ToolExecutor) executeOne(ctx context.Context, st *core.ConversationState, def *agent.Definition, fc core.FunctionCall) core.Message {
	if e.cfg.LogStartEvents {
		e.logger.Info("flow.tool.start", "thread_id", st.ThreadID, "agent", def.Name(), "tool", fc.Name, "fc_id", fc.ID)
	}

	start := time.Now()

	result, err := e.call(ctx, st, def, fc)

	e.logger.Info("flow.tool.executed",
		"thread_id", st.ThreadID,
		"agent", def.Name(),
		"tool", fc.Name,
		"fc_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return core.NewToolErrorMessage(def.Name(), fc.ID, fc.Name, ToolErrorContent(fc.Name, err))
	}

	return core.NewToolResultMessage(def.Name(), fc.ID, fc.Name, tool.RenderResult(result))
}

// call resolves and invokes one tool with panic recovery and timeout.
func (e *ToolExecutor) call(ctx context.Context, st *core.ConversationState, def *agent.Definition, fc core.FunctionCall) (any, error) {
	if p, ok := tool.ParsePseudo(fc.Name); ok {
		return nil, tool.NewToolError(fc.Name, fmt.Sprintf("routing tool %s cannot be executed", p), tool.CodeValidation)
	}

	impl, ok := def.Tool(fc.Name)
	if !ok {
		return nil, tool.NewToolError(fc.Name, fmt.Sprintf("tool %s is not available to agent %s", fc.Name, def.Name()), tool.CodeNotFound)
	}

	args, err := fc.DecodeArguments()
	if err != nil {
		return nil, tool.NewToolError(fc.Name, err.Error(), tool.CodeValidation)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	callCtx := ctx

	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	toolCtx := core.NewToolContext(callCtx, st.ThreadID, def.Name(), fc.ID, st.UserContext, e.logger)

	type outcome struct {
		result any
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		var out outcome

		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("flow.tool.panic", "agent", def.Name(), "tool", fc.Name, "recover", r)
				out = outcome{err: panicError(fc.Name, r)}
			}
			done <- out
		}()

		out.result, out.err = impl.Call(toolCtx, args)
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, tool.NewToolError(fc.Name, fmt.Sprintf("timed out after %s", e.cfg.CallTimeout), tool.CodeTimeout)
		}
		return nil, callCtx.Err()
	}
}

// ToolErrorContent renders err as the content of a tool error result. Errors
// that mention tool-call internals are replaced by a generic request to
// simplify.
func ToolErrorContent(name string, err error) string {
	text := err.Error()
	if strings.Contains(text, "tool_call") {
		return SimplifyToolErrorText
	}

	var toolErr *tool.ToolError
	if errors.As(err, &toolErr) {
		text = toolErr.Message
	}

	return fmt.Sprintf("Error while executing tool %s: %s", name, text)
}

func panicError(name string, r any) error {
	return &tool.ToolError{
		Tool:    name,
		Message: fmt.Sprintf("panic recovered: %v", r),
		Code:    tool.CodePanic,
		Details: string(debug.Stack()),
	}
}
