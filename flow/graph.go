package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/model"
	"github.com/hupe1980/travelmesh/tool"
)

const (
	// DefaultRecursionLimit is the maximum number of node executions per run.
	DefaultRecursionLimit = 25

	// SimplifyText is the answer of a run that exceeded its recursion limit.
	SimplifyText = "Sorry, your request is too complex to process right now. Please try a simpler or more specific request."

	// NoAnswerText is the answer of a run that ended without any assistant text.
	NoAnswerText = "Could you tell me a bit more about what you need?"
)

// GraphOptions configures a Graph.
type GraphOptions struct {
	RecursionLimit int
	Executor       ExecutorConfig
	Turn           TurnOptions
	Logger         logging.Logger
}

// Graph wires the agent definitions, the model and the routing rules into the
// execution loop.
type Graph struct {
	defs   *agent.Definitions
	turn   *AgentTurn
	exec   *ToolExecutor
	limit  int
	logger logging.Logger
}

// NewGraph creates a Graph over defs driven by m.
func NewGraph(defs *agent.Definitions, m model.Model, optFns ...func(o *GraphOptions)) *Graph {
	opts := GraphOptions{
		RecursionLimit: DefaultRecursionLimit,
		Executor: ExecutorConfig{
			MaxParallel: 1,
			CallTimeout: 30 * time.Second,
		},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	return &Graph{
		defs: defs,
		turn: NewAgentTurn(m, func(o *TurnOptions) {
			if opts.Turn.Attempts > 0 {
				o.Attempts = opts.Turn.Attempts
			}
			if opts.Turn.FallbackText != "" {
				o.FallbackText = opts.Turn.FallbackText
			}
			if opts.Turn.Now != nil {
				o.Now = opts.Turn.Now
			}
			o.Stream = opts.Turn.Stream
			o.Logger = logger
		}),
		exec: NewToolExecutor(func(o *ExecutorOptions) {
			o.ExecutorConfig = opts.Executor
			o.Logger = logger
		}),
		limit:  opts.RecursionLimit,
		logger: logger,
	}
}

// Definitions returns the agent definitions of the graph.
func (g *Graph) Definitions() *agent.Definitions { return g.defs }

// RunResult is the outcome of one run. Errors collects the recoverable
// failures (model fallbacks, failed tool calls, recursion limit) that did
// not stop the run from producing an answer.
type RunResult struct {
	Agent  string
	Answer string
	Steps  int
	Path   []Node
	Errors []error
}

// Err joins the recoverable errors, or returns nil.
func (r RunResult) Err() error { return errors.Join(r.Errors...) }

// LimitExceeded reports whether the run was aborted by the recursion limit.
func (r RunResult) LimitExceeded() bool { return errors.Is(r.Err(), core.ErrRecursionLimit) }

// Run processes the messages already in st (normally a freshly appended user
// message) until End or the recursion limit. Recoverable failures are folded
// into the result; the returned error is non-nil only when ctx is done or the
// message log rejects an append.
func (g *Graph) Run(ctx context.Context, st *core.ConversationState) (RunResult, error) {
	var res RunResult

	budget := core.NewStepBudget(g.limit)
	node := InitialNode(st, g.defs, g.logger)

	for node.Kind != NodeEnd {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := budget.Take(node.String()); err != nil {
			return g.abort(st, res, err)
		}

		res.Steps = budget.Taken()
		res.Path = append(res.Path, node)

		next, err := g.step(ctx, st, node, &res)
		if err != nil {
			return res, err
		}

		g.logger.Debug("flow.route.decided", "thread_id", st.ThreadID, "from", node.String(), "to", next.String())

		node = next
	}

	return g.finish(st, res)
}

func (g *Graph) step(ctx context.Context, st *core.ConversationState, node Node, res *RunResult) (Node, error) {
	switch node.Kind {
	case NodeAgent:
		def, err := g.definition(node.Agent)
		if err != nil {
			return End, err
		}

		turn, err := g.turn.Run(ctx, st, def)
		if err != nil {
			return End, err
		}

		if turn.Err != nil {
			res.Errors = append(res.Errors, turn.Err)
		}

		if def.Name() == core.Supervisor {
			return Dispatch(turn.Message), nil
		}

		return Route(turn.Message, def), nil

	case NodeTools:
		def, err := g.definition(node.Agent)
		if err != nil {
			return End, err
		}

		exec, err := g.exec.Execute(ctx, st, def)
		if err != nil {
			return End, err
		}

		if exec.Failed > 0 {
			res.Errors = append(res.Errors, &core.TurnError{
				Kind:  core.KindTool,
				Agent: def.Name(),
				Err:   fmt.Errorf("%d of %d tool calls failed", exec.Failed, len(exec.Results)),
			})
		}

		return AgentNode(def.Name()), nil

	case NodeEntry:
		def, err := g.definition(node.Agent)
		if err != nil {
			return End, err
		}

		if _, err := Enter(st, def); err != nil {
			return End, err
		}

		g.logger.Info("flow.handoff", "thread_id", st.ThreadID, "agent", def.Name(), "stack", st.Stack.Items())

		return AgentNode(def.Name()), nil

	case NodeReturn:
		from := st.CurrentAgent()

		if _, err := ReturnToSupervisor(st); err != nil {
			return End, err
		}

		to := resolveAgent(st, g.defs, g.logger)

		g.logger.Info("flow.escalated", "thread_id", st.ThreadID, "from", from, "to", to)

		return AgentNode(to), nil
	}

	return End, nil
}

func (g *Graph) definition(name string) (*agent.Definition, error) {
	if def, ok := g.defs.Get(name); ok {
		return def, nil
	}
	return nil, fmt.Errorf("no definition for agent %s", name)
}

// finish closes calls left without a result at End and extracts the answer.
func (g *Graph) finish(st *core.ConversationState, res RunResult) (RunResult, error) {
	answer := ""
	if last, ok := st.LastAssistant(); ok {
		answer = strings.TrimSpace(last.Content)
	}

	pending := st.PendingToolCalls()

	if answer == "" {
		answer = clarifyingRequest(pending)
	}

	if answer == "" {
		answer = NoAnswerText
	}

	if err := g.closePending(st, pending); err != nil {
		return res, err
	}

	res.Agent = st.CurrentAgent()
	res.Answer = answer

	return res, nil
}

// abort ends a run that exceeded the recursion limit with the simplify
// answer. The supervisor is reported as the answering agent.
func (g *Graph) abort(st *core.ConversationState, res RunResult, cause error) (RunResult, error) {
	g.logger.Warn("flow.recursion_limit", "thread_id", st.ThreadID, "agent", st.CurrentAgent(), "steps", res.Steps)

	if err := g.closePending(st, st.PendingToolCalls()); err != nil {
		return res, err
	}

	res.Errors = append(res.Errors, &core.TurnError{Kind: core.KindRecursionLimit, Agent: st.CurrentAgent(), Err: cause})
	res.Agent = core.Supervisor
	res.Answer = SimplifyText

	return res, nil
}

// Settle answers the calls a failed Run left open so that st satisfies the
// tool call pairing again.
func (g *Graph) Settle(st *core.ConversationState) error {
	return g.closePending(st, st.PendingToolCalls())
}

// closePending answers calls that no node executed: routing calls get a
// neutral acknowledgement, everything else an error result.
func (g *Graph) closePending(st *core.ConversationState, pending []core.FunctionCall) error {
	author := st.CurrentAgent()

	for _, c := range pending {
		var msg core.Message

		if _, ok := tool.ParsePseudo(c.Name); ok {
			msg = core.NewToolResultMessage(author, c.ID, c.Name, "Waiting for the user's reply.")
		} else {
			msg = core.NewToolErrorMessage(author, c.ID, c.Name,
				fmt.Sprintf("Tool call not executed: %s is not available to %s.", c.Name, author))
		}

		if err := st.Append(msg); err != nil {
			return fmt.Errorf("close call %s: %w", c.ID, err)
		}

		g.logger.Warn("flow.call.closed", "thread_id", st.ThreadID, "agent", author, "tool", c.Name, "fc_id", c.ID)
	}

	return nil
}

// clarifyingRequest returns the request argument of a pending ToSupervisor
// call, the supervisor's way of asking the user a question.
func clarifyingRequest(pending []core.FunctionCall) string {
	for _, c := range pending {
		if p, _ := tool.ParsePseudo(c.Name); p != tool.ToSupervisor {
			continue
		}

		args, err := c.DecodeArguments()
		if err != nil {
			continue
		}

		if s, ok := args["request"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	return ""
}
