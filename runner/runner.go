package runner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/flow"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/session"
)

// ErrEmptyQuery is returned by HandleMessage for a blank query.
var ErrEmptyQuery = errors.New("query is empty")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Store persists conversation states. Defaults to an in-memory store.
	Store core.StateStore
	// MaxConcurrentRuns limits runs across all threads; 0 means unlimited.
	MaxConcurrentRuns int
	// DisableThreadLock skips per-thread serialization for deployments that
	// already serialize messages of a thread.
	DisableThreadLock bool
	// Logger receives runner and graph logs.
	Logger logging.Logger
}

// WithoutThreadLock disables per-thread serialization.
func WithoutThreadLock(o *Options) { o.DisableThreadLock = true }

// Request is one inbound user message.
type Request struct {
	// ThreadID identifies the conversation. Empty starts a new thread.
	ThreadID string `json:"thread_id"`
	// Query is the user's text.
	Query string `json:"query"`
	// UserContext is stored with the thread on its first message and passed
	// read-only to prompts and tools afterwards.
	UserContext map[string]string `json:"user_context,omitempty"`
}

// Response is the answer to one Request.
type Response struct {
	ThreadID   string `json:"thread_id"`
	FinalAgent string `json:"final_agent_name"`
	Answer     string `json:"answer_text"`
}

// Runner coordinates message handling: loads thread state, runs the graph,
// persists the result and records metrics. Public methods are safe for
// concurrent use.
type Runner struct {
	graph  *flow.Graph
	store  core.StateStore
	locks  *threadLocks
	sem    chan struct{}
	stats  *metrics
	logger logging.Logger
}

// New constructs a Runner around graph.
func New(graph *flow.Graph, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Store: session.NewInMemoryStore(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Runner{
		graph:  graph,
		store:  opts.Store,
		stats:  newMetrics(),
		logger: logging.OrNoOp(opts.Logger),
	}

	if !opts.DisableThreadLock {
		r.locks = newThreadLocks()
	}

	if opts.MaxConcurrentRuns > 0 {
		r.sem = make(chan struct{}, opts.MaxConcurrentRuns)
	}

	return r
}

// HandleMessage processes one user message for req.ThreadID. Failures of the
// model, tools, recursion limit and persistence still produce a Response;
// the error is non-nil for an empty query or when ctx is done.
func (r *Runner) HandleMessage(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Response{}, ErrEmptyQuery
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = core.NewID()
	}

	release, err := r.acquire(ctx, threadID)
	if err != nil {
		return Response{}, err
	}
	defer release()

	start := time.Now()

	st, loaded := r.load(ctx, threadID, req.UserContext)

	if err := st.Append(core.NewUserMessage(req.Query)); err != nil {
		return Response{}, fmt.Errorf("append user message: %w", err)
	}

	res, err := r.graph.Run(ctx, st)
	persist := true

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}

		r.logger.Error("runner.run.failed", "thread_id", threadID, "error", err.Error())

		res.Agent = st.CurrentAgent()
		res.Answer = flow.DefaultFallbackText
		res.Errors = append(res.Errors, err)

		persist = r.settle(st)
	}

	switch {
	case !persist:
	case loaded:
		r.save(ctx, st)
	default:
		r.saveDetached(ctx, st)
	}

	dur := time.Since(start)
	n, avg, active := r.stats.observe(threadID, res.Agent, dur, len(res.Errors) > 0)

	r.logger.Info("runner.message.handled",
		"thread_id", threadID,
		"agent", res.Agent,
		"steps", res.Steps,
		"duration_ms", dur.Milliseconds(),
		"degraded", len(res.Errors) > 0,
	)

	r.logger.Debug("runner.metrics",
		"agent", res.Agent,
		"invocations", n,
		"avg_response_ms", avg.Milliseconds(),
		"active_threads", active,
	)

	for _, e := range res.Errors {
		r.logger.Warn("runner.run.degraded", "thread_id", threadID, "kind", core.KindOf(e).String(), "error", e.Error())
	}

	return Response{ThreadID: threadID, FinalAgent: res.Agent, Answer: res.Answer}, nil
}

// NewThread creates and persists an empty thread and returns its id.
func (r *Runner) NewThread(ctx context.Context) (string, error) {
	id := core.NewID()

	if err := r.store.Save(ctx, core.NewConversationState(id, nil)); err != nil {
		r.stats.persistenceFailed()
		return "", fmt.Errorf("create thread: %w", err)
	}

	r.logger.Info("runner.thread.created", "thread_id", id)

	return id, nil
}

// DeleteThread removes the stored state of threadID.
func (r *Runner) DeleteThread(ctx context.Context, threadID string) error {
	release, err := r.acquire(ctx, threadID)
	if err != nil {
		return err
	}
	defer release()

	if err := r.store.Delete(ctx, threadID); err != nil {
		r.stats.persistenceFailed()
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}

	r.stats.forget(threadID)
	r.logger.Info("runner.thread.deleted", "thread_id", threadID)

	return nil
}

// TruncateThread keeps about the last keepLast messages of threadID without
// separating tool results from their calls.
func (r *Runner) TruncateThread(ctx context.Context, threadID string, keepLast int) error {
	if keepLast < 0 {
		return fmt.Errorf("keepLast must not be negative, got %d", keepLast)
	}

	release, err := r.acquire(ctx, threadID)
	if err != nil {
		return err
	}
	defer release()

	st, err := r.store.Load(ctx, threadID)
	if err != nil {
		return fmt.Errorf("truncate thread %s: %w", threadID, err)
	}

	before := len(st.Messages)
	st.Truncate(keepLast)

	if err := r.store.Save(ctx, st); err != nil {
		r.stats.persistenceFailed()
		return fmt.Errorf("truncate thread %s: %w", threadID, err)
	}

	r.logger.Info("runner.thread.truncated", "thread_id", threadID, "before", before, "after", len(st.Messages))

	return nil
}

// CurrentAgent returns the active agent of threadID.
func (r *Runner) CurrentAgent(ctx context.Context, threadID string) (string, error) {
	st, err := r.store.Load(ctx, threadID)
	if err != nil {
		return "", err
	}
	return st.CurrentAgent(), nil
}

// Thread returns a snapshot of the stored state of threadID.
func (r *Runner) Thread(ctx context.Context, threadID string) (*core.ConversationState, error) {
	return r.store.Load(ctx, threadID)
}

// Metrics returns a snapshot of the runner counters.
func (r *Runner) Metrics() Metrics { return r.stats.snapshot() }

func (r *Runner) acquire(ctx context.Context, threadID string) (func(), error) {
	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	unlock := func() {}
	if r.locks != nil {
		unlock = r.locks.lock(threadID)
	}

	return func() {
		unlock()
		if r.sem != nil {
			<-r.sem
		}
	}, nil
}

// load returns the stored state or a fresh one. loaded is false when the
// store failed; the fresh state must then not replace what the store may
// still hold.
func (r *Runner) load(ctx context.Context, threadID string, userContext map[string]string) (*core.ConversationState, bool) {
	st, err := r.store.Load(ctx, threadID)

	switch {
	case err == nil:
	case errors.Is(err, core.ErrThreadNotFound):
		return core.NewConversationState(threadID, userContext), true
	default:
		r.stats.persistenceFailed()
		r.logger.Warn("runner.state.load_failed", "thread_id", threadID, "kind", core.KindPersistence.String(), "error", err.Error())
		return core.NewConversationState(threadID, userContext), false
	}

	if len(st.UserContext) == 0 && len(userContext) > 0 {
		st.UserContext = maps.Clone(userContext)
	} else if len(userContext) > 0 && !maps.Equal(st.UserContext, userContext) {
		r.logger.Debug("runner.user_context.kept", "thread_id", threadID)
	}

	return st, true
}

// settle closes the calls a failed run left open and reports whether the
// message log satisfies the tool call pairing afterwards.
func (r *Runner) settle(st *core.ConversationState) bool {
	err := r.graph.Settle(st)
	if err == nil {
		err = core.ValidatePairing(st.Messages)
	}

	if err != nil {
		r.logger.Error("runner.state.save_skipped", "thread_id", st.ThreadID, "reason", "unpaired_tool_calls", "error", err.Error())
		return false
	}

	return true
}

func (r *Runner) save(ctx context.Context, st *core.ConversationState) {
	if err := r.store.Save(ctx, st); err != nil {
		r.stats.persistenceFailed()
		r.logger.Warn("runner.state.save_failed", "thread_id", st.ThreadID, "kind", core.KindPersistence.String(), "error", err.Error())
	}
}

// detachedSaver is implemented by stores that can keep a state apart from
// their durable copy, e.g. *session.FallbackStore.
type detachedSaver interface {
	SaveDetached(ctx context.Context, state *core.ConversationState) error
}

// saveDetached persists a state built after a failed load. Stores without
// detached saves do not persist it at all.
func (r *Runner) saveDetached(ctx context.Context, st *core.ConversationState) {
	ds, ok := r.store.(detachedSaver)
	if !ok {
		r.logger.Warn("runner.state.save_skipped", "thread_id", st.ThreadID, "reason", "load_failed")
		return
	}

	if err := ds.SaveDetached(ctx, st); err != nil {
		r.stats.persistenceFailed()
		r.logger.Warn("runner.state.save_failed", "thread_id", st.ThreadID, "kind", core.KindPersistence.String(), "error", err.Error())
	}
}
