package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/flow"
	"github.com/hupe1980/travelmesh/internal/testutil"
	"github.com/hupe1980/travelmesh/knowledge"
	"github.com/hupe1980/travelmesh/model"
	"github.com/hupe1980/travelmesh/session"
	"github.com/hupe1980/travelmesh/travel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, m model.Model, optFns ...func(o *Options)) *Runner {
	t.Helper()

	kb := knowledge.NewInMemoryStore()
	require.NoError(t, knowledge.Seed(kb))

	catalog := travel.NewCatalog(travel.NewMemoryInventory(travel.DefaultSeed()), kb)

	defs, err := agent.NewDefinitions(catalog, agent.Extensions{})
	require.NoError(t, err)

	return New(flow.NewGraph(defs, m), optFns...)
}

func TestRunner_SupervisorAnswersDirectly(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, model.NewMockModel("mock", "test", model.Reply{Content: "Hello! Where would you like to travel?"}))

	resp, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, Response{ThreadID: "t1", FinalAgent: core.Supervisor, Answer: "Hello! Where would you like to travel?"}, resp)

	agentName, err := r.CurrentAgent(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, core.Supervisor, agentName)

	st, err := r.Thread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []core.Role{core.RoleUser, core.RoleAssistant}, testutil.Roles(st.Messages))
}

func TestRunner_HandOffExecuteAndResume(t *testing.T) {
	ctx := context.Background()
	m := model.NewMockModel("mock", "test",
		model.Reply{ToolCalls: []core.FunctionCall{testutil.Call("c1", "ToHotelAgent", `{"request":"hotel in Bali","desired_date":"2026-06-01"}`)}},
		model.Reply{ToolCalls: []core.FunctionCall{testutil.Call("c2", "search_hotels_by_location", `{"location":"Bali"}`)}},
		model.Reply{Content: "The Mulia Bali is available. Which room type?"},
		model.Reply{Content: "Great, the Ocean View room it is."},
	)
	r := newRunner(t, m)

	resp, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "Find me a hotel in Bali", UserContext: map[string]string{"user_id": "7"}})
	require.NoError(t, err)
	assert.Equal(t, agent.Hotel, resp.FinalAgent)
	assert.Equal(t, "The Mulia Bali is available. Which room type?", resp.Answer)

	st, err := r.Thread(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, core.ValidatePairing(st.Messages))
	assert.Equal(t, "7", st.UserContext["user_id"])

	var toolOutput string
	for _, msg := range st.Messages {
		if msg.ToolCallID == "c2" {
			toolOutput = msg.Content
		}
	}
	assert.Contains(t, toolOutput, "The Mulia Bali")

	// the next message resumes the hotel specialist directly
	resp, err = r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "Ocean View please"})
	require.NoError(t, err)
	assert.Equal(t, agent.Hotel, resp.FinalAgent)
	assert.Equal(t, 4, m.Calls())

	metrics := r.Metrics()
	assert.Equal(t, int64(2), metrics.Invocations[agent.Hotel])
	assert.Equal(t, 1, metrics.ActiveThreads)
}

func TestRunner_RecursionLimitAnswersSimplify(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	n := 0
	m.Responder = func(model.Request) model.Reply {
		n++
		return model.Reply{ToolCalls: []core.FunctionCall{testutil.Call(fmt.Sprintf("c%d", n), "get_tours", "")}}
	}

	store := session.NewInMemoryStore()
	st := testutil.NewStateBuilder("t1").Stack(agent.Tour).Build()
	require.NoError(t, store.Save(context.Background(), st))

	r := newRunner(t, m, func(o *Options) { o.Store = store })

	resp, err := r.HandleMessage(context.Background(), Request{ThreadID: "t1", Query: "show every tour forever"})
	require.NoError(t, err)
	assert.Equal(t, core.Supervisor, resp.FinalAgent)
	assert.Equal(t, flow.SimplifyText, resp.Answer)
	assert.Equal(t, int64(1), r.Metrics().Degraded)
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (*core.ConversationState, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) Save(context.Context, *core.ConversationState) error { return errors.New("connection refused") }
func (brokenStore) Delete(context.Context, string) error                { return errors.New("connection refused") }

func TestRunner_PersistenceFailureStillAnswers(t *testing.T) {
	r := newRunner(t, model.NewMockModel("mock", "test", model.Reply{Content: "Hi!"}),
		func(o *Options) { o.Store = brokenStore{} })

	resp, err := r.HandleMessage(context.Background(), Request{ThreadID: "t1", Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi!", resp.Answer)
	// the state built after the failed load is never written back
	assert.Equal(t, int64(1), r.Metrics().PersistenceFailures)
}

func TestRunner_FallbackStoreKeepsThreadDuringOutage(t *testing.T) {
	ctx := context.Background()
	m := model.NewMockModel("mock", "test",
		model.Reply{ToolCalls: []core.FunctionCall{testutil.Call("c1", "ToFlightAgent", `{"request":"flight","desired_date":"2026-06-01"}`)}},
		model.Reply{Content: "From where?"},
		model.Reply{Content: "Searching flights from Jakarta."},
	)
	r := newRunner(t, m, func(o *Options) { o.Store = session.NewFallbackStore(brokenStore{}) })

	_, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "I need a flight"})
	require.NoError(t, err)

	resp, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "Jakarta"})
	require.NoError(t, err)
	assert.Equal(t, agent.Flight, resp.FinalAgent)
	assert.Equal(t, int64(1), r.Metrics().PersistenceFailures)
}

// flakyStore fails the next Load calls of an in-memory store.
type flakyStore struct {
	*session.InMemoryStore
	failLoads int
}

func (f *flakyStore) Load(ctx context.Context, threadID string) (*core.ConversationState, error) {
	if f.failLoads > 0 {
		f.failLoads--
		return nil, errors.New("connection reset by peer")
	}
	return f.InMemoryStore.Load(ctx, threadID)
}

func TestRunner_TransientLoadFailureKeepsDurableThread(t *testing.T) {
	tests := []struct {
		name  string
		store func(primary *flakyStore) core.StateStore
	}{
		{
			name:  "plain store",
			store: func(primary *flakyStore) core.StateStore { return primary },
		},
		{
			name:  "fallback store",
			store: func(primary *flakyStore) core.StateStore { return session.NewFallbackStore(primary) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := model.NewMockModel("mock", "test",
				model.Reply{ToolCalls: []core.FunctionCall{testutil.Call("c1", "ToFlightAgent", `{"request":"flight","desired_date":"2026-06-01"}`)}},
				model.Reply{Content: "From where?"},
				model.Reply{Content: "How can I help you today?"},
				model.Reply{Content: "Searching flights from Jakarta."},
			)

			primary := &flakyStore{InMemoryStore: session.NewInMemoryStore()}
			r := newRunner(t, m, func(o *Options) { o.Store = tt.store(primary) })

			resp, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "I need a flight"})
			require.NoError(t, err)
			require.Equal(t, agent.Flight, resp.FinalAgent)

			durable, err := primary.InMemoryStore.Load(ctx, "t1")
			require.NoError(t, err)
			require.Len(t, durable.Messages, 4)

			primary.failLoads = 1

			resp, err = r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "Jakarta"})
			require.NoError(t, err)
			assert.Equal(t, core.Supervisor, resp.FinalAgent)

			stored, err := primary.InMemoryStore.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, durable.Messages, stored.Messages)
			assert.Equal(t, []string{agent.Flight}, stored.Stack.Items())

			// once the store answers again the thread resumes where it was
			resp, err = r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "Jakarta"})
			require.NoError(t, err)
			assert.Equal(t, agent.Flight, resp.FinalAgent)
			assert.Equal(t, "Searching flights from Jakarta.", resp.Answer)

			stored, err = primary.InMemoryStore.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Len(t, stored.Messages, 6)
			assert.Equal(t, int64(1), r.Metrics().PersistenceFailures)
		})
	}
}

func TestRunner_FailedRunWithUnpairedLogIsNotSaved(t *testing.T) {
	ctx := context.Background()

	// a stored log holding a result for a call it never made
	broken := core.NewConversationState("t1", nil)
	broken.Messages = []core.Message{
		core.NewUserMessage("hi"),
		core.NewToolResultMessage(core.Supervisor, "c1", "ToHotelAgent", "stale"),
	}

	store := session.NewInMemoryStore()
	require.NoError(t, store.Save(ctx, broken))

	m := model.NewMockModel("mock", "test",
		model.Reply{ToolCalls: []core.FunctionCall{testutil.Call("c1", "ToHotelAgent", `{"request":"hotel in Bali"}`)}},
	)
	r := newRunner(t, m, func(o *Options) { o.Store = store })

	resp, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "hotel in Bali"})
	require.NoError(t, err)
	assert.Equal(t, flow.DefaultFallbackText, resp.Answer)
	assert.Equal(t, int64(1), r.Metrics().Degraded)

	st, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, st.Messages, 2)
	assert.Empty(t, st.Stack.Items())
}

func TestRunner_SettleClosesOpenCalls(t *testing.T) {
	r := newRunner(t, model.NewMockModel("mock", "test"))

	st := testutil.NewStateBuilder("t1").
		Stack(agent.Hotel).
		User("find a hotel").
		Assistant(agent.Hotel, "", testutil.Call("c1", "search_hotels_by_location", `{"location":"Bali"}`), testutil.Call("c2", "CompleteOrEscalate", `{"reason":"done"}`)).
		Build()

	require.True(t, r.settle(st))
	assert.Empty(t, st.PendingToolCalls())
	require.NoError(t, core.ValidatePairing(st.Messages))
	assert.Equal(t, []core.Role{core.RoleUser, core.RoleAssistant, core.RoleTool, core.RoleTool}, testutil.Roles(st.Messages))
}

func TestRunner_ThreadLifecycle(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, model.NewMockModel("mock", "test"))

	id, err := r.NewThread(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	agentName, err := r.CurrentAgent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Supervisor, agentName)

	for i := 0; i < 3; i++ {
		_, err := r.HandleMessage(ctx, Request{ThreadID: id, Query: fmt.Sprintf("message %d", i), UserContext: map[string]string{"user_id": "1"}})
		require.NoError(t, err)
	}

	require.NoError(t, r.TruncateThread(ctx, id, 2))

	st, err := r.Thread(ctx, id)
	require.NoError(t, err)
	assert.Len(t, st.Messages, 2)
	assert.Equal(t, "1", st.UserContext["user_id"])

	require.Error(t, r.TruncateThread(ctx, id, -1))

	require.NoError(t, r.DeleteThread(ctx, id))

	_, err = r.CurrentAgent(ctx, id)
	require.ErrorIs(t, err, core.ErrThreadNotFound)
	assert.Equal(t, 0, r.Metrics().ActiveThreads)
}

func TestRunner_EmptyQueryAndGeneratedThreadID(t *testing.T) {
	r := newRunner(t, model.NewMockModel("mock", "test"))

	_, err := r.HandleMessage(context.Background(), Request{ThreadID: "t1", Query: "  "})
	require.ErrorIs(t, err, ErrEmptyQuery)

	resp, err := r.HandleMessage(context.Background(), Request{Query: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ThreadID)
	assert.Equal(t, "Mock response to: hello", resp.Answer)
}

func TestRunner_SerializesMessagesPerThread(t *testing.T) {
	r := newRunner(t, model.NewMockModel("mock", "test"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.HandleMessage(context.Background(), Request{ThreadID: "shared", Query: fmt.Sprintf("q%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := r.Thread(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, st.Messages, 16)
	assert.Equal(t, 0, r.locks.len())
}

func TestRunner_CancelledContext(t *testing.T) {
	r := newRunner(t, model.NewMockModel("mock", "test"), func(o *Options) { o.MaxConcurrentRuns = 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.HandleMessage(ctx, Request{ThreadID: "t1", Query: "hello"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMetrics_AverageResponseTime(t *testing.T) {
	m := Metrics{
		Invocations:  map[string]int64{"hotel": 2},
		ResponseTime: map[string]time.Duration{"hotel": 300 * time.Millisecond},
	}

	assert.Equal(t, 150*time.Millisecond, m.AverageResponseTime("hotel"))
	assert.Equal(t, time.Duration(0), m.AverageResponseTime("tour"))
}
