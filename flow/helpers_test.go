package flow

import (
	"testing"
	"time"

	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/tool"
)

type mockTool struct {
	name     string
	delay    time.Duration
	result   any
	err      error
	panicMsg any
	calls    int
}

func (mt *mockTool) Name() string               { return mt.name }
func (mt *mockTool) Description() string        { return "mock tool" }
func (mt *mockTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (mt *mockTool) Call(tc *core.ToolContext, _ map[string]any) (any, error) {
	mt.calls++
	if mt.delay > 0 {
		select {
		case <-time.After(mt.delay):
		case <-tc.Context().Done():
			return nil, tc.Context().Err()
		}
	}
	if mt.panicMsg != nil {
		panic(mt.panicMsg)
	}
	if mt.result == nil && mt.err == nil {
		return "ok:" + mt.name, nil
	}
	return mt.result, mt.err
}

// mockSource serves a mockTool for every requested name; overrides replace
// individual tools.
type mockSource struct {
	overrides map[string]*mockTool
}

func (s mockSource) Tools(names ...string) ([]tool.Tool, error) {
	out := make([]tool.Tool, len(names))
	for i, n := range names {
		if mt, ok := s.overrides[n]; ok {
			out[i] = mt
			continue
		}
		out[i] = &mockTool{name: n}
	}
	return out, nil
}

func newDefinitions(t *testing.T, overrides ...*mockTool) *agent.Definitions {
	t.Helper()

	src := mockSource{overrides: map[string]*mockTool{}}
	for _, mt := range overrides {
		src.overrides[mt.name] = mt
	}

	defs, err := agent.NewDefinitions(src, agent.Extensions{})
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}

	return defs
}

func mustDefinition(t *testing.T, defs *agent.Definitions, name string) *agent.Definition {
	t.Helper()

	d, ok := defs.Get(name)
	if !ok {
		t.Fatalf("missing definition %s", name)
	}

	return d
}
