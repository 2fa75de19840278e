package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolContext(callID string) *core.ToolContext {
	return core.NewToolContext(context.Background(), "thread-1", "hotel", callID,
		map[string]string{"user_id": "42"}, logging.NoOpLogger{})
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nights": map[string]any{"type": "integer"},
		},
		"required": []string{"nights"},
	}

	quote := NewFunctionTool("count_nights", "Echo nights", params, func(tc *core.ToolContext, args map[string]any) (any, error) {
		uid, _ := tc.UserValue("user_id")
		return map[string]any{"nights": args["nights"], "user": uid}, nil
	})

	result, err := quote.Call(newToolContext("fc1"), map[string]any{"nights": 2.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"nights": 2.0, "user": "42"}, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	type args struct {
		BookingID int `json:"booking_id"`
	}

	called := false
	ft := NewFunctionToolFromStruct("cancel", "Cancel", args{}, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		called = true
		return nil, nil
	})

	_, err := ft.Call(newToolContext("fc2"), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.False(t, called)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}

	failing := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := failing.Call(newToolContext("fc3"), map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}

	missing := NewFunctionTool("get_hotel_details", "Details", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, NewToolError("get_hotel_details", "hotel 9 not found", CodeNotFound)
	})

	_, err := missing.Call(newToolContext("fc4"), map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeNotFound, toolErr.Code)
}

// -------------------- Pseudo-tool Tests --------------------

func TestParsePseudo(t *testing.T) {
	tests := []struct {
		name     string
		want     Pseudo
		ok       bool
		handoff  bool
		escalate bool
	}{
		{"ToHotelAgent", ToHotelAgent, true, true, false},
		{"ToFlightAgent", ToFlightAgent, true, true, false},
		{"ToTourAgent", ToTourAgent, true, true, false},
		{"ToCustomerService", ToCustomerService, true, true, false},
		{"ToSupervisor", ToSupervisor, true, false, false},
		{"CompleteOrEscalate", CompleteOrEscalate, true, false, true},
		{"book_hotel_room", NotPseudo, false, false, false},
		{"tohotelagent", NotPseudo, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePseudo(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.handoff, got.IsHandoff())
			assert.Equal(t, tt.escalate, got.IsEscalate())
		})
	}
}

func TestHandoffPriority(t *testing.T) {
	assert.Equal(t, []Pseudo{ToHotelAgent, ToFlightAgent, ToTourAgent, ToCustomerService, ToSupervisor}, HandoffPriority)
}

func TestPseudoTool_DeclaredButNotExecutable(t *testing.T) {
	for p := ToHotelAgent; p <= CompleteOrEscalate; p++ {
		pt := NewPseudoTool(p)
		assert.Equal(t, p.String(), pt.Name())
		assert.NotEmpty(t, pt.Description())
		assert.Equal(t, "object", pt.Parameters()["type"])

		_, err := pt.Call(newToolContext("fc"), map[string]any{})
		assert.Error(t, err)
	}

	assert.Panics(t, func() { NewPseudoTool(NotPseudo) })
}

// -------------------- Result rendering / errors --------------------

func TestRenderResult(t *testing.T) {
	assert.Equal(t, "", RenderResult(nil))
	assert.Equal(t, "plain", RenderResult("plain"))
	assert.Equal(t, `{"id":3}`, RenderResult(map[string]int{"id": 3}))
}

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", CodeTimeout)
	assert.Contains(t, err.Error(), CodeTimeout)
	assert.Contains(t, err.Error(), "demo")
}
