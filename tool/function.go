package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/internal/util"
)

// Func is the implementation behind a FunctionTool. args are already
// validated against the tool's parameter schema.
type Func func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a Go function as a Tool. Failures surface as
// *ToolError: schema mismatches as CodeValidation, plain errors as
// CodeExecution, and a *ToolError returned by the function unchanged.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

// NewFunctionTool creates a FunctionTool with an explicit JSON schema.
func NewFunctionTool(name, description string, parameters map[string]any, fn func(toolCtx *core.ToolContext, args map[string]any) (any, error)) *FunctionTool {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from the fields of
// an argument struct:
//
//	type cancelArgs struct {
//	  BookingID int64 `json:"booking_id" description:"Booking to cancel"`
//	}
//
//	cancel := NewFunctionToolFromStruct("cancel_hotel_booking", "Cancel a hotel booking", cancelArgs{}, fn)
//
// See util.CreateSchema for the recognized tags.
func NewFunctionToolFromStruct(name, description string, structType any, fn func(toolCtx *core.ToolContext, args map[string]any) (any, error)) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args and invokes the function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	attrs := []any{"tool", t.name, "agent", toolCtx.AgentName(), "thread_id", toolCtx.ThreadID(), "fc_id", toolCtx.FunctionCallID()}

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.invalid_args", append(attrs, "error", err.Error())...)

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("invalid arguments: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	start := time.Now()

	result, err := t.fn(toolCtx, args)

	attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

	if err == nil {
		logger.Debug("tool.call.succeeded", attrs...)
		return result, nil
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		toolErr = &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}

	logger.Warn("tool.call.failed", append(attrs, "code", toolErr.Code, "error", toolErr.Message)...)

	return nil, toolErr
}
