package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/travelmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_ScriptedReplies(t *testing.T) {
	m := NewMockModel("mock", "test",
		Reply{ToolCalls: []core.FunctionCall{{ID: "c1", Name: "get_hotels"}}},
		Reply{Err: errors.New("boom")},
	)

	req := Request{Messages: []core.Message{core.NewUserMessage("hotels?")}}

	msg, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_hotels", msg.ToolCalls[0].Name)

	_, err = Collect(context.Background(), m, req)
	assert.EqualError(t, err, "boom")

	msg, err = Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hotels?", msg.Content)

	assert.Equal(t, 3, m.Calls())
	assert.Len(t, m.Requests(), 3)
}

func TestMockModel_Responder(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.Responder = func(req Request) Reply { return Reply{Content: req.Instructions} }

	msg, err := Collect(context.Background(), m, Request{Instructions: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "echo", msg.Content)
}

func TestCollect_StreamingUsesFinalMessage(t *testing.T) {
	m := NewMockModel("mock", "test", Reply{Content: "hello"})

	msg, err := Collect(context.Background(), m, Request{Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
}

type partialOnlyModel struct{}

func (partialOnlyModel) Info() Info { return Info{Name: "partial"} }

func (partialOnlyModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 2)
	errCh := make(chan error)
	out <- Response{Partial: true, Message: core.Message{Content: "he"}}
	out <- Response{Partial: true, Message: core.Message{Content: "y"}}
	close(out)
	close(errCh)
	return out, errCh
}

type silentModel struct{}

func (silentModel) Info() Info { return Info{Name: "silent"} }

func (silentModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	out := make(chan Response)
	errCh := make(chan error)
	close(out)
	close(errCh)
	return out, errCh
}

func TestCollect_PartialsAndEmpty(t *testing.T) {
	msg, err := Collect(context.Background(), partialOnlyModel{}, Request{})
	require.NoError(t, err)
	assert.Equal(t, "hey", msg.Content)

	_, err = Collect(context.Background(), silentModel{}, Request{})
	assert.Error(t, err)
}

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMockModel("mock", "test", Reply{Content: "late"})
	_, err := Collect(ctx, m, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
