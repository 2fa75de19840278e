package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/hupe1980/travelmesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserContext(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", in: nil, want: nil},
		{name: "pairs", in: []string{"user_id=7", " name = Ada "}, want: map[string]string{"user_id": "7", "name": "Ada"}},
		{name: "value with equals", in: []string{"note=a=b"}, want: map[string]string{"note": "a=b"}},
		{name: "missing separator", in: []string{"user_id"}, wantErr: true},
		{name: "empty key", in: []string{"=7"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUserContext(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChatCmd_Print(t *testing.T) {
	resp := travelmesh.Response{ThreadID: "t1", FinalAgent: "hotel", Answer: "Booked."}

	var text bytes.Buffer
	require.NoError(t, (&ChatCmd{}).print(&text, resp))
	assert.Equal(t, "[hotel] Booked.\n", text.String())

	var js bytes.Buffer
	require.NoError(t, (&ChatCmd{JSON: true}).print(&js, resp))
	assert.JSONEq(t, `{"thread_id":"t1","final_agent_name":"hotel","answer_text":"Booked."}`, js.String())
}

func TestRun_ThreadLifecycle(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "threads.db")

	t.Setenv("TRAVELMESH_MODEL_PROVIDER", "mock")
	t.Setenv("TRAVELMESH_STORAGE_BACKEND", "sqlite")
	t.Setenv("TRAVELMESH_STORAGE_DSN", dsn)
	t.Setenv("TRAVELMESH_LOG_LEVEL", "error")

	assert.Equal(t, 0, Run([]string{"thread", "new"}))
	assert.Equal(t, 0, Run([]string{"chat", "-t", "t1", "-q", "hello"}))
	assert.Equal(t, 0, Run([]string{"thread", "agent", "t1"}))
	assert.Equal(t, 0, Run([]string{"thread", "truncate", "-k", "1", "t1"}))
	assert.Equal(t, 0, Run([]string{"thread", "delete", "t1"}))
	assert.Equal(t, 1, Run([]string{"thread", "agent", "t1"}))
}

func TestRun_InvalidInput(t *testing.T) {
	t.Setenv("TRAVELMESH_MODEL_PROVIDER", "mock")

	assert.Equal(t, 1, Run([]string{"chat", "-u", "broken", "-q", "hi"}))
	assert.Equal(t, 1, Run([]string{"unknown"}))
	assert.Equal(t, 0, Run([]string{"--help"}))
}
