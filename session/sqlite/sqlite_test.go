package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, dsn string) *Store {
	t.Helper()

	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, ":memory:")

	_, err := s.Load(ctx, "t1")
	require.ErrorIs(t, err, core.ErrThreadNotFound)

	st := testutil.NewStateBuilder("t1").UserContext("user_id", "42").Stack("hotel").User("rooms in Bali").
		Assistant("hotel", "", testutil.Call("c1", "get_hotels", "")).
		ToolResult("hotel", "c1", "get_hotels", "[]").
		Assistant("hotel", "No hotels available.").Build()

	require.NoError(t, s.Save(ctx, st))

	got, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hotel"}, got.Stack.Items())
	assert.Equal(t, "42", got.UserContext["user_id"])
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "c1", got.Messages[2].ToolCallID)
	require.NoError(t, core.ValidatePairing(got.Messages))

	// upsert replaces the snapshot
	got.PopAgent()
	require.NoError(t, s.Save(ctx, got))

	again, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Stack.Len())

	ids, err := s.ThreadIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids)

	require.NoError(t, s.Delete(ctx, "t1"))
	require.NoError(t, s.Delete(ctx, "t1"))

	_, err = s.Load(ctx, "t1")
	require.ErrorIs(t, err, core.ErrThreadNotFound)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "threads.db")

	s := openStore(t, dsn)
	require.NoError(t, s.Save(ctx, testutil.NewStateBuilder("t1").User("hi").Build()))
	require.NoError(t, s.Close())

	reopened := openStore(t, dsn)
	got, err := reopened.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}
