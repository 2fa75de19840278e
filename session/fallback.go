package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/logging"
)

var _ core.StateStore = (*FallbackStore)(nil)

// FallbackOptions configures a FallbackStore.
type FallbackOptions struct {
	// Fallback receives operations the primary store could not serve.
	// Defaults to a fresh InMemoryStore.
	Fallback *InMemoryStore
	Logger   logging.Logger
}

// FallbackStore wraps a durable primary store. Any primary failure other than
// core.ErrThreadNotFound is logged as a warning and the operation is served by
// the in-memory fallback instead. States saved during an outage stay readable
// until the primary accepts a newer snapshot.
//
// A thread whose primary copy could not be read is detached: its snapshots
// stay in the fallback and never replace the primary copy. Once the primary
// answers again, a primary copy wins over the detached one; a thread the
// primary does not know is adopted from the fallback.
type FallbackStore struct {
	primary  core.StateStore
	fallback *InMemoryStore
	logger   logging.Logger
	engaged  atomic.Int64

	mu       sync.Mutex
	detached map[string]struct{}
}

// NewFallbackStore wraps primary.
func NewFallbackStore(primary core.StateStore, optFns ...func(o *FallbackOptions)) *FallbackStore {
	opts := FallbackOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Fallback == nil {
		opts.Fallback = NewInMemoryStore()
	}

	return &FallbackStore{
		primary:  primary,
		fallback: opts.Fallback,
		logger:   logging.OrNoOp(opts.Logger),
		detached: make(map[string]struct{}),
	}
}

// Load prefers the primary. A snapshot held by the fallback wins when it is
// newer, which happens after saves made during an outage. When the primary
// fails and the fallback has no copy either, Load returns an error wrapping
// core.ErrStoreUnavailable.
func (s *FallbackStore) Load(ctx context.Context, threadID string) (*core.ConversationState, error) {
	st, err := s.primary.Load(ctx, threadID)
	if err != nil && !errors.Is(err, core.ErrThreadNotFound) {
		s.engage("load", threadID, err)

		local, localErr := s.fallback.Load(ctx, threadID)
		if localErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
		}

		return local, nil
	}

	local, localErr := s.fallback.Load(ctx, threadID)
	if localErr != nil {
		return st, err
	}

	if s.isDetached(threadID) {
		s.attach(threadID)

		if st == nil {
			s.logger.Info("session.fallback.adopted", "thread_id", threadID, "messages", len(local.Messages))
			return local, nil
		}

		s.logger.Warn("session.fallback.discarded", "thread_id", threadID, "messages", len(local.Messages))

		if err := s.fallback.Delete(ctx, threadID); err != nil {
			return nil, err
		}

		return st, nil
	}

	if st == nil || local.Updated.After(st.Updated) {
		return local, nil
	}

	return st, nil
}

// Save writes to the primary, or to the fallback when the primary fails.
// Snapshots of detached threads only go to the fallback.
func (s *FallbackStore) Save(ctx context.Context, state *core.ConversationState) error {
	if s.isDetached(state.ThreadID) {
		return s.fallback.Save(ctx, state)
	}

	if err := s.primary.Save(ctx, state); err != nil {
		s.engage("save", state.ThreadID, err)
		return s.fallback.Save(ctx, state)
	}

	// the primary now holds the latest snapshot
	return s.fallback.Delete(ctx, state.ThreadID)
}

// SaveDetached stores state in the fallback only and detaches its thread.
// It is meant for states rebuilt after Load failed, which must not overwrite
// whatever the primary still holds.
func (s *FallbackStore) SaveDetached(ctx context.Context, state *core.ConversationState) error {
	s.mu.Lock()
	s.detached[state.ThreadID] = struct{}{}
	s.mu.Unlock()

	s.logger.Warn("session.fallback.detached", "thread_id", state.ThreadID)

	return s.fallback.Save(ctx, state)
}

// Delete removes the thread from both stores.
func (s *FallbackStore) Delete(ctx context.Context, threadID string) error {
	if err := s.primary.Delete(ctx, threadID); err != nil {
		s.engage("delete", threadID, err)
	}

	s.attach(threadID)

	return s.fallback.Delete(ctx, threadID)
}

// Engaged returns how many operations were served by the fallback.
func (s *FallbackStore) Engaged() int64 { return s.engaged.Load() }

func (s *FallbackStore) engage(op, threadID string, err error) {
	s.engaged.Add(1)
	s.logger.Warn("session.fallback.engaged", "op", op, "thread_id", threadID, "error", err.Error())
}

func (s *FallbackStore) isDetached(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.detached[threadID]

	return ok
}

func (s *FallbackStore) attach(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.detached, threadID)
}
