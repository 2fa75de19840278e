package session

import (
	"context"
	"slices"
	"sync"

	"github.com/hupe1980/travelmesh/core"
)

var _ core.StateStore = (*InMemoryStore)(nil)

// InMemoryStore is a volatile StateStore storing conversation states in a
// process local map. It is safe for concurrent access. States are cloned on
// the way in and out to prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*core.ConversationState
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: make(map[string]*core.ConversationState)}
}

// Load returns a clone of the stored state or core.ErrThreadNotFound.
func (s *InMemoryStore) Load(_ context.Context, threadID string) (*core.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.threads[threadID]
	if !ok {
		return nil, core.ErrThreadNotFound
	}

	return st.Clone(), nil
}

// Save stores a clone of state.
func (s *InMemoryStore) Save(_ context.Context, state *core.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads[state.ThreadID] = state.Clone()

	return nil
}

// Delete removes the thread. Unknown ids are ignored.
func (s *InMemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadID)

	return nil
}

// ThreadIDs returns the stored thread ids in sorted order.
func (s *InMemoryStore) ThreadIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Len returns the number of stored threads.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.threads)
}
