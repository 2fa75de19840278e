package knowledge

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Collection names used by the travel tools.
const (
	Articles = "articles"
	General  = "general"
	Currency = "currency"
)

// Entry is a stored knowledge item.
type Entry struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is a scored search hit.
type Result struct {
	Entry
	Score float64 `json:"score"`
}

// Searcher is the read side used by tools.
type Searcher interface {
	Search(collection, query string, limit int) ([]Result, error)
}

// InMemoryStore is a process-local knowledge base.
//
// Concurrency: protected by RWMutex.
// Search: linear scan scoring the share of query terms found in title and
// content. An empty query matches everything with score 1.0.
type InMemoryStore struct {
	mu      sync.RWMutex
	storage map[string]map[string]Entry // collection -> entry id -> entry
}

var _ Searcher = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{storage: make(map[string]map[string]Entry)}
}

// Store adds an entry to collection. Entries without id get a generated
// incremental id which is returned.
func (m *InMemoryStore) Store(collection string, e Entry) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("collection is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.storage[collection]; !exists {
		m.storage[collection] = make(map[string]Entry)
	}

	if e.ID == "" {
		e.ID = fmt.Sprintf("%s_%d", collection, len(m.storage[collection]))
	}

	e.Metadata = maps.Clone(e.Metadata)
	m.storage[collection][e.ID] = e

	return e.ID, nil
}

// Search returns up to limit entries ordered by descending score, then id.
func (m *InMemoryStore) Search(collection, query string, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, exists := m.storage[collection]
	if !exists {
		return []Result{}, nil
	}

	terms := tokenize(query)

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		score := 1.0
		if len(terms) > 0 {
			score = overlap(terms, tokenize(e.Title+" "+e.Content))
		}
		if score == 0 {
			continue
		}
		hit := e
		hit.Metadata = maps.Clone(e.Metadata)
		results = append(results, Result{Entry: hit, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Delete removes an entry by id.
func (m *InMemoryStore) Delete(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, exists := m.storage[collection]
	if !exists {
		return fmt.Errorf("entry not found")
	}
	if _, exists := entries[id]; !exists {
		return fmt.Errorf("entry not found")
	}

	delete(entries, id)

	return nil
}

// Len returns the number of entries in collection.
func (m *InMemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.storage[collection])
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) > 1 {
			out[f] = struct{}{}
		}
	}

	return out
}

func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}

	hits := 0
	for t := range query {
		if _, ok := doc[t]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(query))
}
