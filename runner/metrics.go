package runner

import (
	"maps"
	"sync"
	"time"
)

// Metrics is a point-in-time snapshot of runner counters.
type Metrics struct {
	// Invocations counts handled messages per final agent.
	Invocations map[string]int64
	// ResponseTime is the cumulative handling time per final agent.
	ResponseTime map[string]time.Duration
	// ActiveThreads is the number of threads seen since start and not deleted.
	ActiveThreads int
	// Degraded counts messages answered with a recoverable failure.
	Degraded int64
	// PersistenceFailures counts failed loads and saves.
	PersistenceFailures int64
}

// AverageResponseTime returns the mean handling time of agent.
func (m Metrics) AverageResponseTime(agent string) time.Duration {
	n := m.Invocations[agent]
	if n == 0 {
		return 0
	}
	return m.ResponseTime[agent] / time.Duration(n)
}

type metrics struct {
	mu           sync.Mutex
	invocations  map[string]int64
	responseTime map[string]time.Duration
	threads      map[string]struct{}
	degraded     int64
	persistence  int64
}

func newMetrics() *metrics {
	return &metrics{
		invocations:  make(map[string]int64),
		responseTime: make(map[string]time.Duration),
		threads:      make(map[string]struct{}),
	}
}

// observe records one handled message and returns the agent's updated
// invocation count and mean response time plus the active thread count.
func (m *metrics) observe(threadID, agent string, d time.Duration, degraded bool) (int64, time.Duration, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invocations[agent]++
	m.responseTime[agent] += d
	m.threads[threadID] = struct{}{}

	if degraded {
		m.degraded++
	}

	n := m.invocations[agent]

	return n, m.responseTime[agent] / time.Duration(n), len(m.threads)
}

func (m *metrics) persistenceFailed() {
	m.mu.Lock()
	m.persistence++
	m.mu.Unlock()
}

func (m *metrics) forget(threadID string) {
	m.mu.Lock()
	delete(m.threads, threadID)
	m.mu.Unlock()
}

func (m *metrics) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Metrics{
		Invocations:         maps.Clone(m.invocations),
		ResponseTime:        maps.Clone(m.responseTime),
		ActiveThreads:       len(m.threads),
		Degraded:            m.degraded,
		PersistenceFailures: m.persistence,
	}
}
