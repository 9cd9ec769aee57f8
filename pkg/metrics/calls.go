package metrics

import (
	"sort"
	"sync"
	"time"
)

// Summary is the aggregate of all calls recorded under one name.
type Summary struct {
	Name     string
	Calls    int64
	Failures int64
	Total    time.Duration
	Slowest  time.Duration
}

// Average returns the mean call duration, zero when nothing was recorded.
func (summary Summary) Average() time.Duration {
	if summary.Calls == 0 {
		return 0
	}

	return summary.Total / time.Duration(summary.Calls)
}

// Calls tracks latency and failures of remote calls, keyed by name.
type Calls struct {
	mu      sync.RWMutex
	byName  map[string]*Summary
	ordered []string
}

// NewCalls creates an empty Calls instance.
func NewCalls() *Calls {
	return &Calls{byName: make(map[string]*Summary)}
}

// Record adds one call. A nil receiver records nothing.
func (m *Calls) Record(name string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	summary, ok := m.byName[name]

	if !ok {
		summary = &Summary{Name: name}
		m.byName[name] = summary
		m.ordered = append(m.ordered, name)
	}

	summary.Calls++
	summary.Total += duration

	if failed {
		summary.Failures++
	}

	if duration > summary.Slowest {
		summary.Slowest = duration
	}
}

// Snapshot returns a copy of every summary, busiest first.
func (m *Calls) Snapshot() []Summary {
	if m == nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.ordered))

	for _, name := range m.ordered {
		out = append(out, *m.byName[name])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Calls > out[j].Calls
	})

	return out
}
