package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Checker reports the health of one collaborator.
type Checker interface {
	Check(ctx context.Context) Status
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) Status

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context) Status {
	return f(ctx)
}

// Monitor aggregates named checkers into a process-level status.
type Monitor struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{checkers: make(map[string]Checker)}
}

// Register adds a checker under a name, replacing any previous one.
func (m *Monitor) Register(name string, checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = checker
}

// Unregister removes a checker.
func (m *Monitor) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checkers, name)
}

// Overall runs every checker and aggregates: the process is healthy only
// when all checkers are. Sub-statuses are ordered by name for stable
// probe output.
func (m *Monitor) Overall(ctx context.Context) Status {
	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	checkers := make([]Checker, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		checkers = append(checkers, m.checkers[name])
	}
	m.mu.RUnlock()

	overall := Status{
		Component: "fdrgateway",
		Healthy:   true,
		Timestamp: time.Now(),
	}

	for i, checker := range checkers {
		sub := checker.Check(ctx)
		if sub.Component == "" {
			sub.Component = names[i]
		}
		if !sub.Healthy {
			overall.Healthy = false
		}
		overall.SubStatuses = append(overall.SubStatuses, sub)
	}

	return overall
}

// LivenessHandler answers 200 whenever the process can serve HTTP.
func (m *Monitor) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"alive": true})
	})
}

// ReadinessHandler serves the aggregated status, 503 when any checker
// reports unhealthy.
func (m *Monitor) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := m.Overall(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}
