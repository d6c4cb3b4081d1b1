package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-process counters for requests, errors and authentication
// outcomes.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	authOutcomes map[string]int64
	latencyTotal time.Duration
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests      map[string]int64 `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	AuthOutcomes  map[string]int64 `json:"auth_outcomes"`
	AvgLatencyMS  float64          `json:"avg_latency_ms"`
	TotalRequests int64            `json:"total_requests"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		authOutcomes: make(map[string]int64),
	}
}

// RecordRequest counts a completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal += duration
}

// RecordError counts an error response by code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAuthOutcome counts one gateway decision.
func (m *Metrics) RecordAuthOutcome(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authOutcomes[outcome]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Requests:     copyCounts(m.requestCount),
		Errors:       copyCounts(m.errorCount),
		AuthOutcomes: copyCounts(m.authOutcomes),
	}
	for _, n := range m.requestCount {
		s.TotalRequests += n
	}
	if s.TotalRequests > 0 {
		s.AvgLatencyMS = float64(m.latencyTotal.Microseconds()) / 1000 / float64(s.TotalRequests)
	}
	return s
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
