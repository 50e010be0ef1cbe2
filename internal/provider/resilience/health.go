package resilience

import (
	"sync"
	"time"
)

// Health tracks the observed health of one upstream provider, fed by the
// resilient client and surfaced on the readiness endpoint.
type Health struct {
	mu sync.RWMutex

	name          string
	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastError     string
	successes     int64
	failures      int64
}

// NewHealth creates a health tracker for the named provider.
func NewHealth(name string) *Health {
	return &Health{name: name}
}

// RecordSuccess notes a successful provider call.
func (h *Health) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSuccessAt = time.Now()
	h.successes++
}

// RecordFailure notes a failed provider call.
func (h *Health) RecordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFailureAt = time.Now()
	h.failures++
	if err != nil {
		h.lastError = err.Error()
	}
}

// HealthStatus is a point-in-time view of provider health.
type HealthStatus struct {
	Name          string    `json:"name"`
	LastSuccessAt time.Time `json:"lastSuccessAt,omitzero"`
	LastFailureAt time.Time `json:"lastFailureAt,omitzero"`
	LastError     string    `json:"lastError,omitempty"`
	Successes     int64     `json:"successes"`
	Failures      int64     `json:"failures"`
}

// Status returns a copy of the current health state.
func (h *Health) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthStatus{
		Name:          h.name,
		LastSuccessAt: h.lastSuccessAt,
		LastFailureAt: h.lastFailureAt,
		LastError:     h.lastError,
		Successes:     h.successes,
		Failures:      h.failures,
	}
}
