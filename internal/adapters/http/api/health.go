package api

import (
	"net/http"
	"sync"
	"time"
)

// Run states reported by /healthz.
const (
	StateStarting = "starting"
	StateRunning  = "running"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// RunStatus is the body of GET /healthz.
type RunStatus struct {
	State     string    `json:"state"`
	RunID     string    `json:"run_id,omitempty"`
	Players   int       `json:"players"`
	Degraded  bool      `json:"degraded"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusProvider exposes the state of the current run.
type StatusProvider interface {
	Status() RunStatus
}

// Tracker is a StatusProvider updated by the caller of the pipeline.
type Tracker struct {
	mu     sync.RWMutex
	status RunStatus
}

// NewTracker returns a tracker in the starting state.
func NewTracker() *Tracker {
	return &Tracker{status: RunStatus{State: StateStarting, UpdatedAt: time.Now().UTC()}}
}

// Set replaces the current status and stamps it.
func (t *Tracker) Set(s RunStatus) {
	s.UpdatedAt = time.Now().UTC()
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *Tracker) Status() RunStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	status StatusProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(status StatusProvider) *HealthHandler {
	return &HealthHandler{status: status}
}

// HandleHealth handles GET /healthz. A failed run answers 503 so probes
// notice it before the process exits.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	s := h.status.Status()
	code := http.StatusOK
	if s.State == StateFailed {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, s)
}
