// Package health implements Kubernetes-style liveness and readiness probes.
//
// Registered checks run on their own background goroutines. A check flips to
// unhealthy only after several consecutive failures and recovers on the first
// success, so a single slow poll does not bounce the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Thresholds for flipping a probe between healthy and unhealthy.
const (
	failuresBeforeUnhealthy = 3
	successesBeforeHealthy  = 1
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// probe is a single registered check plus its runtime state.
//
// observe() runs on exactly one goroutine per probe, so the streak counters
// are unsynchronized. healthy and lastErr are read from HTTP handler
// goroutines and use atomics.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	failStreak int
	okStreak   int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{
		name:    name,
		timeout: timeout,
		check:   check,
	}
	// A probe starts healthy; it takes a failure streak to demote it.
	p.healthy.Store(true)
	return p
}

// observe runs the check once and updates the streaks. Single goroutine only.
func (p *probe) observe(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(checkCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.okStreak = 0
		p.failStreak++
		if p.failStreak >= failuresBeforeUnhealthy {
			p.healthy.Store(false)
		}
		return
	}

	p.failStreak = 0
	p.okStreak++
	if p.okStreak >= successesBeforeHealthy {
		p.healthy.Store(true)
	}
}

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// Health tracks liveness and readiness probes for a service.
type Health struct {
	ready atomic.Bool

	// mu guards the probe slices and cancel. Handlers snapshot the slices
	// under RLock and never touch probe state while holding it.
	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a Health in the not-ready state. Call SetReady(true) once
// startup completes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for process health, such as goroutine
// counts or GC pauses.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe for traffic-serving readiness, such as
// database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

// Start launches one goroutine per registered probe, each polling at the
// given interval until ctx is cancelled or Stop is called. Register all
// probes before starting.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go poll(ctx, p, interval)
	}
}

func poll(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.observe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.observe(ctx)
		}
	}
}

// SetReady flips the manual readiness gate. It is set true after startup and
// false at the start of graceful shutdown to drain traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.readiness
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// Stop cancels the polling goroutines. Safe to call repeatedly.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while every liveness probe
// passes, else 503 listing the failures.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.liveness))
	copy(probes, h.liveness)
	h.mu.RUnlock()

	writeStatus(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	probes := make([]*probe, len(h.readiness))
	copy(probes, h.readiness)
	h.mu.RUnlock()

	failing := failures(probes)
	if !ready {
		failing["_readiness"] = "service is not ready"
	}
	writeStatus(w, failing)
}

// failures maps each unhealthy probe to its last recorded error. The stored
// error is used rather than re-running the check.
func failures(probes []*probe) map[string]string {
	failing := make(map[string]string)
	for _, p := range probes {
		if p.healthy.Load() {
			continue
		}
		if err := p.lastError(); err != nil {
			failing[p.name] = err.Error()
		} else {
			failing[p.name] = "check is unhealthy"
		}
	}
	return failing
}

func writeStatus(w http.ResponseWriter, failing map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failing) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failing
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
