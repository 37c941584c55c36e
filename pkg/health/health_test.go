package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(_ context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func liveBody(t *testing.T, h *Health) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func readyBody(t *testing.T, h *Health) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("check1", time.Second, passing)
	h.AddLivenessCheck("check2", time.Second, passing)

	code, body := liveBody(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestLiveEndpoint_FailingProbe(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))

	// Probes start healthy; drive past the failure streak.
	ctx := context.Background()
	for range failuresBeforeUnhealthy {
		h.liveness[0].observe(ctx)
	}

	code, body := liveBody(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestLiveEndpoint_FailureBelowThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, failing("temporary"))

	ctx := context.Background()
	for range failuresBeforeUnhealthy - 1 {
		h.liveness[0].observe(ctx)
	}

	code, _ := liveBody(t, h)
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyEndpoint_ReadyAndPassing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.SetReady(true)

	code, body := readyBody(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadyEndpoint_GateClosed(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	code, body := readyBody(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks, "_readiness")
}

func TestReadyEndpoint_GateReclosed(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.SetReady(true)

	code, _ := readyBody(t, h)
	require.Equal(t, http.StatusOK, code)

	h.SetReady(false)

	code, _ = readyBody(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpoint_OneProbeFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.AddReadinessCheck("users", time.Second, failing("upstream down"))
	h.SetReady(true)

	ctx := context.Background()
	for range failuresBeforeUnhealthy {
		h.readiness[1].observe(ctx)
	}

	code, body := readyBody(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "users")
	assert.NotContains(t, body.Checks, "postgres")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	assert.False(t, h.IsReady(), "not ready before SetReady")

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing)

	h.Start(context.Background(), 100*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestEndpoints_NoProbes(t *testing.T) {
	h := New()

	code, body := liveBody(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(true)
	code, _ = readyBody(t, h)
	assert.Equal(t, http.StatusOK, code)
}

func TestProbeRecovers(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := h.liveness[0]
	ctx := context.Background()

	for range failuresBeforeUnhealthy {
		p.observe(ctx)
	}
	assert.False(t, p.healthy.Load())

	down = false
	for range successesBeforeHealthy {
		p.observe(ctx)
	}
	assert.True(t, p.healthy.Load(), "probe should recover after a success streak")
}

func TestProbeLastError(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("timeout"))
	p := h.liveness[0]

	assert.Nil(t, p.lastError())

	p.observe(context.Background())
	assert.EqualError(t, p.lastError(), "timeout")
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("a", time.Second, failing("err"))
	h.AddReadinessCheck("b", time.Second, passing)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()

				w := httptest.NewRecorder()
				h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

				w = httptest.NewRecorder()
				h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
