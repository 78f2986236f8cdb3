package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pass(context.Context) error { return nil }

func fail(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) (string, map[string]string) {
	t.Helper()
	var (
		status string
		checks = map[string]string{}
	)
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			v, err := d.Str()
			status = v
			return err
		case "checks":
			return d.Obj(func(d *jx.Decoder, name string) error {
				v, err := d.Str()
				checks[name] = v
				return err
			})
		default:
			return d.Skip()
		}
	}))
	return status, checks
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("ok", time.Second, pass)
	h.AddLivenessCheck("db", time.Second, fail("connection refused"))

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Unhealthy only after the failure threshold.
	for range failureThreshold {
		h.Poll(context.Background())
	}
	w = httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	status, checks := decodeBody(t, w)
	assert.Equal(t, "unhealthy", status)
	assert.Equal(t, map[string]string{"db": "connection refused"}, checks)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("store", time.Second, pass)

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	_, checks := decodeBody(t, w)
	assert.Contains(t, checks, "_readiness")

	h.SetReady(true)
	assert.True(t, h.IsReady())
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	status, _ := decodeBody(t, w)
	assert.Equal(t, "ok", status)
}

func TestRecovery(t *testing.T) {
	h := New()
	healthy := false
	h.AddReadinessCheck("flaky", time.Second, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})
	h.SetReady(true)

	for range failureThreshold {
		h.Poll(context.Background())
	}
	assert.False(t, h.IsReady())

	healthy = true
	h.Poll(context.Background())
	assert.True(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1))
	h.Start(context.Background(), 10*time.Millisecond)

	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		return w.Code == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}
