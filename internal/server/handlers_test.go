package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/chatrelay/internal/metrics"
)

// TestHealthHandler verifies the health endpoint for several methods.
func TestHealthHandler(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HealthHandler(rr, httptest.NewRequest(method, "/", http.NoBody))

			require.Equal(t, http.StatusOK, rr.Code)
			require.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
			require.Equal(t, "chatrelay server is running!", rr.Body.String())
		})
	}
}

// TestTestPageHandler verifies the test page speaks the envelope protocol.
func TestTestPageHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	TestPageHandler(rr, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/html", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	require.Contains(t, body, "join_conversation")
	require.Contains(t, body, "send_message")
	require.Contains(t, body, "/ws?userId=")
}

// TestSetupRoutesServesMetrics verifies the metrics route when a gatherer
// is given.
func TestSetupRoutesServesMetrics(t *testing.T) {
	env := newTestEnv(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Sessions.Set(2)

	relay, err := NewRelay(Options{Store: env.store, Logger: env.log, Metrics: m})
	require.NoError(t, err)

	srv := httptest.NewServer(SetupRoutes(relay, reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), "chatrelay_sessions 2"))

	without := httptest.NewServer(SetupRoutes(relay, nil))
	defer without.Close()
	resp2, err := http.Get(without.URL + "/metrics")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode, "falls through to the health handler")
}

// TestNewRelayRequiresStore verifies constructor validation.
func TestNewRelayRequiresStore(t *testing.T) {
	_, err := NewRelay(Options{})
	require.Error(t, err)
}
