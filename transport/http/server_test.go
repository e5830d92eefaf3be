package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kochabx/ratelimit/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServerRoutes(t *testing.T) {
	prom := metrics.New()
	s := NewServer(
		":8080",
		gin.New(),
		WithMetricsOptions(MetricsOption{Enabled: true, EnabledBuildInfoCollector: true, Prometheus: prom}),
		WithHealthOptions(HealthOption{Enabled: true}),
	)

	w := serve(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_build_info")
}

func TestServerHealthCheckFails(t *testing.T) {
	s := NewServer(":8080", gin.New(), WithHealthOptions(HealthOption{
		Enabled: true,
		Path:    "/healthz",
		Check: func(context.Context) error {
			return errors.New("redis: connection refused")
		},
	}))

	w := serve(s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestServerDisabledRoutes(t *testing.T) {
	s := NewServer(":8080", gin.New())
	assert.Equal(t, http.StatusNotFound, serve(s, "/health").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, "/metrics").Code)
}

func TestServerTimeouts(t *testing.T) {
	s := NewServer(":8080", gin.New(), WithTimeoutOptions(TimeoutOption{Write: time.Second}))
	assert.Equal(t, 5*time.Second, s.server.ReadHeaderTimeout)
	assert.Equal(t, time.Second, s.server.WriteTimeout)
	assert.Equal(t, 2*time.Minute, s.server.IdleTimeout)
}

func TestServerRunAndShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:18089", gin.New(), WithHealthOptions(HealthOption{Enabled: true}))

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18089/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	assert.NoError(t, s.Shutdown(context.Background()))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}
