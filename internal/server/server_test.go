package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:9464", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)

	filled := Config{Addr: ":0"}.withDefaults()
	assert.Equal(t, ":0", filled.Addr)
	assert.Equal(t, cfg.ShutdownTimeout, filled.ShutdownTimeout)
}

func TestServer_AddrBeforeListen(t *testing.T) {
	s := New(http.NewServeMux(), Config{Addr: "127.0.0.1:0"}, nil)
	assert.Equal(t, "127.0.0.1:0", s.Addr())
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNewMetrics_ServesAndStops(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "server_test_hits_total",
		Help: "test counter",
	}).Add(3)

	s := NewMetrics(Config{Addr: "127.0.0.1:0"}, reg, zaptest.NewLogger(t))
	require.NoError(t, s.Listen())
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	code, body := get(t, "http://"+s.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "server_test_hits_total 3")

	code, body = get(t, "http://"+s.Addr()+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ListenConflict(t *testing.T) {
	first := New(http.NewServeMux(), Config{Addr: "127.0.0.1:0"}, nil)
	require.NoError(t, first.Listen())
	t.Cleanup(func() { _ = first.listener.Close() })

	second := New(http.NewServeMux(), Config{Addr: first.Addr()}, nil)
	err := second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
