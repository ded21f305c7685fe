package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store Reader) (*Server, *httptest.Server) {
	t.Helper()

	s, err := NewServer(Config{Port: 0}, store, logger.Default())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return s, ts
}

func get(t *testing.T, url string, header http.Header) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, NewStore())

	resp, body := get(t, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestMetricsExposition(t *testing.T) {
	store := NewStore()
	store.Record(42, 80)
	_, ts := newTestServer(t, store)

	resp, body := get(t, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain; version=0.0.4"))
	assert.Contains(t, body, "# TYPE temperature gauge")
	assert.Contains(t, body, `temperature{value_type="temperature"} 42`)
	assert.Contains(t, body, "# TYPE fan_speed gauge")
	assert.Contains(t, body, `fan_speed{value_type="fan_speed"} 80`)

	store.Record(55.5, 20)
	_, body = get(t, ts.URL+"/metrics", nil)
	assert.Contains(t, body, `temperature{value_type="temperature"} 55.5`)
	assert.Contains(t, body, `fan_speed{value_type="fan_speed"} 20`)
}

func TestMetricsOpenMetricsNegotiation(t *testing.T) {
	_, ts := newTestServer(t, NewStore())

	resp, body := get(t, ts.URL+"/metrics", http.Header{
		"Accept": {"application/openmetrics-text; version=1.0.0"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/openmetrics-text"))
	assert.Contains(t, body, "# EOF")
}

type brokenCollector struct {
	desc *prometheus.Desc
}

func (c brokenCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c brokenCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.NewInvalidMetric(c.desc, io.ErrUnexpectedEOF)
}

func TestRenderFailureIsPerRequest(t *testing.T) {
	s, ts := newTestServer(t, NewStore())
	s.registry.MustRegister(brokenCollector{desc: prometheus.NewDesc("broken", "Broken", nil, nil)})

	resp, _ := get(t, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, body := get(t, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestInvalidPort(t *testing.T) {
	_, err := NewServer(Config{Port: 70000}, NewStore(), logger.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidPort))
}

func TestServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(DefaultConfig(), NewStore(), logger.Default())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeReportsListenerFailure(t *testing.T) {
	s, err := NewServer(DefaultConfig(), NewStore(), logger.Default())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln.Close()

	err = s.Serve(context.Background(), ln)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrServeFailed))
}
