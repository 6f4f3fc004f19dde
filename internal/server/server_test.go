package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceLab/internal/metrics"
	"PriceLab/internal/scheduler"
)

type fixedSource struct{ st *scheduler.Status }

func (f fixedSource) Latest() *scheduler.Status { return f.st }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRegime_NotFoundBeforeFirstRun(t *testing.T) {
	s := New(":0", fixedSource{}, nil)
	rec := get(t, s.Handler(), "/regime")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/regime/chart").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}

func TestRegime_ServesLatestStatus(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "regime.png")
	require.NoError(t, os.WriteFile(chart, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	st := &scheduler.Status{
		RunID: "abc", Ticks: []string{"CVX"}, State: 2, Changed: true,
		At: time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC), Price: 151.25, Chart: chart,
	}
	s := New(":0", fixedSource{st}, nil)

	rec := get(t, s.Handler(), "/regime")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.RunID)
	assert.Equal(t, 2, got.State)
	assert.True(t, got.Changed)

	rec = get(t, s.Handler(), "/regime/chart")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/health").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.WatchRuns.WithLabelValues("ok").Inc()

	s := New(":0", fixedSource{}, reg)
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `pricelab_watch_runs_total{outcome="ok"} 1`))
}
