package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceLab/internal/collector"
	"PriceLab/internal/metrics"
	"PriceLab/internal/model"
	"PriceLab/internal/notifier"
	"PriceLab/internal/recorder"
	"PriceLab/internal/regime"
)

type chat struct {
	mu   sync.Mutex
	sent []string
}

func (c *chat) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func newChat(t *testing.T) (*notifier.TelegramNotifier, *chat) {
	c := &chat{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		c.mu.Lock()
		c.sent = append(c.sent, body["text"])
		c.mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	tn := notifier.NewTelegramNotifier("token", "42", "")
	tn.BaseURL = srv.URL
	return tn, c
}

func newTestScheduler(t *testing.T, fetcher collector.Fetcher, rec recorder.Recorder) (*Scheduler, *chat) {
	tn, c := newChat(t)
	s := NewScheduler(context.Background(), fetcher, tn, rec, metrics.Nop())
	s.Configure([]string{"CVX", "XOM"}, regime.Options{
		States: 2, Period: model.PeriodDay, Interval: model.IntervalMinute,
	}, t.TempDir())
	return s, c
}

func TestRunNow_FirstRunIsSilent(t *testing.T) {
	s, c := newTestScheduler(t, &collector.MockFetcher{Price: 150, Count: 80}, recorder.NewNoopRecorder())
	s.RunNow()

	st := s.Latest()
	require.NotNil(t, st)
	assert.Equal(t, []string{"CVX", "XOM"}, st.Ticks)
	assert.Nil(t, st.Previous)
	assert.False(t, st.Changed)
	assert.FileExists(t, st.Chart)
	assert.Contains(t, st.Report, "Regimes for CVX, XOM")
	assert.Empty(t, c.messages())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.WatchRuns.WithLabelValues("ok")))
}

func TestRunNow_NotifiesOnChange(t *testing.T) {
	s, c := newTestScheduler(t, &collector.MockFetcher{Price: 150, Count: 80}, recorder.NewNoopRecorder())
	s.RunNow()
	first := s.Latest()

	s.mu.Lock()
	s.last["CVX,XOM"] = first.State + 1
	s.mu.Unlock()
	s.RunNow()

	st := s.Latest()
	require.NotNil(t, st.Previous)
	assert.Equal(t, first.State+1, *st.Previous)
	assert.True(t, st.Changed)
	msgs := c.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Regime change for CVX, XOM")

	// unchanged on the next run
	s.RunNow()
	assert.False(t, s.Latest().Changed)
	assert.Len(t, c.messages(), 1)
}

func TestRunNow_SeedsFromRecorder(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "watch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, rec.RecordRegimeRun(&recorder.RegimeRun{
		RunID: "earlier", Ticks: []string{"CVX", "XOM"}, States: 2,
		Index: []time.Time{at}, Path: []int{7},
	}))

	s, c := newTestScheduler(t, &collector.MockFetcher{Price: 150, Count: 80}, rec)
	s.RunNow()

	st := s.Latest()
	require.NotNil(t, st.Previous)
	assert.Equal(t, 7, *st.Previous)
	assert.True(t, st.Changed)
	assert.Len(t, c.messages(), 1)

	n, err := rec.CountPoints("CVX", "Close")
	require.NoError(t, err)
	assert.Equal(t, 80, n)
}

func TestRunNow_FailureIsCountedAndReported(t *testing.T) {
	s, c := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("provider down")}, recorder.NewNoopRecorder())
	s.RunNow()

	assert.Nil(t, s.Latest())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.WatchRuns.WithLabelValues("error")))
	msgs := c.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Watch run failed")
}

func TestRegisterWatch_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), &collector.MockFetcher{}, nil, recorder.NewNoopRecorder(), nil)
	assert.Error(t, s.RegisterWatch("every tuesday"))
	assert.NoError(t, s.RegisterWatch("0 */5 * * * *"))
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 150, Count: 80}, recorder.NewNoopRecorder())
	ctx := context.Background()

	assert.Equal(t, "No watch run has completed yet.", s.HandleCommand(ctx, "/regime"))
	assert.Equal(t, "Watching: CVX, XOM", s.HandleCommand(ctx, "/symbols"))
	assert.Contains(t, s.HandleCommand(ctx, ""), "Commands:")

	s.RunNow()
	assert.Equal(t, s.Latest().Report, s.HandleCommand(ctx, "/regime"))
}
