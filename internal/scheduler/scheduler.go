package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"PriceLab/internal/chart"
	"PriceLab/internal/collector"
	"PriceLab/internal/metrics"
	"PriceLab/internal/model"
	"PriceLab/internal/notifier"
	"PriceLab/internal/recorder"
	"PriceLab/internal/regime"
)

// Status is the outcome of the most recent watch run.
type Status struct {
	RunID         string    `json:"run_id"`
	Ticks         []string  `json:"ticks"`
	State         int       `json:"state"`
	Previous      *int      `json:"previous,omitempty"`
	Changed       bool      `json:"changed"`
	At            time.Time `json:"at"`
	Price         float64   `json:"price"`
	Converged     bool      `json:"converged"`
	LogLikelihood float64   `json:"log_likelihood"`
	Chart         string    `json:"chart,omitempty"`
	Report        string    `json:"report"`
	RanAt         time.Time `json:"ran_at"`
}

// Scheduler refits the regime model for a watchlist on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Fetcher  collector.Fetcher
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Ctx      context.Context

	mu       sync.RWMutex
	running  sync.Mutex
	symbols  []string
	opts     regime.Options
	chartDir string
	last     map[string]int
	latest   *Status
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, fetcher collector.Fetcher, tn *notifier.TelegramNotifier, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	if m == nil {
		m = metrics.Nop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Fetcher:  fetcher,
		Notifier: tn,
		Recorder: rec,
		Metrics:  m,
		Ctx:      ctx,
		last:     make(map[string]int),
	}
}

// Configure sets the watchlist, model options and chart directory.
// Safe to call while the scheduler runs.
func (s *Scheduler) Configure(symbols []string, opts regime.Options, chartDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append([]string(nil), symbols...)
	opts.Metrics = s.Metrics
	if opts.Timing == "" {
		opts.Timing = model.TimingClose
	}
	s.opts = opts
	s.chartDir = chartDir
	log.Info().Strs("symbols", s.symbols).Int("states", opts.States).Msg("watchlist configured")
}

// RegisterWatch registers the regime refit task.
func (s *Scheduler) RegisterWatch(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Latest returns the last completed run, or nil before the first one.
func (s *Scheduler) Latest() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// RunNow executes the watch task immediately. Overlapping runs are skipped.
func (s *Scheduler) RunNow() {
	if !s.running.TryLock() {
		log.Warn().Msg("watch run still in progress, skipping")
		return
	}
	defer s.running.Unlock()

	if err := s.watchTask(); err != nil {
		s.Metrics.WatchRuns.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("watch run failed")
		s.trySend(fmt.Sprintf("Watch run failed: %v", err))
		return
	}
	s.Metrics.WatchRuns.WithLabelValues("ok").Inc()
}

func (s *Scheduler) watchTask() error {
	s.mu.RLock()
	ticks := append([]string(nil), s.symbols...)
	opts := s.opts
	dir := s.chartDir
	s.mu.RUnlock()
	if len(ticks) == 0 {
		return fmt.Errorf("watchlist is empty")
	}

	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Strs("ticks", ticks).Msg("running watch task")

	m, err := regime.NewModel(s.Ctx, s.Fetcher, opts, ticks...)
	if err != nil {
		return err
	}
	if err := m.Fit(); err != nil {
		return err
	}
	path, err := m.States()
	if err != nil {
		return err
	}
	prices := m.PrimaryPrices()
	n := len(path)
	key := strings.Join(ticks, ",")
	prev, known := s.previous(key, ticks)

	if err := s.Recorder.RecordSeries(&recorder.SeriesSnapshot{
		RunID: runID, Symbol: m.Primary, Field: string(opts.Timing),
		Period: opts.Period, Interval: opts.Interval, Series: prices,
	}); err != nil {
		log.Error().Err(err).Msg("record series")
	}
	if err := s.Recorder.RecordRegimeRun(&recorder.RegimeRun{
		RunID: runID, Ticks: ticks, States: m.HMM.States,
		CovarianceType: string(m.HMM.CovarianceType), Iterations: m.HMM.Iter,
		Converged: m.HMM.Converged, LogLikelihood: m.HMM.LogLikelihood,
		Index: m.Frame.Index, Path: path,
	}); err != nil {
		log.Error().Err(err).Msg("record regime run")
	}

	status := &Status{
		RunID: runID, Ticks: ticks, State: path[n-1],
		At: prices.Index[n-1], Price: prices.Values[n-1],
		Converged: m.HMM.Converged, LogLikelihood: m.HMM.LogLikelihood,
		RanAt: time.Now(),
	}
	if known {
		status.Previous = &prev
		status.Changed = prev != status.State
	}
	if status.Report, err = notifier.FormatRegime(m); err != nil {
		return err
	}
	if dir != "" {
		status.Chart = s.renderChart(m, dir)
	}

	s.mu.Lock()
	s.last[key] = status.State
	s.latest = status
	s.mu.Unlock()

	if status.Changed {
		log.Info().Strs("ticks", ticks).Int("from", *status.Previous).Int("to", status.State).Msg("regime changed")
		s.trySend(notifier.FormatRegimeChange(ticks, *status.Previous, status.State, status.At, status.Price) +
			"\n\n" + status.Report)
	}
	return nil
}

// previous returns the last known state for the watchlist, asking the
// recorder when this process has not seen it yet.
func (s *Scheduler) previous(key string, ticks []string) (int, bool) {
	s.mu.RLock()
	prev, ok := s.last[key]
	s.mu.RUnlock()
	if ok {
		return prev, true
	}
	hist, ok := s.Recorder.(recorder.RegimeHistory)
	if !ok {
		return 0, false
	}
	state, found, err := hist.LastRegime(ticks)
	if err != nil {
		log.Warn().Err(err).Msg("load previous regime")
		return 0, false
	}
	return state, found
}

func (s *Scheduler) renderChart(m *regime.Model, dir string) string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Msg("create chart dir")
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("regime_%s.png", strings.Join(m.Ticks, "_")))
	p, err := chart.NewRegimePlot(m)
	if err == nil {
		err = p.Show(path)
	}
	if err != nil {
		log.Error().Err(err).Msg("render regime chart")
		return ""
	}
	return path
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"/help"}
	}
	switch fields[0] {
	case "/regime":
		if st := s.Latest(); st != nil {
			return st.Report
		}
		return "No watch run has completed yet."
	case "/symbols":
		s.mu.RLock()
		defer s.mu.RUnlock()
		return "Watching: " + strings.Join(s.symbols, ", ")
	case "/run":
		go s.RunNow()
		return "Watch run started."
	default:
		return "Commands:\n/regime  latest regime report\n/symbols  current watchlist\n/run  refit now"
	}
}

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
