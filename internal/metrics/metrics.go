package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the toolkit's Prometheus instruments.
type Metrics struct {
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	RegimeFits    *prometheus.CounterVec
	WatchRuns     *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricelab",
			Name:      "fetch_total",
			Help:      "History fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pricelab",
			Name:      "fetch_duration_seconds",
			Help:      "History fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		RegimeFits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricelab",
			Name:      "regime_fits_total",
			Help:      "Hidden Markov model fits by convergence.",
		}, []string{"converged"}),
		WatchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricelab",
			Name:      "watch_runs_total",
			Help:      "Scheduled watch runs by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.FetchTotal, m.FetchDuration, m.RegimeFits, m.WatchRuns)
	return m
}

// Nop returns instruments registered on a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
