package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"PriceLab/internal/metrics"
)

// guard wraps provider calls with a rate limiter, a circuit breaker and metrics.
type guard struct {
	provider string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
}

func newGuard(provider string, perSecond float64, m *metrics.Metrics) *guard {
	if perSecond <= 0 {
		perSecond = 2
	}
	if m == nil {
		m = metrics.Nop()
	}
	st := gobreaker.Settings{
		Name:     provider,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	return &guard{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		breaker:  gobreaker.NewCircuitBreaker(st),
		metrics:  m,
	}
}

func (g *guard) do(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", g.provider, err)
	}
	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) { return fn() })
	g.metrics.FetchDuration.WithLabelValues(g.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.FetchTotal.WithLabelValues(g.provider, "error").Inc()
		return nil, err
	}
	g.metrics.FetchTotal.WithLabelValues(g.provider, "ok").Inc()
	return out.([]byte), nil
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
