package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"PriceLab/internal/metrics"
	"PriceLab/internal/model"
)

// errUnsupportedInterval marks a 400/422 reply to an interval the API lacks.
var errUnsupportedInterval = errors.New("interval not supported by provider")

// RESTFetcher implements Fetcher against a generic JSON bar API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	guard   *guard
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, ratePerSecond float64, m *metrics.Metrics) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		guard:   newGuard("rest", ratePerSecond, m),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.OHLCV, error) {
	if interval == "" {
		interval = model.IntervalDay
	}
	bars, err := f.fetchBars(ctx, symbol, period, interval)
	if err != nil && errors.Is(err, errUnsupportedInterval) && interval == model.IntervalWeek {
		// Fallback: fetch daily bars and aggregate to weekly
		log.Debug().Str("symbol", symbol).Msg("weekly bars unsupported, aggregating daily")
		daily, dailyErr := f.fetchBars(ctx, symbol, period, model.IntervalDay)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		return aggregateDailyToWeekly(daily), nil
	}
	return bars, err
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", string(period))
	q.Set("interval", string(interval))
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	body, err := f.guard.do(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if f.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+f.APIKey)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch bars: %w", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("fetch bars: status %d: %w", resp.StatusCode, errUnsupportedInterval)
		default:
			return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
		}
	})
	if err != nil {
		return nil, err
	}

	var rb []restBar
	if err := json.Unmarshal(body, &rb); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(rb))
	for i, b := range rb {
		bars[i] = model.OHLCV{
			Time:   time.Unix(b.Timestamp, 0).UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateDailyToWeekly converts daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.OHLCV
	week := daily[0]
	wy, ww := week.Time.ISOWeek()

	for _, d := range daily[1:] {
		y, w := d.Time.ISOWeek()
		if y != wy || w != ww {
			weekly = append(weekly, week)
			week = d
			wy, ww = y, w
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	return append(weekly, week)
}
