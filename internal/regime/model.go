package regime

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"PriceLab/internal/calculator"
	"PriceLab/internal/collector"
	"PriceLab/internal/metrics"
	"PriceLab/internal/model"
)

// StateColumn names the frame column holding the decoded regime.
const StateColumn = "Hidden_State"

// Options configures a regime Model.
type Options struct {
	States         int
	CovarianceType CovarianceType
	Iterations     int
	Tolerance      float64
	Seed           uint64
	Timing         model.QuoteTiming
	Period         model.Period
	Interval       model.Interval
	Metrics        *metrics.Metrics
}

// Model sorts the price movement of correlated tickers into hidden regimes.
// The first ticker is the primary one shown on charts.
type Model struct {
	Ticks   []string
	Primary string
	Frame   *model.Frame
	HMM     *GaussianHMM

	priceCols  []string
	returnCols []string
	features   [][]float64
	metrics    *metrics.Metrics
}

// ReturnColumn names the percent-change column of a ticker.
func ReturnColumn(tick string) string { return "Return " + tick }

// PriceColumn names the price column of a ticker.
func PriceColumn(tick string, timing model.QuoteTiming) string {
	return tick + " " + string(timing)
}

// NewModel loads the price series, aligns them and derives return features.
func NewModel(ctx context.Context, fetcher collector.Fetcher, opts Options, ticks ...string) (*Model, error) {
	if opts.States < 1 {
		return nil, ErrNoStates
	}
	if len(ticks) == 0 {
		return nil, errors.New("regime model needs at least one ticker")
	}
	hmm, err := NewGaussianHMM(opts.States, opts.CovarianceType, opts.Iterations)
	if err != nil {
		return nil, err
	}
	if opts.Tolerance > 0 {
		hmm.Tolerance = opts.Tolerance
	}
	if opts.Seed != 0 {
		hmm.Seed = opts.Seed
	}
	if opts.Timing == "" {
		opts.Timing = model.TimingClose
	}

	prices, err := collector.LoadPrices(ctx, fetcher, opts.Timing, opts.Period, opts.Interval, ticks...)
	if err != nil {
		return nil, err
	}
	return newModelFromSeries(hmm, opts, ticks, prices)
}

func newModelFromSeries(hmm *GaussianHMM, opts Options, ticks []string, prices []model.Series) (*Model, error) {
	m := &Model{Ticks: ticks, Primary: ticks[0], HMM: hmm, metrics: opts.Metrics}
	for i := range prices {
		prices[i].Name = PriceColumn(ticks[i], opts.Timing)
		m.priceCols = append(m.priceCols, prices[i].Name)
	}
	frame, err := model.AlignSeries(prices...)
	if err != nil {
		return nil, err
	}
	if frame.Len() == 0 {
		return nil, fmt.Errorf("tickers %v share no timestamps", ticks)
	}
	for i, tick := range ticks {
		col, _ := frame.Column(m.priceCols[i])
		ret := calculator.PctChange(col).Values
		for t, v := range ret {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ret[t] = 0
			}
		}
		name := ReturnColumn(tick)
		if err := frame.AddColumn(name, ret); err != nil {
			return nil, err
		}
		m.returnCols = append(m.returnCols, name)
	}
	m.Frame = frame
	m.features, err = frame.Matrix(m.returnCols...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Fit trains the HMM on the return features and adds the Hidden_State column.
func (m *Model) Fit() error {
	if err := m.HMM.Fit(m.features); err != nil {
		return fmt.Errorf("fit regimes for %v: %w", m.Ticks, err)
	}
	if m.metrics != nil {
		m.metrics.RegimeFits.WithLabelValues(fmt.Sprint(m.HMM.Converged)).Inc()
	}
	log.Info().Strs("ticks", m.Ticks).Int("states", m.HMM.States).
		Int("iterations", m.HMM.Iter).Bool("converged", m.HMM.Converged).
		Float64("log_likelihood", m.HMM.LogLikelihood).Msg("regime model fitted")

	states, err := m.HMM.Predict(m.features)
	if err != nil {
		return err
	}
	col := make([]float64, len(states))
	for i, s := range states {
		col[i] = float64(s)
	}
	return m.Frame.AddColumn(StateColumn, col)
}

// InferStates returns the posterior state probabilities for every row.
func (m *Model) InferStates() ([][]float64, error) {
	return m.HMM.PredictProba(m.features)
}

// States returns the decoded regime per row.
func (m *Model) States() ([]int, error) {
	col, ok := m.Frame.Column(StateColumn)
	if !ok {
		return nil, ErrNotFitted
	}
	out := make([]int, col.Len())
	for i, v := range col.Values {
		out[i] = int(v)
	}
	return out, nil
}

// PrimaryPrices returns the aligned price series of the primary ticker.
func (m *Model) PrimaryPrices() model.Series {
	s, _ := m.Frame.Column(m.priceCols[0])
	return s
}

// PriceColumns and ReturnColumns list the frame columns in ticker order.
func (m *Model) PriceColumns() []string  { return append([]string(nil), m.priceCols...) }
func (m *Model) ReturnColumns() []string { return append([]string(nil), m.returnCols...) }
