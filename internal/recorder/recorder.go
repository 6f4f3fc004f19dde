package recorder

import (
	"time"

	"PriceLab/internal/model"
)

// SeriesSnapshot is one fetched series tagged with its query.
type SeriesSnapshot struct {
	RunID    string
	Symbol   string
	Field    string // "Open", "Close", ..., or "Volume"
	Period   model.Period
	Interval model.Interval
	Series   model.Series
}

// RegimeRun summarises one fitted regime model.
type RegimeRun struct {
	RunID          string
	Ticks          []string
	States         int
	CovarianceType string
	Iterations     int
	Converged      bool
	LogLikelihood  float64
	Index          []time.Time
	Path           []int
}

// Recorder persists analysis history.
type Recorder interface {
	RecordSeries(snap *SeriesSnapshot) error
	RecordRegimeRun(run *RegimeRun) error
	Close() error
}

// RegimeHistory is implemented by recorders that can recall past regime runs.
type RegimeHistory interface {
	LastRegime(ticks []string) (state int, found bool, err error)
}
