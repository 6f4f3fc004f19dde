package model

import (
	"fmt"
	"strings"
)

// Period is the lookback range requested from the provider.
type Period string

const (
	PeriodDay        Period = "1d"
	PeriodFiveDay    Period = "5d"
	PeriodMonth      Period = "1mo"
	PeriodThreeMonth Period = "3mo"
	PeriodSixMonth   Period = "6mo"
	PeriodYear       Period = "1y"
	PeriodTwoYear    Period = "2y"
	PeriodFiveYear   Period = "5y"
	PeriodTenYear    Period = "10y"
	PeriodYTD        Period = "ytd"
	PeriodMax        Period = "max"
)

var periods = []Period{
	PeriodDay, PeriodFiveDay, PeriodMonth, PeriodThreeMonth, PeriodSixMonth,
	PeriodYear, PeriodTwoYear, PeriodFiveYear, PeriodTenYear, PeriodYTD, PeriodMax,
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	for _, p := range periods {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Interval is the spacing between quotes inside a period.
type Interval string

const (
	IntervalMinute        Interval = "1m"
	IntervalTwoMinute     Interval = "2m"
	IntervalFiveMinute    Interval = "5m"
	IntervalFifteenMinute Interval = "15m"
	IntervalThirtyMinute  Interval = "30m"
	IntervalSixtyMinute   Interval = "60m"
	IntervalNinetyMinute  Interval = "90m"
	IntervalHour          Interval = "1h"
	IntervalDay           Interval = "1d"
	IntervalFiveDay       Interval = "5d"
	IntervalWeek          Interval = "1wk"
	IntervalMonth         Interval = "1mo"
	IntervalThreeMonth    Interval = "3mo"
)

var intervals = []Interval{
	IntervalMinute, IntervalTwoMinute, IntervalFiveMinute, IntervalFifteenMinute,
	IntervalThirtyMinute, IntervalSixtyMinute, IntervalNinetyMinute, IntervalHour,
	IntervalDay, IntervalFiveDay, IntervalWeek, IntervalMonth, IntervalThreeMonth,
}

// ParseInterval validates an interval string. "7d" is accepted as a week.
// An empty string yields the empty Interval, meaning provider default.
func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if s == "7d" {
		return IntervalWeek, nil
	}
	for _, iv := range intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unknown interval %q", s)
}

// Intraday reports whether the interval is shorter than a day.
func (i Interval) Intraday() bool {
	switch i {
	case IntervalMinute, IntervalTwoMinute, IntervalFiveMinute, IntervalFifteenMinute,
		IntervalThirtyMinute, IntervalSixtyMinute, IntervalNinetyMinute, IntervalHour:
		return true
	}
	return false
}

// QuoteTiming selects which bar price a series is built from.
type QuoteTiming string

const (
	TimingOpen  QuoteTiming = "Open"
	TimingClose QuoteTiming = "Close"
	TimingHigh  QuoteTiming = "High"
	TimingLow   QuoteTiming = "Low"
)

// ParseQuoteTiming is case-insensitive.
func ParseQuoteTiming(s string) (QuoteTiming, error) {
	for _, t := range []QuoteTiming{TimingOpen, TimingClose, TimingHigh, TimingLow} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown quote timing %q", s)
}

// Loadable is the kind of instrument being loaded.
type Loadable string

const (
	LoadableStock    Loadable = "stock"
	LoadableCurrency Loadable = "currency"
	LoadableExchange Loadable = "exchange"
	LoadableFX       Loadable = "fx"
)

// Priceable reports whether historical prices can be fetched for the kind.
func (l Loadable) Priceable() bool {
	switch l {
	case LoadableStock, LoadableCurrency, LoadableExchange, LoadableFX:
		return true
	}
	return false
}
