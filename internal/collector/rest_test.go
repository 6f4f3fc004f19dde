package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceLab/internal/model"
)

func TestRESTFetcher_WeeklyFallback(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Query().Get("interval") == "1wk" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Mon 2024-01-08 .. Tue 2024-01-16, newest first
		_, _ = w.Write([]byte(`[
			{"timestamp":1705363200,"open":5,"high":6,"low":4,"close":5.5,"volume":10},
			{"timestamp":1704931200,"open":3,"high":9,"low":2,"close":4,"volume":20},
			{"timestamp":1704758400,"open":2,"high":3,"low":1,"close":2.5,"volume":30},
			{"timestamp":1704672000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":40}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", 1000, nil)
	bars, err := f.FetchHistory(context.Background(), "ENB", model.PeriodMonth, model.IntervalWeek)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)

	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Open)
	assert.Equal(t, 9.0, bars[0].High)
	assert.Equal(t, 0.5, bars[0].Low)
	assert.Equal(t, 4.0, bars[0].Close)
	assert.Equal(t, 90.0, bars[0].Volume)
	assert.Equal(t, 5.5, bars[1].Close)
}

func TestAggregateDailyToWeekly_Empty(t *testing.T) {
	assert.Nil(t, aggregateDailyToWeekly(nil))
}

func TestAggregateDailyToWeekly_SingleBar(t *testing.T) {
	bar := model.OHLCV{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Close: 7}
	out := aggregateDailyToWeekly([]model.OHLCV{bar})
	require.Len(t, out, 1)
	assert.Equal(t, 7.0, out[0].Close)
}
