package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceLab/internal/model"
)

func series(name string, vals ...float64) model.Series {
	idx := make([]time.Time, len(vals))
	start := time.Date(2025, 8, 25, 13, 30, 0, 0, time.UTC)
	for i := range idx {
		idx[i] = start.Add(time.Duration(i) * time.Minute)
	}
	return model.NewSeries(name, idx, vals)
}

func TestPctChange(t *testing.T) {
	pc := PctChange(series("X", 100, 110, 99))
	require.Equal(t, 3, pc.Len())
	assert.True(t, math.IsNaN(pc.Values[0]))
	assert.InDelta(t, 0.1, pc.Values[1], 1e-12)
	assert.InDelta(t, -0.1, pc.Values[2], 1e-12)
}

func TestRollingVolatility(t *testing.T) {
	vol, err := RollingVolatility(series("X", 100, 110, 99, 99), 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vol.Values[0]))
	assert.True(t, math.IsNaN(vol.Values[1]), "window touching the first return is undefined")
	assert.InDelta(t, math.Sqrt(0.02)*math.Sqrt(252), vol.Values[2], 1e-9)
	assert.InDelta(t, math.Sqrt(0.005)*math.Sqrt(252), vol.Values[3], 1e-9)
}

func TestRollingVar(t *testing.T) {
	v, err := RollingVar(series("X", 100, 110, 99), 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, v.Values[2], 1e-12)
}

func TestRollingAvg(t *testing.T) {
	avg, err := RollingAvg(series("X", 1, 2, 3, 4), 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(avg.Values[0]))
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, avg.Values[1:])
}

func TestRolling_InvalidWindow(t *testing.T) {
	_, err := RollingAvg(series("X", 1, 2), 0)
	assert.Error(t, err)
}

func TestLogAndAvg(t *testing.T) {
	l := Log(series("X", 1, math.E))
	assert.InDelta(t, 0, l.Values[0], 1e-12)
	assert.InDelta(t, 1, l.Values[1], 1e-12)

	assert.Equal(t, 2.0, Avg(series("X", 1, math.NaN(), 3)))
	assert.True(t, math.IsNaN(Avg(series("X"))))
}

func TestAddSubtract(t *testing.T) {
	a := series("A", 1, 2, 3)
	b := series("B", 10, 20, 30)

	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33}, sum.Values)

	diff, err := Subtract(b, a)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 18, 27}, diff.Values)

	assert.Equal(t, []float64{1, 2, 3}, a.Values, "inputs must not be mutated")
}

func TestAdd_IndexMismatch(t *testing.T) {
	a := series("A", 1, 2, 3)
	b := series("B", 1, 2)
	_, err := Add(a, b)
	assert.ErrorIs(t, err, model.ErrIndexMismatch)

	shifted := series("C", 1, 2, 3)
	shifted.Index[0] = shifted.Index[0].Add(time.Second)
	_, err = Subtract(a, shifted)
	assert.ErrorIs(t, err, model.ErrIndexMismatch)
}

func TestScalarOps(t *testing.T) {
	s := series("A", 1, 2)
	assert.Equal(t, []float64{6, 7}, AddScalar(s, 5).Values)
	assert.Equal(t, []float64{0, 1}, SubtractScalar(s, 1).Values)
}

func TestAddPositional(t *testing.T) {
	primary := series("P", 1, 2)
	out := AddPositional(primary, series("S", 10, 20, 30))
	assert.Equal(t, []float64{11, 22}, out.Values)
	assert.Equal(t, []float64{1, 2}, primary.Values)

	short := AddPositional(series("P", 1, 2, 3), series("S", 5))
	assert.Equal(t, []float64{6, 2, 3}, short.Values)
}

func TestValueSignsDiffAndWalk(t *testing.T) {
	s := series("X", 1, 2, 2, 1)
	signs := ValueSignsDiff(s)
	assert.Equal(t, []float64{1, -1, -1}, signs.Values)
	assert.Equal(t, s.Index[1], signs.Index[0])

	walk := Walk(s)
	assert.Equal(t, []float64{0, 1, 0, -1}, walk.Values)
	assert.Equal(t, s.Index, walk.Index)
}

func TestValueDiff(t *testing.T) {
	d := ValueDiff(series("X", 1, 4, 2))
	assert.Equal(t, []float64{3, -2}, d.Values)
	assert.Equal(t, 0, ValueDiff(series("X", 1)).Len())
}

func TestNormalize(t *testing.T) {
	n, err := Normalize(series("X", 2, 4, 6))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, n.Values)

	_, err = Normalize(series("X", 3, 3))
	assert.ErrorIs(t, err, ErrDegenerateRange)
}

func TestScale(t *testing.T) {
	s, err := Scale(series("X", 50, 55, 45), DefaultScaleStart)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 110, 90}, s.Values, 1e-9)

	_, err = Scale(series("X", 0, 1), 100)
	assert.Error(t, err)
}
