package export

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"PriceLab/internal/model"
)

func frame(t *testing.T) *model.Frame {
	t.Helper()
	start := time.Date(2025, 8, 25, 13, 30, 0, 0, time.UTC)
	idx := []time.Time{start, start.Add(time.Minute)}
	f, err := model.AlignSeries(
		model.NewSeries("CVX Close", idx, []float64{157.71, 157.8056}),
		model.NewSeries("XOM Close", idx, []float64{110.76, math.NaN()}),
	)
	require.NoError(t, err)
	return f
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "frame.csv")
	require.NoError(t, WriteCSV(path, frame(t)))

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Datetime", "CVX Close", "XOM Close"}, rows[0])
	assert.Equal(t, []string{"2025-08-25T13:30:00Z", "157.71", "110.76"}, rows[1])
	assert.Equal(t, "", rows[2][2])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.xlsx")
	require.NoError(t, WriteXLSX(path, "Regimes", frame(t)))

	x, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer x.Close()

	rows, err := x.GetRows("Regimes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Datetime", "CVX Close", "XOM Close"}, rows[0])
	assert.Equal(t, "2025-08-25T13:30:00Z", rows[1][0])
	assert.Equal(t, "157.71", rows[1][1])
}
