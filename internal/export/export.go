package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"PriceLab/internal/model"
)

// TimeColumn heads the timestamp column in every export.
const TimeColumn = "Datetime"

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// WriteXLSX writes the frame to a single-sheet workbook. NaN cells are left empty.
func WriteXLSX(path, sheet string, f *model.Frame) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if sheet == "" {
		sheet = "Frame"
	}
	x := excelize.NewFile()
	defer x.Close()
	if err := x.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := append([]string{TimeColumn}, f.Columns...)
	for c, name := range header {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := x.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, ts := range f.Index {
		row := r + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := x.SetCellValue(sheet, cell, ts.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		for c, col := range f.Columns {
			v := f.Value(col, r)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+2, row)
			if err := x.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}
	if err := x.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	log.Info().Str("path", path).Int("rows", f.Len()).Msg("xlsx export written")
	return nil
}

// WriteCSV writes the frame as CSV. NaN cells are written empty.
func WriteCSV(path string, f *model.Frame) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(append([]string{TimeColumn}, f.Columns...)); err != nil {
		return err
	}
	rec := make([]string, len(f.Columns)+1)
	for r, ts := range f.Index {
		rec[0] = ts.UTC().Format(time.RFC3339)
		for c, col := range f.Columns {
			v := f.Value(col, r)
			if math.IsNaN(v) {
				rec[c+1] = ""
				continue
			}
			rec[c+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	log.Info().Str("path", path).Int("rows", f.Len()).Msg("csv export written")
	return nil
}
