// Package stats wraps gonum for the covariance and correlation helpers used
// across the toolkit. Inputs are plain value slices or series values; NaN
// handling is the caller's job.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"PriceLab/internal/model"
)

var (
	ErrLengthMismatch   = errors.New("series lengths differ")
	ErrInsufficientData = errors.New("at least two observations are required")
)

func check(xs ...[]float64) error {
	if len(xs) == 0 {
		return ErrInsufficientData
	}
	n := len(xs[0])
	for _, x := range xs[1:] {
		if len(x) != n {
			return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, n, len(x))
		}
	}
	if n < 2 {
		return ErrInsufficientData
	}
	return nil
}

// Covariance returns the sample covariance of x and y.
func Covariance(x, y []float64) (float64, error) {
	if err := check(x, y); err != nil {
		return 0, err
	}
	return stat.Covariance(x, y, nil), nil
}

// observations lays the variables out as matrix columns.
func observations(xs [][]float64) *mat.Dense {
	rows, cols := len(xs[0]), len(xs)
	m := mat.NewDense(rows, cols, nil)
	for j, x := range xs {
		for i, v := range x {
			m.Set(i, j, v)
		}
	}
	return m
}

// CovMatrix returns the sample covariance matrix of the variables.
func CovMatrix(xs ...[]float64) (*mat.SymDense, error) {
	if len(xs) < 2 {
		return nil, fmt.Errorf("covariance matrix needs two or more series, got %d", len(xs))
	}
	if err := check(xs...); err != nil {
		return nil, err
	}
	cov := mat.NewSymDense(len(xs), nil)
	stat.CovarianceMatrix(cov, observations(xs), nil)
	return cov, nil
}

// CorrelationMatrix normalises the covariance matrix by the outer product of
// the standard deviations.
func CorrelationMatrix(xs ...[]float64) (*mat.SymDense, error) {
	cov, err := CovMatrix(xs...)
	if err != nil {
		return nil, err
	}
	n := len(xs)
	std := make([]float64, n)
	for i := range std {
		std[i] = math.Sqrt(cov.At(i, i))
	}
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			corr.SetSym(i, j, cov.At(i, j)/(std[i]*std[j]))
		}
	}
	return corr, nil
}

// Correlation is the off-diagonal entry of the 2x2 correlation matrix.
func Correlation(x, y []float64) (float64, error) {
	corr, err := CorrelationMatrix(x, y)
	if err != nil {
		return 0, err
	}
	return corr.At(0, 1), nil
}

// Variance is the population variance.
func Variance(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrInsufficientData
	}
	return stat.PopVariance(x, nil), nil
}

// Values extracts the value slices from series for the matrix helpers.
func Values(series ...model.Series) [][]float64 {
	out := make([][]float64, len(series))
	for i, s := range series {
		out[i] = s.Values
	}
	return out
}

// Rows converts a symmetric matrix into nested slices for printing or export.
func Rows(m *mat.SymDense, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
