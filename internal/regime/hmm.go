package regime

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
)

// CovarianceType selects the shape of each state's covariance matrix.
type CovarianceType string

const (
	CovarianceFull CovarianceType = "full"
	CovarianceDiag CovarianceType = "diag"
)

const (
	DefaultIterations = 1000
	DefaultTolerance  = 1e-2
	DefaultMinCovar   = 1e-3
)

var (
	ErrNoStates   = errors.New("model requires at least 1 hidden state for fitting")
	ErrNotFitted  = errors.New("model has not been fitted")
	ErrBadFeature = errors.New("invalid feature matrix")
)

// GaussianHMM is a hidden Markov model with multivariate Gaussian emissions,
// trained by Baum-Welch and decoded by Viterbi.
type GaussianHMM struct {
	States         int
	CovarianceType CovarianceType
	Iterations     int
	Tolerance      float64
	MinCovar       float64
	Seed           uint64

	StartProb []float64
	TransMat  [][]float64
	Means     [][]float64
	Covars    []*mat.SymDense

	LogLikelihood float64
	Iter          int
	Converged     bool

	dim int
}

// NewGaussianHMM validates the state count and covariance type.
func NewGaussianHMM(states int, covType CovarianceType, iterations int) (*GaussianHMM, error) {
	if states < 1 {
		return nil, ErrNoStates
	}
	if covType == "" {
		covType = CovarianceFull
	}
	if covType != CovarianceFull && covType != CovarianceDiag {
		return nil, fmt.Errorf("unsupported covariance type %q (want full or diag)", covType)
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &GaussianHMM{
		States:         states,
		CovarianceType: covType,
		Iterations:     iterations,
		Tolerance:      DefaultTolerance,
		MinCovar:       DefaultMinCovar,
		Seed:           42,
	}, nil
}

func hasInf(row []float64) bool {
	for _, v := range row {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func (h *GaussianHMM) validate(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: no observations", ErrBadFeature)
	}
	dim := len(x[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero features", ErrBadFeature)
	}
	for t, row := range x {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrBadFeature, t, len(row), dim)
		}
		if floats.HasNaN(row) || hasInf(row) {
			return fmt.Errorf("%w: row %d is not finite", ErrBadFeature, t)
		}
	}
	if h.dim != 0 && dim != h.dim {
		return fmt.Errorf("%w: model has %d features, got %d", ErrBadFeature, h.dim, dim)
	}
	return nil
}

// Fit estimates the parameters from the observation rows.
func (h *GaussianHMM) Fit(x [][]float64) error {
	if h.States < 1 {
		return ErrNoStates
	}
	h.dim = 0
	if err := h.validate(x); err != nil {
		return err
	}
	if len(x) < h.States || len(x) < 2 {
		return fmt.Errorf("%w: %d observations for %d states", ErrBadFeature, len(x), h.States)
	}
	h.dim = len(x[0])
	h.init(x)

	k, n := h.States, len(x)
	prev := math.Inf(-1)
	h.Converged = false
	for iter := 0; iter < h.Iterations; iter++ {
		logB, err := h.emissions(x)
		if err != nil {
			return err
		}
		alpha, ll := h.forward(logB)
		beta := h.backward(logB)
		h.LogLikelihood = ll
		h.Iter = iter + 1
		if iter > 0 && ll-prev < h.Tolerance {
			h.Converged = true
			break
		}
		prev = ll

		gamma := posteriors(alpha, beta, ll)
		logA := logMatrix(h.TransMat)
		xi := make([][]float64, k)
		for i := range xi {
			xi[i] = make([]float64, k)
		}
		for t := 0; t < n-1; t++ {
			for i := 0; i < k; i++ {
				for j := 0; j < k; j++ {
					xi[i][j] += math.Exp(alpha[t][i] + logA[i][j] + logB[t+1][j] + beta[t+1][j] - ll)
				}
			}
		}
		h.maximize(x, gamma, xi)
	}
	return nil
}

func (h *GaussianHMM) init(x [][]float64) {
	k, d := h.States, h.dim
	h.StartProb = make([]float64, k)
	h.TransMat = make([][]float64, k)
	for i := range h.TransMat {
		h.StartProb[i] = 1 / float64(k)
		h.TransMat[i] = make([]float64, k)
		for j := range h.TransMat[i] {
			h.TransMat[i][j] = 1 / float64(k)
		}
	}
	h.Means = kmeans(x, k, h.Seed, 300)

	obs := mat.NewDense(len(x), d, nil)
	for t, row := range x {
		obs.SetRow(t, row)
	}
	cov := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(cov, obs, nil)

	h.Covars = make([]*mat.SymDense, k)
	for s := range h.Covars {
		c := mat.NewSymDense(d, nil)
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				if h.CovarianceType == CovarianceDiag && i != j {
					continue
				}
				v := cov.At(i, j)
				if i == j {
					v += h.MinCovar
				}
				c.SetSym(i, j, v)
			}
		}
		h.Covars[s] = c
	}
}

// emissions returns log N(x_t | mean_k, cov_k) for every step and state.
func (h *GaussianHMM) emissions(x [][]float64) ([][]float64, error) {
	dists := make([]*distmv.Normal, h.States)
	for k := range dists {
		dist, ok := distmv.NewNormal(h.Means[k], h.Covars[k], nil)
		if !ok {
			return nil, fmt.Errorf("state %d covariance is not positive definite", k)
		}
		dists[k] = dist
	}
	logB := make([][]float64, len(x))
	for t, row := range x {
		logB[t] = make([]float64, h.States)
		for k, dist := range dists {
			logB[t][k] = dist.LogProb(row)
		}
	}
	return logB, nil
}

func (h *GaussianHMM) forward(logB [][]float64) ([][]float64, float64) {
	k, n := h.States, len(logB)
	logPi := logVector(h.StartProb)
	logA := logMatrix(h.TransMat)
	alpha := make([][]float64, n)
	buf := make([]float64, k)
	alpha[0] = make([]float64, k)
	for j := 0; j < k; j++ {
		alpha[0][j] = logPi[j] + logB[0][j]
	}
	for t := 1; t < n; t++ {
		alpha[t] = make([]float64, k)
		for j := 0; j < k; j++ {
			for i := 0; i < k; i++ {
				buf[i] = alpha[t-1][i] + logA[i][j]
			}
			alpha[t][j] = floats.LogSumExp(buf) + logB[t][j]
		}
	}
	return alpha, floats.LogSumExp(alpha[n-1])
}

func (h *GaussianHMM) backward(logB [][]float64) [][]float64 {
	k, n := h.States, len(logB)
	logA := logMatrix(h.TransMat)
	beta := make([][]float64, n)
	beta[n-1] = make([]float64, k)
	buf := make([]float64, k)
	for t := n - 2; t >= 0; t-- {
		beta[t] = make([]float64, k)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				buf[j] = logA[i][j] + logB[t+1][j] + beta[t+1][j]
			}
			beta[t][i] = floats.LogSumExp(buf)
		}
	}
	return beta
}

func posteriors(alpha, beta [][]float64, ll float64) [][]float64 {
	gamma := make([][]float64, len(alpha))
	for t := range alpha {
		gamma[t] = make([]float64, len(alpha[t]))
		for k := range alpha[t] {
			gamma[t][k] = math.Exp(alpha[t][k] + beta[t][k] - ll)
		}
	}
	return gamma
}

func (h *GaussianHMM) maximize(x [][]float64, gamma, xi [][]float64) {
	k, d := h.States, h.dim

	copy(h.StartProb, gamma[0])
	normalize(h.StartProb)

	for i := 0; i < k; i++ {
		if floats.Sum(xi[i]) > 0 {
			copy(h.TransMat[i], xi[i])
			normalize(h.TransMat[i])
		}
	}

	for s := 0; s < k; s++ {
		w := 0.0
		mean := make([]float64, d)
		for t, row := range x {
			w += gamma[t][s]
			floats.AddScaled(mean, gamma[t][s], row)
		}
		if w < 1e-10 {
			continue
		}
		floats.Scale(1/w, mean)

		c := mat.NewSymDense(d, nil)
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				if h.CovarianceType == CovarianceDiag && i != j {
					continue
				}
				acc := 0.0
				for t, row := range x {
					acc += gamma[t][s] * (row[i] - mean[i]) * (row[j] - mean[j])
				}
				v := acc / w
				if i == j {
					v += h.MinCovar
				}
				c.SetSym(i, j, v)
			}
		}
		h.Means[s] = mean
		h.Covars[s] = c
	}
}

func (h *GaussianHMM) ready(x [][]float64) error {
	if h.Means == nil {
		return ErrNotFitted
	}
	return h.validate(x)
}

// Predict returns the Viterbi most-likely state path.
func (h *GaussianHMM) Predict(x [][]float64) ([]int, error) {
	if err := h.ready(x); err != nil {
		return nil, err
	}
	logB, err := h.emissions(x)
	if err != nil {
		return nil, err
	}
	k, n := h.States, len(x)
	logPi := logVector(h.StartProb)
	logA := logMatrix(h.TransMat)

	delta := make([]float64, k)
	for j := 0; j < k; j++ {
		delta[j] = logPi[j] + logB[0][j]
	}
	back := make([][]int, n)
	for t := 1; t < n; t++ {
		next := make([]float64, k)
		back[t] = make([]int, k)
		for j := 0; j < k; j++ {
			best, arg := math.Inf(-1), 0
			for i := 0; i < k; i++ {
				if v := delta[i] + logA[i][j]; v > best {
					best, arg = v, i
				}
			}
			next[j] = best + logB[t][j]
			back[t][j] = arg
		}
		delta = next
	}

	path := make([]int, n)
	path[n-1] = floats.MaxIdx(delta)
	for t := n - 1; t > 0; t-- {
		path[t-1] = back[t][path[t]]
	}
	return path, nil
}

// PredictProba returns the posterior probability of each state at each step.
func (h *GaussianHMM) PredictProba(x [][]float64) ([][]float64, error) {
	if err := h.ready(x); err != nil {
		return nil, err
	}
	logB, err := h.emissions(x)
	if err != nil {
		return nil, err
	}
	alpha, ll := h.forward(logB)
	return posteriors(alpha, h.backward(logB), ll), nil
}

// Score returns the log-likelihood of the observations under the model.
func (h *GaussianHMM) Score(x [][]float64) (float64, error) {
	if err := h.ready(x); err != nil {
		return 0, err
	}
	logB, err := h.emissions(x)
	if err != nil {
		return 0, err
	}
	_, ll := h.forward(logB)
	return ll, nil
}

func normalize(v []float64) {
	s := floats.Sum(v)
	if s <= 0 {
		for i := range v {
			v[i] = 1 / float64(len(v))
		}
		return
	}
	floats.Scale(1/s, v)
}

func logVector(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, p := range v {
		out[i] = math.Log(p)
	}
	return out
}

func logMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = logVector(row)
	}
	return out
}
