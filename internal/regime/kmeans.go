package regime

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// kmeans runs Lloyd's algorithm with k-means++ seeding and returns k centres.
func kmeans(x [][]float64, k int, seed uint64, maxIter int) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	n := len(x)
	centres := make([][]float64, 0, k)
	centres = append(centres, clone(x[rng.IntN(n)]))

	d2 := make([]float64, n)
	for len(centres) < k {
		total := 0.0
		for i, p := range x {
			d2[i] = nearestDist(p, centres)
			total += d2[i]
		}
		if total == 0 {
			centres = append(centres, clone(x[rng.IntN(n)]))
			continue
		}
		r := rng.Float64() * total
		pick := n - 1
		for i, d := range d2 {
			r -= d
			if r <= 0 {
				pick = i
				break
			}
		}
		centres = append(centres, clone(x[pick]))
	}

	assign := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range x {
			if best := nearest(p, centres); best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		dim := len(x[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range x {
			floats.Add(sums[assign[i]], p)
			counts[assign[i]]++
		}
		for c := range centres {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centres[c] = sums[c]
		}
		if !changed && iter > 0 {
			break
		}
	}
	return centres
}

func nearest(p []float64, centres [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centres {
		if d := floats.Distance(p, ctr, 2); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func nearestDist(p []float64, centres [][]float64) float64 {
	d := floats.Distance(p, centres[nearest(p, centres)], 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
