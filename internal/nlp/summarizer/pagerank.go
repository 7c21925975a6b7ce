package summarizer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNotConverged is returned when the power iteration does not reach the
// tolerance within the iteration budget.
var ErrNotConverged = errors.New("pagerank did not converge")

// PageRank computes the stationary distribution of a random walk over the
// weighted undirected graph described by the symmetric matrix w. Each edge
// is walked in both directions with probability proportional to its weight.
// Rank held by isolated nodes is spread uniformly, and iteration stops once
// the L1 change falls below n*tol.
func PageRank(w mat.Symmetric, damping, tol float64, maxIter int) ([]float64, error) {
	n := w.SymmetricDim()
	if n == 0 {
		return nil, nil
	}

	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			outWeight[i] += w.At(i, j)
		}
	}

	uniform := 1 / float64(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = uniform
	}

	next := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		dangling := 0.0
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				dangling += x[i]
			}
		}

		for j := range next {
			next[j] = 0
		}
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				continue
			}
			share := damping * x[i] / outWeight[i]
			for j := 0; j < n; j++ {
				if weight := w.At(i, j); weight != 0 {
					next[j] += share * weight
				}
			}
		}

		teleport := damping*dangling*uniform + (1-damping)*uniform
		delta := 0.0
		for j := 0; j < n; j++ {
			next[j] += teleport
			delta += math.Abs(next[j] - x[j])
		}

		x, next = next, x
		if delta < float64(n)*tol {
			return x, nil
		}
	}

	return nil, fmt.Errorf("%w after %d iterations", ErrNotConverged, maxIter)
}
