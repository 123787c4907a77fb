// Package analysis provides structural checks on an event list: the
// incidence matrix built from firing deltas, the state equation and
// place invariants.
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/inference-sim/spnsim/sim"
)

// tolerance for treating a float entry or singular value as zero.
const tolerance = 1e-9

// Incidence returns the events × places matrix whose (i, j) entry is the net
// token change event i applies to places[j] when it fires. Deltas on places
// outside the list are ignored. It returns nil when either list is empty.
func Incidence(events []sim.Event, places []sim.Place) *mat.Dense {
	if len(events) == 0 || len(places) == 0 {
		return nil
	}
	col := make(map[sim.Place]int, len(places))
	for j, p := range places {
		col[p] = j
	}
	c := mat.NewDense(len(events), len(places), nil)
	for i, ev := range events {
		for _, change := range ev.Fire() {
			if j, ok := col[change.Place]; ok {
				c.Set(i, j, c.At(i, j)+float64(change.Delta))
			}
		}
	}
	return c
}

// StateEquation returns m0 + σ·C, the marking reached after each event i
// fired counts[i] times in any order.
func StateEquation(c *mat.Dense, m0 []float64, counts []float64) ([]float64, error) {
	if c == nil {
		return nil, fmt.Errorf("state equation: empty incidence matrix")
	}
	n, m := c.Dims()
	if len(counts) != n {
		return nil, fmt.Errorf("state equation: %d firing counts for %d events", len(counts), n)
	}
	if len(m0) != m {
		return nil, fmt.Errorf("state equation: marking has %d places, matrix has %d", len(m0), m)
	}
	sigma := mat.NewDense(1, n, append([]float64(nil), counts...))
	var delta mat.Dense
	delta.Mul(sigma, c)

	var out mat.Dense
	out.Add(mat.NewDense(1, m, append([]float64(nil), m0...)), &delta)
	return mat.Row(nil, 0, &out), nil
}

// IsPInvariant reports whether the weighted token sum y·M is left unchanged
// by every event, i.e. C·y = 0.
func IsPInvariant(c *mat.Dense, y []float64) bool {
	if c == nil {
		return true
	}
	n, m := c.Dims()
	if len(y) != m {
		return false
	}
	var cy mat.VecDense
	cy.MulVec(c, mat.NewVecDense(m, append([]float64(nil), y...)))
	for i := 0; i < n; i++ {
		if math.Abs(cy.AtVec(i)) > tolerance {
			return false
		}
	}
	return true
}

// PInvariantBasis returns a places × k matrix whose columns span the null
// space of C, computed from its singular value decomposition. k is zero when
// no weighted sum is conserved.
func PInvariantBasis(c *mat.Dense) (*mat.Dense, error) {
	if c == nil {
		return nil, fmt.Errorf("p-invariants: empty incidence matrix")
	}
	n, m := c.Dims()
	var svd mat.SVD
	if !svd.Factorize(c, mat.SVDFullV) {
		return nil, fmt.Errorf("p-invariants: SVD of %d×%d incidence matrix failed", n, m)
	}
	rank := svd.Rank(tolerance)
	if rank == m {
		return nil, nil
	}
	var v mat.Dense
	svd.VTo(&v)
	basis := mat.DenseCopyOf(v.Slice(0, m, rank, m))
	return basis, nil
}

// ConservedPlaces returns the column indices of places no event changes.
func ConservedPlaces(c *mat.Dense) []int {
	if c == nil {
		return nil
	}
	n, m := c.Dims()
	var out []int
	for j := 0; j < m; j++ {
		untouched := true
		for i := 0; i < n; i++ {
			if c.At(i, j) != 0 {
				untouched = false
				break
			}
		}
		if untouched {
			out = append(out, j)
		}
	}
	return out
}
