// Package ptalign implements the iterative alignment engine:
// a coarse cluster-correlation aligner that runs without tracks, a fine
// residuals aligner using unbiased local states, and the iteration driver
// that threads a fresh Geometry through successive reconstruction passes.
//
// Accumulated samples feed running statistics, periodically replacing the
// working geometry, using gonum/stat for the mean/variance arithmetic; run
// identifiers use google/uuid.
package ptalign

import (
	"gonum.org/v1/gonum/mat"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

// diag6 builds a 6×6 diagonal SymDense, used to record the variance of a
// pose correction's mean on Geometry.PoseCov for monitoring.
func diag6(d0, d1, d2, d3, d4, d5 float64) *mat.SymDense {
	m := mat.NewSymDense(6, nil)
	diag := [6]float64{d0, d1, d2, d3, d4, d5}
	for i, v := range diag {
		m.SetSym(i, i, v)
	}
	return m
}

// Aligner accumulates per-event samples and produces a corrected Geometry
// for the next reconstruction pass from the samples seen so far.
type Aligner interface {
	Execute(ev *ptevent.Event)
	UpdatedGeometry() *ptgeom.Geometry
}

// subsetOf reports whether every element of a is in b.
func subsetOf(a, b []int) bool {
	set := make(map[int]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	for _, id := range a {
		if !set[id] {
			return false
		}
	}
	return true
}

func validateAlignSet(stage string, alignable, inputSet []int) error {
	if len(alignable) == 0 {
		return ptcore.Configf(stage, "align-set is empty")
	}
	if !subsetOf(alignable, inputSet) {
		return ptcore.Configf(stage, "align-set %v is not a subset of the input set %v", alignable, inputSet)
	}
	return nil
}
