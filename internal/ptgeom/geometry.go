package ptgeom

import "gonum.org/v1/gonum/mat"

// BeamSlope is the global beam direction as (dx/dz, dy/dz) with its 2×2
// covariance.
type BeamSlope struct {
	X, Y float64
	Cov [2][2]float64
}

// LocalTangent returns the per-sensor beam slope (localTangent_u/w,
// localTangent_v/w) for plane p, computed on demand
func (b BeamSlope) LocalTangent(p Plane) (du, dv float64) {
	globalTangent := Vec4{b.X, b.Y, 1, 0}
	local := mulMatVec(transposeMat(p.Q), globalTangent)
	if local[2] == 0 {
		return 0, 0
	}
	return local[0] / local[2], local[1] / local[2]
}

// Geometry is the mapping from sensor id to Plane plus the optional 6×6
// pose covariance per sensor and the global beam slope
// Geometry is loaded once from config and mutated only by the alignment
// engine between iterations. It is not written back after each iteration;
// pt-align writes the final geometry once, after the last iteration.
type Geometry struct {
	Planes map[int]Plane
	PoseCov map[int]*mat.SymDense // optional 6×6, nil if unknown
	Beam BeamSlope
	BeamEnergy float64 // GeV; mutually exclusive with Momentum/Mass
	Momentum float64
	Mass float64
}

// NewGeometry returns an empty Geometry ready to be populated.
func NewGeometry() *Geometry {
	return &Geometry{
		Planes: make(map[int]Plane),
		PoseCov: make(map[int]*mat.SymDense),
	}
}

// Clone returns a deep-enough copy for the alignment engine to mutate
// independently of the geometry used by the loop that is still running
//.
func (g *Geometry) Clone() *Geometry {
	out := NewGeometry()
	for id, p := range g.Planes {
		out.Planes[id] = p
	}
	for id, c := range g.PoseCov {
		if c == nil {
			continue
		}
		cp := mat.NewSymDense(c.SymmetricDim(), nil)
		cp.CopySym(c)
		out.PoseCov[id] = cp
	}
	out.Beam = g.Beam
	out.BeamEnergy = g.BeamEnergy
	out.Momentum = g.Momentum
	out.Mass = g.Mass
	return out
}

// CorrectGlobalOffset applies a pure global translation correction to one
// sensor's plane, used by the correlation aligner which only
// ever produces an offset, never a rotation.
func (g *Geometry) CorrectGlobalOffset(id int, dx, dy, dz float64) {
	p, ok := g.Planes[id]
	if !ok {
		return
	}
	g.Planes[id] = p.CorrectedGlobal([6]float64{dx, dy, dz, 0, 0, 0})
}

// CorrectLocal applies a local-frame 6-vector correction to one sensor's
// plane, used by the residuals aligner.
func (g *Geometry) CorrectLocal(id int, delta [6]float64) {
	p, ok := g.Planes[id]
	if !ok {
		return
	}
	g.Planes[id] = p.CorrectedLocal(delta)
}
