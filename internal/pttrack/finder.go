// Package pttrack implements the combinatorial track finder:
// seed-and-extend search across an ordered list of tracking sensors, with
// ambiguity bifurcation and global selection by cluster count and fit
// quality.
//
// The gate is a Mahalanobis-style distance check generalised from a
// single-frame nearest-neighbour association to a multi-sensor,
// multi-candidate combinatorial search with bifurcation.
package pttrack

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptfit"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

// Params configures the finder.
type Params struct {
	SensorIDs []int // processing order; significant
	NPointsMin int
	SearchSpatialSigmaMax float64
	SearchTemporalSigmaMax float64 // <=0 disables the temporal cut
	ReducedChi2Max float64 // <=0 disables the post-fit cut
}

// Finder searches a device's current event for tracks.
type Finder struct {
	device *ptdevice.Device
	params Params
	fitter *ptfit.Fitter
}

// New validates params and returns a Finder. nSensors < nPointsMin is a
// fatal configuration error.
func New(device *ptdevice.Device, params Params) (*Finder, error) {
	if len(params.SensorIDs) < params.NPointsMin {
		return nil, ptcore.Configf("recon", "%d tracking sensors < nPointsMin=%d", len(params.SensorIDs), params.NPointsMin)
	}
	return &Finder{device: device, params: params, fitter: ptfit.New(device)}, nil
}

// candidate is a growing track during the search.
type candidate struct {
	clusters map[int]int // sensor id -> cluster index
	last int // sensor id of the most recently added cluster
}

func (c candidate) clone() candidate {
	cp := make(map[int]int, len(c.clusters))
	for k, v := range c.clusters {
		cp[k] = v
	}
	return candidate{clusters: cp, last: c.last}
}

// Run finds tracks in ev and appends the admitted ones via ev.AddTrack.
func (f *Finder) Run(ev *ptevent.Event) {
	order := f.params.SensorIDs
	nSeed := 1 + len(order) - f.params.NPointsMin
	if nSeed < 1 {
		nSeed = 1
	}

	var candidates []candidate

	for si := 0; si < nSeed; si++ {
		sensorID := order[si]
		se := ev.Sensor(sensorID)
		if se == nil {
			continue
		}
		for ci := range se.Clusters {
			candidates = append(candidates, candidate{
					clusters: map[int]int{sensorID: ci},
					last: sensorID,
				})
		}
	}

	for si := 0; si < len(order); si++ {
		sensorID := order[si]
		if si < nSeed {
			continue // seed sensors are not extension targets
		}
		se := ev.Sensor(sensorID)
		if se == nil || len(se.Clusters) == 0 {
			continue
		}

		var extended []candidate
		for _, cand := range candidates {
			lastPlane, ok := f.device.Plane(cand.last)
			if !ok {
				extended = append(extended, cand)
				continue
			}
			lastSE := ev.Sensor(cand.last)
			lastCl := lastSE.Clusters[cand.clusters[cand.last]]
			lastGlobal := lastPlane.ToGlobal(ptgeom.Vec4{lastCl.Local[0], lastCl.Local[1], lastCl.Local[2], lastCl.Local[3]})

			thisPlane, ok := f.device.Plane(sensorID)
			if !ok {
				extended = append(extended, cand)
				continue
			}

			var matches []int
			for ci, cl := range se.Clusters {
				thisGlobal := thisPlane.ToGlobal(ptgeom.Vec4{cl.Local[0], cl.Local[1], cl.Local[2], cl.Local[3]})
				if f.matches(lastGlobal, lastPlane, lastCl, thisGlobal, thisPlane, cl) {
					matches = append(matches, ci)
				}
			}

			if len(matches) == 0 {
				extended = append(extended, cand)
				continue
			}
			// First match continues the current candidate; bifurcate a
			// full copy for every additional match.
			first := cand.clone()
			first.clusters[sensorID] = matches[0]
			first.last = sensorID
			extended = append(extended, first)
			for _, extra := range matches[1:] {
				cp := cand.clone()
				cp.clusters[sensorID] = extra
				cp.last = sensorID
				extended = append(extended, cp)
			}
		}
		candidates = extended
	}

	// Fit every candidate to populate goodness-of-fit.
	type scored struct {
		cand candidate
		fit ptevent.GoodnessOfFit
	}
	var pool []scored
	for _, cand := range candidates {
		if len(cand.clusters) == 0 {
			continue
		}
		t := &ptevent.Track{Clusters: cand.clusters}
		t.Global = f.fitter.Global(t, ev)
		pool = append(pool, scored{cand: cand, fit: t.Fit})
	}

	sort.SliceStable(pool, func(i, j int) bool {
			ni, nj := len(pool[i].cand.clusters), len(pool[j].cand.clusters)
			if ni != nj {
				return ni > nj
			}
			ri := reducedChi2(pool[i].fit)
			rj := reducedChi2(pool[j].fit)
			return ri < rj
		})

	used := make(map[int]map[int]bool)
	for _, sid := range order {
		used[sid] = make(map[int]bool)
	}

	for _, cand := range pool {
		if len(cand.cand.clusters) < f.params.NPointsMin {
			continue
		}
		if f.params.ReducedChi2Max > 0 && reducedChi2(cand.fit) > f.params.ReducedChi2Max {
			continue
		}
		conflict := false
		for sid, ci := range cand.cand.clusters {
			if used[sid][ci] {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		for sid, ci := range cand.cand.clusters {
			used[sid][ci] = true
		}
		t := ptevent.Track{Clusters: cand.cand.clusters}
		t.Global = f.fitter.Global(&t, ev)
		ev.AddTrack(t)
	}
}

func reducedChi2(g ptevent.GoodnessOfFit) float64 {
	if g.Dof <= 0 {
		return 0
	}
	return g.Chi2 / float64(g.Dof)
}

// matches implements the search window:
// ‖(Δglobal_xy − Δz·beamSlope) / σ‖ < searchSpatialSigmaMax, where σ is the
// axis-wise combined standard deviation of both clusters' global position.
func (f *Finder) matches(aGlobal ptgeom.Vec4, aPlane ptgeom.Plane, a ptevent.Cluster, bGlobal ptgeom.Vec4, bPlane ptgeom.Plane, b ptevent.Cluster) bool {
	dz := bGlobal[2] - aGlobal[2]
	beam := f.device.Geometry.Beam
	dx := (bGlobal[0] - aGlobal[0]) - dz*beam.X
	dy := (bGlobal[1] - aGlobal[1]) - dz*beam.Y

	varAX, varAY, varAT := globalDiag(aPlane, a.CovLocal)
	varBX, varBY, varBT := globalDiag(bPlane, b.CovLocal)
	sigmaX := math.Sqrt(varAX + varBX)
	sigmaY := math.Sqrt(varAY + varBY)
	if sigmaX == 0 {
		sigmaX = 1e-9
	}
	if sigmaY == 0 {
		sigmaY = 1e-9
	}

	dist := math.Hypot(dx/sigmaX, dy/sigmaY)
	if dist >= f.params.SearchSpatialSigmaMax {
		return false
	}

	if f.params.SearchTemporalSigmaMax > 0 {
		dt := bGlobal[3] - aGlobal[3]
		sigmaT := math.Sqrt(varAT + varBT)
		if sigmaT == 0 {
			sigmaT = 1e-9
		}
		if math.Abs(dt)/sigmaT >= f.params.SearchTemporalSigmaMax {
			return false
		}
	}

	return true
}

func globalDiag(p ptgeom.Plane, covLocal *mat.SymDense) (varX, varY, varT float64) {
	if covLocal == nil {
		return 1, 1, 1
	}
	q := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			q.Set(i, j, p.Q[i][j])
		}
	}
	var tmp, out mat.Dense
	tmp.Mul(q, covLocal)
	out.Mul(&tmp, q.T())
	varX, varY, varT = out.At(0, 0), out.At(1, 1), out.At(3, 3)
	if varX <= 0 {
		varX = 1e-12
	}
	if varY <= 0 {
		varY = 1e-12
	}
	if varT <= 0 {
		varT = 1e-12
	}
	return
}
