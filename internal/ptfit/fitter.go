package ptfit

import (
	"gonum.org/v1/gonum/mat"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

// Fitter fits a track's clusters with the straight-line model
type Fitter struct {
	Device *ptdevice.Device
}

// New returns a Fitter bound to the device whose geometry is used to
// transform clusters between frames.
func New(device *ptdevice.Device) *Fitter {
	return &Fitter{Device: device}
}

// globalPointsOf builds the regression Points for the global fit: each
// cluster's position transformed to the global frame, with diagonal
// variances propagated through the plane's orthonormal linear map.
func (f *Fitter) globalPointsOf(t *ptevent.Track, ev *ptevent.Event, exclude int) []Point {
	var pts []Point
	for sensorID, idx := range t.Clusters {
		if sensorID == exclude {
			continue
		}
		plane, ok := f.Device.Plane(sensorID)
		if !ok {
			continue
		}
		se := ev.Sensor(sensorID)
		if se == nil || idx < 0 || idx >= len(se.Clusters) {
			continue
		}
		cl := se.Clusters[idx]
		global := plane.ToGlobal(ptgeom.Vec4{cl.Local[0], cl.Local[1], cl.Local[2], cl.Local[3]})
		varX, varY, varT := globalVariances(plane, cl.CovLocal)
		pts = append(pts, Point{
				Z: global[2], Y1: global[0], VarY1: varX, Y2: global[1], VarY2: varY,
				HasTime: true, T: global[3], VarT: varT,
			})
	}
	return pts
}

// globalVariances propagates a cluster's local 4×4 covariance through the
// plane's orthonormal linear map and returns the resulting diagonal
// variances on x, y, t. Fit weights are the inverse of each cluster's
// global-position variance.
func globalVariances(plane ptgeom.Plane, covLocal *mat.SymDense) (varX, varY, varT float64) {
	if covLocal == nil {
		return 1, 1, 1
	}
	q := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			q.Set(i, j, plane.Q[i][j])
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

// Global fits a track's global state from every sensor's cluster.
func (f *Fitter) Global(t *ptevent.Track, ev *ptevent.Event) ptevent.GlobalState {
	pts := f.globalPointsOf(t, ev, -1)
	res := Fit(pts)

	params := [6]float64{
		res.Axis1.Intercept, res.Axis2.Intercept,
		res.Axis1.Slope, res.Axis2.Slope,
		0, 0,
	}
	if res.HasTime {
		params[4] = res.Time.Intercept
		params[5] = res.Time.Slope
	}

	t.Fit = ptevent.GoodnessOfFit{Chi2: res.Chi2, Dof: res.Dof}

	cov := mat.NewSymDense(6, nil)
	cov.SetSym(0, 0, res.Axis1.VarIntercept)
	cov.SetSym(0, 2, res.Axis1.CovInterceptSlope)
	cov.SetSym(2, 2, res.Axis1.VarSlope)
	cov.SetSym(1, 1, res.Axis2.VarIntercept)
	cov.SetSym(1, 3, res.Axis2.CovInterceptSlope)
	cov.SetSym(3, 3, res.Axis2.VarSlope)
	if res.HasTime {
		cov.SetSym(4, 4, res.Time.VarIntercept)
		cov.SetSym(4, 5, res.Time.CovInterceptSlope)
		cov.SetSym(5, 5, res.Time.VarSlope)
	}

	return ptevent.GlobalState{Params: params, Cov: cov}
}

// Local fits the per-sensor local TrackState on sensor `target` by
// transforming every cluster of the track into target's local frame and
// regressing u,v against w. When
// unbiased is true, the cluster on `target` itself is excluded from the
// regression, required by the residuals
// aligner.
func (f *Fitter) Local(t *ptevent.Track, ev *ptevent.Event, target int, unbiased bool) (ptevent.TrackState, bool) {
	targetPlane, ok := f.Device.Plane(target)
	if !ok {
		return ptevent.TrackState{}, false
	}

	exclude := -1
	if unbiased {
		exclude = target
	}

	var pts []Point
	for sensorID, idx := range t.Clusters {
		if sensorID == exclude {
			continue
		}
		plane, ok := f.Device.Plane(sensorID)
		if !ok {
			continue
		}
		se := ev.Sensor(sensorID)
		if se == nil || idx < 0 || idx >= len(se.Clusters) {
			continue
		}
		cl := se.Clusters[idx]
		global := plane.ToGlobal(ptgeom.Vec4{cl.Local[0], cl.Local[1], cl.Local[2], cl.Local[3]})
		local := targetPlane.ToLocal(global)
		varU, varV, varS := globalVariances(composedPlane(targetPlane, plane), cl.CovLocal)
		pts = append(pts, Point{
				Z: local[2], Y1: local[0], VarY1: varU, Y2: local[1], VarY2: varV,
				HasTime: true, T: local[3], VarT: varS,
			})
	}

	if len(pts) < 2 {
		return ptevent.TrackState{}, false
	}

	res := Fit(pts)
	params := [6]float64{res.Axis1.Intercept, res.Axis2.Intercept, res.Axis1.Slope, res.Axis2.Slope, 0, 0}
	if res.HasTime {
		params[4] = res.Time.Intercept
		params[5] = res.Time.Slope
	}

	cov := mat.NewSymDense(6, nil)
	cov.SetSym(0, 0, res.Axis1.VarIntercept)
	cov.SetSym(0, 2, res.Axis1.CovInterceptSlope)
	cov.SetSym(2, 2, res.Axis1.VarSlope)
	cov.SetSym(1, 1, res.Axis2.VarIntercept)
	cov.SetSym(1, 3, res.Axis2.CovInterceptSlope)
	cov.SetSym(3, 3, res.Axis2.VarSlope)
	if res.HasTime {
		cov.SetSym(4, 4, res.Time.VarIntercept)
		cov.SetSym(4, 5, res.Time.CovInterceptSlope)
		cov.SetSym(5, 5, res.Time.VarSlope)
	}

	return ptevent.TrackState{Params: params, Cov: cov, Track: -1, Cluster: -1}, true
}

// composedPlane combines source→global→target into a single orthonormal
// map so globalVariances can propagate a source-local covariance directly
// into target-local variances.
func composedPlane(target, source ptgeom.Plane) ptgeom.Plane {
	var q ptgeom.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += target.Q[k][i] * source.Q[k][j] // target.Qᵀ · source.Q
			}
			q[i][j] = sum
		}
	}
	return ptgeom.Plane{Q: q}
}
