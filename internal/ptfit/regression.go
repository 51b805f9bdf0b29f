// Package ptfit implements the straight-line weighted least-squares track
// fitter: closed-form independent linear regression of each
// dependent axis against the z (or w) axis, both in the global frame and,
// per sensor, in the local frame — with an unbiased variant that excludes
// the target sensor's own cluster.
//
// The closed-form statistics accumulate as running weighted sums computed
// directly in this file, without gonum's stat package.
package ptfit

// weightedLine holds one axis's closed-form weighted regression against an
// independent variable.
type weightedLine struct {
	n int
	s, sx, sy, sxx, sxy, syy float64
}

func (w *weightedLine) add(weight, x, y float64) {
	w.n++
	w.s += weight
	w.sx += weight * x
	w.sy += weight * y
	w.sxx += weight * x * x
	w.sxy += weight * x * y
	w.syy += weight * y * y
}

// LineFit is the result of fitting one dependent axis against the
// independent axis: y(x) = intercept + slope*x.
type LineFit struct {
	Intercept, Slope float64
	VarIntercept, VarSlope float64
	CovInterceptSlope float64
	Chi2 float64
}

// fit solves the closed-form weighted linear regression
func (w *weightedLine) fit() LineFit {
	cxx := w.s*w.sxx - w.sx*w.sx
	if cxx == 0 {
		return LineFit{}
	}
	intercept := (w.sy*w.sxx - w.sx*w.sxy) / cxx
	slope := (w.s*w.sxy - w.sx*w.sy) / cxx
	varIntercept := w.sxx / cxx
	varSlope := w.s / cxx
	cov := -w.sx / cxx
	chi2 := w.syy + (w.sxy*(2*w.sx*w.sy-w.s*w.sxy)-w.sxx*w.sy*w.sy)/cxx

	return LineFit{
		Intercept: intercept, Slope: slope,
		VarIntercept: varIntercept, VarSlope: varSlope,
		CovInterceptSlope: cov,
		Chi2: chi2,
	}
}

// Point is one weighted sample: an independent coordinate z, two (or three,
// with time) dependent coordinates, and their variances.
type Point struct {
	Z float64
	Y1, VarY1 float64 // e.g. global x
	Y2, VarY2 float64 // e.g. global y
	HasTime bool
	T, VarT float64
}

// Result is a fitted pair (or triple, with time) of lines sharing the same
// independent axis, plus the combined goodness of fit.
type Result struct {
	Axis1, Axis2 LineFit
	Time LineFit
	HasTime bool
	Chi2 float64
	Dof int
}

// Fit performs the independent weighted regressions of each dependent axis
// against z and combines their chi² and dof:
// dof = nDependents*nPoints - nParams.
func Fit(points []Point) Result {
	var l1, l2, lt weightedLine
	hasTime := false
	n := 0
	for _, p := range points {
		if p.VarY1 <= 0 || p.VarY2 <= 0 {
			continue
		}
		n++
		w1 := 1.0 / p.VarY1
		w2 := 1.0 / p.VarY2
		l1.add(w1, p.Z, p.Y1)
		l2.add(w2, p.Z, p.Y2)
		if p.HasTime && p.VarT > 0 {
			hasTime = true
			lt.add(1.0/p.VarT, p.Z, p.T)
		}
	}

	r := Result{Axis1: l1.fit(), Axis2: l2.fit()}
	nDependents := 2
	if hasTime {
		r.Time = lt.fit()
		r.HasTime = true
		nDependents = 3
		r.Chi2 = r.Axis1.Chi2 + r.Axis2.Chi2 + r.Time.Chi2
	} else {
		r.Chi2 = r.Axis1.Chi2 + r.Axis2.Chi2
	}
	nParams := 2 * nDependents
	r.Dof = nDependents*n - nParams
	if r.Dof < 0 {
		r.Dof = 0
	}
	if r.Chi2 < 0 {
		r.Chi2 = 0
	}
	return r
}
