package ptalign

import (
	"gonum.org/v1/gonum/stat"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptfit"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

// ResidualsAligner is the fine aligner: per alignable sensor,
// it derives analytic (du, dv, dγ) corrections from each track's unbiased
// local residual and applies a damped mean correction in the sensor's local
// frame. It also re-estimates the beam slope from every track's global
// slope.
type ResidualsAligner struct {
	device *ptdevice.Device
	alignable []int
	damping float64
	fitter *ptfit.Fitter

	du, dv, dgamma map[int][]float64
	slopeX, slopeY []float64
}

// NewResidualsAligner validates the align-set; a damping factor outside
// (0,1] is replaced by 1.
func NewResidualsAligner(device *ptdevice.Device, alignable []int, damping float64) (*ResidualsAligner, error) {
	if err := validateAlignSet("residuals aligner", alignable, device.SensorIDs()); err != nil {
		return nil, err
	}
	if damping <= 0 || damping > 1 {
		damping = 1
	}
	return &ResidualsAligner{
		device: device,
		alignable: alignable,
		damping: damping,
		fitter: ptfit.New(device),
		du: make(map[int][]float64),
		dv: make(map[int][]float64),
		dgamma: make(map[int][]float64),
	}, nil
}

// Execute accumulates, for every track and every alignable sensor it hits,
// the analytic correction:
//
// f = 1 + u² + v²
// du = (ru + ru·u² + rv·u·v) / f
// dv = (rv + rv·v² + ru·u·v) / f
// dγ = (rv·u − ru·v) / f
//
// where (u, v) is the unbiased track intercept on that sensor and (ru, rv)
// is the unbiased residual of the sensor's own cluster against it. It also
// records every track's global slope for the beam-slope re-estimate.
func (a *ResidualsAligner) Execute(ev *ptevent.Event) {
	for ti := range ev.Tracks {
		t := ev.Tracks[ti]
		a.slopeX = append(a.slopeX, t.Global.Params[2])
		a.slopeY = append(a.slopeY, t.Global.Params[3])

		for _, sensorID := range a.alignable {
			idx, ok := t.Clusters[sensorID]
			if !ok {
				continue
			}
			se := ev.Sensor(sensorID)
			if se == nil || idx < 0 || idx >= len(se.Clusters) {
				continue
			}
			state, ok := a.fitter.Local(&t, ev, sensorID, true)
			if !ok {
				continue
			}
			u, v := state.Params[0], state.Params[1]
			cl := se.Clusters[idx]
			ru := cl.Local[0] - u
			rv := cl.Local[1] - v

			f := 1 + u*u + v*v
			if f == 0 {
				continue
			}
			a.du[sensorID] = append(a.du[sensorID], (ru+ru*u*u+rv*u*v)/f)
			a.dv[sensorID] = append(a.dv[sensorID], (rv+rv*v*v+ru*u*v)/f)
			a.dgamma[sensorID] = append(a.dgamma[sensorID], (rv*u-ru*v)/f)
		}
	}
}

// UpdatedGeometry applies damping × (mean du, mean dv, 0, 0, 0, mean dγ) to
// every alignable sensor via CorrectLocal, with the mean's variance stored
// on the pose covariance diagonal, and re-estimates the beam slope from the
// mean global track slope.
func (a *ResidualsAligner) UpdatedGeometry() *ptgeom.Geometry {
	g := a.device.Geometry.Clone()

	for _, sensorID := range a.alignable {
		samplesDu, samplesDv, samplesDg := a.du[sensorID], a.dv[sensorID], a.dgamma[sensorID]
		if len(samplesDu) == 0 {
			continue
		}
		meanDu, varDu := stat.MeanVariance(samplesDu, nil)
		meanDv, varDv := stat.MeanVariance(samplesDv, nil)
		meanDg, varDg := stat.MeanVariance(samplesDg, nil)
		n := float64(len(samplesDu))

		g.CorrectLocal(sensorID, [6]float64{
				a.damping * meanDu, a.damping * meanDv, 0,
				0, 0, a.damping * meanDg,
			})
		g.PoseCov[sensorID] = diag6(varDu/n, varDv/n, 0, 0, 0, varDg/n)
	}

	if len(a.slopeX) > 0 {
		meanX, varX := stat.MeanVariance(a.slopeX, nil)
		meanY, varY := stat.MeanVariance(a.slopeY, nil)
		n := float64(len(a.slopeX))
		g.Beam = ptgeom.BeamSlope{X: meanX, Y: meanY, Cov: [2][2]float64{{varX / n, 0}, {0, varY / n}}}
	}

	return g
}
