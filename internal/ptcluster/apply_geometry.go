package ptcluster

import (
	"gonum.org/v1/gonum/mat"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
)

// ApplyGeometry converts a sensor's clusters from pixel units to the plane's
// local (u, v, w, s) frame using the sensor's pitch. w is always 0 on the
// sensor plane itself; global coordinates are obtained on demand via
// Plane.ToGlobal.
func ApplyGeometry(s *ptdevice.Sensor, se *ptevent.SensorEvent) {
	for i := range se.Clusters {
		cl := &se.Clusters[i]
		cl.Local = [4]float64{
			cl.Col * s.PitchCol,
			cl.Row * s.PitchRow,
			0,
			cl.Timestamp * s.PitchTime,
		}
		cl.CovLocal = localCov(cl.CovColRowTs, s.PitchCol, s.PitchRow, s.PitchTime)
	}
}

// localCov scales the pixel-unit (col,row,ts) covariance into the local
// (u,v,s) frame by the sensor's pitch (variance scales with pitch²), with
// w's variance left at zero since every cluster starts exactly on-plane.
func localCov(covColRowTs [3][3]float64, pitchCol, pitchRow, pitchTime float64) *mat.SymDense {
	cov := mat.NewSymDense(4, nil)
	scale := [3]float64{pitchCol, pitchRow, pitchTime}
	// axis mapping: (col,row,ts) -> (u,v,s) = indices (0,1,3) of the local vector
	axis := [3]int{0, 1, 3}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := covColRowTs[i][j] * scale[i] * scale[j]
			cov.SetSym(axis[i], axis[j], v)
		}
	}
	return cov
}
