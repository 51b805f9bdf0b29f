package ptalign

import (
	"gonum.org/v1/gonum/stat"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

// CorrelationAligner is the coarse, trackless aligner: it
// builds per-pair histograms of the global position difference between
// directly adjacent sensors in a chain from a fixed reference, then chains
// the pair means into a running per-sensor global offset correction.
type CorrelationAligner struct {
	device *ptdevice.Device
	chain []int // reference, then alignable sensors, in order

	dx map[int][]float64 // keyed by the chain's "to" sensor id
	dy map[int][]float64
}

// NewCorrelationAligner validates that alignable is a non-empty subset of
// the device's sensors and returns a CorrelationAligner chained from
// reference through alignable in order. The reference must lie before the
// align-set along z; if it is instead closer to the far end, the align-set
// order is reversed first so the chain still walks away from the reference
// monotonically in z, which is what makes each pair histogram a direct
// neighbour comparison rather than a skip over unrelated sensors.
func NewCorrelationAligner(device *ptdevice.Device, reference int, alignable []int) (*CorrelationAligner, error) {
	if err := validateAlignSet("correlation aligner", alignable, device.SensorIDs()); err != nil {
		return nil, err
	}
	chain := append([]int{reference}, orderedFromReference(device, reference, alignable)...)
	return &CorrelationAligner{
		device: device,
		chain: chain,
		dx: make(map[int][]float64),
		dy: make(map[int][]float64),
	}, nil
}

// orderedFromReference returns alignable as given if the reference plane
// lies upstream (lower z) of the align-set's mean z, or reversed if the
// reference is closer to the far end. Sensors whose plane is unknown keep
// their given position; the comparison falls back to given order when the
// reference's plane is unknown.
func orderedFromReference(device *ptdevice.Device, reference int, alignable []int) []int {
	refPlane, ok := device.Plane(reference)
	if !ok || len(alignable) == 0 {
		return alignable
	}
	var sumZ float64
	for _, id := range alignable {
		if p, ok := device.Plane(id); ok {
			sumZ += p.Offset[2]
		}
	}
	meanZ := sumZ / float64(len(alignable))
	if refPlane.Offset[2] <= meanZ {
		return alignable
	}
	reversed := make([]int, len(alignable))
	for i, id := range alignable {
		reversed[len(alignable)-1-i] = id
	}
	return reversed
}

// Execute accumulates one sample per adjacent chain pair when both sensors
// have exactly one cluster this event, so it needs no reconstructed tracks.
func (a *CorrelationAligner) Execute(ev *ptevent.Event) {
	for i := 1; i < len(a.chain); i++ {
		prevID, curID := a.chain[i-1], a.chain[i]
		prevSE, curSE := ev.Sensor(prevID), ev.Sensor(curID)
		if prevSE == nil || curSE == nil {
			continue
		}
		if len(prevSE.Clusters) != 1 || len(curSE.Clusters) != 1 {
			continue
		}
		prevPlane, ok1 := a.device.Plane(prevID)
		curPlane, ok2 := a.device.Plane(curID)
		if !ok1 || !ok2 {
			continue
		}
		prevGlobal := prevPlane.ToGlobal(localVec(prevSE.Clusters[0]))
		curGlobal := curPlane.ToGlobal(localVec(curSE.Clusters[0]))
		a.dx[curID] = append(a.dx[curID], curGlobal[0]-prevGlobal[0])
		a.dy[curID] = append(a.dy[curID], curGlobal[1]-prevGlobal[1])
	}
}

func localVec(c ptevent.Cluster) ptgeom.Vec4 {
	return ptgeom.Vec4{c.Local[0], c.Local[1], c.Local[2], c.Local[3]}
}

// UpdatedGeometry accumulates the running sum of pair means down the chain
// (so sensor k's correction is the chain from the reference through k),
// writing each into a copy of the device's geometry via CorrectGlobalOffset,
// with standard errors propagated by summing variances.
func (a *CorrelationAligner) UpdatedGeometry() *ptgeom.Geometry {
	g := a.device.Geometry.Clone()

	var sumDx, sumDy, sumVarDx, sumVarDy float64
	for i := 1; i < len(a.chain); i++ {
		curID := a.chain[i]
		samplesX, samplesY := a.dx[curID], a.dy[curID]
		if len(samplesX) == 0 {
			continue
		}
		meanDx, varDx := stat.MeanVariance(samplesX, nil)
		meanDy, varDy := stat.MeanVariance(samplesY, nil)
		n := float64(len(samplesX))

		sumDx += meanDx
		sumDy += meanDy
		sumVarDx += varDx / n
		sumVarDy += varDy / n

		g.CorrectGlobalOffset(curID, sumDx, sumDy, 0)
		g.PoseCov[curID] = diag6(sumVarDx, sumVarDy, 0, 0, 0, 0)
	}
	return g
}
