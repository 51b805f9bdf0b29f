package ptalign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

func newResidualsTestDevice(t *testing.T) *ptdevice.Device {
	t.Helper()
	sensors := make([]*ptdevice.Sensor, 0, 3)
	geom := ptgeom.NewGeometry()
	for i, z := range []float64{0, 100, 200} {
		s, err := ptdevice.NewSensor(i, "s", 256, 256, 0.02, 0.02, 1, 0, 1000, 16, 0, ptdevice.PixelBinary, nil)
		require.NoError(t, err)
		sensors = append(sensors, s)
		geom.Planes[i] = ptgeom.Identity()
		p := geom.Planes[i]
		p.Offset = ptgeom.Vec4{0, 0, z, 0}
		geom.Planes[i] = p
	}
	device, err := ptdevice.NewDevice(sensors, geom)
	require.NoError(t, err)
	return device
}

// TestResidualsAlignerMatchesAnalyticFormula builds a single straight track
// through sensors 0 and 2 and a deliberately displaced cluster on sensor 1,
// then checks the correction ResidualsAligner derives for sensor 1 matches
// the closed-form expression exactly (the unbiased local fit
// through two points is an exact linear interpolation, so the expected
// (u, v, ru, rv) are known in closed form).
func TestResidualsAlignerMatchesAnalyticFormula(t *testing.T) {
	device := newResidualsTestDevice(t)
	aligner, err := NewResidualsAligner(device, []int{1}, 1.0)
	require.NoError(t, err)

	ev := ptevent.NewEvent([]int{0, 1, 2})
	ev.Sensor(0).Clusters = []ptevent.Cluster{{Local: [4]float64{0, 0, 0, 0}, Track: 0}}
	ev.Sensor(1).Clusters = []ptevent.Cluster{{Local: [4]float64{0.011, 0.008, 0, 0}, Track: 0}}
	ev.Sensor(2).Clusters = []ptevent.Cluster{{Local: [4]float64{0.02, 0.02, 0, 0}, Track: 0}}
	ev.AddTrack(ptevent.Track{Clusters: map[int]int{0: 0, 1: 0, 2: 0}})

	aligner.Execute(ev)

	const u, v = 0.01, 0.01 // exact midpoint of the unbiased (sensor 0, sensor 2) line at z=100
	const ru, rv = 0.001, -0.002
	f := 1 + u*u + v*v
	wantDu := (ru + ru*u*u + rv*u*v) / f
	wantDv := (rv + rv*v*v + ru*u*v) / f
	wantDg := (rv*u - ru*v) / f

	geom := aligner.UpdatedGeometry()
	plane := geom.Planes[1]
	assert.InDelta(t, wantDu, plane.Offset[0], 1e-9)
	assert.InDelta(t, wantDv, plane.Offset[1], 1e-9)

	_, _, gamma, warn := plane.AsParams()
	require.False(t, warn)
	assert.InDelta(t, wantDg, gamma, 1e-9)
}

func TestResidualsAlignerDampingScalesCorrection(t *testing.T) {
	device := newResidualsTestDevice(t)
	full, err := NewResidualsAligner(device, []int{1}, 1.0)
	require.NoError(t, err)
	damped, err := NewResidualsAligner(device, []int{1}, 0.5)
	require.NoError(t, err)

	ev := ptevent.NewEvent([]int{0, 1, 2})
	ev.Sensor(0).Clusters = []ptevent.Cluster{{Local: [4]float64{0, 0, 0, 0}}}
	ev.Sensor(1).Clusters = []ptevent.Cluster{{Local: [4]float64{0.011, 0.008, 0, 0}}}
	ev.Sensor(2).Clusters = []ptevent.Cluster{{Local: [4]float64{0.02, 0.02, 0, 0}}}
	ev.AddTrack(ptevent.Track{Clusters: map[int]int{0: 0, 1: 0, 2: 0}})

	full.Execute(ev)
	damped.Execute(ev)

	fullGeom := full.UpdatedGeometry()
	dampedGeom := damped.UpdatedGeometry()

	fullDu := fullGeom.Planes[1].Offset[0] - device.Geometry.Planes[1].Offset[0]
	dampedDu := dampedGeom.Planes[1].Offset[0] - device.Geometry.Planes[1].Offset[0]
	assert.InDelta(t, fullDu*0.5, dampedDu, 1e-9)
}

func TestResidualsAlignerReestimatesBeamSlope(t *testing.T) {
	device := newResidualsTestDevice(t)
	aligner, err := NewResidualsAligner(device, []int{1}, 1.0)
	require.NoError(t, err)

	ev := ptevent.NewEvent([]int{0, 1, 2})
	ev.AddTrack(ptevent.Track{Global: ptevent.GlobalState{Params: [6]float64{0, 0, 0.05, -0.02, 0, 0}}})

	aligner.Execute(ev)
	geom := aligner.UpdatedGeometry()
	assert.InDelta(t, 0.05, geom.Beam.X, 1e-9)
	assert.InDelta(t, -0.02, geom.Beam.Y, 1e-9)
}
