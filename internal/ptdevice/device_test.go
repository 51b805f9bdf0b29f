package ptdevice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptgeom"
)

func newDeviceTestSensor(t *testing.T, id int) *Sensor {
	t.Helper()
	s, err := NewSensor(id, "s", 32, 32, 0.02, 0.02, 1, 0, 1000, 16, 0, PixelBinary, nil)
	require.NoError(t, err)
	return s
}

func TestNewDeviceRejectsDuplicateSensorIDs(t *testing.T) {
	s0 := newDeviceTestSensor(t, 0)
	s0b := newDeviceTestSensor(t, 0)
	geom := ptgeom.NewGeometry()
	_, err := NewDevice([]*Sensor{s0, s0b}, geom)
	require.Error(t, err)
}

func TestNewDeviceRejectsGeometryReferencingUnknownSensor(t *testing.T) {
	s0 := newDeviceTestSensor(t, 0)
	geom := ptgeom.NewGeometry()
	geom.Planes[99] = ptgeom.Identity()
	_, err := NewDevice([]*Sensor{s0}, geom)
	require.Error(t, err)
}

func TestDeviceSensorIDsAreAscending(t *testing.T) {
	s2 := newDeviceTestSensor(t, 2)
	s0 := newDeviceTestSensor(t, 0)
	s1 := newDeviceTestSensor(t, 1)
	geom := ptgeom.NewGeometry()
	device, err := NewDevice([]*Sensor{s2, s0, s1}, geom)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, device.SensorIDs())
}

func TestDeviceApplyMaskMergesIntoEachSensor(t *testing.T) {
	s0 := newDeviceTestSensor(t, 0)
	geom := ptgeom.NewGeometry()
	device, err := NewDevice([]*Sensor{s0}, geom)
	require.NoError(t, err)

	m := NewPixelMask()
	m.Add(1, 1)
	device.ApplyMask(DeviceMask{0: m})
	assert.True(t, device.Sensor(0).IsMasked(1, 1))
}
