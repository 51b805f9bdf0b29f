package ptdevice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSensorRejectsNonPositiveDimensions(t *testing.T) {
	_, err := NewSensor(0, "s", 0, 32, 0.02, 0.02, 1, 0, 1000, 16, 0, PixelBinary, nil)
	require.Error(t, err)
}

func TestNewSensorRejectsOverlappingRegions(t *testing.T) {
	regions := []Region{
		{Name: "a", ColMin: 0, ColMax: 20, RowMin: 0, RowMax: 32},
		{Name: "b", ColMin: 10, ColMax: 32, RowMin: 0, RowMax: 32},
	}
	_, err := NewSensor(0, "s", 32, 32, 0.02, 0.02, 1, 0, 1000, 16, 0, PixelBinary, regions)
	require.Error(t, err)
}

func TestNewSensorAcceptsAdjacentNonOverlappingRegions(t *testing.T) {
	regions := []Region{
		{Name: "left", ColMin: 0, ColMax: 16, RowMin: 0, RowMax: 32},
		{Name: "right", ColMin: 16, ColMax: 32, RowMin: 0, RowMax: 32},
	}
	s, err := NewSensor(0, "s", 32, 32, 0.02, 0.02, 1, 0, 1000, 16, 0, PixelBinary, regions)
	require.NoError(t, err)
	assert.Equal(t, 0, s.RegionOf(15, 0))
	assert.Equal(t, 1, s.RegionOf(16, 0))
}

func TestSensorIsMaskedOutsideBoundsIsMasked(t *testing.T) {
	s, err := NewSensor(0, "s", 4, 4, 0.02, 0.02, 1, 0, 1000, 16, 0, PixelBinary, nil)
	require.NoError(t, err)
	assert.True(t, s.IsMasked(-1, 0))
	assert.True(t, s.IsMasked(4, 0))
	assert.False(t, s.IsMasked(0, 0))
}

func TestSensorSetMaskRebuildsDenseStructure(t *testing.T) {
	s, err := NewSensor(0, "s", 4, 4, 0.02, 0.02, 1, 0, 1000, 16, 0, PixelBinary, nil)
	require.NoError(t, err)
	require.False(t, s.IsMasked(2, 2))

	m := NewPixelMask()
	m.Add(2, 2)
	s.SetMask(m)
	assert.True(t, s.IsMasked(2, 2))
}
