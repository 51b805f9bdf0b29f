package ptconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeviceConvertsInclusiveRangesToHalfOpen(t *testing.T) {
	doc := DeviceDoc{
		SensorTypes: map[string]sensorTypeDoc{
			"timepix": {
				Measurement: "pixel_tot", Cols: 256, Rows: 256,
				PitchCol: 0.055, PitchRow: 0.055, PitchTimestamp: 1,
				TimestampMin: 0, TimestampMax: 999, ValueMax: 15,
			},
		},
		Sensors: []sensorDoc{{Name: "plane0", Type: "timepix"}},
	}

	sensors, err := BuildDevice(doc)
	require.NoError(t, err)
	require.Len(t, sensors, 1)

	s := sensors[0]
	assert.Equal(t, 0, s.ID, "ordinal id is assigned by array position")
	assert.Equal(t, 1000, s.TimestampMax, "inclusive timestamp_max=999 becomes half-open 1000")
	assert.Equal(t, 16, s.ValueMax, "inclusive value_max=15 becomes half-open 16")
}

func TestBuildDeviceRejectsUnknownSensorType(t *testing.T) {
	doc := DeviceDoc{Sensors: []sensorDoc{{Name: "plane0", Type: "missing"}}}
	_, err := BuildDevice(doc)
	require.Error(t, err)
}

func TestBuildDeviceRejectsUnknownMeasurement(t *testing.T) {
	doc := DeviceDoc{
		SensorTypes: map[string]sensorTypeDoc{"t": {Measurement: "bogus", Cols: 1, Rows: 1, TimestampMax: 1, ValueMax: 1}},
		Sensors: []sensorDoc{{Name: "p", Type: "t"}},
	}
	_, err := BuildDevice(doc)
	require.Error(t, err)
}

func TestBuildDeviceConvertsRegionRanges(t *testing.T) {
	doc := DeviceDoc{
		SensorTypes: map[string]sensorTypeDoc{
			"t": {
				Cols: 32, Rows: 32, TimestampMax: 100, ValueMax: 1,
				Regions: []regionDoc{{Name: "left", ColMin: 0, ColMax: 15, RowMin: 0, RowMax: 31}},
			},
		},
		Sensors: []sensorDoc{{Name: "p", Type: "t"}},
	}
	sensors, err := BuildDevice(doc)
	require.NoError(t, err)
	require.Len(t, sensors[0].Regions, 1)
	assert.Equal(t, 16, sensors[0].Regions[0].ColMax)
	assert.Equal(t, 32, sensors[0].Regions[0].RowMax)
}
