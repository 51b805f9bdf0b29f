package ptconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptdevice"
)

func TestBuildMaskRoundTripsThroughWriteMask(t *testing.T) {
	doc := MaskDoc{Sensors: []maskSensorDoc{
			{ID: 0, MaskedPixels: [][]int{{1, 1}, {2, 3}}},
		}}
	masks, err := BuildMask(doc)
	require.NoError(t, err)
	require.True(t, masks[0].Contains(1, 1))
	require.True(t, masks[0].Contains(2, 3))

	roundTripped := WriteMask(masks)
	require.Len(t, roundTripped.Sensors, 1)
	assert.Equal(t, 0, roundTripped.Sensors[0].ID)
	assert.ElementsMatch(t, [][]int{{1, 1}, {2, 3}}, roundTripped.Sensors[0].MaskedPixels)
}

func TestBuildMaskRejectsMalformedPixelEntry(t *testing.T) {
	doc := MaskDoc{Sensors: []maskSensorDoc{{ID: 0, MaskedPixels: [][]int{{1}}}}}
	_, err := BuildMask(doc)
	require.Error(t, err)
}

func TestWriteMaskKeepsEmptySensorsWithNoPixels(t *testing.T) {
	masks := ptdevice.DeviceMask{0: ptdevice.NewPixelMask()}
	doc := WriteMask(masks)
	require.Len(t, doc.Sensors, 1)
	assert.Empty(t, doc.Sensors[0].MaskedPixels)
}
