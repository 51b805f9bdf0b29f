package ptreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseScanScatterSeriesConvertsIndexToColRow(t *testing.T) {
	data, maxVal := noiseScanScatterSeries([]float64{0, 1, 2, 3, 4, 5}, 3)
	assert.Len(t, data, 6)
	assert.Equal(t, 5.0, maxVal)
	assert.Equal(t, []interface{}{1, 1, 4.0}, data[4].Value)
}

func TestNoiseScanScatterSeriesDefaultsMaxValToOneWhenAllZero(t *testing.T) {
	_, maxVal := noiseScanScatterSeries([]float64{0, 0, 0, 0}, 2)
	assert.Equal(t, 1.0, maxVal)
}
