package ptfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRecoversExactLine(t *testing.T) {
	// y1 = 2 + 3z, y2 = -1 + 0.5z, no time, unit variances.
	var pts []Point
	for _, z := range []float64{0, 1, 2, 3, 4} {
		pts = append(pts, Point{
				Z: z, Y1: 2 + 3*z, VarY1: 1, Y2: -1 + 0.5*z, VarY2: 1,
			})
	}

	res := Fit(pts)
	require.False(t, res.HasTime)
	assert.InDelta(t, 2, res.Axis1.Intercept, 1e-9)
	assert.InDelta(t, 3, res.Axis1.Slope, 1e-9)
	assert.InDelta(t, -1, res.Axis2.Intercept, 1e-9)
	assert.InDelta(t, 0.5, res.Axis2.Slope, 1e-9)
	assert.InDelta(t, 0, res.Chi2, 1e-6, "exact line has zero residual")
	assert.Equal(t, 2*len(pts)-4, res.Dof)
}

func TestFitWithTimeAddsThirdAxis(t *testing.T) {
	var pts []Point
	for _, z := range []float64{0, 1, 2, 3} {
		pts = append(pts, Point{
				Z: z, Y1: z, VarY1: 1, Y2: z, VarY2: 1,
				HasTime: true, T: 5 + 2*z, VarT: 1,
			})
	}
	res := Fit(pts)
	require.True(t, res.HasTime)
	assert.InDelta(t, 5, res.Time.Intercept, 1e-9)
	assert.InDelta(t, 2, res.Time.Slope, 1e-9)
	assert.Equal(t, 3*len(pts)-6, res.Dof)
}

func TestFitIgnoresNonPositiveVariancePoints(t *testing.T) {
	pts := []Point{
		{Z: 0, Y1: 0, VarY1: 1, Y2: 0, VarY2: 1},
		{Z: 1, Y1: 1, VarY1: 1, Y2: 1, VarY2: 1},
		{Z: 2, Y1: 1000, VarY1: 0, Y2: 1000, VarY2: 0}, // excluded
	}
	res := Fit(pts)
	assert.InDelta(t, 0, res.Axis1.Intercept, 1e-9)
	assert.InDelta(t, 1, res.Axis1.Slope, 1e-9)
}

func TestFitDofNeverNegative(t *testing.T) {
	pts := []Point{{Z: 0, Y1: 0, VarY1: 1, Y2: 0, VarY2: 1}}
	res := Fit(pts)
	assert.Equal(t, 0, res.Dof)
}
