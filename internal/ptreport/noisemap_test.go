package ptreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridDimsAndIndexing(t *testing.T) {
	g := grid{cols: 3, rows: 2, z: []float64{0, 1, 2, 3, 4, 5}}
	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 4.0, g.Z(1, 1))
	assert.Equal(t, 2.0, g.X(2))
	assert.Equal(t, 1.0, g.Y(1))
}

func TestBluePaletteEndpointsSpanBlueToRed(t *testing.T) {
	p := newBluePalette(256)
	colors := p.Colors()
	assert.Len(t, colors, 256)

	first := colors[0].(interface{ RGBA() (r, g, b, a uint32) })
	r0, _, b0, _ := first.RGBA()
	assert.Zero(t, r0, "first colour should be pure blue, no red component")
	assert.NotZero(t, b0)

	last := colors[255].(interface{ RGBA() (r, g, b, a uint32) })
	rN, _, bN, _ := last.RGBA()
	assert.NotZero(t, rN)
	assert.Zero(t, bN, "last colour should be pure red, no blue component")
}
