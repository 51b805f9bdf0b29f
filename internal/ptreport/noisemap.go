// Package ptreport renders the PNG and HTML diagnostic outputs: per-sensor
// noise-scan heatmaps via gonum/plot, and interactive HTML dashboards via
// go-echarts, including the alignment driver's parameter trajectory.
//
// The PNG side uses a plot.New/plotter.NewHeatMap/p.Save rendering loop; the
// HTML side uses charts.NewScatter with a VisualMap colour gradient.
package ptreport

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/proteus-tel/proteus/internal/ptnoise"
)

// grid adapts a row-major []float64 to plotter.GridXYZ.
type grid struct {
	cols, rows int
	z []float64
}

func (g grid) Dims() (c, r int) { return g.cols, g.rows }
func (g grid) Z(c, r int) float64 {
	return g.z[r*g.cols+c]
}
func (g grid) X(c int) float64 { return float64(c) }
func (g grid) Y(r int) float64 { return float64(r) }

// bluePalette is a fixed-size blue-to-red gradient satisfying
// gonum.org/v1/plot/palette.Palette. The HTML visual map uses its own
// (viridis) colour ramp, not this one.
type bluePalette struct{ colors []color.Color }

func newBluePalette(n int) bluePalette {
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		colors[i] = color.RGBA{
			R: uint8(255 * t),
			G: uint8(64 * (1 - t)),
			B: uint8(255 * (1 - t)),
			A: 255,
		}
	}
	return bluePalette{colors: colors}
}

func (p bluePalette) Colors() []color.Color { return p.colors }

// SaveNoiseScanHeatmaps renders the occupancy, density and significance
// histograms of a noise-scan Result as three PNGs under outDir, named
// "<prefix>_occupancy.png", "<prefix>_density.png", "<prefix>_significance.png".
func SaveNoiseScanHeatmaps(res ptnoise.Result, outDir, prefix string) error {
	maps := []struct {
		name string
		z []float64
	}{
		{"occupancy", res.Occupancy},
		{"density", res.Density},
		{"significance", res.Significance},
	}
	for _, m := range maps {
		if err := saveHeatmap(grid{res.Cols, res.Rows, m.z}, m.name, fmt.Sprintf("%s/%s_%s.png", outDir, prefix, m.name)); err != nil {
			return err
		}
	}
	return nil
}

func saveHeatmap(g grid, title, path string) error {
	p := plot.New()
	p.Title.Text = title

	h := plotter.NewHeatMap(g, newBluePalette(256))
	p.Add(h)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
