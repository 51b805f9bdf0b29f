package ptreport

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/proteus-tel/proteus/internal/ptalign"
)

// paramNames labels the 6-vector pose extracts from a Plane.
var paramNames = [6]string{"x", "y", "z", "alpha", "beta", "gamma"}

// RenderAlignmentTrajectory renders an interactive HTML line chart of every
// alignable sensor's pose parameters across alignment steps.
func RenderAlignmentTrajectory(points []ptalign.TrajectoryPoint, w io.Writer) error {
	if len(points) == 0 {
		return fmt.Errorf("no trajectory points to render")
	}

	sensorIDs := make([]int, 0, len(points[0].Params))
	for id := range points[0].Params {
		sensorIDs = append(sensorIDs, id)
	}
	sort.Ints(sensorIDs)

	steps := make([]string, len(points))
	for i, p := range points {
		steps[i] = fmt.Sprintf("%d", p.Step)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Alignment trajectory", Theme: "dark", Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sensor pose parameters by alignment step"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
	)
	line.SetXAxis(steps)

	for _, id := range sensorIDs {
		for paramIdx, name := range paramNames {
			series := make([]opts.LineData, len(points))
			for i, p := range points {
				params := p.Params[id]
				series[i] = opts.LineData{Value: params[paramIdx]}
			}
			line.AddSeries(fmt.Sprintf("sensor %d %s", id, name), series)
		}
	}

	return line.Render(w)
}

// noiseScanScatterSeries builds the (col,row,value) triples go-echarts
// expects for a VisualMap-coloured scatter.
func noiseScanScatterSeries(z []float64, cols int) ([]opts.ScatterData, float64) {
	data := make([]opts.ScatterData, 0, len(z))
	maxVal := 0.0
	for idx, v := range z {
		col, row := idx%cols, idx/cols
		if v > maxVal {
			maxVal = v
		}
		data = append(data, opts.ScatterData{Value: []interface{}{col, row, v}})
	}
	if maxVal == 0 {
		maxVal = 1
	}
	return data, maxVal
}

// RenderNoiseScanScatter renders a significance-coloured scatter of a
// sensor's pixel grid.
func RenderNoiseScanScatter(z []float64, cols, rows int, title string, w io.Writer) error {
	data, maxVal := noiseScanScatterSeries(z, cols)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: cols, Name: "col"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: rows, Name: "row"}),
		charts.WithVisualMapOpts(opts.VisualMap{
				Show: opts.Bool(true),
				Calculable: opts.Bool(true),
				Min: 0,
				Max: float32(maxVal),
				Dimension: "2",
				InRange: &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
			}),
	)
	scatter.AddSeries("pixels", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))

	return scatter.Render(w)
}
