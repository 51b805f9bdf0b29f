// Package ptnoise implements the noise-scan analyzer: a 2D
// occupancy histogram, an Epanechnikov kernel density estimate of expected
// local rate, and a combined absolute/relative significance cut producing a
// PixelMask.
//
// Occupancy accumulates as per-cell hit-count histograms, using gonum/floats
// for the windowed weighted-sum arithmetic of the kernel density pass.
package ptnoise

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
)

// ROI is a pixel rectangle, half-open on both axes.
type ROI struct {
	ColMin, ColMax int
	RowMin, RowMax int
}

func (r ROI) contains(col, row int) bool {
	return col >= r.ColMin && col < r.ColMax && row >= r.RowMin && row < r.RowMax
}

// Params configures one sensor's noise scan.
type Params struct {
	BandwidthMetric float64 // bandwidth in the same metric unit as pitch
	SigmaMax float64
	RateMax float64
	Roi ROI
}

// Result holds the outputs step 7: "expose the occupancy,
// density, significance and mask histograms as outputs."
type Result struct {
	Cols, Rows int
	Occupancy []float64 // row*Cols+col
	Density []float64
	Significance []float64
	Mask *ptdevice.PixelMask
}

// Scanner accumulates one sensor's hit occupancy across events, then runs
// the two-pass significance cut on demand.
type Scanner struct {
	sensor *ptdevice.Sensor
	params Params

	occupancy []float64
	nEvents int64
}

// NewScanner returns a Scanner for one sensor.
func NewScanner(sensor *ptdevice.Sensor, params Params) *Scanner {
	return &Scanner{
		sensor: sensor,
		params: params,
		occupancy: make([]float64, sensor.Cols*sensor.Rows),
	}
}

// ProcessSensor accumulates one event's hits within the ROI into the
// occupancy histogram, satisfying ptloop.SensorProcessor
// so a Scanner can be installed directly into the event loop.
func (s *Scanner) ProcessSensor(sensor *ptdevice.Sensor, se *ptevent.SensorEvent) {
	if sensor.ID != s.sensor.ID {
		return
	}
	s.nEvents++
	for _, h := range se.Hits {
		if !s.params.Roi.contains(h.Col, h.Row) {
			continue
		}
		if h.Col < 0 || h.Col >= s.sensor.Cols || h.Row < 0 || h.Row >= s.sensor.Rows {
			continue
		}
		s.occupancy[h.Row*s.sensor.Cols+h.Col]++
	}
}

// pixelBandwidths converts the metric bandwidth to per-axis pixel
// bandwidths.
func (s *Scanner) pixelBandwidths() (bwCol, bwRow float64) {
	scale := math.Hypot(s.sensor.PitchCol, s.sensor.PitchRow) / math.Sqrt2
	bwCol = s.params.BandwidthMetric * scale / s.sensor.PitchCol
	bwRow = s.params.BandwidthMetric * scale / s.sensor.PitchRow
	return
}

// epanechnikov evaluates K(u²) = (3/4)(1−u²), zero outside the unit ball.
func epanechnikov(u2 float64) float64 {
	if u2 >= 1 {
		return 0
	}
	return 0.75 * (1 - u2)
}

// Run executes the two-pass noise scan and returns every
// exposed histogram plus the union mask.
func (s *Scanner) Run() Result {
	cols, rows := s.sensor.Cols, s.sensor.Rows
	res := Result{
		Cols: cols, Rows: rows,
		Occupancy: append([]float64(nil), s.occupancy...),
		Density: make([]float64, cols*rows),
		Significance: make([]float64, cols*rows),
		Mask: ptdevice.NewPixelMask(),
	}

	if s.nEvents == 0 {
		return res
	}

	// Pass 1: absolute cut.
	absoluteMasked := make([]bool, cols*rows)
	threshold := s.params.RateMax * float64(s.nEvents)
	for i, occ := range s.occupancy {
		if occ > threshold {
			absoluteMasked[i] = true
			col, row := i%cols, i/cols
			res.Mask.Add(col, row)
		}
	}

	bwCol, bwRow := s.pixelBandwidths()
	winCol := int(math.Ceil(bwCol))
	winRow := int(math.Ceil(bwRow))

	// Pass 2: Epanechnikov density + significance + relative cut, using
	// gonum/floats to sum the windowed weighted contributions.
	var weights, values []float64
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			idx := row*cols + col
			weights = weights[:0]
			values = values[:0]
			for dRow := -winRow; dRow <= winRow; dRow++ {
				nRow := row + dRow
				if nRow < 0 || nRow >= rows {
					continue
				}
				for dCol := -winCol; dCol <= winCol; dCol++ {
					if dCol == 0 && dRow == 0 {
						continue
					}
					nCol := col + dCol
					if nCol < 0 || nCol >= cols {
						continue
					}
					nIdx := nRow*cols + nCol
					if absoluteMasked[nIdx] {
						continue
					}
					u2 := (float64(dCol)/bwCol)*(float64(dCol)/bwCol) + (float64(dRow)/bwRow)*(float64(dRow)/bwRow)
					w := epanechnikov(u2)
					if w == 0 {
						continue
					}
					weights = append(weights, w)
					values = append(values, w*s.occupancy[nIdx])
				}
			}

			sumW := floats.Sum(weights)
			expected := 0.0
			if sumW > 0 {
				expected = floats.Sum(values) / sumW
			}
			res.Density[idx] = expected

			observed := s.occupancy[idx]
			sig := 0.0
			if expected > 0 {
				sig = (observed - expected) / math.Sqrt(expected)
			}
			res.Significance[idx] = sig

			if sig > s.params.SigmaMax {
				res.Mask.Add(col, row)
			}
		}
	}

	return res
}
