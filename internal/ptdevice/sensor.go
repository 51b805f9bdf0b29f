// Package ptdevice owns the telescope's sensors: their immutable geometric
// parameters, regions, and current pixel mask, generalised from a single
// pixel grid's extent/pitch/ROI handling to an arbitrary stack of sensors.
package ptdevice

import "github.com/proteus-tel/proteus/internal/ptcore"

// Measurement is the per-sensor measurement kind.
type Measurement int

const (
	PixelBinary Measurement = iota
	PixelTot
	Ccpdv4Binary
)

func (m Measurement) String() string {
	switch m {
	case PixelBinary:
		return "PixelBinary"
	case PixelTot:
		return "PixelTot"
	case Ccpdv4Binary:
		return "Ccpdv4Binary"
	default:
		return "unknown"
	}
}

// Region is a named rectangular pixel sub-range; regions on one sensor are
// mutually exclusive by construction.
type Region struct {
	Name string
	ColMin, ColMax int // half-open [ColMin, ColMax)
	RowMin, RowMax int // half-open [RowMin, RowMax)
}

// Contains reports whether (col,row) falls inside the region.
func (r Region) Contains(col, row int) bool {
	return col >= r.ColMin && col < r.ColMax && row >= r.RowMin && row < r.RowMax
}

// Sensor holds one pixel sensor's immutable geometric parameters.
type Sensor struct {
	ID int
	Name string

	Cols, Rows int
	PitchCol float64 // mm
	PitchRow float64 // mm
	PitchTime float64 // ns

	TimestampMin, TimestampMax int // half-open [min, max); NewSensor takes the exclusive upper limit
	ValueMax int // exclusive upper limit, as passed to NewSensor

	XX0 float64 // material budget x/X0

	Measurement Measurement
	Regions []Region

	mask *PixelMask
	dense []bool // acceleration structure: dense[row*Cols+col] == masked
}

// NewSensor validates and constructs a Sensor. Upper limits passed in are
// already half-open (the config loader adds 1 to the inclusive config
// values before calling this).
func NewSensor(id int, name string, cols, rows int, pitchCol, pitchRow, pitchTime float64, tsMin, tsMaxExclusive, valueMaxExclusive int, xx0 float64, kind Measurement, regions []Region) (*Sensor, error) {
	if cols <= 0 || rows <= 0 {
		return nil, ptcore.Configf("device", "sensor %d: cols/rows must be positive, got %dx%d", id, cols, rows)
	}
	for _, r := range regions {
		for _, other := range regions {
			if r.Name == other.Name {
				continue
			}
			if overlaps(r, other) {
				return nil, ptcore.Configf("device", "sensor %d: regions %q and %q overlap", id, r.Name, other.Name)
			}
		}
	}
	s := &Sensor{
		ID: id, Name: name,
		Cols: cols, Rows: rows,
		PitchCol: pitchCol, PitchRow: pitchRow, PitchTime: pitchTime,
		TimestampMin: tsMin, TimestampMax: tsMaxExclusive,
		ValueMax: valueMaxExclusive,
		XX0: xx0,
		Measurement: kind,
		Regions: regions,
		mask: NewPixelMask(),
	}
	s.rebuildDense()
	return s, nil
}

func overlaps(a, b Region) bool {
	return a.ColMin < b.ColMax && b.ColMin < a.ColMax && a.RowMin < b.RowMax && b.RowMin < a.RowMax
}

// RegionOf returns the index of the region containing (col,row), or -1.
func (s *Sensor) RegionOf(col, row int) int {
	for i, r := range s.Regions {
		if r.Contains(col, row) {
			return i
		}
	}
	return -1
}

// SensitiveArea returns the sensor's physical extent in mm (cols*pitchCol
// by rows*pitchRow).
func (s *Sensor) SensitiveArea() (width, height float64) {
	return float64(s.Cols) * s.PitchCol, float64(s.Rows) * s.PitchRow
}

// Mask returns the sensor's current PixelMask.
func (s *Sensor) Mask() *PixelMask { return s.mask }

// SetMask replaces the sensor's pixel mask and recomputes the dense
// acceleration structure.
func (s *Sensor) SetMask(m *PixelMask) {
	s.mask = m
	s.rebuildDense()
}

func (s *Sensor) rebuildDense() {
	s.dense = make([]bool, s.Cols*s.Rows)
	if s.mask == nil {
		return
	}
	for px := range s.mask.Pixels {
		if px.Col >= 0 && px.Col < s.Cols && px.Row >= 0 && px.Row < s.Rows {
			s.dense[px.Row*s.Cols+px.Col] = true
		}
	}
}

// IsMasked reports whether (col,row) is masked, using the dense
// acceleration structure.
func (s *Sensor) IsMasked(col, row int) bool {
	if col < 0 || col >= s.Cols || row < 0 || row >= s.Rows {
		return true
	}
	return s.dense[row*s.Cols+col]
}
