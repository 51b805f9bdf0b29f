// Package ptconfig loads the four TOML document kinds (device,
// geometry, pixel-mask, analysis) and converts between their inclusive,
// config-facing ranges and the half-open ranges used internally: the loader
// adds 1 to upper limits on read. None of the documents this package writes
// carries a range, so there is no write-side conversion.
//
// Each document decodes via BurntSushi/toml into a typed struct, then goes
// through a validating conversion pass into the telescope's
// device/geometry/mask/analysis domain types.
package ptconfig

import (
	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptdevice"
)

// regionDoc is one `[[sensor_types.<name>.regions]]` entry.
type regionDoc struct {
	Name string `toml:"name"`
	ColMin int `toml:"col_min"`
	ColMax int `toml:"col_max"` // inclusive
	RowMin int `toml:"row_min"`
	RowMax int `toml:"row_max"` // inclusive
}

// sensorTypeDoc is one `[sensor_types.<name>]` table.
type sensorTypeDoc struct {
	Measurement string `toml:"measurement"`
	Cols int `toml:"cols"`
	Rows int `toml:"rows"`
	PitchCol float64 `toml:"pitch_col"`
	PitchRow float64 `toml:"pitch_row"`
	PitchTimestamp float64 `toml:"pitch_timestamp"`
	TimestampMin int `toml:"timestamp_min"`
	TimestampMax int `toml:"timestamp_max"` // inclusive
	ValueMax int `toml:"value_max"` // inclusive
	XX0 float64 `toml:"x_x0"`
	Regions []regionDoc `toml:"regions"`
}

// sensorDoc is one `[[sensors]]` entry assigning an ordinal id.
type sensorDoc struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// DeviceDoc is the top-level `[sensor_types.*]` / `sensors = [...]` device
// config document.
type DeviceDoc struct {
	SensorTypes map[string]sensorTypeDoc `toml:"sensor_types"`
	Sensors []sensorDoc `toml:"sensors"`
}

func parseMeasurement(stage, s string) (ptdevice.Measurement, error) {
	switch s {
	case "PixelBinary", "pixel_binary", "":
		return ptdevice.PixelBinary, nil
	case "PixelTot", "pixel_tot":
		return ptdevice.PixelTot, nil
	case "Ccpdv4Binary", "ccpdv4_binary":
		return ptdevice.Ccpdv4Binary, nil
	default:
		return 0, ptcore.Configf(stage, "unknown measurement kind %q", s)
	}
}

// LoadDevice reads a device config file and builds the sensors it
// describes, with ordinal ids assigned implicitly by `sensors` array order.
func LoadDevice(path string) ([]*ptdevice.Sensor, error) {
	var doc DeviceDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, ptcore.IOf("config", "decode device config %s: %v", path, err)
	}
	return BuildDevice(doc)
}

// BuildDevice converts a decoded DeviceDoc into Sensors, applying the
// inclusive-to-half-open conversion on read.
func BuildDevice(doc DeviceDoc) ([]*ptdevice.Sensor, error) {
	sensors := make([]*ptdevice.Sensor, 0, len(doc.Sensors))
	for id, sd := range doc.Sensors {
		td, ok := doc.SensorTypes[sd.Type]
		if !ok {
			return nil, ptcore.Configf("config", "sensor %q references unknown type %q", sd.Name, sd.Type)
		}
		kind, err := parseMeasurement("config", td.Measurement)
		if err != nil {
			return nil, err
		}
		regions := make([]ptdevice.Region, 0, len(td.Regions))
		for _, rd := range td.Regions {
			regions = append(regions, ptdevice.Region{
					Name: rd.Name,
					ColMin: rd.ColMin, ColMax: rd.ColMax + 1,
					RowMin: rd.RowMin, RowMax: rd.RowMax + 1,
				})
		}
		s, err := ptdevice.NewSensor(id, sd.Name, td.Cols, td.Rows, td.PitchCol, td.PitchRow, td.PitchTimestamp,
			td.TimestampMin, td.TimestampMax+1, td.ValueMax+1, td.XX0, kind, regions)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}
	return sensors, nil
}
