package ptconfig

import (
	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptdevice"
)

// maskSensorDoc is one `[[sensors]]` entry of the pixel-mask document.
type maskSensorDoc struct {
	ID int `toml:"id"`
	MaskedPixels [][]int `toml:"masked_pixels"`
}

// MaskDoc is the top-level pixel-mask document
type MaskDoc struct {
	Sensors []maskSensorDoc `toml:"sensors"`
}

// LoadMask reads a pixel-mask config file into a DeviceMask.
func LoadMask(path string) (ptdevice.DeviceMask, error) {
	var doc MaskDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, ptcore.IOf("config", "decode mask config %s: %v", path, err)
	}
	return BuildMask(doc)
}

// WriteMask converts a DeviceMask into a MaskDoc ready for TOML encoding,
// the inverse of BuildMask.
func WriteMask(masks ptdevice.DeviceMask) MaskDoc {
	doc := MaskDoc{}
	for id, m := range masks {
		pixels := make([][]int, 0, m.Len())
		for px := range m.Pixels {
			pixels = append(pixels, []int{px.Col, px.Row})
		}
		doc.Sensors = append(doc.Sensors, maskSensorDoc{ID: id, MaskedPixels: pixels})
	}
	return doc
}

// BuildMask converts a decoded MaskDoc into a DeviceMask.
func BuildMask(doc MaskDoc) (ptdevice.DeviceMask, error) {
	out := make(ptdevice.DeviceMask, len(doc.Sensors))
	for _, sd := range doc.Sensors {
		m := ptdevice.NewPixelMask()
		for _, px := range sd.MaskedPixels {
			if len(px) != 2 {
				return nil, ptcore.Configf("config", "sensor %d: masked_pixels entry must be [col,row], got %v", sd.ID, px)
			}
			m.Add(px[0], px[1])
		}
		out[sd.ID] = m
	}
	return out, nil
}
