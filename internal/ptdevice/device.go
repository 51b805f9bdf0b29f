package ptdevice

import (
	"sort"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptgeom"
)

// Device owns every sensor in the telescope plus the current Geometry,
// following the lifecycle: created from config, geometry/mask
// references updated by alignment between loop iterations, never
// destroyed mid-run.
type Device struct {
	sensors map[int]*Sensor
	order []int // ascending sensor id, stable iteration order
	Geometry *ptgeom.Geometry
}

// NewDevice builds a Device from a set of sensors and a geometry. Every
// sensor id referenced by the geometry must have a matching sensor, or
// NewDevice returns a GeometryError-class error. A sensor without a plane
// is accepted.
func NewDevice(sensors []*Sensor, geom *ptgeom.Geometry) (*Device, error) {
	d := &Device{sensors: make(map[int]*Sensor, len(sensors)), Geometry: geom}
	for _, s := range sensors {
		if _, dup := d.sensors[s.ID]; dup {
			return nil, ptcore.Geometryf("device", "duplicate sensor id %d", s.ID)
		}
		d.sensors[s.ID] = s
		d.order = append(d.order, s.ID)
	}
	sort.Ints(d.order)
	for id := range geom.Planes {
		if _, ok := d.sensors[id]; !ok {
			return nil, ptcore.Geometryf("device", "geometry references unknown sensor id %d", id)
		}
	}
	return d, nil
}

// Sensor returns the sensor with the given id, or nil.
func (d *Device) Sensor(id int) *Sensor { return d.sensors[id] }

// SensorIDs returns every sensor id in ascending order.
func (d *Device) SensorIDs() []int {
	out := make([]int, len(d.order))
	copy(out, d.order)
	return out
}

// NumSensors returns the number of sensors owned by the device.
func (d *Device) NumSensors() int { return len(d.sensors) }

// Plane returns the current plane for a sensor id.
func (d *Device) Plane(id int) (ptgeom.Plane, bool) {
	p, ok := d.Geometry.Planes[id]
	return p, ok
}

// ApplyGeometry replaces the device's working geometry, used by the
// iteration driver between alignment steps.
func (d *Device) ApplyGeometry(geom *ptgeom.Geometry) {
	d.Geometry = geom
}

// ApplyMask merges an additional mask into each sensor's current mask and
// rebuilds the dense acceleration structure, since it only changes between
// loops.
func (d *Device) ApplyMask(masks DeviceMask) {
	for id, s := range d.sensors {
		if m, ok := masks[id]; ok {
			s.SetMask(s.Mask().Merge(m))
		}
	}
}
