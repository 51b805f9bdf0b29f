package ptconfig

import (
	"math"

	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptgeom"
	"github.com/proteus-tel/proteus/internal/ptlog"
)

// beamDoc is the `[beam]` table "Geometry config".
type beamDoc struct {
	Slope [2]float64 `toml:"slope"`
	Divergence *[2]float64 `toml:"divergence"`
	Energy *float64 `toml:"energy"`
	Momentum *float64 `toml:"momentum"`
	Mass *float64 `toml:"mass"`
}

// geomSensorDoc is one `[[sensors]]` entry of the geometry document, in
// either direction-vector or Euler-angle form.
type geomSensorDoc struct {
	ID int `toml:"id"`
	Offset *[3]float64 `toml:"offset"`
	UnitU *[3]float64 `toml:"unit_u"`
	UnitV *[3]float64 `toml:"unit_v"`

	OffsetX *float64 `toml:"offset_x"`
	OffsetY *float64 `toml:"offset_y"`
	OffsetZ *float64 `toml:"offset_z"`
	RotationX *float64 `toml:"rotation_x"`
	RotationY *float64 `toml:"rotation_y"`
	RotationZ *float64 `toml:"rotation_z"`
}

// GeometryDoc is the top-level geometry document
type GeometryDoc struct {
	Beam beamDoc `toml:"beam"`
	Sensors []geomSensorDoc `toml:"sensors"`
}

// LoadGeometry reads a geometry config file and builds a Geometry from it.
func LoadGeometry(path string) (*ptgeom.Geometry, error) {
	var doc GeometryDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, ptcore.IOf("config", "decode geometry config %s: %v", path, err)
	}
	return BuildGeometry(doc)
}

// BuildGeometry converts a decoded GeometryDoc into a Geometry, validating
// the beam's mutually-exclusive energy/(momentum,mass) choice and
// orthonormalising non-orthogonal unit_u/unit_v pairs with a warning.
func BuildGeometry(doc GeometryDoc) (*ptgeom.Geometry, error) {
	hasEnergy := doc.Beam.Energy != nil
	hasMomentumMass := doc.Beam.Momentum != nil && doc.Beam.Mass != nil
	if hasEnergy == hasMomentumMass || (hasEnergy && (doc.Beam.Momentum != nil || doc.Beam.Mass != nil)) {
		return nil, ptcore.Configf("config", "geometry [beam] must set exactly one of energy, or (momentum and mass)")
	}

	g := ptgeom.NewGeometry()
	g.Beam.X, g.Beam.Y = doc.Beam.Slope[0], doc.Beam.Slope[1]
	if doc.Beam.Divergence != nil {
		sx, sy := doc.Beam.Divergence[0], doc.Beam.Divergence[1]
		if sx < 0 || sy < 0 {
			return nil, ptcore.Configf("config", "beam divergence must be non-negative, got [%g, %g]", sx, sy)
		}
		g.Beam.Cov = [2][2]float64{{sx * sx, 0}, {0, sy * sy}}
	}
	if hasEnergy {
		if *doc.Beam.Energy < 0 {
			return nil, ptcore.Configf("config", "beam energy must be non-negative, got %g", *doc.Beam.Energy)
		}
		g.BeamEnergy = *doc.Beam.Energy
	} else {
		if *doc.Beam.Momentum < 0 || *doc.Beam.Mass < 0 {
			return nil, ptcore.Configf("config", "beam momentum and mass must be non-negative")
		}
		g.Momentum = *doc.Beam.Momentum
		g.Mass = *doc.Beam.Mass
	}

	for _, sd := range doc.Sensors {
		var plane ptgeom.Plane
		switch {
		case sd.UnitU != nil && sd.UnitV != nil:
			if !isOrthogonal(*sd.UnitU, *sd.UnitV) {
				ptlog.Warnf("geometry: sensor %d unit_u/unit_v are not orthogonal, orthonormalising", sd.ID)
			}
			offset := ptgeom.Vec4{0, 0, 0, 0}
			if sd.Offset != nil {
				offset = ptgeom.Vec4{sd.Offset[0], sd.Offset[1], sd.Offset[2], 0}
			}
			plane = ptgeom.FromDirections(*sd.UnitU, *sd.UnitV, offset)
		case sd.RotationX != nil || sd.RotationY != nil || sd.RotationZ != nil || sd.OffsetX != nil:
			offset := ptgeom.Vec4{deref(sd.OffsetX), deref(sd.OffsetY), deref(sd.OffsetZ), 0}
			plane = ptgeom.FromAngles321(deref(sd.RotationX), deref(sd.RotationY), deref(sd.RotationZ), offset)
		default:
			return nil, ptcore.Configf("config", "sensor %d: must set either (offset,unit_u,unit_v) or (offset_*,rotation_*)", sd.ID)
		}
		g.Planes[sd.ID] = plane
	}

	return g, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func isOrthogonal(u, v [3]float64) bool {
	dot := u[0]*v[0] + u[1]*v[1] + u[2]*v[2]
	return math.Abs(dot) < 1e-9
}

// WriteGeometry serialises a Geometry back to the direction-vector form,
// which is preferred over Euler angles on write.
func WriteGeometry(g *ptgeom.Geometry) GeometryDoc {
	doc := GeometryDoc{Beam: beamDoc{Slope: [2]float64{g.Beam.X, g.Beam.Y}}}
	if g.BeamEnergy > 0 {
		e := g.BeamEnergy
		doc.Beam.Energy = &e
	} else {
		m, mass := g.Momentum, g.Mass
		doc.Beam.Momentum = &m
		doc.Beam.Mass = &mass
	}

	ids := make([]int, 0, len(g.Planes))
	for id := range g.Planes {
		ids = append(ids, id)
	}
	for _, id := range sortedInts(ids) {
		p := g.Planes[id]
		unitU := [3]float64{p.Q[0][0], p.Q[1][0], p.Q[2][0]}
		unitV := [3]float64{p.Q[0][1], p.Q[1][1], p.Q[2][1]}
		offset := [3]float64{p.Offset[0], p.Offset[1], p.Offset[2]}
		doc.Sensors = append(doc.Sensors, geomSensorDoc{
				ID: id, Offset: &offset, UnitU: &unitU, UnitV: &unitV,
			})
	}
	return doc
}

func sortedInts(ids []int) []int {
	out := append([]int(nil), ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
