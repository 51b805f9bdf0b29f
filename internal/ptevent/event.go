// Package ptevent is the per-event data model: hits, clusters, tracks and
// their back-references, all resolved as indices through the owning Event
// rather than independent pointers, generalised from a single sensor scan
// to a multi-sensor telescope event.
package ptevent

import "gonum.org/v1/gonum/mat"

// Hit is a single pixel hit.
type Hit struct {
	Col, Row int
	Timestamp int
	Value int
	Region int // index into the owning sensor's Regions, or -1
	Cluster int // index into the owning SensorEvent's Clusters, or -1
}

// Cluster is a maximal set of edge-connected, co-regioned hits treated as a
// single space-time measurement.
type Cluster struct {
	Col, Row, Timestamp, Value float64
	CovColRowTs [3][3]float64

	Local [4]float64 // (u, v, w, s); set by the geometry-applying step
	CovLocal *mat.SymDense // 4×4

	Hits []Hit
	Region int // index into the owning sensor's Regions, or -1

	Track int // index into the owning Event's Tracks, or -1
	MatchedState int // index into the owning SensorEvent's LocalStates, or -1
}

// TrackState is the 6-parameter local state [u, v, du, dv, s, ds] with its
// 6×6 covariance.
type TrackState struct {
	Params [6]float64
	Cov *mat.SymDense

	Track int // index into the owning Event's Tracks, or -1
	Cluster int // index into the owning SensorEvent's Clusters, or -1
}

// GoodnessOfFit is a (chi², dof) pair.
type GoodnessOfFit struct {
	Chi2 float64
	Dof int
}

// GlobalState is the 6-parameter global track state [x, y, dx/dz, dy/dz, t, dt/dz]
// on an implicit reference plane.
type GlobalState struct {
	Params [6]float64
	Cov *mat.SymDense
}

// Track holds one global state and, via the clusters map, the set of
// per-sensor clusters it was fitted from.
type Track struct {
	Global GlobalState
	Fit GoodnessOfFit
	Clusters map[int]int // sensor id -> index into that SensorEvent's Clusters
}

// SensorEvent is one sensor's hits, clusters and local track states for one
// readout window.
type SensorEvent struct {
	SensorID int
	Frame uint64
	Timestamp uint64

	Hits []Hit
	Clusters []Cluster
	LocalStates []TrackState
}

// Event is a fixed-size sequence of SensorEvents plus the tracks found in
// them.
type Event struct {
	Frame uint64
	Timestamp uint64

	Sensors []SensorEvent // index aligned 1:1 with Device.SensorIDs order
	Tracks []Track

	// sensorIndex maps sensor id -> index into Sensors, since sensor ids
	// need not be contiguous from zero.
	sensorIndex map[int]int
}

// NewEvent allocates an Event with one empty SensorEvent per sensor id, in
// the given order.
func NewEvent(sensorIDs []int) *Event {
	e := &Event{
		Sensors: make([]SensorEvent, len(sensorIDs)),
		sensorIndex: make(map[int]int, len(sensorIDs)),
	}
	for i, id := range sensorIDs {
		e.Sensors[i].SensorID = id
		e.sensorIndex[id] = i
	}
	return e
}

// Sensor returns a pointer to the SensorEvent for the given sensor id, or
// nil if the sensor is not part of this event.
func (e *Event) Sensor(id int) *SensorEvent {
	idx, ok := e.sensorIndex[id]
	if !ok {
		return nil
	}
	return &e.Sensors[idx]
}

// ClusterAt resolves a track's cluster back-reference on a given sensor,
// or nil if the track has no cluster there.
func (e *Event) ClusterAt(t *Track, sensorID int) *Cluster {
	idx, ok := t.Clusters[sensorID]
	if !ok {
		return nil
	}
	se := e.Sensor(sensorID)
	if se == nil || idx < 0 || idx >= len(se.Clusters) {
		return nil
	}
	return &se.Clusters[idx]
}

// AddTrack appends a track and flips the back-references of its clusters
// to point at it, maintaining the invariant: "every referenced
// cluster back-references the track".
func (e *Event) AddTrack(t Track) int {
	idx := len(e.Tracks)
	e.Tracks = append(e.Tracks, t)
	for sensorID, clusterIdx := range t.Clusters {
		se := e.Sensor(sensorID)
		if se != nil && clusterIdx >= 0 && clusterIdx < len(se.Clusters) {
			se.Clusters[clusterIdx].Track = idx
		}
	}
	return idx
}
