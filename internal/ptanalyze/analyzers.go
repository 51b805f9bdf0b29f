// Package ptanalyze holds lightweight per-event diagnostic analyzers: hit,
// cluster, track and event-count summaries, plus global pixel occupancy,
// consumed by the event loop exactly like any other ptloop.Analyzer.
//
// Reworked here as plain running counters rather than the ROOT-histogram
// booking a full analysis framework would use, since that dependency is out
// of scope.
package ptanalyze

import "github.com/proteus-tel/proteus/internal/ptevent"

// EventInfo counts hits, clusters and tracks per event.
type EventInfo struct {
	NumEvents int64
	HitsBySensor map[int]int64
	ClustersBySensor map[int]int64
	TracksPerEvent []int
}

// NewEventInfo returns an EventInfo ready to observe events.
func NewEventInfo() *EventInfo {
	return &EventInfo{HitsBySensor: make(map[int]int64), ClustersBySensor: make(map[int]int64)}
}

func (a *EventInfo) Observe(ev *ptevent.Event) {
	a.NumEvents++
	for _, se := range ev.Sensors {
		a.HitsBySensor[se.SensorID] += int64(len(se.Hits))
		a.ClustersBySensor[se.SensorID] += int64(len(se.Clusters))
	}
	a.TracksPerEvent = append(a.TracksPerEvent, len(ev.Tracks))
}

// HitInfo accumulates per-sensor hit value/timestamp summaries.
type HitInfo struct {
	ValueSumBySensor map[int]int64
	ValueCountBySensor map[int]int64
	TimeMinBySensor map[int]int
	TimeMaxBySensor map[int]int
}

// NewHitInfo returns a HitInfo ready to observe events.
func NewHitInfo() *HitInfo {
	return &HitInfo{
		ValueSumBySensor: make(map[int]int64),
		ValueCountBySensor: make(map[int]int64),
		TimeMinBySensor: make(map[int]int),
		TimeMaxBySensor: make(map[int]int),
	}
}

func (a *HitInfo) Observe(ev *ptevent.Event) {
	for _, se := range ev.Sensors {
		for _, h := range se.Hits {
			a.ValueSumBySensor[se.SensorID] += int64(h.Value)
			a.ValueCountBySensor[se.SensorID]++
			if _, seen := a.TimeMinBySensor[se.SensorID]; !seen || h.Timestamp < a.TimeMinBySensor[se.SensorID] {
				a.TimeMinBySensor[se.SensorID] = h.Timestamp
			}
			if h.Timestamp > a.TimeMaxBySensor[se.SensorID] {
				a.TimeMaxBySensor[se.SensorID] = h.Timestamp
			}
		}
	}
}

// MeanValue returns the mean hit value observed on a sensor, or 0 if none.
func (a *HitInfo) MeanValue(sensorID int) float64 {
	n := a.ValueCountBySensor[sensorID]
	if n == 0 {
		return 0
	}
	return float64(a.ValueSumBySensor[sensorID]) / float64(n)
}

// TrackInfo accumulates track-level summaries: origin, slope and
// goodness-of-fit distributions.
type TrackInfo struct {
	OriginsX, OriginsY []float64
	SlopesX, SlopesY []float64
	Chi2 []float64
	NumClusters []int
}

func NewTrackInfo() *TrackInfo { return &TrackInfo{} }

func (a *TrackInfo) Observe(ev *ptevent.Event) {
	for _, t := range ev.Tracks {
		a.OriginsX = append(a.OriginsX, t.Global.Params[0])
		a.OriginsY = append(a.OriginsY, t.Global.Params[1])
		a.SlopesX = append(a.SlopesX, t.Global.Params[2])
		a.SlopesY = append(a.SlopesY, t.Global.Params[3])
		a.Chi2 = append(a.Chi2, t.Fit.Chi2)
		a.NumClusters = append(a.NumClusters, len(t.Clusters))
	}
}

// GlobalOccupancy accumulates a per-sensor, per-pixel hit-count map across
// every event.
type GlobalOccupancy struct {
	cols, rows map[int]int
	counts map[int][]int64 // sensor id -> row*cols+col
	numEvents int64
}

// NewGlobalOccupancy returns a GlobalOccupancy sized from the given
// sensor-id -> (cols,rows) map.
func NewGlobalOccupancy(dims map[int][2]int) *GlobalOccupancy {
	g := &GlobalOccupancy{
		cols: make(map[int]int),
		rows: make(map[int]int),
		counts: make(map[int][]int64),
	}
	for id, cr := range dims {
		g.cols[id] = cr[0]
		g.rows[id] = cr[1]
		g.counts[id] = make([]int64, cr[0]*cr[1])
	}
	return g
}

func (a *GlobalOccupancy) Observe(ev *ptevent.Event) {
	a.numEvents++
	for _, se := range ev.Sensors {
		counts, ok := a.counts[se.SensorID]
		if !ok {
			continue
		}
		cols := a.cols[se.SensorID]
		for _, h := range se.Hits {
			if h.Col < 0 || h.Col >= cols || h.Row < 0 || h.Row >= a.rows[se.SensorID] {
				continue
			}
			counts[h.Row*cols+h.Col]++
		}
	}
}

// TotalHits returns the total hit count accumulated for a sensor.
func (a *GlobalOccupancy) TotalHits(sensorID int) int64 {
	var sum int64
	for _, c := range a.counts[sensorID] {
		sum += c
	}
	return sum
}

// Counts returns the accumulated per-pixel hit counts for a sensor.
func (a *GlobalOccupancy) Counts(sensorID int) []int64 {
	return a.counts[sensorID]
}
