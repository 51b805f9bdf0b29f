// Package ptcluster groups neighbouring pixel hits into clusters using a
// partition-until-stable connectivity search over the exact edge-adjacency
// rule pixel sensors call for, rather than a radius search. The centroid
// policy is selected once at construction, not dispatched per hit.
package ptcluster

import (
	"sort"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
)

// Policy is the centroid computation selected once per Clusterizer.
type Policy int

const (
	Binary Policy = iota
	ValueWeighted
	FastestHit
)

// Clusterizer groups a sensor's unmasked hits into clusters using one fixed
// centroid Policy.
type Clusterizer struct {
	policy Policy
}

// New returns a Clusterizer using the given centroid policy.
func New(policy Policy) *Clusterizer {
	return &Clusterizer{policy: policy}
}

// connected reports whether two hits share exactly one edge, or occupy the
// same pixel.
func connected(a, b ptevent.Hit) bool {
	dc := a.Col - b.Col
	dr := a.Row - b.Row
	if dc < 0 {
		dc = -dc
	}
	if dr < 0 {
		dr = -dr
	}
	if dc == 0 && dr == 0 {
		return true
	}
	return (dc == 0 && dr == 1) || (dc == 1 && dr == 0)
}

// Run clusterizes the given sensor's hits in place: masked hits are moved
// to the back and left un-clustered, and se.Clusters is populated with one
// Cluster per connected, co-regioned group.
//
// Postcondition: the set of input hits equals (masked hits) ⊎
// (union of cluster hits), the partition is disjoint.
func (c *Clusterizer) Run(s *ptdevice.Sensor, se *ptevent.SensorEvent) {
	var active, masked []ptevent.Hit
	for _, h := range se.Hits {
		if s.IsMasked(h.Col, h.Row) {
			masked = append(masked, h)
		} else {
			active = append(active, h)
		}
	}

	se.Clusters = nil
	remaining := active
	for len(remaining) > 0 {
		seed := remaining[0]
		group := []ptevent.Hit{seed}
		rest := remaining[1:]

		for {
			var next []ptevent.Hit
			grew := false
			for _, cand := range rest {
				candRegion := s.RegionOf(cand.Col, cand.Row)
				joined := false
				for _, g := range group {
					if g.Region != candRegion {
						continue
					}
					if connected(g, cand) {
						joined = true
						break
					}
				}
				if joined {
					group = append(group, cand)
					grew = true
				} else {
					next = append(next, cand)
				}
			}
			rest = next
			if !grew {
				break
			}
		}

		sortHits(group)
		se.Clusters = append(se.Clusters, c.centroid(group))
		remaining = rest
	}

	se.Hits = append(append([]ptevent.Hit{}, active...), masked...)
	for i := range se.Clusters {
		se.Clusters[i].Track = -1
		se.Clusters[i].MatchedState = -1
	}
}

// sortHits orders a cluster's hits by (value desc, timestamp asc), a
// strict weak ordering.
func sortHits(hits []ptevent.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].Value != hits[j].Value {
				return hits[i].Value > hits[j].Value
			}
			return hits[i].Timestamp < hits[j].Timestamp
		})
}

func (c *Clusterizer) centroid(hits []ptevent.Hit) ptevent.Cluster {
	region := hits[0].Region
	cl := ptevent.Cluster{Hits: hits, Region: region, Track: -1, MatchedState: -1}

	switch c.policy {
	case ValueWeighted:
		var sumW, sumCol, sumRow float64
		minTS := hits[0].Timestamp
		for _, h := range hits {
			w := float64(h.Value)
			sumW += w
			sumCol += w * float64(h.Col)
			sumRow += w * float64(h.Row)
			if h.Timestamp < minTS {
				minTS = h.Timestamp
			}
		}
		if sumW == 0 {
			sumW = 1
		}
		cl.Col = sumCol / sumW
		cl.Row = sumRow / sumW
		cl.Timestamp = float64(minTS)
		cl.Value = sumW
		span := float64(len(hits))
		cl.CovColRowTs = [3][3]float64{
			{(1.0 / 12.0) / span, 0, 0},
			{0, (1.0 / 12.0) / span, 0},
			{0, 0, 1.0 / 12.0},
		}
	case FastestHit:
		fastest := hits[0]
		for _, h := range hits {
			if h.Timestamp < fastest.Timestamp {
				fastest = h
			}
		}
		cl.Col = float64(fastest.Col)
		cl.Row = float64(fastest.Row)
		cl.Timestamp = float64(fastest.Timestamp)
		cl.Value = 1
		cl.CovColRowTs = [3][3]float64{
			{1.0 / 12.0, 0, 0},
			{0, 1.0 / 12.0, 0},
			{0, 0, 1.0 / 12.0},
		}
	default: // Binary
		var sumCol, sumRow float64
		minTS := hits[0].Timestamp
		for _, h := range hits {
			sumCol += float64(h.Col)
			sumRow += float64(h.Row)
			if h.Timestamp < minTS {
				minTS = h.Timestamp
			}
		}
		n := float64(len(hits))
		cl.Col = sumCol / n
		cl.Row = sumRow / n
		cl.Timestamp = float64(minTS)
		cl.Value = n
		span := n
		cl.CovColRowTs = [3][3]float64{
			{(1.0 / 12.0) / span, 0, 0},
			{0, (1.0 / 12.0) / span, 0},
			{0, 0, 1.0 / 12.0},
		}
	}

	return cl
}
