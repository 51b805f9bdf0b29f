package ptevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTrackBackReferencesItsClusters(t *testing.T) {
	ev := NewEvent([]int{0, 1})
	ev.Sensor(0).Clusters = []Cluster{{Track: -1}}
	ev.Sensor(1).Clusters = []Cluster{{Track: -1}, {Track: -1}}

	idx := ev.AddTrack(Track{Clusters: map[int]int{0: 0, 1: 1}})

	assert.Equal(t, idx, ev.Sensor(0).Clusters[0].Track)
	assert.Equal(t, idx, ev.Sensor(1).Clusters[1].Track)
	assert.Equal(t, -1, ev.Sensor(1).Clusters[0].Track, "clusters not referenced by the track keep their prior state")
}

func TestClusterAtResolvesTrackBackReference(t *testing.T) {
	ev := NewEvent([]int{0})
	ev.Sensor(0).Clusters = []Cluster{{Col: 5, Row: 6}}
	ev.AddTrack(Track{Clusters: map[int]int{0: 0}})

	cl := ev.ClusterAt(&ev.Tracks[0], 0)
	require.NotNil(t, cl)
	assert.Equal(t, 5.0, cl.Col)
}

func TestClusterAtReturnsNilForUnreferencedSensor(t *testing.T) {
	ev := NewEvent([]int{0, 1})
	ev.AddTrack(Track{Clusters: map[int]int{0: 0}})
	assert.Nil(t, ev.ClusterAt(&ev.Tracks[0], 1))
}

func TestSensorReturnsNilForUnknownID(t *testing.T) {
	ev := NewEvent([]int{0})
	assert.Nil(t, ev.Sensor(42))
}
