package ptio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptevent"
)

func TestMergerConcatenatesSensorIDs(t *testing.T) {
	hdrA := nativeHeader{SensorIDs: []int{0}, NumEvents: 2}
	eventsA := []nativeEvent{
		{Frame: 1, Hits: [][]nativeHit{{{Col: 1, Row: 1}}}},
		{Frame: 2, Hits: [][]nativeHit{{{Col: 2, Row: 2}}}},
	}
	hdrB := nativeHeader{SensorIDs: []int{1}, NumEvents: 2}
	eventsB := []nativeEvent{
		{Frame: 1, Hits: [][]nativeHit{{{Col: 9, Row: 9}}}},
		{Frame: 2, Hits: [][]nativeHit{{{Col: 8, Row: 8}}}},
	}

	rA, err := NewNativeReader("a", bytes.NewReader(encodeNativeStream(t, hdrA, eventsA)), nopCloser{})
	require.NoError(t, err)
	rB, err := NewNativeReader("b", bytes.NewReader(encodeNativeStream(t, hdrB, eventsB)), nopCloser{})
	require.NoError(t, err)

	m, err := NewMerger([]Reader{rA, rB}, [][]int{{0}, {1}})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 2, m.NumSensors())
	assert.Equal(t, int64(2), m.NumEvents())
	assert.Equal(t, "a+b", m.Name())

	ev := ptevent.NewEvent([]int{0, 1})
	ok, err := m.Read(ev)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Sensor(0).Hits[0].Col)
	assert.Equal(t, 9, ev.Sensor(1).Hits[0].Col)
}

func TestMergerRejectsDuplicateSensorIDs(t *testing.T) {
	_, err := NewMerger([]Reader{nil, nil}, [][]int{{0}, {0}})
	require.Error(t, err)
}

func TestMergerRejectsMismatchedReaderCount(t *testing.T) {
	_, err := NewMerger([]Reader{nil}, [][]int{{0}, {1}})
	require.Error(t, err)
}
