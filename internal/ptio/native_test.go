package ptio

import (
	"bytes"
	"encoding/gob"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptevent"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func encodeNativeStream(t *testing.T, hdr nativeHeader, events []nativeEvent) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	require.NoError(t, enc.Encode(hdr))
	for _, ev := range events {
		require.NoError(t, enc.Encode(ev))
	}
	return buf.Bytes()
}

func TestNativeReaderRoundTripsHits(t *testing.T) {
	hdr := nativeHeader{SensorIDs: []int{0, 1}, NumEvents: 2}
	events := []nativeEvent{
		{Frame: 1, Timestamp: 100, Hits: [][]nativeHit{{{Col: 1, Row: 2, Value: 3}}, nil}},
		{Frame: 2, Timestamp: 200, Hits: [][]nativeHit{nil, {{Col: 4, Row: 5, Value: 6}}}},
	}
	data := encodeNativeStream(t, hdr, events)

	r, err := NewNativeReader("mem", bytes.NewReader(data), nopCloser{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(2), r.NumEvents())
	assert.Equal(t, 2, r.NumSensors())

	ev := ptevent.NewEvent([]int{0, 1})
	ok, err := r.Read(ev)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, ev.Sensor(0).Hits, 1)
	assert.Equal(t, 1, ev.Sensor(0).Hits[0].Col)
	assert.Equal(t, -1, ev.Sensor(0).Hits[0].Cluster, "freshly read hits carry no cluster assignment yet")

	ok, err = r.Read(ev)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, ev.Sensor(1).Hits, 1)
	assert.Equal(t, 5, ev.Sensor(1).Hits[0].Row)

	ok, err = r.Read(ev)
	require.NoError(t, err)
	assert.False(t, ok, "stream is exhausted after its declared events")
}

func TestNativeReaderSkip(t *testing.T) {
	hdr := nativeHeader{SensorIDs: []int{0}, NumEvents: 3}
	events := []nativeEvent{
		{Frame: 1, Hits: [][]nativeHit{{{Col: 1, Row: 1}}}},
		{Frame: 2, Hits: [][]nativeHit{{{Col: 2, Row: 2}}}},
		{Frame: 3, Hits: [][]nativeHit{{{Col: 3, Row: 3}}}},
	}
	data := encodeNativeStream(t, hdr, events)

	r, err := NewNativeReader("mem", bytes.NewReader(data), nopCloser{})
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Skip(2))
	ev := ptevent.NewEvent([]int{0})
	ok, err := r.Read(ev)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(3), ev.Frame)
}

func TestNativeWriterAppendEncodesOneRecordPerSensorPerTrack(t *testing.T) {
	var buf bytes.Buffer
	w := NewNativeWriter(&buf, nopCloser{})

	ev := ptevent.NewEvent([]int{0, 1})
	ev.Sensor(0).Clusters = []ptevent.Cluster{{Track: -1}}
	ev.Sensor(1).Clusters = []ptevent.Cluster{{Track: -1}}
	ev.AddTrack(ptevent.Track{Clusters: map[int]int{0: 0, 1: 0}, Fit: ptevent.GoodnessOfFit{Chi2: 1.5, Dof: 2}})

	require.NoError(t, w.Append(ev))
	require.NoError(t, w.Close())

	dec := gob.NewDecoder(&buf)
	count := 0
	for {
		var rec nativeTrackRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		count++
		assert.Equal(t, 1.5, rec.Chi2)
	}
	assert.Equal(t, 2, count, "one record per sensor the track touches")
}
