package ptio

import (
	"encoding/gob"
	"io"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptevent"
)

// nativeHeader is written once at the start of a native container: the
// sensor ids supplying hits, in the order each SensorEvent will appear, and
// the declared event count (-1 if the writer did not know it up front).
type nativeHeader struct {
	SensorIDs []int
	NumEvents int64
}

// nativeHit mirrors ptevent.Hit for wire encoding.
type nativeHit struct {
	Col, Row, Timestamp, Value int
}

// nativeEvent mirrors the raw-hit content of ptevent.Event; clusters,
// tracks and local states are reconstructed downstream and are not part of
// the wire format a raw reader produces.
type nativeEvent struct {
	Frame uint64
	Timestamp uint64
	Hits [][]nativeHit // aligned with nativeHeader.SensorIDs
}

// NativeReader reads the native binary container: a gob stream of a header
// followed by one nativeEvent per readout window.
type NativeReader struct {
	name string
	dec *gob.Decoder
	closer io.Closer
	header nativeHeader
	skipped int64
	done bool
}

// NewNativeReader opens a native container. name identifies the source for
// diagnostics; r supplies the gob stream; closer (may be nil) is released
// by Close.
func NewNativeReader(name string, r io.Reader, closer io.Closer) (*NativeReader, error) {
	dec := gob.NewDecoder(r)
	var hdr nativeHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, ptcore.IOf("ptio", "native reader %q: decode header: %v", name, err)
	}
	return &NativeReader{name: name, dec: dec, closer: closer, header: hdr}, nil
}

func (r *NativeReader) Name() string { return r.name }
func (r *NativeReader) NumEvents() int64 { return r.header.NumEvents }
func (r *NativeReader) NumSensors() int { return len(r.header.SensorIDs) }

func (r *NativeReader) Skip(n int64) error {
	var ev nativeEvent
	for i := int64(0); i < n; i++ {
		if err := r.dec.Decode(&ev); err != nil {
			if err == io.EOF {
				r.done = true
				return nil
			}
			return ptcore.IOf("ptio", "native reader %q: skip: %v", r.name, err)
		}
		r.skipped++
	}
	return nil
}

// Read decodes the next event's raw hits into ev, which must already be
// sized for this reader's sensor set (ptevent.NewEvent(header.SensorIDs)
// plus whatever a merger concatenated onto it).
func (r *NativeReader) Read(ev *ptevent.Event) (bool, error) {
	if r.done {
		return false, nil
	}
	var raw nativeEvent
	if err := r.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			r.done = true
			return false, nil
		}
		return false, ptcore.IOf("ptio", "native reader %q: corrupt record: %v", r.name, err)
	}
	ev.Frame = raw.Frame
	ev.Timestamp = raw.Timestamp
	for i, id := range r.header.SensorIDs {
		se := ev.Sensor(id)
		if se == nil {
			continue
		}
		var hits []ptevent.Hit
		if i < len(raw.Hits) {
			hits = make([]ptevent.Hit, len(raw.Hits[i]))
			for j, h := range raw.Hits[i] {
				hits[j] = ptevent.Hit{Col: h.Col, Row: h.Row, Timestamp: h.Timestamp, Value: h.Value, Region: -1, Cluster: -1}
			}
		}
		se.Hits = hits
		se.Frame = raw.Frame
		se.Timestamp = raw.Timestamp
	}
	return true, nil
}

func (r *NativeReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// NativeWriter persists an event's tracks and clusters as tabular
// per-sensor records, one gob-encoded nativeTrackRecord per (event, track,
// sensor) triple.
type NativeWriter struct {
	enc *gob.Encoder
	closer io.Closer
}

// nativeTrackRecord is one sensor's local state on one track of one event.
type nativeTrackRecord struct {
	Frame uint64
	TrackIdx int
	SensorID int
	HasLocal bool
	U, V float64
	DU, DV float64
	Chi2 float64
	Dof int
}

// NewNativeWriter opens a native container for writing.
func NewNativeWriter(w io.Writer, closer io.Closer) *NativeWriter {
	return &NativeWriter{enc: gob.NewEncoder(w), closer: closer}
}

func (w *NativeWriter) Append(ev *ptevent.Event) error {
	for ti, t := range ev.Tracks {
		for sensorID, idx := range t.Clusters {
			se := ev.Sensor(sensorID)
			if se == nil || idx < 0 || idx >= len(se.Clusters) {
				continue
			}
			rec := nativeTrackRecord{Frame: ev.Frame, TrackIdx: ti, SensorID: sensorID, Chi2: t.Fit.Chi2, Dof: t.Fit.Dof}
			for _, ls := range se.LocalStates {
				if ls.Track == ti {
					rec.HasLocal = true
					rec.U, rec.V, rec.DU, rec.DV = ls.Params[0], ls.Params[1], ls.Params[2], ls.Params[3]
					break
				}
			}
			if err := w.enc.Encode(&rec); err != nil {
				return ptcore.IOf("ptio", "native writer: append frame %d: %v", ev.Frame, err)
			}
		}
	}
	return nil
}

func (w *NativeWriter) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// WriteNativeHeader writes the header a NativeReader expects. Callers open
// the underlying file/stream, write the header once, then hand the same
// io.Writer to a raw-hit producer.
func WriteNativeHeader(w io.Writer, sensorIDs []int, numEvents int64) error {
	enc := gob.NewEncoder(w)
	return enc.Encode(nativeHeader{SensorIDs: sensorIDs, NumEvents: numEvents})
}
