package ptio

import (
	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptlog"
)

// Merger composes several readers side by side, concatenating their sensor
// indices, and assumes the underlying streams are synchronised event by
// event.
type Merger struct {
	readers []Reader
	sensorIDs []int
}

// NewMerger concatenates the sensor ids of readers, in order. Duplicate
// sensor ids across readers are a configuration error.
func NewMerger(readers []Reader, sensorIDsPerReader [][]int) (*Merger, error) {
	if len(readers) != len(sensorIDsPerReader) {
		return nil, ptcore.Configf("ptio", "merger: %d readers but %d sensor-id lists", len(readers), len(sensorIDsPerReader))
	}
	seen := make(map[int]bool)
	var all []int
	for _, ids := range sensorIDsPerReader {
		for _, id := range ids {
			if seen[id] {
				return nil, ptcore.Configf("ptio", "merger: duplicate sensor id %d across readers", id)
			}
			seen[id] = true
			all = append(all, id)
		}
	}
	return &Merger{readers: readers, sensorIDs: all}, nil
}

func (m *Merger) Name() string {
	name := ""
	for i, r := range m.readers {
		if i > 0 {
			name += "+"
		}
		name += r.Name()
	}
	return name
}

func (m *Merger) NumSensors() int { return len(m.sensorIDs) }

// NumEvents returns the minimum of the bounded member readers' counts.
// Unbounded members are ignored; -1 is returned only if every member is
// unbounded.
func (m *Merger) NumEvents() int64 {
	n := int64(-1)
	for _, r := range m.readers {
		rn := r.NumEvents()
		if rn < 0 {
			continue
		}
		if n < 0 || rn < n {
			n = rn
		}
	}
	return n
}

func (m *Merger) Skip(n int64) error {
	for _, r := range m.readers {
		if err := r.Skip(n); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes one event from every member reader into the shared event.
// Per, a length mismatch beyond the shortest stream is a warning,
// not a fatal error: Read reports end of stream as soon as any member
// reader is exhausted, logging a warning if the others were not.
func (m *Merger) Read(ev *ptevent.Event) (bool, error) {
	anyOK, anyDone := false, false
	for _, r := range m.readers {
		ok, err := r.Read(ev)
		if err != nil {
			return false, err
		}
		if ok {
			anyOK = true
		} else {
			anyDone = true
		}
	}
	if anyDone {
		if anyOK {
			ptlog.Warnf("merger %s: member readers disagree on length", m.Name())
		}
		return false, nil
	}
	return true, nil
}

func (m *Merger) Close() error {
	var first error
	for _, r := range m.readers {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
