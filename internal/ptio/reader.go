// Package ptio defines the event-stream Reader/Writer interfaces
// and a native binary implementation of each (a gob stream holding one
// record per event, not a column layout), plus a merger
// that concatenates several readers' sensor indices side by side.
//
// Readers expose a skip/read/numEvents contract; the native codec stores
// gob-encoded payloads behind a typed wrapper rather than a bespoke byte
// layout.
package ptio

import "github.com/proteus-tel/proteus/internal/ptevent"

// Reader adapts an external event-stream format to the reconstruction loop
//.
type Reader interface {
	// Name identifies the underlying source (file path, device name,...).
	Name() string
	// NumEvents returns the total event count, or -1 if unknown/unbounded.
	NumEvents() int64
	// NumSensors returns how many sensor indices this reader supplies.
	NumSensors() int
	// Skip discards the next n events without returning them.
	Skip(n int64) error
	// Read decodes the next event into ev, returning false at end of stream.
	Read(ev *ptevent.Event) (bool, error)
	// Close releases any underlying resources.
	Close() error
}

// Writer persists matched tracks and clusters as tabular records per sensor.
type Writer interface {
	// Append persists one event's tracks and clusters.
	Append(ev *ptevent.Event) error
	// Close flushes and releases any underlying resources.
	Close() error
}
