// Package ptcore holds the small set of types shared by every layer of the
// reconstruction pipeline: the error-kind taxonomy and nothing
// domain-specific. Domain types live in their own packages (ptgeom,
// ptdevice, ptevent,...).
package ptcore

import "fmt"

// Kind classifies an error so the event loop and CLI can decide whether to
// abort and what to print.
type Kind int

const (
	// KindConfig is a missing key, wrong type, or out-of-range config value.
	KindConfig Kind = iota
	// KindIO is an open/read/write failure or corrupt record.
	KindIO
	// KindGeometry is a singular rotation or unknown sensor id.
	KindGeometry
	// KindInvariant is a detected violation of a data-model invariant.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindGeometry:
		return "geometry"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a fatal error tagged with the stage and kind that produced it, so
// the CLI can print "<stage>: <kind>: <cause>".
type Error struct {
	Kind Kind
	Stage string
	Err error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Configf builds a KindConfig error, wrapping like every other boundary in
// this codebase does.
func Configf(stage, format string, args ...interface{}) error {
	return &Error{Kind: KindConfig, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// IOf builds a KindIO error.
func IOf(stage, format string, args ...interface{}) error {
	return &Error{Kind: KindIO, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// Geometryf builds a KindGeometry error.
func Geometryf(stage, format string, args ...interface{}) error {
	return &Error{Kind: KindGeometry, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// Invariantf builds a KindInvariant error.
func Invariantf(stage, format string, args ...interface{}) error {
	return &Error{Kind: KindInvariant, Stage: stage, Err: fmt.Errorf(format, args...)}
}
