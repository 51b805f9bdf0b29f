// Package ptlog is a thin structured-logging wrapper around the standard
// library logger: a package-level function variable that tests and CLIs can
// redirect or mute, extended here with the quiet/verbose levels the CLI's
// -q/-v flags select.
package ptlog

import "log"

// Level controls which calls actually reach the underlying logger.
type Level int

const (
	// Quiet suppresses everything but Warnf and Errorf.
	Quiet Level = iota
	// Normal is the default: Infof, Warnf, Errorf.
	Normal
	// Verbose additionally prints Debugf.
	Verbose
)

var current = Normal

// SetLevel sets the package-wide verbosity, called once from main after
// flag parsing.
func SetLevel(l Level) { current = l }

// Printf is the package-level diagnostic sink. Tests may redirect or mute
// it.
var Printf func(format string, v ...interface{}) = log.Printf

// SetOutput replaces the package logger; passing nil installs a no-op sink.
func SetOutput(f func(format string, v ...interface{})) {
	if f == nil {
		Printf = func(string, ...interface{}) {}
		return
	}
	Printf = f
}

// Debugf logs only when the level is Verbose.
func Debugf(format string, v ...interface{}) {
	if current >= Verbose {
		Printf("DEBUG "+format, v...)
	}
}

// Infof logs unless the level is Quiet.
func Infof(format string, v ...interface{}) {
	if current >= Normal {
		Printf("INFO "+format, v...)
	}
}

// Warnf logs a recoverable condition; processing continues.
func Warnf(format string, v ...interface{}) {
	Printf("WARN "+format, v...)
}

// Errorf logs an unrecoverable condition right before the caller aborts.
func Errorf(format string, v ...interface{}) {
	Printf("ERROR "+format, v...)
}
