package ptlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	lines := &[]string{}
	SetOutput(func(format string, v ...interface{}) {
			*lines = append(*lines, format)
		})
	t.Cleanup(func() { SetOutput(nil); SetLevel(Normal) })
	return lines
}

func TestQuietSuppressesInfoAndDebug(t *testing.T) {
	lines := captureOutput(t)
	SetLevel(Quiet)

	Infof("should not appear")
	Debugf("should not appear either")
	Warnf("always appears")
	Errorf("always appears too")

	assert.Len(t, *lines, 2)
}

func TestNormalSuppressesOnlyDebug(t *testing.T) {
	lines := captureOutput(t)
	SetLevel(Normal)

	Debugf("suppressed")
	Infof("shown")
	Warnf("shown")
	Errorf("shown")

	assert.Len(t, *lines, 3)
}

func TestVerboseShowsEverything(t *testing.T) {
	lines := captureOutput(t)
	SetLevel(Verbose)

	Debugf("shown")
	Infof("shown")
	Warnf("shown")
	Errorf("shown")

	assert.Len(t, *lines, 4)
}

func TestSetOutputNilInstallsNoOpSink(t *testing.T) {
	SetOutput(nil)
	t.Cleanup(func() { SetLevel(Normal) })
	SetLevel(Verbose)

	assert.NotPanics(t, func() { Infof("discarded") })
}
