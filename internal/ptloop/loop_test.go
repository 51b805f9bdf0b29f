package ptloop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptgeom"
	"github.com/proteus-tel/proteus/internal/ptio"
)

// fakeReader serves a fixed number of empty events, then ends the stream.
type fakeReader struct {
	remaining int64
	skipped int64
	closed bool
	readErr error
}

func (r *fakeReader) Name() string { return "fake" }
func (r *fakeReader) NumEvents() int64 { return -1 }
func (r *fakeReader) NumSensors() int { return 1 }

func (r *fakeReader) Skip(n int64) error {
	r.skipped += n
	r.remaining -= n
	return nil
}

func (r *fakeReader) Read(ev *ptevent.Event) (bool, error) {
	if r.readErr != nil {
		return false, r.readErr
	}
	if r.remaining <= 0 {
		return false, nil
	}
	r.remaining--
	ev.Frame = uint64(r.remaining)
	return true, nil
}

func (r *fakeReader) Close() error { r.closed = true; return nil }

type recordingSensorProcessor struct{ calls int }

func (p *recordingSensorProcessor) ProcessSensor(*ptdevice.Sensor, *ptevent.SensorEvent) { p.calls++ }

type recordingEventProcessor struct{ calls int }

func (p *recordingEventProcessor) ProcessEvent(*ptevent.Event) { p.calls++ }

type recordingAnalyzer struct{ calls int }

func (a *recordingAnalyzer) Observe(*ptevent.Event) { a.calls++ }

type recordingWriter struct {
	appended int
	failAt int
}

func (w *recordingWriter) Append(*ptevent.Event) error {
	w.appended++
	if w.failAt > 0 && w.appended == w.failAt {
		return errors.New("boom")
	}
	return nil
}
func (w *recordingWriter) Close() error { return nil }

func newSingleSensorDevice(t *testing.T) *ptdevice.Device {
	t.Helper()
	s, err := ptdevice.NewSensor(0, "s", 8, 8, 0.02, 0.02, 1, 0, 100, 16, 0, ptdevice.PixelBinary, nil)
	require.NoError(t, err)
	geom := ptgeom.NewGeometry()
	geom.Planes[0] = ptgeom.Identity()
	device, err := ptdevice.NewDevice([]*ptdevice.Sensor{s}, geom)
	require.NoError(t, err)
	return device
}

func TestLoopRunsEveryStageOnceForEveryEvent(t *testing.T) {
	device := newSingleSensorDevice(t)
	reader := &fakeReader{remaining: 3}
	sensorStage := &recordingSensorProcessor{}
	eventStage := &recordingEventProcessor{}
	analyzer := &recordingAnalyzer{}
	writer := &recordingWriter{}

	loop := &Loop{
		Device: device,
		Reader: reader,
		SensorProcessors: []SensorProcessor{sensorStage},
		EventProcessors: []EventProcessor{eventStage},
		Analyzers: []Analyzer{analyzer},
		Writers: []ptio.Writer{writer},
		NoProgress: true,
	}
	stats, err := loop.Run(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.EventsRead)
	assert.Equal(t, 3, sensorStage.calls)
	assert.Equal(t, 3, eventStage.calls)
	assert.Equal(t, 3, analyzer.calls)
	assert.Equal(t, 3, writer.appended)
}

func TestLoopSkipAndLimit(t *testing.T) {
	device := newSingleSensorDevice(t)
	reader := &fakeReader{remaining: 10}
	loop := &Loop{Device: device, Reader: reader, NoProgress: true}

	stats, err := loop.Run(3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reader.skipped)
	assert.Equal(t, int64(2), stats.EventsRead)
}

func TestLoopAbortsOnWriterError(t *testing.T) {
	device := newSingleSensorDevice(t)
	reader := &fakeReader{remaining: 5}
	writer := &recordingWriter{failAt: 2}
	loop := &Loop{Device: device, Reader: reader, Writers: []ptio.Writer{writer}, NoProgress: true}

	_, err := loop.Run(0, 0)
	require.Error(t, err)
	assert.Equal(t, 2, writer.appended)
}

func TestLoopAbortsOnReaderError(t *testing.T) {
	device := newSingleSensorDevice(t)
	reader := &fakeReader{readErr: errors.New("disk error")}
	loop := &Loop{Device: device, Reader: reader, NoProgress: true}

	_, err := loop.Run(0, 0)
	require.Error(t, err)
}
