// Package ptloop is the single-threaded sequential event-loop scheduler: a
// reader feeds per-sensor processors, then global processors, then
// analyzers, then writers, each stage run in registration order. Stages are
// an explicitly registered list rather than one fixed pipeline, keeping the
// loop itself a plain scheduler rather than a domain concern.
package ptloop

import (
	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptio"
	"github.com/proteus-tel/proteus/internal/ptlog"
)

// SensorProcessor runs once per sensor per event (e.g. clusterization,
// geometry application).
type SensorProcessor interface {
	ProcessSensor(s *ptdevice.Sensor, se *ptevent.SensorEvent)
}

// EventProcessor runs once per event across the whole device (e.g. track
// finding, track fitting).
type EventProcessor interface {
	ProcessEvent(ev *ptevent.Event)
}

// Analyzer observes a finished event without mutating reconstruction state
// (diagnostic histograms, alignment accumulation).
type Analyzer interface {
	Observe(ev *ptevent.Event)
}

// Loop runs its registered stages over every event a Reader supplies.
type Loop struct {
	Device *ptdevice.Device
	Reader ptio.Reader
	SensorProcessors []SensorProcessor
	EventProcessors []EventProcessor
	Analyzers []Analyzer
	Writers []ptio.Writer

	PrintEvents bool
	NoProgress bool
}

// Stats summarises one Run call.
type Stats struct {
	EventsRead int64
	Tracks int64
}

// Run reads every remaining event from the loop's Reader and pushes it
// through sensor processors, event processors, analyzers and writers, in
// registration order A reader or writer error aborts the loop
// with a non-zero-exit-worthy error.
func (l *Loop) Run(skip, limit int64) (Stats, error) {
	var stats Stats
	if skip > 0 {
		if err := l.Reader.Skip(skip); err != nil {
			return stats, ptcore.IOf("ptloop", "skip %d events: %v", skip, err)
		}
	}

	sensorIDs := l.Device.SensorIDs()
	for limit <= 0 || stats.EventsRead < limit {
		ev := ptevent.NewEvent(sensorIDs)
		ok, err := l.Reader.Read(ev)
		if err != nil {
			return stats, ptcore.IOf("ptloop", "read event %d: %v", stats.EventsRead, err)
		}
		if !ok {
			break
		}
		stats.EventsRead++

		for i := range ev.Sensors {
			se := &ev.Sensors[i]
			s := l.Device.Sensor(se.SensorID)
			if s == nil {
				continue
			}
			for _, p := range l.SensorProcessors {
				p.ProcessSensor(s, se)
			}
		}

		for _, p := range l.EventProcessors {
			p.ProcessEvent(ev)
		}

		stats.Tracks += int64(len(ev.Tracks))

		for _, a := range l.Analyzers {
			a.Observe(ev)
		}

		for _, w := range l.Writers {
			if err := w.Append(ev); err != nil {
				return stats, ptcore.IOf("ptloop", "write event %d: %v", ev.Frame, err)
			}
		}

		if l.PrintEvents {
			ptlog.Infof("event frame=%d tracks=%d", ev.Frame, len(ev.Tracks))
		} else if !l.NoProgress && stats.EventsRead%1000 == 0 {
			ptlog.Infof("processed %d events", stats.EventsRead)
		}
	}

	return stats, nil
}
