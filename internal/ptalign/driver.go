package ptalign

import (
	"github.com/google/uuid"

	"github.com/proteus-tel/proteus/internal/ptcluster"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptfit"
	"github.com/proteus-tel/proteus/internal/ptgeom"
	"github.com/proteus-tel/proteus/internal/ptio"
	"github.com/proteus-tel/proteus/internal/ptloop"
	"github.com/proteus-tel/proteus/internal/pttrack"
)

// TrajectoryPoint is one step's snapshot of every alignable sensor's pose,
// tagged by a stable run id.
type TrajectoryPoint struct {
	Step int
	RunID string
	Params map[int][6]float64
}

// AlignerFactory builds a fresh Aligner bound to device for one iteration
// (a *CorrelationAligner or *ResidualsAligner constructor, partially
// applied over its fixed inputs).
type AlignerFactory func(device *ptdevice.Device) (Aligner, error)

// Driver runs the iteration loop: build a fresh event loop
// under the current geometry, install the reconstruction chain and the
// aligner as an analyzer, run it, then replace the working geometry with
// the aligner's output.
type Driver struct {
	Device *ptdevice.Device
	OpenReader func() (ptio.Reader, error) // rewinds to the start of the stream
	ClusterPolicy ptcluster.Policy
	TrackerParams pttrack.Params
	NewAligner AlignerFactory
	Unbiased bool // residuals aligner needs unbiased local fits
	PrintEvents bool
	NoProgress bool
}

// alignerAnalyzer adapts an Aligner to ptloop.Analyzer.
type alignerAnalyzer struct{ a Aligner }

func (w alignerAnalyzer) Observe(ev *ptevent.Event) { w.a.Execute(ev) }

// Run performs `steps` alignment iterations. The pre-alignment geometry
// is recorded as trajectory step 0.
func (d *Driver) Run(steps int) ([]TrajectoryPoint, *ptgeom.Geometry, error) {
	geom := d.Device.Geometry
	trajectory := []TrajectoryPoint{snapshot(0, "", geom, d.TrackerParams.SensorIDs)}

	for step := 1; step <= steps; step++ {
		d.Device.ApplyGeometry(geom)

		reader, err := d.OpenReader()
		if err != nil {
			return trajectory, geom, err
		}

		clusterizer := ptcluster.New(d.ClusterPolicy)
		finder, err := pttrack.New(d.Device, d.TrackerParams)
		if err != nil {
			reader.Close()
			return trajectory, geom, err
		}
		fitter := ptfit.New(d.Device)
		aligner, err := d.NewAligner(d.Device)
		if err != nil {
			reader.Close()
			return trajectory, geom, err
		}

		loop := &ptloop.Loop{
			Device: d.Device,
			Reader: reader,
			SensorProcessors: []ptloop.SensorProcessor{
				ptloop.ClusterizeStage{Clusterizer: clusterizer},
				ptloop.ApplyGeometryStage{},
			},
			EventProcessors: []ptloop.EventProcessor{
				ptloop.FindTracksStage{Finder: finder},
				ptloop.FitTracksStage{Fitter: fitter, SensorIDs: d.TrackerParams.SensorIDs, Unbiased: d.Unbiased},
			},
			Analyzers: []ptloop.Analyzer{alignerAnalyzer{aligner}},
			PrintEvents: d.PrintEvents,
			NoProgress: d.NoProgress,
		}

		_, err = loop.Run(0, 0)
		closeErr := reader.Close()
		if err != nil {
			return trajectory, geom, err
		}
		if closeErr != nil {
			return trajectory, geom, closeErr
		}

		geom = aligner.UpdatedGeometry()
		trajectory = append(trajectory, snapshot(step, uuid.NewString(), geom, d.TrackerParams.SensorIDs))
	}

	d.Device.ApplyGeometry(geom)
	return trajectory, geom, nil
}

func snapshot(step int, runID string, g *ptgeom.Geometry, sensorIDs []int) TrajectoryPoint {
	params := make(map[int][6]float64, len(sensorIDs))
	for _, id := range sensorIDs {
		if p, ok := g.Planes[id]; ok {
			params[id] = p.Params()
		}
	}
	return TrajectoryPoint{Step: step, RunID: runID, Params: params}
}
