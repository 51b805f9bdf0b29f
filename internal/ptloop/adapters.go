package ptloop

import (
	"github.com/proteus-tel/proteus/internal/ptcluster"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptevent"
	"github.com/proteus-tel/proteus/internal/ptfit"
	"github.com/proteus-tel/proteus/internal/pttrack"
)

// ClusterizeStage adapts a ptcluster.Clusterizer to SensorProcessor.
type ClusterizeStage struct {
	Clusterizer *ptcluster.Clusterizer
}

func (c ClusterizeStage) ProcessSensor(s *ptdevice.Sensor, se *ptevent.SensorEvent) {
	c.Clusterizer.Run(s, se)
}

// ApplyGeometryStage adapts ptcluster.ApplyGeometry to SensorProcessor.
type ApplyGeometryStage struct{}

func (ApplyGeometryStage) ProcessSensor(s *ptdevice.Sensor, se *ptevent.SensorEvent) {
	ptcluster.ApplyGeometry(s, se)
}

// FindTracksStage adapts a pttrack.Finder to EventProcessor.
type FindTracksStage struct {
	Finder *pttrack.Finder
}

func (f FindTracksStage) ProcessEvent(ev *ptevent.Event) {
	f.Finder.Run(ev)
}

// FitTracksStage fits every found track's global state and, for every
// tracking sensor, its local state. Unbiased selects the
// residuals-aligner variant that excludes the target sensor's own cluster
// from its local fit.
type FitTracksStage struct {
	Fitter *ptfit.Fitter
	SensorIDs []int
	Unbiased bool
}

func (f FitTracksStage) ProcessEvent(ev *ptevent.Event) {
	for ti := range ev.Tracks {
		t := &ev.Tracks[ti]
		t.Global = f.Fitter.Global(t, ev)
		for _, sensorID := range f.SensorIDs {
			clusterIdx, hasCluster := t.Clusters[sensorID]
			state, ok := f.Fitter.Local(t, ev, sensorID, f.Unbiased)
			if !ok {
				continue
			}
			state.Track = ti
			if hasCluster {
				state.Cluster = clusterIdx
			}
			se := ev.Sensor(sensorID)
			if se != nil {
				se.LocalStates = append(se.LocalStates, state)
			}
		}
	}
}
