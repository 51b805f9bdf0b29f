// Command pt-recon clusterizes, finds and fits tracks over a native event
// stream, persisting the result as queryable SQLite records.
package main

import (
	"fmt"
	"os"

	"github.com/proteus-tel/proteus/internal/ptcli"
	"github.com/proteus-tel/proteus/internal/ptcluster"
	"github.com/proteus-tel/proteus/internal/ptconfig"
	"github.com/proteus-tel/proteus/internal/ptfit"
	"github.com/proteus-tel/proteus/internal/ptio"
	"github.com/proteus-tel/proteus/internal/ptio/sqlitestore"
	"github.com/proteus-tel/proteus/internal/ptloop"
	"github.com/proteus-tel/proteus/internal/ptlog"
	"github.com/proteus-tel/proteus/internal/pttrack"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pt-recon:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs, c := ptcli.NewFlagSet("pt-recon")
	if err := ptcli.ParseArgs(fs, c, args); err != nil {
		return err
	}

	device, err := ptcli.LoadDevice(c)
	if err != nil {
		return err
	}
	sensorIDs := device.SensorIDs()

	params, err := ptconfig.LoadReconParams(c.ConfigPath, c.Section, sensorIDs)
	if err != nil {
		return err
	}

	reader, closer, err := openNativeInput(c.Input)
	if err != nil {
		return err
	}
	defer closer()

	store, err := sqlitestore.Open(c.OutputPrefix+".sqlite", "recon")
	if err != nil {
		return err
	}
	defer store.Close()

	finder, err := pttrack.New(device, params)
	if err != nil {
		return err
	}
	fitter := ptfit.New(device)
	clusterizer := ptcluster.New(ptcluster.ValueWeighted)

	loop := &ptloop.Loop{
		Device: device,
		Reader: reader,
		SensorProcessors: []ptloop.SensorProcessor{
			ptloop.ClusterizeStage{Clusterizer: clusterizer},
			ptloop.ApplyGeometryStage{},
		},
		EventProcessors: []ptloop.EventProcessor{
			ptloop.FindTracksStage{Finder: finder},
			ptloop.FitTracksStage{Fitter: fitter, SensorIDs: sensorIDs},
		},
		Writers: []ptio.Writer{store},
		PrintEvents: c.PrintEvents,
		NoProgress: c.NoProgress,
	}

	stats, err := loop.Run(c.Skip, c.Limit)
	if err != nil {
		return err
	}
	ptlog.Infof("pt-recon: %d events, %d tracks found", stats.EventsRead, stats.Tracks)
	return nil
}

func openNativeInput(path string) (*ptio.NativeReader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open input %q: %w", path, err)
	}
	r, err := ptio.NewNativeReader(path, f, f)
	if err != nil {
		f.Close()
		return nil, func() {}, err
	}
	return r, func() { r.Close() }, nil
}
