// Command pt-align runs the iterative alignment engine over a
// native event stream, emitting the aligned geometry and a parameter
// trajectory dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptalign"
	"github.com/proteus-tel/proteus/internal/ptcli"
	"github.com/proteus-tel/proteus/internal/ptcluster"
	"github.com/proteus-tel/proteus/internal/ptconfig"
	"github.com/proteus-tel/proteus/internal/ptio"
	"github.com/proteus-tel/proteus/internal/ptlog"
	"github.com/proteus-tel/proteus/internal/ptreport"
	"github.com/proteus-tel/proteus/internal/pttrack"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pt-align:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs, c := ptcli.NewFlagSet("pt-align")
	if err := ptcli.ParseArgs(fs, c, args); err != nil {
		return err
	}

	device, err := ptcli.LoadDevice(c)
	if err != nil {
		return err
	}
	sensorIDs := device.SensorIDs()

	opts, err := ptconfig.LoadAlignOptions(c.ConfigPath, c.Section)
	if err != nil {
		return err
	}
	if len(opts.SensorIDs) == 0 {
		opts.SensorIDs = sensorIDs
	}

	trackerParams := pttrack.Params{
		SensorIDs: sensorIDs,
		NPointsMin: 3,
		SearchSpatialSigmaMax: opts.SearchSigmaMax,
		SearchTemporalSigmaMax: -1,
		ReducedChi2Max: opts.ReducedChi2Max,
	}

	driver := &ptalign.Driver{
		Device: device,
		OpenReader: func() (ptio.Reader, error) {
			return openNativeInput(c.Input)
		},
		ClusterPolicy: ptcluster.ValueWeighted,
		TrackerParams: trackerParams,
		NewAligner: ptconfig.AlignerFactoryFor(opts),
		Unbiased: opts.Method == "residuals",
		PrintEvents: c.PrintEvents,
		NoProgress: c.NoProgress,
	}

	trajectory, geom, err := driver.Run(opts.NumSteps)
	if err != nil {
		return err
	}
	ptlog.Infof("pt-align: %d steps completed", opts.NumSteps)

	htmlFile, err := os.Create(c.OutputPrefix + "_trajectory.html")
	if err != nil {
		return fmt.Errorf("create trajectory report: %w", err)
	}
	defer htmlFile.Close()
	if err := ptreport.RenderAlignmentTrajectory(trajectory, htmlFile); err != nil {
		return fmt.Errorf("render trajectory report: %w", err)
	}

	geomFile, err := os.Create(c.OutputPrefix + "_geometry.toml")
	if err != nil {
		return fmt.Errorf("create geometry output: %w", err)
	}
	defer geomFile.Close()
	if err := toml.NewEncoder(geomFile).Encode(ptconfig.WriteGeometry(geom)); err != nil {
		return fmt.Errorf("encode geometry output: %w", err)
	}
	return nil
}

func openNativeInput(path string) (*ptio.NativeReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}
	r, err := ptio.NewNativeReader(path, f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}
