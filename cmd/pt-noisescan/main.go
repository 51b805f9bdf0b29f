// Command pt-noisescan runs the two-pass noise scan over a
// native event stream for every device sensor, emitting PNG heatmaps and a
// combined pixel-mask config.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptcli"
	"github.com/proteus-tel/proteus/internal/ptconfig"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptio"
	"github.com/proteus-tel/proteus/internal/ptloop"
	"github.com/proteus-tel/proteus/internal/ptlog"
	"github.com/proteus-tel/proteus/internal/ptnoise"
	"github.com/proteus-tel/proteus/internal/ptreport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pt-noisescan:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs, c := ptcli.NewFlagSet("pt-noisescan")
	if err := ptcli.ParseArgs(fs, c, args); err != nil {
		return err
	}

	device, err := ptcli.LoadDevice(c)
	if err != nil {
		return err
	}
	sensorIDs := device.SensorIDs()

	f, err := os.Open(c.Input)
	if err != nil {
		return fmt.Errorf("open input %q: %w", c.Input, err)
	}
	defer f.Close()
	reader, err := ptio.NewNativeReader(c.Input, f, f)
	if err != nil {
		return err
	}
	defer reader.Close()

	scanners := make(map[int]*ptnoise.Scanner, len(sensorIDs))
	processors := make([]ptloop.SensorProcessor, 0, len(sensorIDs))
	for _, id := range sensorIDs {
		sensor := device.Sensor(id)
		params, err := ptconfig.LoadNoiseScanParams(c.ConfigPath, c.Section, sensor.Cols, sensor.Rows)
		if err != nil {
			return err
		}
		scanner := ptnoise.NewScanner(sensor, params)
		scanners[id] = scanner
		processors = append(processors, scanner)
	}

	loop := &ptloop.Loop{
		Device: device,
		Reader: reader,
		SensorProcessors: processors,
		PrintEvents: c.PrintEvents,
		NoProgress: c.NoProgress,
	}
	stats, err := loop.Run(c.Skip, c.Limit)
	if err != nil {
		return err
	}
	ptlog.Infof("pt-noisescan: %d events scanned", stats.EventsRead)

	deviceMasks := make(ptdevice.DeviceMask, len(sensorIDs))
	for _, id := range sensorIDs {
		res := scanners[id].Run()
		prefix := fmt.Sprintf("%s_sensor%d", c.OutputPrefix, id)
		if err := ptreport.SaveNoiseScanHeatmaps(res, ".", prefix); err != nil {
			return fmt.Errorf("sensor %d: save heatmaps: %w", id, err)
		}
		deviceMasks[id] = res.Mask
		ptlog.Infof("sensor %d: masked %d pixels", id, res.Mask.Len())
	}

	maskFile, err := os.Create(c.OutputPrefix + "_mask.toml")
	if err != nil {
		return fmt.Errorf("create mask output: %w", err)
	}
	defer maskFile.Close()
	return toml.NewEncoder(maskFile).Encode(ptconfig.WriteMask(deviceMasks))
}
