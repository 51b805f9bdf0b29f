// Package ptcli holds the flag-parsing and device/geometry bootstrap
// shared by the four cmd/pt-* tools CLI contract:
// `<tool> [options] INPUT OUTPUT_PREFIX` with -d/-g/-m/-c/-u/-s/-n/-q/-v,
// --print-events and --no-progress.
//
// Each tool gets its own flag.FlagSet rather than package-level flag.*
// variables, since pt-* are four independent binaries sharing one option
// surface rather than one binary with many modes.
package ptcli

import (
	"flag"
	"fmt"

	"github.com/proteus-tel/proteus/internal/ptconfig"
	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptgeom"
	"github.com/proteus-tel/proteus/internal/ptlog"
)

// stringList collects repeatable flag values, used for `-m PATH`
// (repeatable extra-mask paths).
type stringList []string

func (s *stringList) String() string { return fmt.Sprintf("%v", *s) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Common holds the option surface gives to every tool.
type Common struct {
	DevicePath string
	GeometryPath string
	MaskPaths stringList
	ConfigPath string
	Section string
	Skip int64
	Limit int64
	Quiet bool
	Verbose bool
	PrintEvents bool
	NoProgress bool

	Input string
	OutputPrefix string
}

// NewFlagSet registers common options on fs and returns the
// Common struct they populate; positional INPUT/OUTPUT_PREFIX are filled
// by ParseArgs after fs.Parse.
func NewFlagSet(name string) (*flag.FlagSet, *Common) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := &Common{}
	fs.StringVar(&c.DevicePath, "d", "", "device config path")
	fs.StringVar(&c.GeometryPath, "g", "", "geometry config override path")
	fs.Var(&c.MaskPaths, "m", "extra pixel-mask config path (repeatable)")
	fs.StringVar(&c.ConfigPath, "c", "", "analysis config path")
	fs.StringVar(&c.Section, "u", "default", "analysis config sub-section")
	fs.Int64Var(&c.Skip, "s", 0, "skip N events")
	fs.Int64Var(&c.Limit, "n", 0, "process N events (0 = all)")
	fs.BoolVar(&c.Quiet, "q", false, "quiet: suppress info logging")
	fs.BoolVar(&c.Verbose, "v", false, "verbose: enable debug logging")
	fs.BoolVar(&c.PrintEvents, "print-events", false, "print a line per event")
	fs.BoolVar(&c.NoProgress, "no-progress", false, "suppress periodic progress logging")
	return fs, c
}

// ParseArgs parses fs against args and fills INPUT/OUTPUT_PREFIX from the
// remaining positional arguments.
func ParseArgs(fs *flag.FlagSet, c *Common, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return ptcore.Configf("cli", "expected INPUT and OUTPUT_PREFIX, got %d positional arguments", len(rest))
	}
	c.Input, c.OutputPrefix = rest[0], rest[1]

	switch {
	case c.Quiet:
		ptlog.SetLevel(ptlog.Quiet)
	case c.Verbose:
		ptlog.SetLevel(ptlog.Verbose)
	default:
		ptlog.SetLevel(ptlog.Normal)
	}
	return nil
}

// LoadDevice builds a Device from -d/-g/-m: the device config's sensors,
// an optional geometry override, and the masks given with -m. Masks are
// not read from the device config itself.
func LoadDevice(c *Common) (*ptdevice.Device, error) {
	if c.DevicePath == "" {
		return nil, ptcore.Configf("cli", "-d device config path is required")
	}
	sensors, err := ptconfig.LoadDevice(c.DevicePath)
	if err != nil {
		return nil, err
	}

	var geom *ptgeom.Geometry
	if c.GeometryPath != "" {
		geom, err = ptconfig.LoadGeometry(c.GeometryPath)
		if err != nil {
			return nil, err
		}
	} else {
		geom = ptgeom.NewGeometry()
		for _, s := range sensors {
			geom.Planes[s.ID] = ptgeom.Identity()
		}
	}

	device, err := ptdevice.NewDevice(sensors, geom)
	if err != nil {
		return nil, err
	}

	masks := make(ptdevice.DeviceMask)
	for _, path := range c.MaskPaths {
		m, err := ptconfig.LoadMask(path)
		if err != nil {
			return nil, err
		}
		masks = masks.Merge(m)
	}
	if len(masks) > 0 {
		device.ApplyMask(masks)
	}
	return device, nil
}
