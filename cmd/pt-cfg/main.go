// Command pt-cfg reads a geometry config and rewrites it, exercising the
// TOML round-trip load/save law directly from the CLI.
//
// Usage: pt-cfg INPUT OUTPUT_PREFIX
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptconfig"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pt-cfg:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: pt-cfg INPUT OUTPUT_PREFIX")
	}
	input, outputPrefix := args[0], args[1]

	geom, err := ptconfig.LoadGeometry(input)
	if err != nil {
		return err
	}

	out, err := os.Create(outputPrefix + "_geometry.toml")
	if err != nil {
		return fmt.Errorf("create %s_geometry.toml: %w", outputPrefix, err)
	}
	defer out.Close()

	return toml.NewEncoder(out).Encode(ptconfig.WriteGeometry(geom))
}
