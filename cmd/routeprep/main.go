// Command routeprep builds the simplified route GeoJSON and, optionally, the
// trip headsign CSV consumed by the map service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"mbtamap.transit/internal/logging"
	"mbtamap.transit/internal/prep"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("routeprep", pflag.ContinueOnError)
	inputs := fs.StringSlice("input", prep.DefaultInputs, "Route GeoJSON inputs, concatenated in order")
	output := fs.String("output", prep.DefaultOutput, "Simplified GeoJSON output")
	tolerance := fs.Float64("tolerance", prep.DefaultTolerance, "Douglas-Peucker tolerance in degrees")
	gtfsPath := fs.String("gtfs", "", "Optional static GTFS zip for the headsign table")
	headsigns := fs.String("headsigns-output", prep.DefaultHeadsignsOutput, "Headsign CSV output")
	logLevel := fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := logging.NewStructuredLogger(stdout, level)

	return prep.Run(prep.Config{
		Inputs:          *inputs,
		Output:          *output,
		Tolerance:       *tolerance,
		GTFSPath:        *gtfsPath,
		HeadsignsOutput: *headsigns,
	}, logger)
}
