package prep

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/geojson"

	"mbtamap.transit/internal/logging"
)

var validate = validator.New()

// Config drives one preprocessing run.
type Config struct {
	Inputs          []string `validate:"min=1,dive,required"`
	Output          string   `validate:"required"`
	Tolerance       float64  `validate:"gt=0"`
	GTFSPath        string
	HeadsignsOutput string `validate:"required_with=GTFSPath"`
}

// Run concatenates and simplifies the route geometry inputs and, when a
// static GTFS zip is given, writes the headsign table.
func Run(cfg Config, logger *slog.Logger) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid prep configuration: %w", err)
	}

	start := time.Now()
	collections := make([]*geojson.FeatureCollection, 0, len(cfg.Inputs))
	for _, path := range cfg.Inputs {
		fc, err := ReadFeatureCollection(path)
		if err != nil {
			return err
		}
		logger.Info("route input loaded",
			slog.String("file", path),
			slog.Int("features", len(fc.Features)))
		collections = append(collections, fc)
	}

	simplified, stats := Simplify(Concat(collections...), cfg.Tolerance)
	if err := WriteFeatureCollection(cfg.Output, simplified); err != nil {
		return err
	}
	logging.LogOperation(logger, "routes_simplified",
		slog.String("output", cfg.Output),
		slog.Int("features", stats.Features),
		slog.Int("points_before", stats.PointsBefore),
		slog.Int("points_after", stats.PointsAfter),
		slog.Duration("duration", time.Since(start)))

	if cfg.GTFSPath == "" {
		return nil
	}

	start = time.Now()
	static, err := LoadStatic(cfg.GTFSPath)
	if err != nil {
		return err
	}
	rows := HeadsignRows(static)
	if err := WriteHeadsignsFile(cfg.HeadsignsOutput, rows); err != nil {
		return err
	}
	logging.LogOperation(logger, "headsigns_written",
		slog.String("output", cfg.HeadsignsOutput),
		slog.Int("trips", len(rows)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
