// Package prep builds the static artifacts the dashboard loads at start:
// the simplified route GeoJSON and the trip headsign CSV.
package prep

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
)

// DefaultTolerance is the Douglas-Peucker threshold in degrees.
const DefaultTolerance = 0.0001

var DefaultInputs = []string{
	"data/inputs/Bus_Routes.geojson",
	"data/inputs/Transit_Routes.geojson",
}

const (
	DefaultOutput          = "data/outputs/routes.geojson"
	DefaultHeadsignsOutput = "data/outputs/headsigns.csv"
)

// SimplifyStats summarizes one simplification pass.
type SimplifyStats struct {
	Features     int
	PointsBefore int
	PointsAfter  int
}

func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// Concat appends the features of every collection in order. The inputs are
// not modified.
func Concat(collections ...*geojson.FeatureCollection) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for _, fc := range collections {
		if fc == nil {
			continue
		}
		out.Features = append(out.Features, fc.Features...)
	}
	return out
}

// Simplify returns a copy of fc with every geometry reduced by
// Douglas-Peucker at tolerance. Properties are kept as they are.
func Simplify(fc *geojson.FeatureCollection, tolerance float64) (*geojson.FeatureCollection, SimplifyStats) {
	simplifier := simplify.DouglasPeucker(tolerance)
	out := geojson.NewFeatureCollection()
	stats := SimplifyStats{}

	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		g := *f
		if f.Geometry != nil {
			stats.PointsBefore += countPoints(f.Geometry)
			g.Geometry = simplifier.Simplify(orb.Clone(f.Geometry))
			stats.PointsAfter += countPoints(g.Geometry)
		}
		out.Append(&g)
		stats.Features++
	}
	return out, stats
}

func countPoints(g orb.Geometry) int {
	switch g := g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(g)
	case orb.LineString:
		return len(g)
	case orb.MultiLineString:
		n := 0
		for _, ls := range g {
			n += len(ls)
		}
		return n
	case orb.Ring:
		return len(g)
	case orb.Polygon:
		n := 0
		for _, r := range g {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range g {
			n += countPoints(p)
		}
		return n
	case orb.Collection:
		n := 0
		for _, c := range g {
			n += countPoints(c)
		}
		return n
	default:
		return 0
	}
}

// WriteFeatureCollection writes fc as GeoJSON, creating parent directories.
func WriteFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
