// Package geometry holds the static route shapes loaded at startup.
package geometry

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bluele/gcache"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
)

const DefaultRouteIDProperty = "route_id"

// RouteGeometry is the merged shape of one route. A route with no features
// has an empty geometry.
type RouteGeometry struct {
	RouteID  string
	Lines    orb.MultiLineString
	Features []*geojson.Feature
}

func (g RouteGeometry) Empty() bool {
	return len(g.Lines) == 0
}

func (g RouteGeometry) Bound() orb.Bound {
	return g.Lines.Bound()
}

// FeatureCollection returns the route features as they appeared in the file.
func (g RouteGeometry) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range g.Features {
		fc.Append(f)
	}
	return fc
}

// Store is a read-only index of route features keyed by route id.
type Store struct {
	property  string
	order     []string
	byRoute   map[string][]*geojson.Feature
	polylines gcache.Cache
}

// Load reads a GeoJSON FeatureCollection from path.
func Load(path, property string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route geometry: %w", err)
	}
	return Parse(data, property)
}

func Parse(data []byte, property string) (*Store, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse route geometry: %w", err)
	}
	return NewStore(fc, property), nil
}

// NewStore indexes fc by the given property. Features without the property
// are dropped.
func NewStore(fc *geojson.FeatureCollection, property string) *Store {
	if property == "" {
		property = DefaultRouteIDProperty
	}
	s := &Store{
		property: property,
		byRoute:  map[string][]*geojson.Feature{},
	}
	for _, f := range fc.Features {
		id, ok := routeID(f, property)
		if !ok {
			continue
		}
		if _, seen := s.byRoute[id]; !seen {
			s.order = append(s.order, id)
		}
		s.byRoute[id] = append(s.byRoute[id], f)
	}

	s.polylines = gcache.New(64).
		LRU().
		LoaderFunc(func(key interface{}) (interface{}, error) {
			return encodeLines(s.ForRoute(key.(string)).Lines), nil
		}).
		Build()
	return s
}

func routeID(f *geojson.Feature, property string) (string, bool) {
	switch v := f.Properties[property].(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// ForRoute returns the features whose route property equals id exactly,
// merged in file order.
func (s *Store) ForRoute(id string) RouteGeometry {
	g := RouteGeometry{RouteID: id}
	for _, f := range s.byRoute[id] {
		g.Features = append(g.Features, f)
		g.Lines = append(g.Lines, lines(f.Geometry)...)
	}
	return g
}

// Routes lists the route ids in order of first appearance.
func (s *Store) Routes() []string {
	return append([]string(nil), s.order...)
}

func (s *Store) Len() int {
	return len(s.order)
}

// EncodedPolylines returns the route lines in Google encoded polyline form.
func (s *Store) EncodedPolylines(id string) []string {
	v, err := s.polylines.Get(id)
	if err != nil {
		return encodeLines(s.ForRoute(id).Lines)
	}
	return v.([]string)
}

func lines(g orb.Geometry) []orb.LineString {
	switch geom := g.(type) {
	case orb.LineString:
		return []orb.LineString{geom}
	case orb.MultiLineString:
		return geom
	case orb.Ring:
		return []orb.LineString{orb.LineString(geom)}
	case orb.Polygon:
		out := make([]orb.LineString, 0, len(geom))
		for _, r := range geom {
			out = append(out, orb.LineString(r))
		}
		return out
	case orb.MultiPolygon:
		var out []orb.LineString
		for _, p := range geom {
			out = append(out, lines(p)...)
		}
		return out
	default:
		return nil
	}
}

func encodeLines(mls orb.MultiLineString) []string {
	out := make([]string, 0, len(mls))
	for _, ls := range mls {
		if len(ls) < 2 {
			continue
		}
		coords := make([][]float64, len(ls))
		for i, p := range ls {
			coords[i] = []float64{p.Lat(), p.Lon()}
		}
		out = append(out, string(polyline.EncodeCoords(coords)))
	}
	return out
}
