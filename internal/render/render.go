// Package render turns a filtered route view into a declarative map scene
// that the browser draws with Leaflet.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb/geojson"

	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/geometry"
)

type LayerKind string

const (
	KindTile         LayerKind = "tile"
	KindGeoJSON      LayerKind = "geojson"
	KindCircleMarker LayerKind = "circle_marker"
)

const (
	MarkerRadius  = 10
	MarkerOpacity = 0.5

	ColorInbound  = "blue"
	ColorOutbound = "green"
)

// RouteStyle is applied to the route geometry layer.
var RouteStyle = Style{
	Color:       "orange",
	FillColor:   "orange",
	Opacity:     0.1,
	Weight:      4,
	DashArray:   "2",
	FillOpacity: 0.1,
}

type Style struct {
	Color       string  `json:"color,omitempty"`
	FillColor   string  `json:"fillColor,omitempty"`
	Opacity     float64 `json:"opacity"`
	Weight      int     `json:"weight,omitempty"`
	DashArray   string  `json:"dashArray,omitempty"`
	FillOpacity float64 `json:"fillOpacity,omitempty"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Layer is one drawable map layer. Fields are populated according to Kind.
type Layer struct {
	Kind   LayerKind                  `json:"kind"`
	ID     string                     `json:"id"`
	URL    string                     `json:"url,omitempty"`
	Data   *geojson.FeatureCollection `json:"data,omitempty"`
	At     *LatLon                    `json:"at,omitempty"`
	Radius int                        `json:"radius,omitempty"`
	Style  Style                      `json:"style"`
	Popup  string                     `json:"popup,omitempty"`
}

// Scene holds the overlay layers for one published view.
type Scene struct {
	Route  string  `json:"route"`
	Layers []Layer `json:"layers"`
}

// DirectionColor picks the marker color for a direction flag.
func DirectionColor(direction int) string {
	if direction == 1 {
		return ColorInbound
	}
	return ColorOutbound
}

// NewScene draws the route geometry first, then one circle marker per
// vehicle with a position. The same inputs always yield the same scene.
func NewScene(route string, geom geometry.RouteGeometry, vehicles []feed.Vehicle) Scene {
	s := Scene{Route: route, Layers: make([]Layer, 0, len(vehicles)+1)}

	s.Layers = append(s.Layers, Layer{
		Kind:  KindGeoJSON,
		ID:    "route:" + route,
		Data:  geom.FeatureCollection(),
		Style: RouteStyle,
	})

	for _, v := range vehicles {
		if !v.HasPosition {
			continue
		}
		color := DirectionColor(v.Direction)
		s.Layers = append(s.Layers, Layer{
			Kind:   KindCircleMarker,
			ID:     "vehicle:" + v.ID,
			At:     &LatLon{Lat: v.Lat, Lon: v.Lon},
			Radius: MarkerRadius,
			Style: Style{
				Color:     color,
				FillColor: color,
				Opacity:   MarkerOpacity,
			},
			Popup: Popup(v),
		})
	}
	return s
}

// Markers returns only the circle marker layers.
func (s Scene) Markers() []Layer {
	var out []Layer
	for _, l := range s.Layers {
		if l.Kind == KindCircleMarker {
			out = append(out, l)
		}
	}
	return out
}

// Popup renders the marker popup as escaped HTML.
func Popup(v feed.Vehicle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s<br/>Cars: %s", html.EscapeString(v.ID), v.CarriageText())
	if v.Headsign != "" {
		fmt.Fprintf(&b, "<br/>To: %s", html.EscapeString(v.Headsign))
	}
	if v.Status != feed.StatusUnknown && v.Stop != "" {
		fmt.Fprintf(&b, "<br/>%s %s", v.Status, html.EscapeString(v.Stop))
	}
	return b.String()
}
