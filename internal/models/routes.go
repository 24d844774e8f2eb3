package models

import "mbtamap.transit/internal/catalog"

// RouteEntry is one selectable route.
type RouteEntry struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Default  bool   `json:"default"`
	HasShape bool   `json:"hasShape"`
}

// NewRouteEntries lists the catalog routes in order. hasShape reports
// whether static geometry exists for a route.
func NewRouteEntries(c *catalog.Catalog, hasShape func(id string) bool) []RouteEntry {
	out := make([]RouteEntry, 0, len(c.Routes))
	for _, r := range c.Routes {
		out = append(out, RouteEntry{
			ID:       r.ID,
			Label:    r.Label,
			Kind:     string(r.Kind),
			Default:  r.ID == c.DefaultRoute,
			HasShape: hasShape != nil && hasShape(r.ID),
		})
	}
	return out
}
