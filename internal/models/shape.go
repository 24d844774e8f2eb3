package models

// RouteShapeEntry represents a route shape for the API response
type RouteShapeEntry struct {
	RouteID   string   `json:"routeId"`
	Polylines []string `json:"polylines"`
	Length    int      `json:"length"`
}

func NewRouteShapeEntry(routeID string, polylines []string) RouteShapeEntry {
	length := 0
	for _, p := range polylines {
		length += len(p)
	}
	if polylines == nil {
		polylines = []string{}
	}
	return RouteShapeEntry{RouteID: routeID, Polylines: polylines, Length: length}
}
