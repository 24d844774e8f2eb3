package render

// Map is the per-session map model. Tile layers survive Apply; everything
// else is replaced by the new scene.
type Map struct {
	Center LatLon  `json:"center"`
	Zoom   int     `json:"zoom"`
	Layers []Layer `json:"layers"`
}

func NewMap(tileURL string, center LatLon, zoom int) *Map {
	return &Map{
		Center: center,
		Zoom:   zoom,
		Layers: []Layer{{Kind: KindTile, ID: "base", URL: tileURL}},
	}
}

// Apply clears the overlays and adds the scene layers.
func (m *Map) Apply(s Scene) {
	kept := make([]Layer, 0, len(m.Layers)+len(s.Layers))
	for _, l := range m.Layers {
		if l.Kind == KindTile {
			kept = append(kept, l)
		}
	}
	m.Layers = append(kept, s.Layers...)
}

func (m *Map) Recenter(c LatLon, zoom int) {
	m.Center = c
	m.Zoom = zoom
}

// Snapshot copies the map so it can be published while m keeps changing.
func (m *Map) Snapshot() Map {
	return Map{
		Center: m.Center,
		Zoom:   m.Zoom,
		Layers: append([]Layer(nil), m.Layers...),
	}
}
