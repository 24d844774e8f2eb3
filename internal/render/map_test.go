package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapApplyKeepsTileLayers(t *testing.T) {
	m := NewMap("https://tiles.example/{z}/{x}/{y}.png", LatLon{42.3601, -71.0889}, 12)

	m.Apply(Scene{Route: "Red", Layers: []Layer{
		{Kind: KindGeoJSON, ID: "route:Red"},
		{Kind: KindCircleMarker, ID: "vehicle:1"},
	}})
	require.Len(t, m.Layers, 3)
	assert.Equal(t, KindTile, m.Layers[0].Kind)

	m.Apply(Scene{Route: "Blue", Layers: []Layer{{Kind: KindGeoJSON, ID: "route:Blue"}}})
	require.Len(t, m.Layers, 2)
	assert.Equal(t, "base", m.Layers[0].ID)
	assert.Equal(t, "route:Blue", m.Layers[1].ID)
}

func TestMapRecenter(t *testing.T) {
	m := NewMap("", LatLon{42.3601, -71.0889}, 10)
	m.Recenter(LatLon{42.36, -71.08}, 12)
	assert.Equal(t, LatLon{42.36, -71.08}, m.Center)
	assert.Equal(t, 12, m.Zoom)
}

func TestMapSnapshotIsACopy(t *testing.T) {
	m := NewMap("", LatLon{}, 12)
	snap := m.Snapshot()
	m.Apply(Scene{Layers: []Layer{{Kind: KindCircleMarker, ID: "vehicle:x"}}})

	assert.Len(t, snap.Layers, 1)
	assert.Len(t, m.Layers, 2)
}
