package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/geometry"
	"mbtamap.transit/internal/render"
)

type fetchFunc func(ctx context.Context) (*feed.Snapshot, error)

func (f fetchFunc) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	return f(ctx)
}

type countingFetcher struct {
	calls atomic.Int32
	fn    func(call int32) (*feed.Snapshot, error)
}

func (c *countingFetcher) Fetch(context.Context) (*feed.Snapshot, error) {
	return c.fn(c.calls.Add(1))
}

type noGeometry struct{}

func (noGeometry) ForRoute(id string) geometry.RouteGeometry {
	return geometry.RouteGeometry{RouteID: id}
}

func scenarioSnapshot() *feed.Snapshot {
	return &feed.Snapshot{
		Timestamp: 1700000000,
		Vehicles: []feed.Vehicle{
			positioned("g1", "Green-B", 42.35, -71.06, 1),
			positioned("r1", "Red", 42.30, -71.11, 0),
			positioned("g2", "Green-B", 42.37, -71.10, 0),
		},
	}
}

func testSessionConfig(interval time.Duration) SessionConfig {
	return SessionConfig{
		Interval: interval,
		Location: time.UTC,
		TileURL:  "https://tiles.example/{z}/{x}/{y}.png",
		Center:   render.LatLon{Lat: 42.3601, Lon: -71.0889},
		Zoom:     12,
	}
}

func startSession(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
}

func waitForRoute(t *testing.T, s *Session, route string) *View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := s.WaitForRoute(ctx, route)
	require.NoError(t, err)
	return v
}

func TestSessionInitialPublishRecenters(t *testing.T) {
	fetcher := fetchFunc(func(context.Context) (*feed.Snapshot, error) { return scenarioSnapshot(), nil })
	s := NewSession("s1", "Green-B", testSessionConfig(time.Hour), fetcher, noGeometry{}, nil)

	before := s.View()
	assert.False(t, before.Ready)
	assert.Zero(t, before.Version)

	startSession(t, s)
	v := waitForRoute(t, s, "Green-B")

	assert.Equal(t, uint64(1), v.Version)
	assert.Equal(t, uint64(1), v.CenterVersion)
	assert.Equal(t, "Green-B 2023-11-14 22:13:20", v.Status)
	assert.Equal(t, int64(1700000000), v.Timestamp)
	require.Len(t, v.Vehicles, 2)
	assert.Equal(t, "g1", v.Vehicles[0].ID)
	assert.Equal(t, "g2", v.Vehicles[1].ID)

	assert.InDelta(t, 42.36, v.Map.Center.Lat, 1e-9)
	assert.InDelta(t, -71.08, v.Map.Center.Lon, 1e-9)
	assert.Equal(t, 12, v.Map.Zoom)

	require.Len(t, v.Map.Layers, 4)
	assert.Equal(t, render.KindTile, v.Map.Layers[0].Kind)
	assert.Equal(t, render.KindGeoJSON, v.Map.Layers[1].Kind)
	assert.Equal(t, "blue", v.Map.Layers[2].Style.Color)
	assert.Equal(t, "green", v.Map.Layers[3].Style.Color)

	assert.NotNil(t, v.Snapshot())
}

func TestSessionSelectRefetchesAndRecenters(t *testing.T) {
	fetcher := &countingFetcher{fn: func(int32) (*feed.Snapshot, error) { return scenarioSnapshot(), nil }}
	s := NewSession("s1", "Green-B", testSessionConfig(time.Hour), fetcher, noGeometry{}, nil)
	startSession(t, s)
	waitForRoute(t, s, "Green-B")

	s.Select("Red")
	assert.Equal(t, "Red", s.Selected())
	v := waitForRoute(t, s, "Red")

	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.Equal(t, uint64(2), v.Version)
	assert.Equal(t, uint64(2), v.CenterVersion)
	require.Len(t, v.Vehicles, 1)
	assert.Equal(t, render.LatLon{Lat: 42.30, Lon: -71.11}, v.Map.Center)
	assert.Equal(t, "Red 2023-11-14 22:13:20", v.Status)
}

func TestSessionSelectEmptyRouteDoesNotRecenter(t *testing.T) {
	fetcher := fetchFunc(func(context.Context) (*feed.Snapshot, error) { return scenarioSnapshot(), nil })
	s := NewSession("s1", "Green-B", testSessionConfig(time.Hour), fetcher, noGeometry{}, nil)
	startSession(t, s)
	first := waitForRoute(t, s, "Green-B")

	s.Select("Blue")
	v := waitForRoute(t, s, "Blue")

	assert.Equal(t, "Blue is not operating", v.Status)
	assert.Empty(t, v.Vehicles)
	assert.NotNil(t, v.Vehicles)
	assert.Equal(t, first.CenterVersion, v.CenterVersion)
	assert.Equal(t, first.Map.Center, v.Map.Center)
	require.Len(t, v.Map.Layers, 2, "tile and route layers only")
}

func TestSessionTimerDoesNotRecenter(t *testing.T) {
	fetcher := &countingFetcher{fn: func(call int32) (*feed.Snapshot, error) {
		snap := scenarioSnapshot()
		snap.Timestamp += int64(call)
		snap.Vehicles[0].Lat += float64(call) / 100
		return snap, nil
	}}
	s := NewSession("s1", "Green-B", testSessionConfig(10*time.Millisecond), fetcher, noGeometry{}, nil)
	startSession(t, s)
	first := waitForRoute(t, s, "Green-B")

	require.Eventually(t, func() bool { return s.View().Version >= 3 }, 2*time.Second, 5*time.Millisecond)

	v := s.View()
	assert.Equal(t, uint64(1), v.CenterVersion)
	assert.Equal(t, first.Map.Center, v.Map.Center)
	assert.Greater(t, v.Timestamp, first.Timestamp)
}

func TestSessionFetchErrorKeepsPreviousView(t *testing.T) {
	fetcher := &countingFetcher{fn: func(call int32) (*feed.Snapshot, error) {
		if call == 1 {
			return scenarioSnapshot(), nil
		}
		return nil, errors.New("connection refused")
	}}
	s := NewSession("s1", "Green-B", testSessionConfig(10*time.Millisecond), fetcher, noGeometry{}, nil)
	startSession(t, s)
	first := waitForRoute(t, s, "Green-B")

	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	assert.Same(t, first, s.View())
}

func TestSessionRecentersAfterFailedSelection(t *testing.T) {
	fetcher := &countingFetcher{fn: func(call int32) (*feed.Snapshot, error) {
		if call == 1 {
			return nil, errors.New("timeout")
		}
		return scenarioSnapshot(), nil
	}}
	s := NewSession("s1", "Green-B", testSessionConfig(10*time.Millisecond), fetcher, noGeometry{}, nil)
	startSession(t, s)

	v := waitForRoute(t, s, "Green-B")
	assert.Equal(t, uint64(1), v.CenterVersion)
	assert.InDelta(t, 42.36, v.Map.Center.Lat, 1e-9)
}

func TestSessionSelectKeepsLatest(t *testing.T) {
	s := NewSession("s1", "Green-B", testSessionConfig(time.Hour), fetchFunc(func(context.Context) (*feed.Snapshot, error) {
		return scenarioSnapshot(), nil
	}), noGeometry{}, nil)

	s.Select("Red")
	s.Select("Orange")
	assert.Equal(t, "Orange", <-s.selectCh)
	assert.Equal(t, "Orange", s.Selected())
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	s := NewSession("s1", "Red", testSessionConfig(time.Hour), fetchFunc(func(ctx context.Context) (*feed.Snapshot, error) {
		return scenarioSnapshot(), nil
	}), noGeometry{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	waitForRoute(t, s, "Red")
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}

	_, err := s.WaitForRoute(context.Background(), "Blue")
	assert.ErrorIs(t, err, context.Canceled)
}
