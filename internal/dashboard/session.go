package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/geometry"
	"mbtamap.transit/internal/logging"
	"mbtamap.transit/internal/render"
)

// Fetcher acquires one feed snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*feed.Snapshot, error)
}

// Geometry looks up the static shape of a route.
type Geometry interface {
	ForRoute(id string) geometry.RouteGeometry
}

const DefaultInterval = 5 * time.Second

type SessionConfig struct {
	Interval     time.Duration
	Location     *time.Location
	TileURL      string
	Center       render.LatLon
	Zoom         int
	RecenterZoom int
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Zoom == 0 {
		c.Zoom = 12
	}
	if c.RecenterZoom == 0 {
		c.RecenterZoom = c.Zoom
	}
	return c
}

// Session owns the state of one dashboard user. Run is the only writer;
// View may be called from any goroutine.
type Session struct {
	id       string
	config   SessionConfig
	fetcher  Fetcher
	geometry Geometry
	logger   *slog.Logger

	selectMu sync.Mutex
	selectCh chan string
	selected atomic.Value

	view      atomic.Pointer[View]
	changedMu sync.Mutex
	changed   chan struct{}
	done      chan struct{}

	// mapModel is touched only by the Run goroutine.
	mapModel *render.Map
}

func NewSession(id, route string, config SessionConfig, fetcher Fetcher, geom Geometry, logger *slog.Logger) *Session {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:       id,
		config:   config,
		fetcher:  fetcher,
		geometry: geom,
		logger:   logger.With(slog.String("component", "dashboard_session"), slog.String("session", id)),
		selectCh: make(chan string, 1),
		changed:  make(chan struct{}),
		done:     make(chan struct{}),
		mapModel: render.NewMap(config.TileURL, config.Center, config.Zoom),
	}
	s.selected.Store(route)
	s.view.Store(&View{
		Route:    route,
		Vehicles: []feed.Vehicle{},
		Map:      s.mapModel.Snapshot(),
	})
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Selected is the most recently requested route, which may not be
// published yet.
func (s *Session) Selected() string {
	return s.selected.Load().(string)
}

// View returns the latest published view. It is never nil.
func (s *Session) View() *View {
	return s.view.Load()
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Changed returns a channel that is closed at the next publish.
func (s *Session) Changed() <-chan struct{} {
	s.changedMu.Lock()
	defer s.changedMu.Unlock()
	return s.changed
}

// Select requests a route change. Only the latest pending request is kept.
func (s *Session) Select(route string) {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	s.selected.Store(route)
	select {
	case <-s.selectCh:
	default:
	}
	s.selectCh <- route
}

// WaitForRoute blocks until a view for route is published or ctx ends.
func (s *Session) WaitForRoute(ctx context.Context, route string) (*View, error) {
	for {
		changed := s.Changed()
		if v := s.View(); v.Route == route && v.Ready {
			return v, nil
		}
		select {
		case <-changed:
		case <-s.done:
			return s.View(), context.Canceled
		case <-ctx.Done():
			return s.View(), ctx.Err()
		}
	}
}

// Run polls until ctx is cancelled. The initial route counts as a selection
// so the first successful cycle recenters the map.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	route := s.Selected()
	pendingRecenter := !s.refresh(ctx, route, true)

	for {
		select {
		case <-ctx.Done():
			logging.LogOperation(s.logger, "session_stopped")
			return
		case route = <-s.selectCh:
			pendingRecenter = !s.refresh(ctx, route, true)
			ticker.Reset(s.config.Interval)
		case <-ticker.C:
			if s.refresh(ctx, route, pendingRecenter) {
				pendingRecenter = false
			}
		}
	}
}

// refresh runs one fetch, filter and publish cycle. It reports whether a
// view was published.
func (s *Session) refresh(ctx context.Context, route string, recenter bool) bool {
	start := time.Now()
	snap, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.LogError(s.logger, "feed fetch failed, skipping cycle", err, slog.String("route", route))
		}
		return false
	}

	vehicles := feed.FilterByRoute(snap, route)
	s.mapModel.Apply(render.NewScene(route, s.geometry.ForRoute(route), vehicles))

	prev := s.view.Load()
	centerVersion := prev.CenterVersion
	if recenter {
		if c, ok := Center(vehicles); ok {
			s.mapModel.Recenter(c, s.config.RecenterZoom)
			centerVersion++
		}
	}

	s.publish(&View{
		Version:       prev.Version + 1,
		CenterVersion: centerVersion,
		Route:         route,
		Ready:         true,
		Timestamp:     snap.Timestamp,
		FetchedAt:     snap.FetchedAt,
		Status:        StatusText(route, vehicles, snap.HeaderTime(), s.config.Location),
		Vehicles:      vehicles,
		Map:           s.mapModel.Snapshot(),
		snapshot:      snap,
	})

	logging.LogOperation(s.logger, "view_published",
		slog.String("route", route),
		slog.Int("vehicles", len(vehicles)),
		slog.Duration("duration", time.Since(start)))
	return true
}

func (s *Session) publish(v *View) {
	s.view.Store(v)
	s.changedMu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.changedMu.Unlock()
}
