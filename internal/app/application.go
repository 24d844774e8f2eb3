package app

import (
	"log/slog"
	"time"

	"mbtamap.transit/internal/appconf"
	"mbtamap.transit/internal/catalog"
	"mbtamap.transit/internal/dashboard"
	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/geometry"
	"mbtamap.transit/internal/render"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Location *time.Location
	Catalog  *catalog.Catalog
	Geometry *geometry.Store
	Sessions *dashboard.Manager
}

// New loads the static data named in cfg and starts the session manager.
func New(cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	routes, err := catalog.Load(cfg.Data.CatalogFile)
	if err != nil {
		return nil, err
	}

	store, err := geometry.Load(cfg.Data.RoutesFile, cfg.Data.RouteIDProperty)
	if err != nil {
		return nil, err
	}
	logger.Info("route geometry loaded",
		slog.String("file", cfg.Data.RoutesFile),
		slog.Int("routes", store.Len()))

	headsigns, err := feed.LoadHeadsigns(cfg.Data.HeadsignsFile)
	if err != nil {
		return nil, err
	}

	client := feed.NewClient(FeedConfig(cfg),
		feed.WithHeadsigns(headsigns),
		feed.WithLogger(logger))

	sessions := dashboard.NewManager(ManagerConfig(cfg, loc), client, store, routes, logger)

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Catalog:  routes,
		Geometry: store,
		Sessions: sessions,
	}, nil
}

// FeedConfig maps the feed settings. Retries must finish within half a poll
// interval so they never overlap the next tick.
func FeedConfig(cfg appconf.Config) feed.Config {
	return feed.Config{
		URL:             cfg.Feed.URL,
		Format:          feed.Format(cfg.Feed.Format),
		Timeout:         cfg.Feed.Timeout,
		Retries:         cfg.Feed.Retries,
		MaxRetryElapsed: cfg.Poll.Interval / 2,
		AuthHeaderKey:   cfg.Feed.AuthHeaderKey,
		AuthHeaderValue: cfg.Feed.AuthHeaderValue,
	}
}

func ManagerConfig(cfg appconf.Config, loc *time.Location) dashboard.ManagerConfig {
	return dashboard.ManagerConfig{
		Session: dashboard.SessionConfig{
			Interval: cfg.Poll.Interval,
			Location: loc,
			TileURL:  cfg.Map.TileURL,
			Center:   render.LatLon{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon},
			Zoom:     cfg.Map.Zoom,
		},
		IdleTimeout: cfg.Poll.SessionIdle,
		MaxSessions: cfg.Poll.MaxSessions,
	}
}

// Shutdown stops all dashboard sessions.
func (app *Application) Shutdown() {
	if app.Sessions != nil {
		app.Sessions.Shutdown()
	}
}
