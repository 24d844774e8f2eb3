package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"mbtamap.transit/internal/logging"
	"mbtamap.transit/internal/models"
)

//go:embed index.html debug_index.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "index.html", "debug_index.html"))

// PageContentSecurityPolicy lets the map page load Leaflet from unpkg and
// tiles from any https host.
const PageContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"img-src 'self' data: https:; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none';"

type indexData struct {
	Title          string
	TileURL        string
	CenterLat      float64
	CenterLon      float64
	Zoom           int
	PollIntervalMs int64
	DefaultRoute   string
	Routes         []models.RouteEntry
}

func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Title:          "MBTA vehicle map",
		TileURL:        webUI.Config.Map.TileURL,
		CenterLat:      webUI.Config.Map.CenterLat,
		CenterLon:      webUI.Config.Map.CenterLon,
		Zoom:           webUI.Config.Map.Zoom,
		PollIntervalMs: webUI.Config.Poll.Interval.Milliseconds(),
		DefaultRoute:   webUI.Catalog.DefaultRoute,
		Routes:         models.NewRouteEntries(webUI.Catalog, nil),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", PageContentSecurityPolicy)
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logging.LogError(webUI.Logger, "failed to render map page", err,
			slog.String("path", r.URL.Path))
	}
}
