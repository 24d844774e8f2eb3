package webui

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"mbtamap.transit/internal/logging"
	"mbtamap.transit/internal/utils"
)

const debugContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none';"

type debugData struct {
	Title string
	Pre   string
}

// debugDataTypes lists the dataType values the debug page understands.
var debugDataTypes = []string{"catalog", "geometry", "sessions", "config", "view", "vehicles", "snapshot", "entities"}

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func (webUI *WebUI) writeDebugData(w http.ResponseWriter, r *http.Request, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", debugContentSecurityPolicy)
	err := templates.ExecuteTemplate(w, "debug_index.html", debugData{
		Title: title,
		Pre:   spewConfig.Sdump(data),
	})
	if err != nil {
		logging.LogError(webUI.Logger, "failed to render debug page", err,
			slog.String("path", r.URL.Path))
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.RequestHasInvalidDebugKey(r) {
		http.Error(w, "permission denied", http.StatusUnauthorized)
		return
	}

	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "catalog":
		data = webUI.Catalog
		title = "Route catalog"
	case "geometry":
		data = webUI.Geometry.Routes()
		title = "Route geometry - Routes"
	case "sessions":
		data = map[string]int{"active": webUI.Sessions.Len()}
		title = "Dashboard sessions"
	case "config":
		cfg := webUI.Config
		if cfg.Feed.AuthHeaderValue != "" {
			cfg.Feed.AuthHeaderValue = "[redacted]"
		}
		cfg.DebugKeys = nil
		data = cfg
		title = "Configuration"
	case "view", "vehicles", "snapshot", "entities":
		session, ok := webUI.Sessions.Get(utils.SessionIDFromRequest(r))
		if !ok {
			data = map[string]string{"error": "No dashboard session for this browser. Open / first."}
			title = "No session"
			break
		}
		view := session.View()
		switch dataType {
		case "view":
			data = view
			title = "Session - View"
		case "vehicles":
			data = view.Vehicles
			title = "Session - Vehicles (" + view.Route + ")"
		case "snapshot":
			data = view.Snapshot()
			title = "Feed - Snapshot"
		case "entities":
			var raw []string
			if snap := view.Snapshot(); snap != nil {
				for _, e := range snap.Entities {
					raw = append(raw, string(e))
				}
			}
			data = raw
			title = "Feed - Raw entities"
		}
	default:
		data = map[string]string{
			"error": "Please use one of the following: " + strings.Join(debugDataTypes, ", ") + ".",
		}
		title = "Choose a data type"
	}

	webUI.writeDebugData(w, r, title, data)
}
