package app

import (
	"net/http"

	"mbtamap.transit/internal/appconf"
)

// RequestHasInvalidDebugKey guards the debug pages. Without configured keys
// they are open in development and closed elsewhere.
func (app *Application) RequestHasInvalidDebugKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	return app.IsInvalidDebugKey(key)
}

func (app *Application) IsInvalidDebugKey(key string) bool {
	if len(app.Config.DebugKeys) == 0 {
		return app.Config.Env != appconf.Development
	}
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.DebugKeys {
		if key == validKey {
			return false
		}
	}

	return true
}
