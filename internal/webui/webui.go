// Package webui serves the browser map page and the debug dump pages.
package webui

import (
	"mbtamap.transit/internal/app"
)

type WebUI struct {
	*app.Application
}

func NewWebUI(app *app.Application) *WebUI {
	return &WebUI{Application: app}
}
