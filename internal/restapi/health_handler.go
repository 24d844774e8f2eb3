package restapi

import (
	"net/http"

	"mbtamap.transit/internal/models"
)

type healthEntry struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Routes   int    `json:"routes"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(healthEntry{
		Status:   "ok",
		Sessions: api.Sessions.Len(),
		Routes:   api.Geometry.Len(),
	}))
}
