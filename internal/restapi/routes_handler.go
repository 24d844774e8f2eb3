package restapi

import (
	"net/http"

	"mbtamap.transit/internal/models"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	hasShape := func(id string) bool {
		return !api.Geometry.ForRoute(id).Empty()
	}
	entries := models.NewRouteEntries(api.Catalog, hasShape)
	api.sendResponse(w, r, models.NewListResponse(entries))
}
