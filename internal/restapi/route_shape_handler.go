package restapi

import (
	"net/http"

	"mbtamap.transit/internal/models"
	"mbtamap.transit/internal/utils"
)

func (api *RestAPI) routeShapeHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"id": {err.Error()},
		})
		return
	}

	polylines := api.Geometry.EncodedPolylines(id)
	if len(polylines) == 0 && !api.Catalog.Contains(id) {
		api.sendNotFound(w, r)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewRouteShapeEntry(id, polylines)))
}
