package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// SetRoutes registers the JSON endpoints on router.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.Handler(http.MethodGet, "/api/routes", http.HandlerFunc(api.routesHandler))
	router.Handler(http.MethodGet, "/api/routes/:id/shape", http.HandlerFunc(api.routeShapeHandler))
	router.Handler(http.MethodGet, "/api/session", http.HandlerFunc(api.sessionHandler))
	router.Handler(http.MethodPut, "/api/session/route", http.HandlerFunc(api.selectRouteHandler))
	router.Handler(http.MethodGet, "/api/current-time", http.HandlerFunc(api.currentTimeHandler))
	router.Handler(http.MethodGet, "/healthz", http.HandlerFunc(api.healthHandler))

	router.NotFound = http.HandlerFunc(api.sendNotFound)
}
