package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"mbtamap.transit/internal/app"
	"mbtamap.transit/internal/restapi"
	"mbtamap.transit/internal/webui"
)

// routes mounts the JSON API and the browser pages on one router behind the
// shared middleware chain.
func routes(application *app.Application) http.Handler {
	router := httprouter.New()

	api := restapi.NewRestAPI(application)
	api.SetRoutes(router)
	webui.NewWebUI(application).SetWebUIRoutes(router)

	return api.WithMiddleware(router)
}
