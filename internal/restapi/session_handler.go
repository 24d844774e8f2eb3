package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mbtamap.transit/internal/appconf"
	"mbtamap.transit/internal/dashboard"
	"mbtamap.transit/internal/models"
	"mbtamap.transit/internal/utils"
)

// maxSelectBodyBytes bounds the PUT /api/session/route body.
const maxSelectBodyBytes = 1 << 10

type selectRouteRequest struct {
	Route string `json:"route"`
}

func (api *RestAPI) sessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := api.Sessions.GetOrCreate(utils.SessionIDFromRequest(r))
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	api.setSessionCookie(w, r, session.ID())

	entry := models.NewSessionEntry(session.ID(), session.Selected(), session.View())
	api.sendResponse(w, r, models.NewEntryResponse(entry))
}

// selectRouteHandler switches the session's route and waits briefly for the
// first view of the new route so the response already reflects it.
func (api *RestAPI) selectRouteHandler(w http.ResponseWriter, r *http.Request) {
	var req selectRouteRequest
	body := http.MaxBytesReader(w, r.Body, maxSelectBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.badRequestResponse(w, r, "invalid request body")
		return
	}

	route := utils.SanitizeInput(req.Route)
	fieldErrors := make(map[string][]string)
	if err := utils.ValidateID(route); err != nil {
		fieldErrors["route"] = append(fieldErrors["route"], err.Error())
	} else if !api.Catalog.Contains(route) {
		fieldErrors["route"] = append(fieldErrors["route"], "unknown route")
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	session, err := api.Sessions.Select(utils.SessionIDFromRequest(r), route)
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	api.setSessionCookie(w, r, session.ID())

	ctx, cancel := context.WithTimeout(r.Context(), api.selectWaitTimeout())
	defer cancel()
	view, err := session.WaitForRoute(ctx, route)
	if err != nil {
		api.Logger.Debug("route selection still pending",
			slog.String("session", session.ID()),
			slog.String("route", route),
			slog.String("error", err.Error()))
	}

	entry := models.NewSessionEntry(session.ID(), session.Selected(), view)
	api.sendResponse(w, r, models.NewEntryResponse(entry))
}

// selectWaitTimeout covers one fetch including its retries.
func (api *RestAPI) selectWaitTimeout() time.Duration {
	if t := api.Config.Feed.Timeout; t > 0 {
		return t
	}
	return 10 * time.Second
}

func (api *RestAPI) sessionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, dashboard.ErrShutdown) {
		api.writeError(w, r, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	api.serverErrorResponse(w, r, err)
}

func (api *RestAPI) setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	if utils.SessionIDFromRequest(r) == id {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   api.Config.Env == appconf.Production,
		SameSite: http.SameSiteLaxMode,
	})
}
