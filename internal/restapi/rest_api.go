package restapi

import (
	"net/http"
	"time"

	"mbtamap.transit/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter func(http.Handler) http.Handler
}

// NewRestAPI creates a new RestAPI instance. A zero rate limit disables
// per-client limiting.
func NewRestAPI(app *app.Application) *RestAPI {
	api := &RestAPI{Application: app}
	if app.Config.RateLimit > 0 {
		api.rateLimiter = NewRateLimitMiddleware(app.Config.RateLimit, time.Second)
	}
	return api
}

// WithMiddleware wraps the router with the shared middleware chain.
// Requests are logged first so rate-limited responses are recorded too.
func (api *RestAPI) WithMiddleware(handler http.Handler) http.Handler {
	if api.rateLimiter != nil {
		handler = api.rateLimiter(handler)
	}
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	return NewRequestLoggingMiddleware(api.Logger)(handler)
}
