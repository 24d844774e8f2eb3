package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"mbtamap.transit/internal/logging"
	"mbtamap.transit/internal/utils"
)

// statusRecorder remembers the status code and body size a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// sessionID is the dashboard session the request belongs to: the cookie the
// browser sent, or the one the handler just issued.
func (rec *statusRecorder) sessionID(r *http.Request) string {
	if id := utils.SessionIDFromRequest(r); id != "" {
		return id
	}
	issued := (&http.Response{Header: rec.Header()}).Cookies()
	for _, c := range issued {
		if c.Name == utils.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

// NewRequestLoggingMiddleware logs one http_request line per request and
// puts logger into the request context.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r = r.WithContext(logging.WithLogger(r.Context(), logger))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("client_ip", utils.ClientIP(r)),
				slog.Int("bytes", rec.bytes),
				slog.String("component", "http_server"),
			}
			if id := rec.sessionID(r); id != "" {
				attrs = append(attrs, slog.String("session", id))
			}
			if ua := r.Header.Get("User-Agent"); ua != "" {
				attrs = append(attrs, slog.String("user_agent", ua))
			}

			// Query strings carry debug keys, so only the path is logged.
			logging.LogHTTPRequest(logger,
				r.Method,
				r.URL.Path,
				rec.status,
				float64(time.Since(start).Nanoseconds())/1e6,
				attrs...)
		})
	}
}
