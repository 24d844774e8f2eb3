package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	"mbtamap.transit/internal/app"
	"mbtamap.transit/internal/appconf"
	"mbtamap.transit/internal/catalog"
	"mbtamap.transit/internal/dashboard"
	"mbtamap.transit/internal/feed"
	"mbtamap.transit/internal/geometry"
	"mbtamap.transit/internal/logging"
	"mbtamap.transit/internal/models"
	"mbtamap.transit/internal/utils"
)

const testRoutesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"route_id": "Green-B"},
     "geometry": {"type": "LineString", "coordinates": [[-71.06, 42.35], [-71.10, 42.37], [-71.14, 42.34]]}},
    {"type": "Feature", "properties": {"route_id": "Red"},
     "geometry": {"type": "LineString", "coordinates": [[-71.11, 42.30], [-71.06, 42.36]]}}
  ]
}`

const testFeedTimestamp = 1700000000

type fetchFunc func(ctx context.Context) (*feed.Snapshot, error)

func (f fetchFunc) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	return f(ctx)
}

func testSnapshot() *feed.Snapshot {
	vehicle := func(id, route string, lat, lon float64, dir int) feed.Vehicle {
		v := feed.Defaults
		v.ID = id
		v.Route = route
		v.Lat, v.Lon, v.HasPosition = lat, lon, true
		v.Direction = dir
		v.Carriages = 2
		v.Status = feed.StatusStoppedAt
		return v
	}
	return &feed.Snapshot{
		Timestamp: testFeedTimestamp,
		Vehicles: []feed.Vehicle{
			vehicle("g1", "Green-B", 42.35, -71.06, 1),
			vehicle("r1", "Red", 42.30, -71.11, 0),
			vehicle("g2", "Green-B", 42.37, -71.10, 0),
		},
	}
}

// createTestApi builds a RestAPI around an in-memory catalog, geometry store
// and a feed that always returns testSnapshot.
func createTestApi(t *testing.T) *RestAPI {
	return createTestApiWithFetcher(t, fetchFunc(func(context.Context) (*feed.Snapshot, error) {
		return testSnapshot(), nil
	}))
}

func createTestApiWithFetcher(t *testing.T, fetcher dashboard.Fetcher) *RestAPI {
	t.Helper()

	logger := logging.NewStructuredLogger(io.Discard, slog.LevelError)
	store, err := geometry.Parse([]byte(testRoutesGeoJSON), geometry.DefaultRouteIDProperty)
	require.NoError(t, err)
	routes := catalog.Default()

	sessions := dashboard.NewManager(dashboard.ManagerConfig{
		Session: dashboard.SessionConfig{
			Interval: time.Hour,
			Location: time.UTC,
			TileURL:  "https://tiles.example/{z}/{x}/{y}.png",
			Zoom:     12,
		},
		IdleTimeout: time.Hour,
		MaxSessions: 8,
	}, fetcher, store, routes, logger)
	t.Cleanup(sessions.Shutdown)

	application := &app.Application{
		Config: appconf.Config{
			Env:  appconf.EnvFlagToEnvironment("test"),
			Feed: appconf.FeedConfig{Timeout: 2 * time.Second},
		},
		Logger:   logger,
		Location: time.UTC,
		Catalog:  routes,
		Geometry: store,
		Sessions: sessions,
	}

	return &RestAPI{Application: application}
}

func newTestRouter(api *RestAPI) *httprouter.Router {
	router := httprouter.New()
	api.SetRoutes(router)
	return router
}

// serveRequest runs req through the API router and returns the recorded response.
func serveRequest(t *testing.T, api *RestAPI, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	newTestRouter(api).ServeHTTP(rec, req)
	return rec
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*httptest.ResponseRecorder, models.ResponseModel) {
	t.Helper()
	rec := serveRequest(t, api, httptest.NewRequest(http.MethodGet, endpoint, nil))
	return rec, decodeResponse(t, rec)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.ResponseModel {
	t.Helper()
	var response models.ResponseModel
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&response))
	return response
}

// entryOf re-decodes data.entry into out.
func entryOf(t *testing.T, response models.ResponseModel, out interface{}) {
	t.Helper()
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	raw, err := json.Marshal(data["entry"])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			return c
		}
	}
	return nil
}
