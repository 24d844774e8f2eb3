package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchJSON(t *testing.T) {
	body := loadFixture(t, "vehicles.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	fetchedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := NewClient(Config{
		URL:             server.URL,
		AuthHeaderKey:   "X-Api-Key",
		AuthHeaderValue: "secret",
	}, WithHeadsigns(Headsigns{"B-1": "Boston College"}))
	client.now = func() time.Time { return fetchedAt }

	snap, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetchedAt, snap.FetchedAt)
	require.Len(t, snap.Vehicles, 4)
	assert.Equal(t, "Boston College", snap.Vehicles[0].Headsign)
	assert.Empty(t, snap.Vehicles[1].Headsign)
}

func TestClientFetchGTFSRT(t *testing.T) {
	data := buildVehiclePositions(t, 1700000000, []fixtureVehicle{
		{id: "v1", routeID: "Blue", tripID: "BL-1", direction: 1, lat: 42.36, lon: -71.05},
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Format: FormatGTFSRT})
	snap, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Vehicles, 1)
	assert.Equal(t, "Blue", snap.Vehicles[0].Route)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	body := loadFixture(t, "vehicles.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Retries: 2})
	snap, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Vehicles, 4)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Retries: 1})
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.True(t, strings.HasPrefix(err.Error(), "fetch feed:"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Retries: 2})
	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{URL: server.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{URL: "http://example.invalid", Retries: -3})
	assert.Equal(t, FormatJSON, client.config.Format)
	assert.Equal(t, DefaultTimeout, client.config.Timeout)
	assert.Zero(t, client.config.Retries)
}
