package nws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
	"github.com/couchcryptid/storm-alert-engine/internal/observability"
)

const testUserAgent = "storm-alert-engine-test/1.0 (ops@example.com)"

func testClient(baseURL string) *Client {
	return &Client{
		userAgent:  testUserAgent,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

const activeAlertsBody = `{
  "features": [
    {
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-95.30, 36.40], [-95.20, 36.40], [-95.20, 36.50], [-95.30, 36.50], [-95.30, 36.40]]]
      },
      "properties": {
        "id": "urn:oid:2.49.0.1.840.0.tor-1",
        "event": "Tornado Warning",
        "headline": "Tornado Warning issued until 4:15PM CDT"
      }
    },
    {
      "geometry": null,
      "properties": {
        "id": "urn:oid:2.49.0.1.840.0.watch-1",
        "event": "Tornado Watch",
        "headline": "Tornado Watch in effect"
      }
    },
    {
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-90.0, 30.0], [-89.9, 30.1]]]
      },
      "properties": {
        "id": "urn:oid:2.49.0.1.840.0.short-ring",
        "event": "Flash Flood Warning"
      }
    }
  ]
}`

func TestClient_ActiveWarnings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		assert.Equal(t, "actual", r.URL.Query().Get("status"))
		assert.Equal(t, "alert", r.URL.Query().Get("message_type"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(activeAlertsBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	polygons, err := c.ActiveWarnings(context.Background())

	require.NoError(t, err)
	// Geometry-less and short-ring features are dropped from the snapshot.
	require.Len(t, polygons, 1)
	assert.Equal(t, "urn:oid:2.49.0.1.840.0.tor-1", polygons[0].ID)
	assert.Equal(t, domain.TornadoWarning, polygons[0].Event)
	require.Len(t, polygons[0].Ring, 5)
	assert.Equal(t, domain.Point{Lon: -95.30, Lat: 36.40}, polygons[0].Ring[0])
	assert.Equal(t, polygons[0].Ring[0], polygons[0].Ring[4])
}

func TestClient_AlertsAtPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		assert.Equal(t, "36.4400,-95.2800", r.URL.Query().Get("point"))

		_, _ = w.Write([]byte(activeAlertsBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	alerts, err := c.AlertsAtPoint(context.Background(), domain.Point{Lon: -95.28, Lat: 36.44})

	require.NoError(t, err)
	// Point queries keep geometry-less alerts; the API filtered spatially.
	require.Len(t, alerts, 3)
	assert.Equal(t, domain.TornadoWatch, alerts[1].Event)
	assert.Nil(t, alerts[1].Ring)
}

func TestClient_AlertsByZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active/zone/OKZ062", r.URL.Path)
		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	alerts, err := c.AlertsByZone(context.Background(), "OKZ062")

	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestClient_ResolveZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/points/36.4400,-95.2800", r.URL.Path)
		_, _ = w.Write([]byte(`{"properties":{"forecastZone":"https://api.weather.gov/zones/forecast/OKZ062"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	zone, err := c.ResolveZone(context.Background(), domain.Point{Lon: -95.28, Lat: 36.44})

	require.NoError(t, err)
	assert.Equal(t, "OKZ062", zone)
}

func TestClient_ResolveZone_NoZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ResolveZone(context.Background(), domain.Point{Lon: -95.28, Lat: 36.44})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no forecast zone")
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ActiveWarnings(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features": [`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ActiveWarnings(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode alerts response")
}
