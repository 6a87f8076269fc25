// Package nws queries the National Weather Service alert API
// (https://api.weather.gov). It is the engine's AlertSource: the per-sweep
// polygon snapshot comes from one active-alerts fetch, and point or zone
// queries exist as equivalent fallback identification strategies.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/storm-alert-engine/internal/domain"
	"github.com/couchcryptid/storm-alert-engine/internal/observability"
)

// Client implements alert queries against the NWS API.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWS alert client. userAgent must identify the
// application and a contact address per NWS API policy.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// ActiveWarnings fetches every active alert that carries polygon geometry.
// Alerts without a usable outer ring are skipped; zone-only products are
// reachable through AlertsByZone or AlertsAtPoint instead.
func (c *Client) ActiveWarnings(ctx context.Context) ([]domain.WarningPolygon, error) {
	params := url.Values{
		"status":       {"actual"},
		"message_type": {"alert"},
	}
	features, err := c.fetchAlerts(ctx, c.baseURL+"/alerts/active?"+params.Encode(), "active")
	if err != nil {
		return nil, err
	}

	polygons := make([]domain.WarningPolygon, 0, len(features))
	for _, f := range features {
		poly, ok := featureToPolygon(f)
		if !ok {
			continue
		}
		polygons = append(polygons, poly)
	}
	return polygons, nil
}

// AlertsAtPoint fetches the active alerts covering a single coordinate.
// Results may lack geometry; the point query already did the spatial filtering.
func (c *Client) AlertsAtPoint(ctx context.Context, p domain.Point) ([]domain.WarningPolygon, error) {
	u := fmt.Sprintf("%s/alerts/active?point=%.4f,%.4f", c.baseURL, p.Lat, p.Lon)
	features, err := c.fetchAlerts(ctx, u, "point")
	if err != nil {
		return nil, err
	}
	return featuresToAlerts(features), nil
}

// AlertsByZone fetches the active alerts for an NWS forecast zone.
func (c *Client) AlertsByZone(ctx context.Context, zone string) ([]domain.WarningPolygon, error) {
	u := fmt.Sprintf("%s/alerts/active/zone/%s", c.baseURL, url.PathEscape(zone))
	features, err := c.fetchAlerts(ctx, u, "zone")
	if err != nil {
		return nil, err
	}
	return featuresToAlerts(features), nil
}

// ResolveZone maps a coordinate to its NWS forecast zone identifier via the
// /points endpoint. Zones are static geography, so results cache well.
func (c *Client) ResolveZone(ctx context.Context, p domain.Point) (string, error) {
	u := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, p.Lat, p.Lon)

	start := time.Now()
	body, err := c.get(ctx, u)
	c.metrics.AlertFetchDuration.WithLabelValues("resolve_zone").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.AlertFetchRequests.WithLabelValues("resolve_zone", "error").Inc()
		return "", err
	}
	c.metrics.AlertFetchRequests.WithLabelValues("resolve_zone", "success").Inc()

	var resp pointsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode points response: %w", err)
	}
	if resp.Properties.ForecastZone == "" {
		return "", fmt.Errorf("no forecast zone for (%.4f, %.4f)", p.Lat, p.Lon)
	}

	// The property is a full URL, e.g. ".../zones/forecast/OKZ062".
	parts := strings.Split(resp.Properties.ForecastZone, "/")
	return parts[len(parts)-1], nil
}

func (c *Client) fetchAlerts(ctx context.Context, fullURL, query string) ([]alertFeature, error) {
	start := time.Now()
	body, err := c.get(ctx, fullURL)
	c.metrics.AlertFetchDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.AlertFetchRequests.WithLabelValues(query, "error").Inc()
		return nil, err
	}
	c.metrics.AlertFetchRequests.WithLabelValues(query, "success").Inc()

	var resp alertsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode alerts response: %w", err)
	}
	return resp.Features, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nws response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// featureToPolygon converts a GeoJSON alert feature into a WarningPolygon.
// Returns false when the feature has no valid closed outer ring.
func featureToPolygon(f alertFeature) (domain.WarningPolygon, bool) {
	if f.Properties.ID == "" || f.Geometry == nil || f.Geometry.Type != "Polygon" {
		return domain.WarningPolygon{}, false
	}
	if len(f.Geometry.Coordinates) == 0 {
		return domain.WarningPolygon{}, false
	}

	outer := f.Geometry.Coordinates[0]
	if len(outer) < 4 {
		return domain.WarningPolygon{}, false
	}

	ring := make([]domain.Point, 0, len(outer))
	for _, pair := range outer {
		if len(pair) != 2 {
			return domain.WarningPolygon{}, false
		}
		ring = append(ring, domain.Point{Lon: pair[0], Lat: pair[1]})
	}

	return domain.WarningPolygon{
		ID:       f.Properties.ID,
		Event:    domain.EventType(f.Properties.Event),
		Headline: f.Properties.Headline,
		Ring:     ring,
	}, true
}

// featuresToAlerts keeps every identified alert, with or without geometry.
func featuresToAlerts(features []alertFeature) []domain.WarningPolygon {
	alerts := make([]domain.WarningPolygon, 0, len(features))
	for _, f := range features {
		if f.Properties.ID == "" {
			continue
		}
		if poly, ok := featureToPolygon(f); ok {
			alerts = append(alerts, poly)
			continue
		}
		alerts = append(alerts, domain.WarningPolygon{
			ID:       f.Properties.ID,
			Event:    domain.EventType(f.Properties.Event),
			Headline: f.Properties.Headline,
		})
	}
	return alerts
}

// NWS API response types.

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	Geometry   *geometry       `json:"geometry"`
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	ID       string `json:"id"`
	Event    string `json:"event"`
	Headline string `json:"headline"`
}

type geometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"` // [ring][vertex][lon,lat]
}

type pointsResponse struct {
	Properties struct {
		ForecastZone string `json:"forecastZone"`
	} `json:"properties"`
}
