// Package usgs fetches and normalizes the USGS earthquake summary feeds.
// One request maps one time window to a typed event collection; feed
// failures surface as domain.NetworkError or domain.ParseError, while
// individual unusable records are dropped rather than failing the batch.
package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/quakesight/quake-map-service/internal/domain"
	"github.com/quakesight/quake-map-service/internal/observability"
)

// feedFiles maps each time range to its fixed summary feed file.
var feedFiles = map[domain.TimeRange]string{
	domain.RangeDay:   "all_day.geojson",
	domain.RangeWeek:  "all_week.geojson",
	domain.RangeMonth: "all_month.geojson",
}

// Client fetches seismic events over HTTP. All requests run through a
// circuit breaker so refresh storms cannot hammer the feed while it is down.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "usgs-feed",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchEvents retrieves the feed for the given time range and normalizes it
// into typed events. Pure request-to-collection mapping: no side effects
// beyond the network call and drop metrics.
func (c *Client) FetchEvents(ctx context.Context, timeRange domain.TimeRange) ([]domain.SeismicEvent, error) {
	file, ok := feedFiles[timeRange]
	if !ok {
		return nil, fmt.Errorf("no feed endpoint for time range %q", timeRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+file, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &domain.NetworkError{StatusCode: resp.StatusCode}
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, &domain.ParseError{Err: err}
	}
	if fc.Type != "FeatureCollection" || fc.Features == nil {
		return nil, &domain.ParseError{Err: errors.New("missing feature collection")}
	}

	events := make([]domain.SeismicEvent, 0, len(fc.Features))
	dropped := 0
	for _, raw := range fc.Features {
		event, ok := parseFeature(raw)
		if !ok {
			dropped++
			continue
		}
		events = append(events, event)
	}

	if dropped > 0 {
		c.metrics.RecordsDropped.Add(float64(dropped))
		c.logger.Debug("dropped feed records without usable coordinates",
			"range", timeRange, "dropped", dropped, "kept", len(events))
	}

	return events, nil
}

// parseFeature normalizes a single GeoJSON feature. Returns false for
// records without usable coordinates; malformed numeric fields coerce to
// nil instead of failing the batch.
func parseFeature(raw json.RawMessage) (domain.SeismicEvent, bool) {
	var f feature
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.SeismicEvent{}, false
	}
	if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 {
		return domain.SeismicEvent{}, false
	}

	lonPtr, latPtr := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if latPtr == nil || lonPtr == nil {
		return domain.SeismicEvent{}, false
	}
	lat, lon := *latPtr, *lonPtr
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.SeismicEvent{}, false
	}

	var depth *float64
	if len(f.Geometry.Coordinates) > 2 && f.Geometry.Coordinates[2] != nil {
		depth = f.Geometry.Coordinates[2]
	}

	return domain.SeismicEvent{
		ID:         f.ID,
		Lat:        lat,
		Lon:        lon,
		DepthKm:    depth,
		Magnitude:  f.Properties.Mag,
		Place:      f.Properties.Place,
		OccurredAt: time.UnixMilli(f.Properties.Time).UTC(),
		DetailURL:  f.Properties.URL,
	}, true
}

// USGS GeoJSON response types.

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place string   `json:"place"`
		Time  int64    `json:"time"` // epoch milliseconds
		URL   string   `json:"url"`
	} `json:"properties"`
	Geometry *struct {
		Coordinates []*float64 `json:"coordinates"` // [lon, lat, depth]
	} `json:"geometry"`
}
