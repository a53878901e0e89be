package domain

import (
	"fmt"
	"time"
)

// TimeRange selects which feed window to poll.
type TimeRange string

const (
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
)

// ParseTimeRange validates a user-supplied range value.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case RangeDay, RangeWeek, RangeMonth:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// FeedStatus is the current state of the fetch lifecycle. Exactly one
// status holds at a time.
type FeedStatus string

const (
	StatusIdle    FeedStatus = "idle"
	StatusLoading FeedStatus = "loading"
	StatusError   FeedStatus = "error"
)

// SeismicEvent is a single geotagged reading from the feed. Immutable once
// fetched; the ID is stable across refreshes for the same occurrence.
type SeismicEvent struct {
	ID         string    `json:"id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	DepthKm    *float64  `json:"depth_km,omitempty"`
	Magnitude  *float64  `json:"magnitude,omitempty"` // nil when under review
	Place      string    `json:"place"`
	OccurredAt time.Time `json:"occurred_at"`
	DetailURL  string    `json:"detail_url,omitempty"`
}

// FilterCriteria narrows the visible set. Mutated only by direct user
// input, never by the fetch cycle.
type FilterCriteria struct {
	MinMagnitude   float64
	PlaceSubstring string
}

// DefaultFilterCriteria returns the startup criteria: everything visible.
func DefaultFilterCriteria() FilterCriteria {
	return FilterCriteria{MinMagnitude: 0, PlaceSubstring: ""}
}

// Geo is a WGS-84 latitude/longitude pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Marker is a render-ready event: location plus visual encoding and the
// click-through payload for the map widget.
type Marker struct {
	ID           string   `json:"id"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	DepthKm      *float64 `json:"depth_km,omitempty"`
	Magnitude    *float64 `json:"magnitude,omitempty"`
	Place        string   `json:"place"`
	OccurredAtMs int64    `json:"occurred_at_ms"`
	DetailURL    string   `json:"detail_url,omitempty"`
	Color        string   `json:"color"`
	Radius       float64  `json:"radius"`
}

// MarkerFor encodes a single event for display.
func MarkerFor(e SeismicEvent) Marker {
	return Marker{
		ID:           e.ID,
		Lat:          e.Lat,
		Lon:          e.Lon,
		DepthKm:      e.DepthKm,
		Magnitude:    e.Magnitude,
		Place:        e.Place,
		OccurredAtMs: e.OccurredAt.UnixMilli(),
		DetailURL:    e.DetailURL,
		Color:        ColorForMagnitude(e.Magnitude),
		Radius:       RadiusForMagnitude(e.Magnitude),
	}
}

// MarkersFor encodes a visible set in order.
func MarkersFor(events []SeismicEvent) []Marker {
	markers := make([]Marker, len(events))
	for i, e := range events {
		markers[i] = MarkerFor(e)
	}
	return markers
}

// EventView is one full render frame: feed status plus the encoded visible
// set. Sent to the render collaborator and returned by the view API.
type EventView struct {
	Status       FeedStatus `json:"status"`
	ErrorMessage string     `json:"error,omitempty"`
	TimeRange    TimeRange  `json:"range"`
	TotalEvents  int        `json:"total"`
	Markers      []Marker   `json:"markers"`
}
