// Command feedcheck fetches one USGS summary feed and prints a data
// integrity report: record counts, magnitude color-band distribution, and
// the bounding rectangle of the usable records. Useful for eyeballing feed
// health and parser behavior without running the full service.
//
// Usage:
//
//	go run ./cmd/feedcheck -range day
//	go run ./cmd/feedcheck -range month -base-url http://localhost:9999/feeds
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/quakesight/quake-map-service/internal/adapter/usgs"
	"github.com/quakesight/quake-map-service/internal/domain"
	"github.com/quakesight/quake-map-service/internal/observability"
)

func main() {
	rangeFlag := flag.String("range", "day", "feed window: day, week, or month")
	baseURL := flag.String("base-url", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary", "feed base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	timeRange, err := domain.ParseTimeRange(*rangeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if code := run(timeRange, *baseURL, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(timeRange domain.TimeRange, baseURL string, timeout time.Duration) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := usgs.NewClient(baseURL, timeout, logger, observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	events, err := client.FetchEvents(ctx, timeRange)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		return 1
	}

	fmt.Printf("feed:     %s\n", timeRange)
	fmt.Printf("fetched:  %d events in %s\n", len(events), time.Since(start).Round(time.Millisecond))

	if len(events) == 0 {
		return 0
	}

	// Distribution across the display color bands.
	bands := map[string]int{}
	nullMags := 0
	for _, e := range events {
		if e.Magnitude == nil {
			nullMags++
		}
		bands[domain.ColorForMagnitude(e.Magnitude)]++
	}
	fmt.Println("color bands:")
	for _, band := range []struct {
		label string
		color string
	}{
		{"mag >= 6", "#8B0000"},
		{"mag >= 5", "#E31A1C"},
		{"mag >= 4", "#FC4E2A"},
		{"mag >= 3", "#FD8D3C"},
		{"mag >= 2", "#FEB24C"},
		{"mag >= 1", "#FED976"},
		{"below 1 ", "#FFEDA0"},
	} {
		fmt.Printf("  %s  %s  %d\n", band.label, band.color, bands[band.color])
	}
	fmt.Printf("null magnitudes: %d\n", nullMags)

	if b, ok := domain.BoundsFor(events); ok {
		fmt.Printf("bounds:   SW(%.3f, %.3f) NE(%.3f, %.3f)\n",
			b.SouthWest.Lat, b.SouthWest.Lon, b.NorthEast.Lat, b.NorthEast.Lon)
	}

	return 0
}
