// Command genmock writes a synthetic USGS-style GeoJSON summary feed to a
// file, for offline development against a local file server instead of the
// live USGS endpoint. A small fraction of records carry null magnitudes and
// malformed coordinates so the parser's tolerance paths get exercised too.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/all_day.geojson -count 200 -seed 7
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/goccy/go-json"
)

type feed struct {
	Type     string    `json:"type"`
	Metadata metadata  `json:"metadata"`
	Features []feature `json:"features"`
}

type metadata struct {
	Generated int64  `json:"generated"`
	Title     string `json:"title"`
	Count     int    `json:"count"`
}

type feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Mag    *float64 `json:"mag"`
	Place  string   `json:"place"`
	Time   int64    `json:"time"`
	URL    string   `json:"url"`
	Detail string   `json:"detail"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates []*float64 `json:"coordinates"`
}

var places = []string{
	"10km NE of Ridgecrest, CA",
	"52km SSW of Adak, Alaska",
	"near the east coast of Honshu, Japan",
	"South Sandwich Islands region",
	"77km W of Petrolia, CA",
	"Kermadec Islands, New Zealand",
	"15km N of Pahala, Hawaii",
	"off the coast of Oregon",
	"Puerto Rico region",
	"central Mid-Atlantic Ridge",
}

func main() {
	out := flag.String("out", "all_day.geojson", "output file path")
	count := flag.Int("count", 100, "number of feature records")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if err := run(*out, *count, *seed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d records to %s (seed %d)\n", *count, *out, *seed)
}

func run(out string, count int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now()

	features := make([]feature, 0, count)
	for i := 0; i < count; i++ {
		features = append(features, makeFeature(rng, now, i))
	}

	doc := feed{
		Type: "FeatureCollection",
		Metadata: metadata{
			Generated: now.UnixMilli(),
			Title:     "Synthetic feed, all earthquakes, past day",
			Count:     count,
		},
		Features: features,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func makeFeature(rng *rand.Rand, now time.Time, i int) feature {
	lat := rng.Float64()*170 - 85
	lon := rng.Float64()*360 - 180
	depth := rng.Float64() * 600

	// Skew toward small quakes, the way real feeds look.
	mag := rng.Float64() * rng.Float64() * 8

	var magPtr *float64
	if rng.Float64() >= 0.05 {
		magPtr = &mag
	}

	coords := []*float64{&lon, &lat, &depth}
	if rng.Float64() < 0.02 {
		// Occasionally drop the geometry so the parser's
		// per-record tolerance gets exercised.
		coords = []*float64{&lon}
	}

	id := fmt.Sprintf("mock%08d", i)
	occurred := now.Add(-time.Duration(rng.Int63n(int64(24 * time.Hour))))

	return feature{
		Type: "Feature",
		ID:   id,
		Properties: properties{
			Mag:    magPtr,
			Place:  places[rng.Intn(len(places))],
			Time:   occurred.UnixMilli(),
			URL:    "https://earthquake.usgs.gov/earthquakes/eventpage/" + id,
			Detail: "https://earthquake.usgs.gov/earthquakes/feed/v1.0/detail/" + id + ".geojson",
		},
		Geometry: geometry{
			Type:        "Point",
			Coordinates: coords,
		},
	}
}
