package domain

import "math"

// Magnitude color ladder, highest severity first. Bands use inclusive lower
// bounds: a 6.0 event belongs to the deep red band, not the 5.x band.
// Colors are the ColorBrewer YlOrRd ramp.
var colorBands = []struct {
	min   float64
	color string
}{
	{6, "#8B0000"}, // deep red
	{5, "#E31A1C"}, // red
	{4, "#FC4E2A"}, // orange-red
	{3, "#FD8D3C"}, // orange
	{2, "#FEB24C"}, // amber
	{1, "#FED976"}, // pale yellow
}

// colorFloor is the palest band, used below magnitude 1 and for events
// with no usable magnitude.
const colorFloor = "#FFEDA0"

// minRadius keeps every marker visible regardless of magnitude.
const minRadius = 3.0

// ColorForMagnitude maps a magnitude to its display fill color. First
// matching band wins; nil and NaN fall to the palest band. Total: never
// returns an empty string.
func ColorForMagnitude(m *float64) string {
	if m == nil || math.IsNaN(*m) {
		return colorFloor
	}
	for _, band := range colorBands {
		if *m >= band.min {
			return band.color
		}
	}
	return colorFloor
}

// RadiusForMagnitude maps a magnitude to a display radius in pixels:
// max(3, m*3.5). nil and NaN yield the floor. Monotonically non-decreasing.
func RadiusForMagnitude(m *float64) float64 {
	if m == nil || math.IsNaN(*m) {
		return minRadius
	}
	return math.Max(minRadius, *m*3.5)
}
