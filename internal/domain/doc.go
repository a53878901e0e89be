// Package domain models live seismic event data and the pure transforms
// applied to it before rendering.
//
// # Data Source
//
// Events originate from the USGS earthquake summary feeds at
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/, published as
// GeoJSON feature collections. Three fixed windows are consumed: all_day,
// all_week, and all_month. Each feature carries a stable ID, a place
// description, an epoch-millisecond occurrence time, a detail URL, and a
// [lon, lat, depth] coordinate triple.
//
// # Feed Conventions
//
// Magnitude ("mag" property):
//
//	Unitless severity value. May be null for events still under review;
//	null magnitudes are kept as nil and treated as 0 for filtering and as
//	below every color band for encoding.
//
// Depth (third coordinate):
//
//	Kilometers below the surface. Occasionally absent; kept as nil.
//
// Place ("place" property):
//
//	Free-text relative description, e.g. "50km E of Tokyo, Japan". May be
//	empty. Filter matching is a case-insensitive substring test.
//
// # Visual Encoding
//
// Markers use the ColorBrewer YlOrRd ladder keyed on whole magnitude bands
// (inclusive lower bounds, highest band first) and are sized as
// max(3, mag*3.5) display pixels, so even micro-quakes stay visible.
package domain
