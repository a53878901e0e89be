package domain

// Bounds is the minimal geographic rectangle covering a visible set.
type Bounds struct {
	SouthWest Geo `json:"south_west"`
	NorthEast Geo `json:"north_east"`
}

// FitPadding is the fixed pixel margin applied around fitted bounds.
const FitPadding = 50

// FitRequest asks the render collaborator to pan/zoom so the bounds are
// fully in view.
type FitRequest struct {
	Bounds
	Padding int `json:"padding"`
}

// BoundsFor computes the bounding rectangle of the given events. Returns
// false for an empty set: no fit is requested and the last view persists.
func BoundsFor(events []SeismicEvent) (Bounds, bool) {
	if len(events) == 0 {
		return Bounds{}, false
	}

	b := Bounds{
		SouthWest: Geo{Lat: events[0].Lat, Lon: events[0].Lon},
		NorthEast: Geo{Lat: events[0].Lat, Lon: events[0].Lon},
	}
	for _, e := range events[1:] {
		if e.Lat < b.SouthWest.Lat {
			b.SouthWest.Lat = e.Lat
		}
		if e.Lat > b.NorthEast.Lat {
			b.NorthEast.Lat = e.Lat
		}
		if e.Lon < b.SouthWest.Lon {
			b.SouthWest.Lon = e.Lon
		}
		if e.Lon > b.NorthEast.Lon {
			b.NorthEast.Lon = e.Lon
		}
	}
	return b, true
}

// FitFor wraps BoundsFor with the fixed padding margin.
func FitFor(events []SeismicEvent) (FitRequest, bool) {
	b, ok := BoundsFor(events)
	if !ok {
		return FitRequest{}, false
	}
	return FitRequest{Bounds: b, Padding: FitPadding}, true
}

// FitForMarkers computes a fit request from already-encoded markers, used
// to center newly attached render clients on the current view.
func FitForMarkers(markers []Marker) (FitRequest, bool) {
	if len(markers) == 0 {
		return FitRequest{}, false
	}
	events := make([]SeismicEvent, len(markers))
	for i, m := range markers {
		events[i] = SeismicEvent{Lat: m.Lat, Lon: m.Lon}
	}
	return FitFor(events)
}
