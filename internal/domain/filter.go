package domain

import (
	"strings"
	"sync"
)

// Matches reports whether a single event passes the criteria: magnitude at
// least MinMagnitude (nil treated as 0) and, when PlaceSubstring is set, a
// case-insensitive substring match on the place text.
func (c FilterCriteria) Matches(e SeismicEvent) bool {
	mag := 0.0
	if e.Magnitude != nil {
		mag = *e.Magnitude
	}
	if mag < c.MinMagnitude {
		return false
	}
	if c.PlaceSubstring == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Place), strings.ToLower(c.PlaceSubstring))
}

// VisibleEvents derives the visible subset of events under the criteria,
// preserving feed order. Pure: identical inputs produce identical output.
func VisibleEvents(events []SeismicEvent, criteria FilterCriteria) []SeismicEvent {
	visible := make([]SeismicEvent, 0, len(events))
	for _, e := range events {
		if criteria.Matches(e) {
			visible = append(visible, e)
		}
	}
	return visible
}

// FilterEngine memoizes VisibleEvents on the identity of its two inputs:
// the events generation (bumped whenever the store replaces the slice) and
// the criteria value. The cache is an optimization only; output is always
// exactly VisibleEvents(events, criteria).
type FilterEngine struct {
	mu           sync.Mutex
	lastGen      uint64
	lastCriteria FilterCriteria
	lastVisible  []SeismicEvent
	primed       bool
}

// NewFilterEngine returns an empty engine.
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{}
}

// Visible returns the visible subset and whether it differs from the
// previous call's result. The changed flag lets the caller fit the viewport
// once per visible-set change instead of on every recomputation.
func (f *FilterEngine) Visible(events []SeismicEvent, gen uint64, criteria FilterCriteria) ([]SeismicEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.primed && gen == f.lastGen && criteria == f.lastCriteria {
		return f.lastVisible, false
	}

	visible := VisibleEvents(events, criteria)
	changed := !f.primed || !sameEvents(visible, f.lastVisible)
	f.lastGen = gen
	f.lastCriteria = criteria
	f.lastVisible = visible
	f.primed = true
	return visible, changed
}

// sameEvents reports whether two visible sets hold the same events in the
// same order, compared by ID.
func sameEvents(a, b []SeismicEvent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
