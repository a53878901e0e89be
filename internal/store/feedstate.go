// Package store holds the in-memory feed state: the latest fetched event
// collection plus the request lifecycle status. The poll controller is the
// only writer; the HTTP API and WebSocket handlers take consistent
// snapshots for reads.
package store

import (
	"sync"

	"github.com/quakesight/quake-map-service/internal/domain"
)

// Snapshot is a consistent read of the feed state. The events slice is
// shared but treated as immutable: each successful fetch replaces it
// wholesale and bumps the generation.
type Snapshot struct {
	Events       []domain.SeismicEvent
	Generation   uint64
	Status       domain.FeedStatus
	ErrorMessage string
	TimeRange    domain.TimeRange
}

// FeedState owns the fetched events and request status.
type FeedState struct {
	mu           sync.RWMutex
	events       []domain.SeismicEvent
	generation   uint64
	status       domain.FeedStatus
	errorMessage string
	timeRange    domain.TimeRange
}

// New creates an empty FeedState in the Idle status for the given range.
func New(timeRange domain.TimeRange) *FeedState {
	return &FeedState{
		status:    domain.StatusIdle,
		timeRange: timeRange,
	}
}

// SetLoading marks a fetch cycle as in flight. Events are untouched so
// stale data stays visible while loading.
func (s *FeedState) SetLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = domain.StatusLoading
}

// ReplaceEvents swaps the event collection wholesale and bumps the
// generation. An event absent from the new collection is gone, even if it
// was displayed before. Status is settled separately by the controller,
// which knows whether another request is still in flight.
func (s *FeedState) ReplaceEvents(events []domain.SeismicEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	s.generation++
}

// SettleStatus records the outcome of the latest applied fetch cycle.
// Idle clears the error message; Error keeps events unchanged so the last
// successful data remains displayable underneath the error.
func (s *FeedState) SettleStatus(status domain.FeedStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.errorMessage = message
}

// SetTimeRange switches the feed window used by subsequent fetches.
func (s *FeedState) SetTimeRange(r domain.TimeRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeRange = r
}

// TimeRange returns the currently selected feed window.
func (s *FeedState) TimeRange() domain.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeRange
}

// Status returns the current lifecycle status.
func (s *FeedState) Status() domain.FeedStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a consistent view of the state. Never observed
// mid-update: all writes hold the same lock.
func (s *FeedState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Events:       s.events,
		Generation:   s.generation,
		Status:       s.status,
		ErrorMessage: s.errorMessage,
		TimeRange:    s.timeRange,
	}
}
