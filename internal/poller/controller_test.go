package poller_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakesight/quake-map-service/internal/domain"
	"github.com/quakesight/quake-map-service/internal/observability"
	"github.com/quakesight/quake-map-service/internal/poller"
	"github.com/quakesight/quake-map-service/internal/store"
)

// --- mocks ---

type feedCall struct {
	events []domain.SeismicEvent
	err    error
	gate   <-chan struct{} // when set, the call blocks until the gate closes
}

// scriptedFeed returns queued responses in call order and records the
// requested ranges.
type scriptedFeed struct {
	mu     sync.Mutex
	script []feedCall
	ranges []domain.TimeRange
}

func (f *scriptedFeed) FetchEvents(ctx context.Context, timeRange domain.TimeRange) ([]domain.SeismicEvent, error) {
	f.mu.Lock()
	f.ranges = append(f.ranges, timeRange)
	if len(f.script) == 0 {
		f.mu.Unlock()
		return nil, errors.New("unscripted feed call")
	}
	call := f.script[0]
	f.script = f.script[1:]
	f.mu.Unlock()

	if call.gate != nil {
		select {
		case <-call.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return call.events, call.err
}

func (f *scriptedFeed) push(calls ...feedCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, calls...)
}

func (f *scriptedFeed) requestedRanges() []domain.TimeRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TimeRange(nil), f.ranges...)
}

type mockRenderer struct {
	frames chan domain.EventView
	fits   chan domain.FitRequest
}

func newMockRenderer() *mockRenderer {
	return &mockRenderer{
		frames: make(chan domain.EventView, 64),
		fits:   make(chan domain.FitRequest, 64),
	}
}

func (m *mockRenderer) RenderEvents(view domain.EventView) { m.frames <- view }
func (m *mockRenderer) FitBounds(req domain.FitRequest)    { m.fits <- req }

// awaitFrame consumes frames until one satisfies the condition.
func (m *mockRenderer) awaitFrame(t *testing.T, cond func(domain.EventView) bool) domain.EventView {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case view := <-m.frames:
			if cond(view) {
				return view
			}
		case <-deadline:
			t.Fatal("timed out waiting for render frame")
			return domain.EventView{}
		}
	}
}

func (m *mockRenderer) awaitFit(t *testing.T) domain.FitRequest {
	t.Helper()
	select {
	case fit := <-m.fits:
		return fit
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fit request")
		return domain.FitRequest{}
	}
}

func (m *mockRenderer) drainFits() {
	for {
		select {
		case <-m.fits:
		default:
			return
		}
	}
}

func idle(v domain.EventView) bool    { return v.Status == domain.StatusIdle }
func errored(v domain.EventView) bool { return v.Status == domain.StatusError }

func sampleEvents() []domain.SeismicEvent {
	m1, m2 := 6.2, 3.1
	return []domain.SeismicEvent{
		{ID: "a", Lat: 35, Lon: 139, Magnitude: &m1, Place: "50km E of Tokyo, Japan"},
		{ID: "b", Lat: 34, Lon: -118, Magnitude: &m2, Place: "Ridgecrest, CA"},
	}
}

func startController(t *testing.T, feed poller.FeedClient) (*poller.Controller, *mockRenderer, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	renderer := newMockRenderer()
	state := store.New(domain.RangeDay)
	ctrl := poller.New(feed, renderer, state, slog.Default(),
		observability.NewMetricsForTesting(), clock, 5*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ctrl.Run(ctx) }()

	return ctrl, renderer, clock
}

// --- tests ---

func TestController_StartupFetch(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(feedCall{events: sampleEvents()})

	ctrl, renderer, _ := startController(t, feed)

	view := renderer.awaitFrame(t, idle)
	assert.Equal(t, 2, view.TotalEvents)
	require.Len(t, view.Markers, 2)
	assert.Equal(t, "a", view.Markers[0].ID)
	assert.Equal(t, "#8B0000", view.Markers[0].Color)
	assert.Empty(t, view.ErrorMessage)

	fit := renderer.awaitFit(t)
	assert.Equal(t, domain.Geo{Lat: 34, Lon: -118}, fit.SouthWest)
	assert.Equal(t, domain.Geo{Lat: 35, Lon: 139}, fit.NorthEast)
	assert.Equal(t, domain.FitPadding, fit.Padding)

	assert.NoError(t, ctrl.CheckReadiness(context.Background()))
}

func TestController_TimerTickRefetches(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(feedCall{events: sampleEvents()})

	_, renderer, clock := startController(t, feed)
	renderer.awaitFrame(t, idle)

	feed.push(feedCall{events: sampleEvents()[:1]})
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(5 * time.Minute)

	view := renderer.awaitFrame(t, func(v domain.EventView) bool {
		return v.Status == domain.StatusIdle && v.TotalEvents == 1
	})
	assert.Len(t, view.Markers, 1)
	assert.Len(t, feed.requestedRanges(), 2)
}

func TestController_FailureRetainsStaleEvents(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(
		feedCall{events: sampleEvents()},
		feedCall{err: &domain.NetworkError{StatusCode: 503}},
	)

	ctrl, renderer, _ := startController(t, feed)
	renderer.awaitFrame(t, idle)

	ctrl.Refresh()

	view := renderer.awaitFrame(t, errored)
	assert.NotEmpty(t, view.ErrorMessage)
	assert.Contains(t, view.ErrorMessage, "503")
	assert.Equal(t, 2, view.TotalEvents, "stale events stay displayable under the error")
	assert.Len(t, view.Markers, 2)
	assert.Equal(t, domain.StatusError, ctrl.Status())
}

func TestController_RetryAfterFailure(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(feedCall{err: &domain.NetworkError{StatusCode: 503}})

	ctrl, renderer, _ := startController(t, feed)
	renderer.awaitFrame(t, errored)
	assert.Error(t, ctrl.CheckReadiness(context.Background()), "not ready before a successful fetch")

	feed.push(feedCall{events: sampleEvents()})
	ctrl.Retry()

	view := renderer.awaitFrame(t, idle)
	assert.Empty(t, view.ErrorMessage)
	assert.Equal(t, 2, view.TotalEvents)
	assert.NoError(t, ctrl.CheckReadiness(context.Background()))
}

func TestController_TimeRangeChange(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(feedCall{events: sampleEvents()})

	ctrl, renderer, _ := startController(t, feed)
	renderer.awaitFrame(t, idle)

	feed.push(feedCall{events: sampleEvents()[:1]})
	ctrl.SetTimeRange(domain.RangeWeek)

	view := renderer.awaitFrame(t, func(v domain.EventView) bool {
		return v.Status == domain.StatusIdle && v.TimeRange == domain.RangeWeek
	})
	assert.Equal(t, 1, view.TotalEvents)
	assert.Equal(t, []domain.TimeRange{domain.RangeDay, domain.RangeWeek}, feed.requestedRanges())
}

func TestController_FilterChange(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(feedCall{events: sampleEvents()})

	ctrl, renderer, _ := startController(t, feed)
	renderer.awaitFrame(t, idle)
	renderer.drainFits()

	t.Run("magnitude filter narrows the visible set", func(t *testing.T) {
		ctrl.SetFilter(domain.FilterCriteria{MinMagnitude: 4})

		view := renderer.awaitFrame(t, func(v domain.EventView) bool { return len(v.Markers) == 1 })
		assert.Equal(t, "a", view.Markers[0].ID)
		assert.Equal(t, 2, view.TotalEvents, "total reflects the feed, not the filter")

		fit := renderer.awaitFit(t)
		assert.Equal(t, domain.Geo{Lat: 35, Lon: 139}, fit.SouthWest)
	})

	t.Run("place filter matches case-insensitively", func(t *testing.T) {
		ctrl.SetFilter(domain.FilterCriteria{PlaceSubstring: "japan"})

		view := renderer.awaitFrame(t, func(v domain.EventView) bool {
			return len(v.Markers) == 1 && v.Markers[0].Place == "50km E of Tokyo, Japan"
		})
		assert.NotNil(t, view)
	})

	t.Run("filtering everything out issues no fit", func(t *testing.T) {
		renderer.drainFits()
		ctrl.SetFilter(domain.FilterCriteria{MinMagnitude: 9})

		renderer.awaitFrame(t, func(v domain.EventView) bool { return len(v.Markers) == 0 })
		select {
		case <-renderer.fits:
			t.Fatal("no fit request expected for an empty visible set")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("unchanged criteria do not refit", func(t *testing.T) {
		ctrl.SetFilter(domain.FilterCriteria{MinMagnitude: 9})

		renderer.awaitFrame(t, func(v domain.EventView) bool { return len(v.Markers) == 0 })
		select {
		case <-renderer.fits:
			t.Fatal("no fit request expected when the visible set did not change")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestController_StaleResponseDiscarded(t *testing.T) {
	slowGate := make(chan struct{})
	feed := &scriptedFeed{}
	slowEvents := []domain.SeismicEvent{{ID: "slow-old", Lat: 1, Lon: 1}}
	fastEvents := []domain.SeismicEvent{{ID: "fast-new", Lat: 2, Lon: 2}}
	feed.push(
		feedCall{events: slowEvents, gate: slowGate},
		feedCall{events: fastEvents},
	)

	ctrl, renderer, _ := startController(t, feed)

	// The startup fetch is stuck; a manual refresh races past it.
	ctrl.Refresh()
	renderer.awaitFrame(t, func(v domain.EventView) bool {
		return v.TotalEvents == 1 && len(v.Markers) == 1 && v.Markers[0].ID == "fast-new"
	})

	// The older request completes last; its response must be discarded and
	// the status must settle back to idle.
	close(slowGate)
	view := renderer.awaitFrame(t, idle)
	require.Len(t, view.Markers, 1)
	assert.Equal(t, "fast-new", view.Markers[0].ID, "stale response must not overwrite newer data")
	assert.Equal(t, domain.StatusIdle, ctrl.Status())
}

func TestController_CurrentView(t *testing.T) {
	feed := &scriptedFeed{}
	feed.push(feedCall{events: sampleEvents()})

	ctrl, renderer, _ := startController(t, feed)
	renderer.awaitFrame(t, idle)

	view := ctrl.CurrentView()
	assert.Equal(t, domain.StatusIdle, view.Status)
	assert.Equal(t, domain.RangeDay, view.TimeRange)
	assert.Equal(t, 2, view.TotalEvents)
	assert.Len(t, view.Markers, 2)
}

func TestController_LoadingFrameBeforeCompletion(t *testing.T) {
	gate := make(chan struct{})
	feed := &scriptedFeed{}
	feed.push(feedCall{events: sampleEvents(), gate: gate})

	_, renderer, _ := startController(t, feed)

	view := renderer.awaitFrame(t, func(v domain.EventView) bool { return v.Status == domain.StatusLoading })
	assert.Zero(t, view.TotalEvents)

	close(gate)
	renderer.awaitFrame(t, idle)
}
