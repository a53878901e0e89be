// Package poller owns the refresh lifecycle of the live map: the startup
// fetch, the fixed-interval timer, manual refresh and retry, and time-range
// changes. It is the single writer of the feed state and the single
// recovery boundary for feed failures — no fetch error ever escapes it.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quakesight/quake-map-service/internal/domain"
	"github.com/quakesight/quake-map-service/internal/observability"
	"github.com/quakesight/quake-map-service/internal/store"
)

// FeedClient fetches a time-windowed event collection from the feed.
type FeedClient interface {
	FetchEvents(ctx context.Context, timeRange domain.TimeRange) ([]domain.SeismicEvent, error)
}

// Renderer is the render collaborator: it receives the encoded visible set
// and viewport bound-fit requests. Implementations must not block.
type Renderer interface {
	RenderEvents(view domain.EventView)
	FitBounds(req domain.FitRequest)
}

type cmdKind int

const (
	cmdRefresh cmdKind = iota
	cmdSetRange
	cmdSetFilter
)

type command struct {
	kind      cmdKind
	timeRange domain.TimeRange
	criteria  domain.FilterCriteria
}

// fetchResult carries one completed fetch back into the control loop.
// seq orders responses: the loop discards any result older than the newest
// one already applied, so a slow stale response can never overwrite fresh
// data.
type fetchResult struct {
	seq       uint64
	timeRange domain.TimeRange
	events    []domain.SeismicEvent
	err       error
	duration  time.Duration
}

type outcome struct {
	status  domain.FeedStatus
	message string
}

// Controller runs the poll loop. All feed-state transitions happen on the
// loop goroutine, so derived recomputation never observes a mid-update
// state.
type Controller struct {
	client   FeedClient
	renderer Renderer
	state    *store.FeedState
	engine   *domain.FilterEngine
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration

	cmds    chan command
	results chan fetchResult

	// Loop-goroutine-only bookkeeping.
	nextSeq     uint64
	appliedSeq  uint64
	inFlight    int
	lastOutcome outcome

	criteriaMu sync.RWMutex
	criteria   domain.FilterCriteria

	ready atomic.Bool
}

// New creates a Controller polling at the given interval. The clock is
// injectable so tests can drive the timer deterministically.
func New(
	client FeedClient,
	renderer Renderer,
	state *store.FeedState,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	interval time.Duration,
) *Controller {
	return &Controller{
		client:      client,
		renderer:    renderer,
		state:       state,
		engine:      domain.NewFilterEngine(),
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
		interval:    interval,
		cmds:        make(chan command, 16),
		results:     make(chan fetchResult, 16),
		lastOutcome: outcome{status: domain.StatusIdle},
		criteria:    domain.DefaultFilterCriteria(),
	}
}

// Run executes the poll loop until the context is cancelled: an immediate
// startup fetch, then a fetch per timer tick, interleaved with user
// commands and fetch completions.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("poll controller started",
		"interval", c.interval, "range", c.state.TimeRange())
	c.metrics.PollRunning.Set(1)
	defer c.metrics.PollRunning.Set(0)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.startFetch(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("poll controller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			// The tick is skipped while a fetch is in flight; a manual
			// trigger may still race, resolved by sequence numbers.
			if c.inFlight == 0 {
				c.startFetch(ctx)
			}
		case cmd := <-c.cmds:
			c.handleCommand(ctx, cmd)
		case res := <-c.results:
			c.applyResult(res)
		}
	}
}

// CheckReadiness returns nil once at least one fetch cycle has succeeded.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no successful feed fetch yet")
	}
	return nil
}

// Refresh triggers an immediate fetch for the current range, independent of
// the timer. The timer is neither reset nor rescheduled.
func (c *Controller) Refresh() {
	c.send(command{kind: cmdRefresh})
}

// Retry re-enters the fetch cycle after a failure. Identical transition to
// Refresh; the distinction exists only at the API surface.
func (c *Controller) Retry() {
	c.send(command{kind: cmdRefresh})
}

// SetTimeRange switches the feed window, fetches it immediately, and
// retargets subsequent timer ticks. Filter criteria are untouched.
func (c *Controller) SetTimeRange(r domain.TimeRange) {
	c.send(command{kind: cmdSetRange, timeRange: r})
}

// SetFilter replaces the filter criteria and re-renders the visible set.
// No fetch is triggered: filtering is derived state.
func (c *Controller) SetFilter(criteria domain.FilterCriteria) {
	c.send(command{kind: cmdSetFilter, criteria: criteria})
}

// Status returns the current lifecycle status.
func (c *Controller) Status() domain.FeedStatus {
	return c.state.Status()
}

// Criteria returns the current filter criteria.
func (c *Controller) Criteria() domain.FilterCriteria {
	c.criteriaMu.RLock()
	defer c.criteriaMu.RUnlock()
	return c.criteria
}

// CurrentView builds a render frame from the current state, for the view
// API and for newly connected WebSocket clients. Bypasses the filter
// engine's cache so concurrent reads never disturb change tracking.
func (c *Controller) CurrentView() domain.EventView {
	snap := c.state.Snapshot()
	visible := domain.VisibleEvents(snap.Events, c.Criteria())
	return domain.EventView{
		Status:       snap.Status,
		ErrorMessage: snap.ErrorMessage,
		TimeRange:    snap.TimeRange,
		TotalEvents:  len(snap.Events),
		Markers:      domain.MarkersFor(visible),
	}
}

func (c *Controller) send(cmd command) {
	select {
	case c.cmds <- cmd:
	default:
		c.logger.Warn("command queue full, dropping command", "kind", cmd.kind)
	}
}

func (c *Controller) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdRefresh:
		c.startFetch(ctx)
	case cmdSetRange:
		c.state.SetTimeRange(cmd.timeRange)
		c.startFetch(ctx)
	case cmdSetFilter:
		c.criteriaMu.Lock()
		c.criteria = cmd.criteria
		c.criteriaMu.Unlock()
		c.logger.Debug("filter criteria updated",
			"min_magnitude", cmd.criteria.MinMagnitude, "place", cmd.criteria.PlaceSubstring)
		c.render()
	}
}

// startFetch issues one fetch for the current range. The request runs off
// the loop goroutine; UI interaction is never blocked on the feed.
func (c *Controller) startFetch(ctx context.Context) {
	c.nextSeq++
	seq := c.nextSeq
	timeRange := c.state.TimeRange()
	c.inFlight++
	c.state.SetLoading()
	c.render()

	c.logger.Debug("fetch started", "seq", seq, "range", timeRange)

	go func() {
		start := c.clock.Now()
		events, err := c.client.FetchEvents(ctx, timeRange)
		res := fetchResult{
			seq:       seq,
			timeRange: timeRange,
			events:    events,
			err:       err,
			duration:  c.clock.Since(start),
		}
		select {
		case c.results <- res:
		case <-ctx.Done():
		}
	}()
}

// applyResult settles one completed fetch. Responses are applied in issue
// order at most once: a result older than the newest applied one is
// discarded outright.
func (c *Controller) applyResult(res fetchResult) {
	c.inFlight--
	c.metrics.FetchDuration.WithLabelValues(string(res.timeRange)).Observe(res.duration.Seconds())

	switch {
	case res.seq <= c.appliedSeq:
		c.metrics.StaleDiscards.Inc()
		c.logger.Debug("discarding stale feed response",
			"seq", res.seq, "applied_seq", c.appliedSeq)
	case res.err != nil:
		c.appliedSeq = res.seq
		c.lastOutcome = outcome{status: domain.StatusError, message: res.err.Error()}
		c.metrics.FetchesTotal.WithLabelValues(string(res.timeRange), outcomeLabel(res.err)).Inc()
		c.logger.Error("feed fetch failed", "range", res.timeRange, "error", res.err)
	default:
		c.appliedSeq = res.seq
		c.state.ReplaceEvents(res.events)
		c.lastOutcome = outcome{status: domain.StatusIdle}
		c.ready.Store(true)
		c.metrics.FetchesTotal.WithLabelValues(string(res.timeRange), "success").Inc()
		c.metrics.EventsTotal.Set(float64(len(res.events)))
		c.logger.Info("feed fetch completed",
			"range", res.timeRange, "events", len(res.events), "duration", res.duration)
	}

	// Status stays Loading while a newer request is still racing.
	if c.inFlight > 0 {
		c.state.SetLoading()
	} else {
		c.state.SettleStatus(c.lastOutcome.status, c.lastOutcome.message)
	}

	c.render()
}

// render recomputes the visible set and pushes a frame. The bounds fit runs
// once per visible-set change and never for an empty set, so the last
// fitted view persists when filters eliminate everything.
func (c *Controller) render() {
	snap := c.state.Snapshot()
	visible, changed := c.engine.Visible(snap.Events, snap.Generation, c.Criteria())
	c.metrics.EventsVisible.Set(float64(len(visible)))

	c.renderer.RenderEvents(domain.EventView{
		Status:       snap.Status,
		ErrorMessage: snap.ErrorMessage,
		TimeRange:    snap.TimeRange,
		TotalEvents:  len(snap.Events),
		Markers:      domain.MarkersFor(visible),
	})
	c.metrics.FramesBroadcast.Inc()

	if changed {
		if fit, ok := domain.FitFor(visible); ok {
			c.renderer.FitBounds(fit)
			c.metrics.ViewportFits.Inc()
		}
	}
}

func outcomeLabel(err error) string {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		return "parse_error"
	}
	return "network_error"
}
