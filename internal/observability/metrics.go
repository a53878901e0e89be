package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// live map pipeline.
type Metrics struct {
	FetchesTotal   *prometheus.CounterVec // labels: range={day,week,month}, outcome={success,network_error,parse_error}
	FetchDuration  *prometheus.HistogramVec
	StaleDiscards  prometheus.Counter
	EventsTotal    prometheus.Gauge
	EventsVisible  prometheus.Gauge
	RecordsDropped prometheus.Counter
	PollRunning    prometheus.Gauge

	// Render collaborator metrics.
	FramesBroadcast  prometheus.Counter
	ViewportFits     prometheus.Counter
	WebsocketClients prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.StaleDiscards,
		m.EventsTotal,
		m.EventsVisible,
		m.RecordsDropped,
		m.PollRunning,
		m.FramesBroadcast,
		m.ViewportFits,
		m.WebsocketClients,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "fetches_total",
			Help:      "Feed fetch attempts by time range and outcome.",
		}, []string{"range", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake_map",
			Name:      "fetch_duration_seconds",
			Help:      "Feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"range"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "stale_responses_discarded_total",
			Help:      "Feed responses discarded because a newer response was already applied.",
		}),
		EventsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_map",
			Name:      "events_total",
			Help:      "Events held from the latest successful fetch.",
		}),
		EventsVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_map",
			Name:      "events_visible",
			Help:      "Events currently passing the filter criteria.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "records_dropped_total",
			Help:      "Feed records dropped for missing or unusable coordinates.",
		}),
		PollRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_map",
			Name:      "poll_running",
			Help:      "1 when the poll controller is active, 0 when shut down.",
		}),
		FramesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "frames_broadcast_total",
			Help:      "Event frames pushed to the render collaborator.",
		}),
		ViewportFits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_map",
			Name:      "viewport_fits_total",
			Help:      "Bounds-fit requests pushed to the render collaborator.",
		}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_map",
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients.",
		}),
	}
}
