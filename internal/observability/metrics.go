package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the alert engine.
type Metrics struct {
	SweepsTotal   *prometheus.CounterVec // labels: outcome={completed,source_unavailable}
	SweepDuration prometheus.Histogram
	SweepRunning  prometheus.Gauge

	PolygonsFetched prometheus.Histogram
	UsersChecked    prometheus.Histogram
	PingsEvaluated  prometheus.Histogram

	NotificationsSent *prometheus.CounterVec // labels: kind={personal,family}
	DispatchErrors    *prometheus.CounterVec // labels: kind={personal,family}
	LookupErrors      prometheus.Counter
	LedgerConflicts   prometheus.Counter

	// Alert source metrics.
	AlertFetchRequests *prometheus.CounterVec   // labels: query={active,point,zone,resolve_zone}, outcome={success,error}
	AlertFetchDuration *prometheus.HistogramVec // labels: query
	ZoneCache          *prometheus.CounterVec   // labels: result={hit,miss,error}
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SweepsTotal,
		m.SweepDuration,
		m.SweepRunning,
		m.PolygonsFetched,
		m.UsersChecked,
		m.PingsEvaluated,
		m.NotificationsSent,
		m.DispatchErrors,
		m.LookupErrors,
		m.LedgerConflicts,
		m.AlertFetchRequests,
		m.AlertFetchDuration,
		m.ZoneCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "sweeps_total",
			Help:      "Completed and aborted sweep executions by outcome.",
		}, []string{"outcome"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_alert",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a complete sweep (fetch, personal, family).",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SweepRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_alert",
			Name:      "sweep_running",
			Help:      "1 while a sweep is executing, 0 between sweeps.",
		}),
		PolygonsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_alert",
			Name:      "polygons_fetched",
			Help:      "Active warning polygons in the per-sweep snapshot.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		UsersChecked: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_alert",
			Name:      "users_checked",
			Help:      "Users with active devices processed by the personal sweep.",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000},
		}),
		PingsEvaluated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_alert",
			Name:      "pings_evaluated",
			Help:      "Recent location pings evaluated by the family sweep.",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000},
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "notifications_sent_total",
			Help:      "Successfully dispatched notifications by kind.",
		}, []string{"kind"}),
		DispatchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "dispatch_errors_total",
			Help:      "Failed dispatch attempts by kind.",
		}, []string{"kind"}),
		LookupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "lookup_errors_total",
			Help:      "Repository lookups that failed and skipped one item.",
		}),
		LedgerConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "ledger_conflicts_total",
			Help:      "Ledger uniqueness hits treated as already-notified.",
		}),
		AlertFetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "alert_fetch_requests_total",
			Help:      "NWS API requests by query type and outcome.",
		}, []string{"query", "outcome"}),
		AlertFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storm_alert",
			Name:      "alert_fetch_duration_seconds",
			Help:      "NWS API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 60},
		}, []string{"query"}),
		ZoneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_alert",
			Name:      "zone_cache_total",
			Help:      "Forecast-zone cache lookups by result.",
		}, []string{"result"}),
	}
}
