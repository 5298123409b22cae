package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the report service.
type Metrics struct {
	ReportsSubmitted    prometheus.Counter
	SubmissionsRefused  *prometheus.CounterVec // labels: reason={invalid_input,duplicate}
	TriageTransitions   *prometheus.CounterVec // labels: transition={approve,reject,resolve}
	TriageRefusals      *prometheus.CounterVec // labels: reason={not_found,not_authority,wrong_status}
	NotificationsStored prometheus.Counter

	// Event stream metrics.
	EventsPublished    prometheus.Counter
	EventPublishErrors prometheus.Counter

	// External lookup metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram
	WeatherRequests *prometheus.CounterVec // labels: outcome={success,error,fallback}
	WeatherDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "reports_submitted_total",
			Help:      "Total reports accepted into the pending state.",
		}),
		SubmissionsRefused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "submissions_refused_total",
			Help:      "Submissions refused before a report was created, by reason.",
		}, []string{"reason"}),
		TriageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "triage_transitions_total",
			Help:      "Successful lifecycle transitions by kind.",
		}, []string{"transition"}),
		TriageRefusals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "triage_refusals_total",
			Help:      "Refused triage attempts by reason.",
		}, []string{"reason"}),
		NotificationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "notifications_stored_total",
			Help:      "Notifications delivered to user inboxes.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "events_published_total",
			Help:      "Lifecycle events published to the event stream.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "event_publish_errors_total",
			Help:      "Failed event stream publishes.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "civicfix",
			Name:      "geocode_duration_seconds",
			Help:      "Reverse geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicfix",
			Name:      "weather_requests_total",
			Help:      "Weather lookups by outcome.",
		}, []string{"outcome"}),
		WeatherDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "civicfix",
			Name:      "weather_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.SubmissionsRefused,
		m.TriageTransitions,
		m.TriageRefusals,
		m.NotificationsStored,
		m.EventsPublished,
		m.EventPublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.WeatherRequests,
		m.WeatherDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsSubmitted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "civicfix", Name: "reports_submitted_total"}),
		SubmissionsRefused:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "civicfix", Name: "submissions_refused_total"}, []string{"reason"}),
		TriageTransitions:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "civicfix", Name: "triage_transitions_total"}, []string{"transition"}),
		TriageRefusals:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "civicfix", Name: "triage_refusals_total"}, []string{"reason"}),
		NotificationsStored: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "civicfix", Name: "notifications_stored_total"}),
		EventsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "civicfix", Name: "events_published_total"}),
		EventPublishErrors:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "civicfix", Name: "event_publish_errors_total"}),
		GeocodeRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "civicfix", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "civicfix", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "civicfix", Name: "geocode_duration_seconds"}),
		WeatherRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "civicfix", Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "civicfix", Name: "weather_duration_seconds"}),
	}
}
