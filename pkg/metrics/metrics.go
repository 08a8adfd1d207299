// Package metrics provides Prometheus metrics for the callout engine and its HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jakechorley/timeshift/pkg/db"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// =============================================================================
// CALLOUT ENGINE
// =============================================================================

// EventsOpened counts callout events opened.
var EventsOpened = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "timeshift",
	Subsystem: "callout",
	Name:      "events_opened_total",
	Help:      "Number of callout events opened",
})

// EventsClosed counts callout events reaching a terminal status.
var EventsClosed = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeshift",
	Subsystem: "callout",
	Name:      "events_closed_total",
	Help:      "Number of callout events closed, by terminal status",
}, []string{"status"})

// Attempts counts recorded contact attempts by response.
var Attempts = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeshift",
	Subsystem: "callout",
	Name:      "attempts_total",
	Help:      "Number of callout attempts recorded, by response",
}, []string{"response"})

// AcceptConflicts counts acceptances that lost the race for an event.
// A steady rate means managers are working the same list at once.
var AcceptConflicts = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "timeshift",
	Subsystem: "callout",
	Name:      "accept_conflicts_total",
	Help:      "Number of acceptances rejected because the event was already filled",
})

// RankingDuration tracks time to compute a callout list.
var RankingDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "timeshift",
	Subsystem: "callout",
	Name:      "ranking_duration_seconds",
	Help:      "Time taken to compute a ranked callout list",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// =============================================================================
// HTTP
// =============================================================================

// HTTPRequests counts served requests by method, route pattern and status code.
var HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timeshift",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Number of HTTP requests served",
}, []string{"method", "route", "status"})

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// CalloutRecorder feeds engine events into the collectors above
type CalloutRecorder struct{}

func (CalloutRecorder) EventOpened() {
	EventsOpened.Inc()
}

func (CalloutRecorder) EventClosed(status db.CalloutStatus) {
	EventsClosed.WithLabelValues(string(status)).Inc()
}

func (CalloutRecorder) AttemptRecorded(response db.AttemptResponse) {
	Attempts.WithLabelValues(string(response)).Inc()
}

func (CalloutRecorder) AcceptConflict() {
	AcceptConflicts.Inc()
}

func (CalloutRecorder) RankingComputed(d time.Duration) {
	RankingDuration.Observe(d.Seconds())
}
