// Package metrics exposes Prometheus counters, gauges, and histograms for
// the simulation core: tick duration, shots/hits/incapacitations, and
// event-log throughput. All labels are drawn from small, fixed vocabularies
// (hit/miss outcome, rejection reason, HTTP method/route/status) — never raw character ids or
// free-form strings — to keep cardinality bounded no matter how many
// characters a scenario registers.
//
// Grounded on the teacher's internal/api/observability.go: the same
// promauto-registered global metric vars plus a localhost-only debug
// server exposing /metrics, /debug/pprof, and /health, generalized from
// game/render/websocket metrics to this domain's tick/combat vocabulary.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the standard Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent processing one GameLoop.Tick call",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	characterCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_character_count",
		Help: "Current number of registered characters",
	})

	incapacitatedCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_incapacitated_count",
		Help: "Current number of incapacitated characters",
	})

	shotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_shots_total",
		Help: "Total ranged shots fired, by outcome",
	}, []string{"outcome"}) // "hit" | "miss"

	meleeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_melee_attacks_total",
		Help: "Total melee swings resolved, by outcome",
	}, []string{"outcome"}) // "hit" | "miss"

	braveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_bravery_failures_total",
		Help: "Total recorded bravery check failures",
	})

	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_event_log_total",
		Help: "Total events accepted by the event log",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_event_log_dropped_total",
		Help: "Events dropped by the event log's rate limiting or backpressure",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_connection_rejected_total",
		Help: "HTTP/WebSocket connections rejected by rate limiting or origin checks",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_http_request_duration_seconds",
		Help:    "HTTP request latency for the read-only API surface",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, never the raw URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_http_requests_total",
		Help: "Total HTTP requests served by the API surface",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_websocket_connections_active",
		Help: "Currently active WebSocket connections streaming state",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_websocket_messages_total",
		Help: "Total WebSocket state-broadcast messages sent",
	})
)

// RecordTick records the wall-clock duration of one GameLoop.Tick call.
// The simulation core itself stays tick-driven and never calls time.Now;
// this is purely an external instrumentation wrapper around it (see
// internal/api's Engine run loop).
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// SetCharacterCount updates the registered-character gauge.
func SetCharacterCount(n int) {
	characterCount.Set(float64(n))
}

// SetIncapacitatedCount updates the incapacitated-character gauge.
func SetIncapacitatedCount(n int) {
	incapacitatedCount.Set(float64(n))
}

// RecordShot increments the ranged shot counter for the given outcome.
func RecordShot(hit bool) {
	shotsTotal.WithLabelValues(outcomeLabel(hit)).Inc()
}

// RecordMeleeAttack increments the melee attack counter for the given
// outcome.
func RecordMeleeAttack(hit bool) {
	meleeTotal.WithLabelValues(outcomeLabel(hit)).Inc()
}

// RecordBraveryFailure increments the bravery-failure counter.
func RecordBraveryFailure() {
	braveryFailuresTotal.Inc()
}

// SyncEventLogStats brings the event-log counters up to the given
// cumulative totals. Called periodically with eventlog.Log.GetStats'
// monotonic counters (Prometheus counters only move forward, so this
// tracks the delta itself).
var lastEventTotal, lastEventDropped uint64

func SyncEventLogStats(total, dropped uint64) {
	if total > lastEventTotal {
		eventLogTotal.Add(float64(total - lastEventTotal))
		lastEventTotal = total
	}
	if dropped > lastEventDropped {
		eventLogDropped.Add(float64(dropped - lastEventDropped))
		lastEventDropped = dropped
	}
}

// RecordConnectionRejected increments the rejection counter for reason,
// which must come from a small fixed vocabulary (see the metric's Help
// text) to keep label cardinality bounded.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records one HTTP request's latency and outcome. endpoint
// must be the route pattern (e.g. "/api/state"), never the raw URL, so
// that path parameters can't inflate label cardinality.
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// SetWSConnections updates the active WebSocket connection gauge.
func SetWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// RecordWSMessage increments the WebSocket broadcast message counter.
func RecordWSMessage() {
	wsMessagesTotal.Inc()
}

func outcomeLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
