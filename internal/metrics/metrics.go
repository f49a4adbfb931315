// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for fix processing. Each instance carries its
// own registry so multiple servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	acceptedTotal  *prometheus.CounterVec
	rejectedTotal  *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	qualityScore   *prometheus.GaugeVec
	trackDistanceM *prometheus.GaugeVec
	trendSlope     *prometheus.GaugeVec
	activeSessions prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.acceptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksmith_fixes_accepted_total",
			Help: "Accepted fixes per session and origin",
		},
		[]string{"session", "origin"},
	)

	m.rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksmith_fixes_rejected_total",
			Help: "Rejected fixes per session and reason",
		},
		[]string{"session", "reason"},
	)

	m.failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksmith_acquisition_failures_total",
			Help: "Position acquisition failures per session and kind",
		},
		[]string{"session", "kind"},
	)

	m.qualityScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracksmith_quality_score",
			Help: "Quality score of the last processed fix",
		},
		[]string{"session"},
	)

	m.trackDistanceM = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracksmith_track_distance_meters",
			Help: "Cumulative track distance for each session",
		},
		[]string{"session"},
	)

	m.trendSlope = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracksmith_accuracy_trend_slope",
			Help: "Fitted accuracy slope in meters per minute",
		},
		[]string{"session"},
	)

	m.activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracksmith_active_sessions",
			Help: "Number of sessions currently accepting fixes",
		},
	)

	m.registry.MustRegister(
		m.acceptedTotal,
		m.rejectedTotal,
		m.failuresTotal,
		m.qualityScore,
		m.trackDistanceM,
		m.trendSlope,
		m.activeSessions,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordAccepted(session, origin string, quality, distanceM float64) {
	m.acceptedTotal.WithLabelValues(session, origin).Inc()
	m.qualityScore.WithLabelValues(session).Set(quality)
	m.trackDistanceM.WithLabelValues(session).Set(distanceM)
}

func (m *Metrics) RecordRejected(session, reason string, quality float64) {
	m.rejectedTotal.WithLabelValues(session, reason).Inc()
	m.qualityScore.WithLabelValues(session).Set(quality)
}

func (m *Metrics) RecordFailure(session, kind string) {
	m.failuresTotal.WithLabelValues(session, kind).Inc()
}

func (m *Metrics) SetTrendSlope(session string, slopeMPerMin float64) {
	m.trendSlope.WithLabelValues(session).Set(slopeMPerMin)
}

func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

func (m *Metrics) SessionStopped() {
	m.activeSessions.Dec()
}
