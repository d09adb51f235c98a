package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pidulll/capstone/module/core/domain"
	"github.com/pidulll/capstone/module/core/service"
)

var _ service.Metrics = (*PromMetrics)(nil)

type PromMetrics struct {
	cycles        prometheus.Counter
	transitions   *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	invalidZones  prometheus.Counter
	alerts        *prometheus.CounterVec
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "safezone_evaluation_cycles_total",
			Help: "Completed geofence evaluation cycles.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safezone_transitions_total",
			Help: "Transition events emitted, by kind.",
		}, []string{"event"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safezone_fetch_failures_total",
			Help: "Cycles aborted because zones or location could not be fetched.",
		}, []string{"source"}),
		invalidZones: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "safezone_invalid_zones_total",
			Help: "Zones rejected for failing validation, by a zone store or during evaluation.",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safezone_alerts_total",
			Help: "Alert deliveries by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.cycles, m.transitions, m.fetchFailures, m.invalidZones, m.alerts)
	return m
}

func (m *PromMetrics) IncCycles() { m.cycles.Inc() }

func (m *PromMetrics) IncTransition(kind domain.GeofenceEventType) {
	m.transitions.WithLabelValues(string(kind)).Inc()
}

func (m *PromMetrics) IncFetchFailure(source string) {
	m.fetchFailures.WithLabelValues(source).Inc()
}

func (m *PromMetrics) IncInvalidZone() { m.invalidZones.Inc() }

func (m *PromMetrics) IncAlertPublished() { m.alerts.WithLabelValues("published").Inc() }
func (m *PromMetrics) IncAlertFailed()    { m.alerts.WithLabelValues("failed").Inc() }
func (m *PromMetrics) IncAlertDropped()   { m.alerts.WithLabelValues("dropped").Inc() }
