// Package telemetry exposes Holdfast's runtime counters through
// prometheus/client_golang. The teacher's pkg/metrics documents
// itself as "Prometheus metrics" but only ever increments plain
// int64 fields under a mutex; this package wires the real client so
// that documentation is actually true, grounded on the shape of
// counters the teacher tracks (connections, commands, combat,
// world) but backed by a real prometheus.Registry.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge/histogram Holdfast publishes.
// Constructed once at startup and threaded through the engine and its
// managers.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsTotal   prometheus.Counter
	ConnectionsActive  prometheus.Gauge
	CommandsTotal      *prometheus.CounterVec
	CommandDuration    *prometheus.HistogramVec
	CombatInstances    prometheus.Gauge
	CombatActionsTotal *prometheus.CounterVec
	MonsterDeathsTotal prometheus.Counter
	PlayersOnline      prometheus.Gauge
	SchedulerRunsTotal *prometheus.CounterVec
	SchedulerErrors    *prometheus.CounterVec
}

// New creates a Metrics instance registered against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "holdfast", Name: "connections_total", Help: "Total TCP connections accepted.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "holdfast", Name: "connections_active", Help: "Currently open sessions.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdfast", Name: "commands_total", Help: "Commands dispatched, by verb and outcome.",
		}, []string{"verb", "success"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "holdfast", Name: "command_duration_seconds", Help: "Command handler latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"verb"}),
		CombatInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "holdfast", Name: "combat_instances_active", Help: "Active combat instances.",
		}),
		CombatActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdfast", Name: "combat_actions_total", Help: "Combat actions resolved, by action type.",
		}, []string{"action"}),
		MonsterDeathsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "holdfast", Name: "monster_deaths_total", Help: "Monsters killed in combat.",
		}),
		PlayersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "holdfast", Name: "players_online", Help: "Authenticated sessions currently in the playing phase.",
		}),
		SchedulerRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdfast", Name: "scheduler_runs_total", Help: "Scheduler event invocations, by event name.",
		}, []string{"event"}),
		SchedulerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdfast", Name: "scheduler_errors_total", Help: "Scheduler event invocations that returned an error, by event name.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.ConnectionsTotal, m.ConnectionsActive, m.CommandsTotal, m.CommandDuration,
		m.CombatInstances, m.CombatActionsTotal, m.MonsterDeathsTotal, m.PlayersOnline,
		m.SchedulerRunsTotal, m.SchedulerErrors,
	)
	return m
}

// Handler returns the HTTP handler serving this Metrics' registry in
// the Prometheus exposition format, wired to a listener by cmd/server.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCommand records one command dispatch's outcome and latency.
func (m *Metrics) ObserveCommand(verb string, success bool, seconds float64) {
	m.CommandsTotal.WithLabelValues(verb, successLabel(success)).Inc()
	m.CommandDuration.WithLabelValues(verb).Observe(seconds)
}

func successLabel(success bool) string {
	if success {
		return "true"
	}
	return "false"
}

// ObserveSchedulerRun records one scheduler event invocation.
func (m *Metrics) ObserveSchedulerRun(event string, err error) {
	m.SchedulerRunsTotal.WithLabelValues(event).Inc()
	if err != nil {
		m.SchedulerErrors.WithLabelValues(event).Inc()
	}
}

// ConnectionOpened and ConnectionClosed track live TCP session count.
func (m *Metrics) ConnectionOpened() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.ConnectionsActive.Dec()
}

// SetPlayersOnline records the number of sessions with an attached,
// authenticated player.
func (m *Metrics) SetPlayersOnline(n int) {
	m.PlayersOnline.Set(float64(n))
}
