package notify

import (
	"github.com/prometheus/client_golang/prometheus"

	"quorix/pkg/voting"
)

// Metrics is a voting.Notifier that counts engine activity in prometheus
// collectors.
type Metrics struct {
	settingsUpdates  prometheus.Counter
	proposalsCreated prometheus.Counter
	votesCast        *prometheus.CounterVec
	executions       prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		settingsUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorix",
			Name:      "settings_updates_total",
			Help:      "Number of accepted voting settings updates.",
		}),
		proposalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorix",
			Name:      "proposals_created_total",
			Help:      "Number of proposals created.",
		}),
		votesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quorix",
			Name:      "votes_cast_total",
			Help:      "Number of ballots recorded, by choice.",
		}, []string{"choice"}),
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorix",
			Name:      "proposals_executed_total",
			Help:      "Number of proposals executed.",
		}),
	}
	reg.MustRegister(m.settingsUpdates, m.proposalsCreated, m.votesCast, m.executions)
	return m
}

// SettingsUpdated implements voting.Notifier.
func (m *Metrics) SettingsUpdated(voting.SettingsUpdatedEvent) {
	m.settingsUpdates.Inc()
}

// ProposalCreated implements voting.Notifier.
func (m *Metrics) ProposalCreated(voting.ProposalCreatedEvent) {
	m.proposalsCreated.Inc()
}

// VoteCast implements voting.Notifier.
func (m *Metrics) VoteCast(ev voting.VoteCastEvent) {
	m.votesCast.WithLabelValues(ev.Choice.String()).Inc()
}

// ProposalExecuted implements voting.Notifier.
func (m *Metrics) ProposalExecuted(voting.ProposalExecutedEvent) {
	m.executions.Inc()
}
