// Package notify provides Notifier implementations: structured logging,
// prometheus metrics, and a fan-out combinator.
package notify

import (
	"log/slog"

	"quorix/pkg/voting"
)

// LogNotifier writes every engine notification as a structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. The logger may be nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SettingsUpdated implements voting.Notifier.
func (n *LogNotifier) SettingsUpdated(ev voting.SettingsUpdatedEvent) {
	n.logger.Info("settings updated",
		"mode", ev.Settings.Mode.String(),
		"support_threshold", ev.Settings.SupportThreshold.String(),
		"min_participation", ev.Settings.MinParticipation.String(),
		"min_duration", ev.Settings.MinDuration.String(),
	)
}

// ProposalCreated implements voting.Notifier.
func (n *LogNotifier) ProposalCreated(ev voting.ProposalCreatedEvent) {
	n.logger.Info("proposal created",
		"id", ev.ID,
		"creator", ev.Creator,
		"start", ev.StartDate,
		"end", ev.EndDate,
	)
}

// VoteCast implements voting.Notifier.
func (n *LogNotifier) VoteCast(ev voting.VoteCastEvent) {
	n.logger.Info("vote cast",
		"proposal", ev.ProposalID,
		"voter", ev.Voter,
		"choice", ev.Choice.String(),
		"weight", ev.Weight.String(),
	)
}

// ProposalExecuted implements voting.Notifier.
func (n *LogNotifier) ProposalExecuted(ev voting.ProposalExecutedEvent) {
	n.logger.Info("proposal executed", "id", ev.ID, "results", len(ev.Results))
}

// Multi fans one notification out to several notifiers in order.
type Multi []voting.Notifier

// SettingsUpdated implements voting.Notifier.
func (m Multi) SettingsUpdated(ev voting.SettingsUpdatedEvent) {
	for _, n := range m {
		n.SettingsUpdated(ev)
	}
}

// ProposalCreated implements voting.Notifier.
func (m Multi) ProposalCreated(ev voting.ProposalCreatedEvent) {
	for _, n := range m {
		n.ProposalCreated(ev)
	}
}

// VoteCast implements voting.Notifier.
func (m Multi) VoteCast(ev voting.VoteCastEvent) {
	for _, n := range m {
		n.VoteCast(ev)
	}
}

// ProposalExecuted implements voting.Notifier.
func (m Multi) ProposalExecuted(ev voting.ProposalExecutedEvent) {
	for _, n := range m {
		n.ProposalExecuted(ev)
	}
}
