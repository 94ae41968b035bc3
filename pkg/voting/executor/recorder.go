// Package executor provides the default action-execution collaborator.
package executor

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"quorix/pkg/voting"
)

// Recorder implements voting.ActionExecutor by tagging every dispatched
// action with a receipt id and keeping the results queryable. Deployments
// that apply real side effects wrap or replace it; the engine only requires
// that results come back verbatim.
type Recorder struct {
	mu       sync.Mutex
	logger   *slog.Logger
	receipts map[uint64][]voting.ActionResult
}

// NewRecorder creates a Recorder. The logger may be nil.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		logger:   logger,
		receipts: make(map[uint64][]voting.ActionResult),
	}
}

// Execute implements voting.ActionExecutor. An empty action list is legal and
// produces an empty result set.
func (r *Recorder) Execute(proposalID uint64, actions []voting.Action) ([]voting.ActionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]voting.ActionResult, 0, len(actions))
	for _, action := range actions {
		result := voting.ActionResult{
			ReceiptID: uuid.NewString(),
			Target:    action.Target,
			Output:    append([]byte(nil), action.Data...),
		}
		r.logger.Info("action dispatched",
			"proposal", proposalID,
			"receipt", result.ReceiptID,
			"target", action.Target,
		)
		results = append(results, result)
	}
	r.receipts[proposalID] = results
	return results, nil
}

// Receipts returns the recorded results for an executed proposal.
func (r *Recorder) Receipts(proposalID uint64) []voting.ActionResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]voting.ActionResult(nil), r.receipts[proposalID]...)
}
