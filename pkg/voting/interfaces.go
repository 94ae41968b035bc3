package voting

import (
	"math/big"
	"time"
)

// PowerSource answers voting-power queries against a fixed snapshot. Results
// must be deterministic and stable for a given snapshot once queried.
type PowerSource interface {
	// PowerAt returns the account's voting power at the snapshot height.
	PowerAt(account string, snapshot uint64) (*big.Int, error)

	// TotalPowerAt returns the total voting power available at the snapshot height.
	TotalPowerAt(snapshot uint64) (*big.Int, error)
}

// ActionExecutor dispatches a passed proposal's actions. It is invoked exactly
// once per executed proposal; its results are recorded verbatim.
type ActionExecutor interface {
	Execute(proposalID uint64, actions []Action) ([]ActionResult, error)
}

// Permission names a gated operation checked through the Authorizer.
type Permission string

const (
	// PermissionUpdateSettings gates changes to the global voting settings.
	PermissionUpdateSettings Permission = "settings.update"
	// PermissionManageMembers gates membership changes on the voting-power source.
	PermissionManageMembers Permission = "members.manage"
)

// Authorizer decides whether a caller may perform a gated operation. The
// engine only consumes the boolean; policy lives with the implementation.
type Authorizer interface {
	Authorize(caller string, permission Permission) bool
}

// ChainReader exposes the execution substrate's current height, used as the
// snapshot reference for new proposals.
type ChainReader interface {
	CurrentHeight() uint64
}

// Clock abstracts wall-clock time so the voting window can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// UnixHeightReader derives the chain height from the clock's unix time, for
// deployments without a real block source. Snapshots taken from it stay
// stable because membership and balance history is keyed by the same scale.
type UnixHeightReader struct {
	Clock Clock
}

// CurrentHeight returns the clock's unix time as a height.
func (r UnixHeightReader) CurrentHeight() uint64 {
	return uint64(r.Clock.Now().Unix())
}

// ProposalStore persists proposal records. Implementations must hand out
// deep copies so callers never mutate stored state directly.
type ProposalStore interface {
	// NextID allocates the next monotonically increasing proposal id.
	NextID() (uint64, error)

	// Save stores or replaces the proposal record.
	Save(proposal *Proposal) error

	// Get retrieves a proposal by id, or nil when unknown.
	Get(id uint64) (*Proposal, error)

	// List returns all proposals in ascending id order.
	List() ([]*Proposal, error)
}

// SettingsUpdatedEvent carries the new settings after an atomic replace.
type SettingsUpdatedEvent struct {
	Settings Settings
}

// ProposalCreatedEvent announces a newly stored proposal.
type ProposalCreatedEvent struct {
	ID        uint64
	Creator   string
	Metadata  []byte
	StartDate uint64
	EndDate   uint64
}

// VoteCastEvent announces a recorded (or replaced) ballot.
type VoteCastEvent struct {
	ProposalID uint64
	Voter      string
	Choice     VoteOption
	Weight     *big.Int
}

// ProposalExecutedEvent announces an executed proposal with the action
// collaborator's results.
type ProposalExecutedEvent struct {
	ID      uint64
	Results []ActionResult
}

// Notifier receives structured notifications for external consumption, such
// as indexing or metrics. Implementations must not call back into the engine.
type Notifier interface {
	SettingsUpdated(SettingsUpdatedEvent)
	ProposalCreated(ProposalCreatedEvent)
	VoteCast(VoteCastEvent)
	ProposalExecuted(ProposalExecutedEvent)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) SettingsUpdated(SettingsUpdatedEvent)   {}
func (NopNotifier) ProposalCreated(ProposalCreatedEvent)   {}
func (NopNotifier) VoteCast(VoteCastEvent)                 {}
func (NopNotifier) ProposalExecuted(ProposalExecutedEvent) {}
