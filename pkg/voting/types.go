package voting

import (
	"math/big"
)

// VoteOption is a voter's recorded choice on a proposal.
type VoteOption uint8

const (
	// VoteNone is the zero choice. As an argument to Vote it never records a
	// ballot: it leaves any previous choice untouched and only triggers an
	// early-execution attempt when requested.
	VoteNone VoteOption = iota
	VoteAbstain
	VoteYes
	VoteNo
)

// String returns the lower-case option name for events and logs.
func (o VoteOption) String() string {
	switch o {
	case VoteAbstain:
		return "abstain"
	case VoteYes:
		return "yes"
	case VoteNo:
		return "no"
	default:
		return "none"
	}
}

// ParseVoteOption converts the textual option names used on the wire.
func ParseVoteOption(s string) (VoteOption, bool) {
	switch s {
	case "none":
		return VoteNone, true
	case "abstain":
		return VoteAbstain, true
	case "yes":
		return VoteYes, true
	case "no":
		return VoteNo, true
	}
	return VoteNone, false
}

// VotingMode selects how votes may be cast and when execution may happen.
// The modes are mutually exclusive: a proposal allows early execution or vote
// replacement, never both.
type VotingMode uint8

const (
	// ModeStandard allows one vote per account and execution only after the
	// voting window closes.
	ModeStandard VotingMode = iota
	// ModeEarlyExecution allows execution before the window closes once the
	// outcome can no longer change.
	ModeEarlyExecution
	// ModeVoteReplacement allows accounts to change their recorded choice
	// while the window is open.
	ModeVoteReplacement
)

// String returns the mode name used in config files and events.
func (m VotingMode) String() string {
	switch m {
	case ModeEarlyExecution:
		return "early-execution"
	case ModeVoteReplacement:
		return "vote-replacement"
	default:
		return "standard"
	}
}

// ParseVotingMode converts the textual mode names used in config files.
func ParseVotingMode(s string) (VotingMode, bool) {
	switch s {
	case "standard":
		return ModeStandard, true
	case "early-execution":
		return ModeEarlyExecution, true
	case "vote-replacement":
		return ModeVoteReplacement, true
	}
	return ModeStandard, false
}

// ProposalState is the lifecycle position of a proposal at a point in time.
type ProposalState uint8

const (
	StatePending  ProposalState = iota // before the start date
	StateOpen                          // within the voting window, not executed
	StateClosed                        // past the end date, not executed
	StateExecuted                      // terminal
)

// String prints the state as lower-case text.
func (s ProposalState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

// Action is one opaque operation dispatched to the action-execution
// collaborator when a proposal passes. The engine never interprets it.
type Action struct {
	Target string   `json:"target"`
	Value  *big.Int `json:"value,omitempty"`
	Data   []byte   `json:"data,omitempty"`
}

// ActionResult is the collaborator's result for one dispatched action,
// recorded verbatim in the execution notification.
type ActionResult struct {
	ReceiptID string `json:"receipt_id"`
	Target    string `json:"target"`
	Output    []byte `json:"output,omitempty"`
}

// ProposalParameters are fixed at creation from the settings registry so later
// settings changes never retroactively affect an in-flight proposal.
type ProposalParameters struct {
	Mode             VotingMode `json:"mode"`
	SupportThreshold Ratio      `json:"support_threshold"`
	MinParticipation Ratio      `json:"min_participation"`
	StartDate        uint64     `json:"start_date"`
	EndDate          uint64     `json:"end_date"`
	SnapshotHeight   uint64     `json:"snapshot_height"`
}

// Proposal is the full record of one governance proposal. The parameters are
// immutable after creation; the tally and voter map mutate with each vote; the
// executed flag is set exactly once and never reset.
type Proposal struct {
	ID         uint64                `json:"id"`
	Creator    string                `json:"creator"`
	Metadata   []byte                `json:"metadata,omitempty"`
	Parameters ProposalParameters    `json:"parameters"`
	Tally      Tally                 `json:"tally"`
	Voters     map[string]VoteOption `json:"voters"`
	Actions    []Action              `json:"actions,omitempty"`
	Executed   bool                  `json:"executed"`
	Results    []ActionResult        `json:"results,omitempty"`
}

// State derives the lifecycle position at the given unix time.
func (p *Proposal) State(now uint64) ProposalState {
	switch {
	case p.Executed:
		return StateExecuted
	case now < p.Parameters.StartDate:
		return StatePending
	case now < p.Parameters.EndDate:
		return StateOpen
	default:
		return StateClosed
	}
}

// IsOpen reports whether votes may still arrive at the given unix time.
func (p *Proposal) IsOpen(now uint64) bool {
	return p.State(now) == StateOpen
}

// Clone returns a deep copy so store implementations can hand out snapshots
// without sharing mutable tally or voter state.
func (p *Proposal) Clone() *Proposal {
	c := *p
	c.Tally = p.Tally.Clone()
	c.Voters = make(map[string]VoteOption, len(p.Voters))
	for k, v := range p.Voters {
		c.Voters[k] = v
	}
	c.Actions = append([]Action(nil), p.Actions...)
	c.Results = append([]ActionResult(nil), p.Results...)
	c.Metadata = append([]byte(nil), p.Metadata...)
	return &c
}
