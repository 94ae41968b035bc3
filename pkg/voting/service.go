package voting

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

// Service is the proposal lifecycle controller. It orchestrates creation,
// voting, and execution over the injected collaborators and owns the mutable
// settings registry.
//
// Every public operation runs under one mutex so calls are serialized and
// all-or-nothing: a failed validation aborts the call with no side effects.
type Service struct {
	store    ProposalStore
	power    PowerSource
	executor ActionExecutor
	chain    ChainReader
	authz    Authorizer
	notifier Notifier
	clock    Clock
	logger   *slog.Logger

	mu       sync.Mutex
	settings Settings
}

// NewService creates a governance service. The notifier, clock, and logger
// may be nil; the settings are validated before anything is accepted.
func NewService(
	store ProposalStore,
	power PowerSource,
	executor ActionExecutor,
	chain ChainReader,
	authz Authorizer,
	notifier Notifier,
	clock Clock,
	settings Settings,
	logger *slog.Logger,
) (*Service, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("initial settings: %w", err)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		power:    power,
		executor: executor,
		chain:    chain,
		authz:    authz,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		settings: settings.clone(),
	}, nil
}

// UpdateSettings atomically replaces the voting settings. The prior settings
// stay untouched on any validation failure.
func (s *Service) UpdateSettings(caller string, next Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authz.Authorize(caller, PermissionUpdateSettings) {
		return fmt.Errorf("update settings by %q: %w", caller, ErrNotAuthorized)
	}
	if err := next.Validate(); err != nil {
		return err
	}

	s.settings = next.clone()
	s.notifier.SettingsUpdated(SettingsUpdatedEvent{Settings: s.settings.clone()})
	s.logger.Info("voting settings updated",
		"caller", caller,
		"mode", next.Mode.String(),
		"support_threshold", next.SupportThreshold.String(),
		"min_participation", next.MinParticipation.String(),
		"min_duration", next.MinDuration.String(),
		"min_proposer_power", next.minProposerPower().String(),
	)
	return nil
}

// Settings returns a copy of the active settings.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.clone()
}

// VotingMode returns the active voting mode.
func (s *Service) VotingMode() VotingMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.Mode
}

// SupportThreshold returns the active support threshold.
func (s *Service) SupportThreshold() Ratio {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.SupportThreshold
}

// MinParticipation returns the active participation floor.
func (s *Service) MinParticipation() Ratio {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.MinParticipation
}

// MinDuration returns the active minimum voting window length.
func (s *Service) MinDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.MinDuration
}

// MinProposerPower returns the power needed to open a proposal (zero disables
// the check).
func (s *Service) MinProposerPower() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return new(big.Int).Set(s.settings.minProposerPower())
}

// CreateProposal validates the window, snapshots voting power at the current
// chain height, copies the active settings into the proposal parameters, and
// stores the record. If initialChoice is not VoteNone the creator's first
// ballot is cast in the same call.
func (s *Service) CreateProposal(
	creator string,
	metadata []byte,
	actions []Action,
	startDate, endDate uint64,
	initialChoice VoteOption,
	tryEarlyExecution bool,
) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.unixNow()
	height := s.chain.CurrentHeight()

	// The proposer power check reads one height back so power moved in the
	// same transition cannot satisfy it.
	if min := s.settings.minProposerPower(); min.Sign() > 0 {
		ref := height
		if ref > 0 {
			ref--
		}
		pw, err := s.power.PowerAt(creator, ref)
		if err != nil {
			return 0, fmt.Errorf("proposer power of %q: %w", creator, err)
		}
		if pw.Cmp(min) < 0 {
			return 0, fmt.Errorf("proposer %q has power %s, need %s: %w",
				creator, pw, min, ErrProposalCreationForbidden)
		}
	}

	start, end, err := validateWindow(startDate, endDate, now, s.settings.MinDuration)
	if err != nil {
		return 0, err
	}

	total, err := s.power.TotalPowerAt(height)
	if err != nil {
		return 0, fmt.Errorf("total power at %d: %w", height, err)
	}

	id, err := s.store.NextID()
	if err != nil {
		return 0, fmt.Errorf("allocate proposal id: %w", err)
	}

	proposal := &Proposal{
		ID:       id,
		Creator:  creator,
		Metadata: append([]byte(nil), metadata...),
		Parameters: ProposalParameters{
			Mode:             s.settings.Mode,
			SupportThreshold: s.settings.SupportThreshold,
			MinParticipation: s.settings.MinParticipation,
			StartDate:        start,
			EndDate:          end,
			SnapshotHeight:   height,
		},
		Tally:   NewTally(total),
		Voters:  make(map[string]VoteOption),
		Actions: append([]Action(nil), actions...),
	}

	// The creator's first ballot is part of the same unit of work, so its
	// eligibility is checked before anything is persisted.
	if initialChoice != VoteNone && !s.canVote(proposal, creator, now) {
		return 0, fmt.Errorf("initial vote by %q: %w", creator, ErrVoteCastForbidden)
	}

	if err := s.store.Save(proposal); err != nil {
		return 0, fmt.Errorf("save proposal: %w", err)
	}
	s.notifier.ProposalCreated(ProposalCreatedEvent{
		ID:        id,
		Creator:   creator,
		Metadata:  proposal.Metadata,
		StartDate: start,
		EndDate:   end,
	})
	s.logger.Info("proposal created",
		"id", id,
		"creator", creator,
		"start", start,
		"end", end,
		"snapshot", height,
		"total_power", total.String(),
	)

	if initialChoice != VoteNone {
		if err := s.voteLocked(proposal, creator, initialChoice, tryEarlyExecution, now); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Vote records (or, in vote-replacement mode, replaces) the voter's choice on
// the proposal. Passing VoteNone never records or clears a ballot: combined
// with tryEarlyExecution it is a trigger-only call that re-evaluates
// execution eligibility, and on its own it is rejected.
func (s *Service) Vote(voter string, proposalID uint64, choice VoteOption, tryEarlyExecution bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return err
	}
	if choice == VoteNone && !tryEarlyExecution {
		return fmt.Errorf("vote by %q carries no choice: %w", voter, ErrVoteCastForbidden)
	}
	return s.voteLocked(proposal, voter, choice, tryEarlyExecution, s.unixNow())
}

// voteLocked applies the ballot to an already-loaded proposal. The caller
// holds s.mu.
func (s *Service) voteLocked(proposal *Proposal, voter string, choice VoteOption, tryEarlyExecution bool, now uint64) error {
	if choice != VoteNone {
		if !s.canVote(proposal, voter, now) {
			return fmt.Errorf("vote by %q on proposal %d: %w", voter, proposal.ID, ErrVoteCastForbidden)
		}
		weight, err := s.power.PowerAt(voter, proposal.Parameters.SnapshotHeight)
		if err != nil {
			return fmt.Errorf("power of %q: %w", voter, err)
		}

		// Replace semantics: remove the previous choice's contribution first
		// so each account feeds at most one bucket.
		if prev := proposal.Voters[voter]; prev != VoteNone {
			proposal.Tally.Sub(prev, weight)
		}
		proposal.Tally.Add(choice, weight)
		proposal.Voters[voter] = choice

		if err := s.store.Save(proposal); err != nil {
			return fmt.Errorf("save proposal: %w", err)
		}
		s.notifier.VoteCast(VoteCastEvent{
			ProposalID: proposal.ID,
			Voter:      voter,
			Choice:     choice,
			Weight:     new(big.Int).Set(weight),
		})
		s.logger.Debug("vote cast",
			"proposal", proposal.ID,
			"voter", voter,
			"choice", choice.String(),
			"weight", weight.String(),
		)
	}

	if tryEarlyExecution && s.canExecute(proposal, now) {
		return s.executeLocked(proposal)
	}
	return nil
}

// Execute finalizes an eligible proposal: it dispatches the actions, flips
// the executed flag exactly once, and emits the execution notification.
func (s *Service) Execute(proposalID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return err
	}
	if !s.canExecute(proposal, s.unixNow()) {
		return fmt.Errorf("proposal %d: %w", proposalID, ErrExecutionForbidden)
	}
	return s.executeLocked(proposal)
}

// executeLocked dispatches and marks the proposal executed. Eligibility has
// already been proven; a failing dispatch leaves the proposal untouched so
// the call stays all-or-nothing.
func (s *Service) executeLocked(proposal *Proposal) error {
	results, err := s.executor.Execute(proposal.ID, proposal.Actions)
	if err != nil {
		return fmt.Errorf("dispatch actions of proposal %d: %w", proposal.ID, err)
	}

	proposal.Executed = true
	proposal.Results = results
	if err := s.store.Save(proposal); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	s.notifier.ProposalExecuted(ProposalExecutedEvent{ID: proposal.ID, Results: results})
	s.logger.Info("proposal executed", "id", proposal.ID, "actions", len(proposal.Actions))
	return nil
}

// CanVote reports whether the account may currently vote on the proposal.
func (s *Service) CanVote(proposalID uint64, account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return false, err
	}
	return s.canVote(proposal, account, s.unixNow()), nil
}

// CanExecute reports whether the proposal is currently executable, via the
// early path while open or the normal path once closed.
func (s *Service) CanExecute(proposalID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return false, err
	}
	return s.canExecute(proposal, s.unixNow()), nil
}

// canVote holds iff the proposal is open, the account had power at the
// snapshot, and either no ballot is recorded yet or replacement is allowed.
func (s *Service) canVote(proposal *Proposal, account string, now uint64) bool {
	if !proposal.IsOpen(now) {
		return false
	}
	power, err := s.power.PowerAt(account, proposal.Parameters.SnapshotHeight)
	if err != nil || power.Sign() == 0 {
		return false
	}
	if proposal.Voters[account] != VoteNone && proposal.Parameters.Mode != ModeVoteReplacement {
		return false
	}
	return true
}

// canExecute is the execution-eligibility state machine. Support is compared
// strictly (>) and participation inclusively (>=); that asymmetry is part of
// the contract. Ratio failures (zero denominators) make the proposal
// non-executable rather than approximating.
func (s *Service) canExecute(proposal *Proposal, now uint64) bool {
	if proposal.Executed {
		return false
	}

	switch proposal.State(now) {
	case StateOpen:
		// Early path: only sound when the worst case, every uncast vote
		// turning into a no, already clears the threshold.
		if proposal.Parameters.Mode != ModeEarlyExecution {
			return false
		}
		worst, err := proposal.Tally.WorstCaseSupport()
		if err != nil || worst <= proposal.Parameters.SupportThreshold {
			return false
		}
	case StateClosed:
		support, err := proposal.Tally.Support()
		if err != nil || support <= proposal.Parameters.SupportThreshold {
			return false
		}
	default:
		return false
	}

	participation, err := proposal.Tally.Participation()
	if err != nil {
		return false
	}
	return participation >= proposal.Parameters.MinParticipation
}

// GetProposal returns a deep copy of the proposal record.
func (s *Service) GetProposal(proposalID uint64) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getProposal(proposalID)
}

// ListProposals returns all proposals in ascending id order.
func (s *Service) ListProposals() ([]*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.List()
}

// ListOpenProposals returns the proposals currently accepting votes.
func (s *Service) ListOpenProposals() ([]*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.List()
	if err != nil {
		return nil, err
	}
	now := s.unixNow()
	open := make([]*Proposal, 0, len(all))
	for _, p := range all {
		if p.IsOpen(now) {
			open = append(open, p)
		}
	}
	return open, nil
}

// ProposalState returns the proposal's current lifecycle state.
func (s *Service) ProposalState(proposalID uint64) (ProposalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return StatePending, err
	}
	return proposal.State(s.unixNow()), nil
}

// Support returns the proposal's current support ratio yes/(yes+no).
func (s *Service) Support(proposalID uint64) (Ratio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return 0, err
	}
	return proposal.Tally.Support()
}

// WorstCaseSupport returns yes/(totalPower-abstain), the early-execution bound.
func (s *Service) WorstCaseSupport(proposalID uint64) (Ratio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return 0, err
	}
	return proposal.Tally.WorstCaseSupport()
}

// Participation returns (yes+no+abstain)/totalPower.
func (s *Service) Participation(proposalID uint64) (Ratio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return 0, err
	}
	return proposal.Tally.Participation()
}

// VoterChoice returns the account's recorded choice, VoteNone by default.
func (s *Service) VoterChoice(proposalID uint64, account string) (VoteOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getProposal(proposalID)
	if err != nil {
		return VoteNone, err
	}
	return proposal.Voters[account], nil
}

// getProposal loads a proposal or fails with ErrProposalNotFound. The caller
// holds s.mu.
func (s *Service) getProposal(proposalID uint64) (*Proposal, error) {
	proposal, err := s.store.Get(proposalID)
	if err != nil {
		return nil, fmt.Errorf("get proposal %d: %w", proposalID, err)
	}
	if proposal == nil {
		return nil, fmt.Errorf("proposal %d: %w", proposalID, ErrProposalNotFound)
	}
	return proposal, nil
}

func (s *Service) unixNow() uint64 {
	return uint64(s.clock.Now().Unix())
}
