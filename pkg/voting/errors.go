package voting

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProposalNotFound indicates the proposal id is unknown to the store.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrProposalCreationForbidden indicates the caller lacks the minimum
	// voting power required to open a proposal.
	ErrProposalCreationForbidden = errors.New("proposal creation forbidden")

	// ErrVoteCastForbidden indicates the caller cannot vote on the proposal
	// (window not open, no voting power, or replacement disallowed).
	ErrVoteCastForbidden = errors.New("vote cast forbidden")

	// ErrExecutionForbidden indicates threshold or participation criteria are
	// not met, or the proposal was already executed.
	ErrExecutionForbidden = errors.New("execution forbidden")

	// ErrNotAuthorized indicates the authorization collaborator rejected the call.
	ErrNotAuthorized = errors.New("caller not authorized")

	// ErrDivisionByZero indicates a ratio query against zero total power.
	ErrDivisionByZero = errors.New("division by zero")
)

// RatioOutOfBoundsError reports a percentage parameter above 100%.
type RatioOutOfBoundsError struct {
	Limit  Ratio
	Actual Ratio
}

func (e *RatioOutOfBoundsError) Error() string {
	return fmt.Sprintf("ratio out of bounds: limit %d, actual %d", e.Limit, e.Actual)
}

// DateOutOfBoundsError reports a proposal window that is backdated, shorter
// than the minimum duration, or whose arithmetic would overflow.
type DateOutOfBoundsError struct {
	Limit  uint64
	Actual uint64
}

func (e *DateOutOfBoundsError) Error() string {
	return fmt.Sprintf("date out of bounds: limit %d, actual %d", e.Limit, e.Actual)
}

// DurationOutOfBoundsError reports a configured minimum duration outside the
// allowed [1h, 365d] range.
type DurationOutOfBoundsError struct {
	Limit  time.Duration
	Actual time.Duration
}

func (e *DurationOutOfBoundsError) Error() string {
	return fmt.Sprintf("duration out of bounds: limit %s, actual %s", e.Limit, e.Actual)
}
