package voting

import (
	"math/big"
)

// Tally is the running vote count of a proposal. TotalPower is captured once
// at creation from the voting-power source and never changes afterwards.
type Tally struct {
	Yes        *big.Int `json:"yes"`
	No         *big.Int `json:"no"`
	Abstain    *big.Int `json:"abstain"`
	TotalPower *big.Int `json:"total_power"`
}

// NewTally returns a zeroed tally over the given total voting power.
func NewTally(totalPower *big.Int) Tally {
	return Tally{
		Yes:        new(big.Int),
		No:         new(big.Int),
		Abstain:    new(big.Int),
		TotalPower: new(big.Int).Set(totalPower),
	}
}

// Clone deep-copies the tally.
func (t Tally) Clone() Tally {
	return Tally{
		Yes:        new(big.Int).Set(t.Yes),
		No:         new(big.Int).Set(t.No),
		Abstain:    new(big.Int).Set(t.Abstain),
		TotalPower: new(big.Int).Set(t.TotalPower),
	}
}

// bucket returns the counter the given option contributes to, or nil for VoteNone.
func (t *Tally) bucket(option VoteOption) *big.Int {
	switch option {
	case VoteYes:
		return t.Yes
	case VoteNo:
		return t.No
	case VoteAbstain:
		return t.Abstain
	}
	return nil
}

// Add credits weight to the option's bucket.
func (t *Tally) Add(option VoteOption, weight *big.Int) {
	if b := t.bucket(option); b != nil {
		b.Add(b, weight)
	}
}

// Sub removes weight from the option's bucket. Used when a voter replaces a
// previously recorded choice so each account contributes to at most one
// bucket at a time.
func (t *Tally) Sub(option VoteOption, weight *big.Int) {
	if b := t.bucket(option); b != nil {
		b.Sub(b, weight)
	}
}

// Turnout is the total weight cast so far: yes + no + abstain.
func (t *Tally) Turnout() *big.Int {
	turnout := new(big.Int).Add(t.Yes, t.No)
	return turnout.Add(turnout, t.Abstain)
}

// Support computes yes / (yes + no). Fails when no yes or no votes exist.
func (t *Tally) Support() (Ratio, error) {
	return Div(t.Yes, new(big.Int).Add(t.Yes, t.No))
}

// WorstCaseSupport computes yes / (totalPower - abstain), the support ratio
// assuming every uncast vote turns into a no. If this already clears the
// threshold no future voting pattern can flip the outcome.
func (t *Tally) WorstCaseSupport() (Ratio, error) {
	return Div(t.Yes, new(big.Int).Sub(t.TotalPower, t.Abstain))
}

// Participation computes (yes + no + abstain) / totalPower.
func (t *Tally) Participation() (Ratio, error) {
	return Div(t.Turnout(), t.TotalPower)
}
