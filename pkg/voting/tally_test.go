package voting

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyReplaceSemantics(t *testing.T) {
	tally := NewTally(big.NewInt(10))
	weight := big.NewInt(1)

	tally.Add(VoteYes, weight)
	assert.Equal(t, int64(1), tally.Yes.Int64())

	// Re-casting the same choice is subtract-then-add, a net no-op.
	tally.Sub(VoteYes, weight)
	tally.Add(VoteYes, weight)
	assert.Equal(t, int64(1), tally.Yes.Int64())

	// Switching choices moves the weight between buckets.
	tally.Sub(VoteYes, weight)
	tally.Add(VoteNo, weight)
	assert.Equal(t, int64(0), tally.Yes.Int64())
	assert.Equal(t, int64(1), tally.No.Int64())

	// VoteNone feeds no bucket.
	tally.Add(VoteNone, weight)
	assert.Equal(t, int64(1), tally.Turnout().Int64())
}

func TestTallyRatios(t *testing.T) {
	tally := NewTally(big.NewInt(10))
	tally.Add(VoteYes, big.NewInt(3))
	tally.Add(VoteNo, big.NewInt(1))

	support, err := tally.Support()
	require.NoError(t, err)
	assert.Equal(t, PercentRatio(75), support)

	participation, err := tally.Participation()
	require.NoError(t, err)
	assert.Equal(t, PercentRatio(40), participation)

	worst, err := tally.WorstCaseSupport()
	require.NoError(t, err)
	assert.Equal(t, PercentRatio(30), worst)

	tally.Add(VoteAbstain, big.NewInt(2))
	worst, err = tally.WorstCaseSupport()
	require.NoError(t, err)
	// 3 yes over (10 total - 2 abstain).
	assert.Equal(t, PercentRatioFloat(37.5), worst)
}

func TestTallyRatioFailures(t *testing.T) {
	tally := NewTally(big.NewInt(0))

	_, err := tally.Support()
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = tally.Participation()
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = tally.WorstCaseSupport()
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

// TestEarlyExecutionSoundness exhaustively checks the worst-case bound: when
// the early path clears threshold and participation, no distribution of the
// remaining votes can make the closed-window check fail.
func TestEarlyExecutionSoundness(t *testing.T) {
	const total = 10
	threshold := PercentRatio(50)
	minParticipation := PercentRatio(40)

	for yes := int64(0); yes <= total; yes++ {
		for no := int64(0); yes+no <= total; no++ {
			for abstain := int64(0); yes+no+abstain <= total; abstain++ {
				tally := NewTally(big.NewInt(total))
				tally.Add(VoteYes, big.NewInt(yes))
				tally.Add(VoteNo, big.NewInt(no))
				tally.Add(VoteAbstain, big.NewInt(abstain))

				worst, err := tally.WorstCaseSupport()
				require.NoError(t, err)
				participation, err := tally.Participation()
				require.NoError(t, err)
				if worst <= threshold || participation < minParticipation {
					continue
				}

				// Early path is satisfied; every completion must pass the
				// normal path too.
				remaining := total - yes - no - abstain
				for extraYes := int64(0); extraYes <= remaining; extraYes++ {
					for extraNo := int64(0); extraYes+extraNo <= remaining; extraNo++ {
						extraAbstain := remaining - extraYes - extraNo
						final := NewTally(big.NewInt(total))
						final.Add(VoteYes, big.NewInt(yes+extraYes))
						final.Add(VoteNo, big.NewInt(no+extraNo))
						final.Add(VoteAbstain, big.NewInt(abstain+extraAbstain))

						support, err := final.Support()
						require.NoError(t, err)
						finalPart, err := final.Participation()
						require.NoError(t, err)
						assert.Greater(t, support, threshold,
							"start %d/%d/%d extra %d/%d/%d", yes, no, abstain, extraYes, extraNo, extraAbstain)
						assert.GreaterOrEqual(t, finalPart, minParticipation)
					}
				}
			}
		}
	}
}
