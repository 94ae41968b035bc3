package power

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLedgerBalances(t *testing.T) {
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(100), 10))
	require.NoError(t, ledger.SetBalance("bob", big.NewInt(50), 10))

	power, err := ledger.PowerAt("alice", 11)
	require.NoError(t, err)
	assert.Equal(t, int64(100), power.Int64())

	total, err := ledger.TotalPowerAt(11)
	require.NoError(t, err)
	assert.Equal(t, int64(150), total.Int64())

	// Writes at height 10 are not visible at 10 itself.
	power, err = ledger.PowerAt("alice", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), power.Int64())
}

func TestTokenLedgerSupplyTracksRewrites(t *testing.T) {
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(100), 10))
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(40), 20))

	total, err := ledger.TotalPowerAt(21)
	require.NoError(t, err)
	assert.Equal(t, int64(40), total.Int64())

	// The old supply stays visible at the old heights.
	total, err = ledger.TotalPowerAt(20)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total.Int64())
}

func TestTokenLedgerTransfer(t *testing.T) {
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(100), 10))

	require.NoError(t, ledger.Transfer("alice", "bob", big.NewInt(30), 20))

	alice, err := ledger.PowerAt("alice", 21)
	require.NoError(t, err)
	assert.Equal(t, int64(70), alice.Int64())

	bob, err := ledger.PowerAt("bob", 21)
	require.NoError(t, err)
	assert.Equal(t, int64(30), bob.Int64())

	// Transfers do not change the supply.
	total, err := ledger.TotalPowerAt(21)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total.Int64())

	// The snapshot taken at the transfer height is untouched.
	alice, err = ledger.PowerAt("alice", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(100), alice.Int64())
}

func TestTokenLedgerTransferErrors(t *testing.T) {
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(10), 10))

	assert.Error(t, ledger.Transfer("alice", "bob", big.NewInt(11), 20), "insufficient balance")
	assert.Error(t, ledger.Transfer("alice", "bob", big.NewInt(-1), 20), "negative amount")
	assert.Error(t, ledger.Transfer("alice", "bob", big.NewInt(1), 5), "height moved backwards")

	// Failed transfers leave balances alone.
	alice, err := ledger.PowerAt("alice", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(10), alice.Int64())
}

func TestTokenLedgerRejectsBadWrites(t *testing.T) {
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(10), 10))

	assert.Error(t, ledger.SetBalance("alice", big.NewInt(-1), 20))
	assert.Error(t, ledger.SetBalance("alice", big.NewInt(5), 9))
}

func TestTokenLedgerSameHeightCollapse(t *testing.T) {
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(10), 10))
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(25), 10))

	power, err := ledger.PowerAt("alice", 11)
	require.NoError(t, err)
	assert.Equal(t, int64(25), power.Int64())

	total, err := ledger.TotalPowerAt(11)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total.Int64())
}

func TestTokenLedgerSnapshotStability(t *testing.T) {
	// A snapshot at the current height must keep answering the same way
	// after writes applied at that height.
	ledger := NewTokenLedger()
	require.NoError(t, ledger.SetBalance("alice", big.NewInt(100), 10))

	total, err := ledger.TotalPowerAt(20)
	require.NoError(t, err)
	require.Equal(t, int64(100), total.Int64())

	require.NoError(t, ledger.SetBalance("bob", big.NewInt(50), 20))

	total, err = ledger.TotalPowerAt(20)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total.Int64())

	bob, err := ledger.PowerAt("bob", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bob.Int64())

	total, err = ledger.TotalPowerAt(21)
	require.NoError(t, err)
	assert.Equal(t, int64(150), total.Int64())
}
