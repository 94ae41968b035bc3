package power

import (
	"fmt"
	"math/big"
	"sync"
)

// balanceCheckpoint records an account balance (or the total supply) as of a height.
type balanceCheckpoint struct {
	Height uint64
	Amount *big.Int
}

// TokenLedger is a voting.PowerSource backed by token balances. Every balance
// write appends a checkpoint, so power at a past snapshot is the balance the
// account held back then, unaffected by later transfers. Like the allowlist,
// writes applied at height h become visible at h+1 so already-handed-out
// snapshots never change.
type TokenLedger struct {
	mu       sync.RWMutex
	balances map[string][]balanceCheckpoint
	supply   []balanceCheckpoint
}

// NewTokenLedger creates an empty ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{balances: make(map[string][]balanceCheckpoint)}
}

// SetBalance writes the account's balance as of the height after the given
// one and adjusts the total supply by the difference. Heights must not move
// backwards.
func (t *TokenLedger) SetBalance(account string, amount *big.Int, height uint64) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("balance of %q cannot be negative", account)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	effective := height + 1
	if n := len(t.supply); n > 0 && t.supply[n-1].Height > effective {
		return fmt.Errorf("balance change at height %d is before last change at %d",
			height, t.supply[n-1].Height)
	}

	prev := lastAmount(t.balances[account], effective)
	delta := new(big.Int).Sub(amount, prev)
	t.balances[account] = pushCheckpoint(t.balances[account], effective, new(big.Int).Set(amount))

	supply := new(big.Int).Add(lastAmount(t.supply, effective), delta)
	t.supply = pushCheckpoint(t.supply, effective, supply)
	return nil
}

// Transfer moves tokens between accounts, visible from the height after the
// given one.
func (t *TokenLedger) Transfer(from, to string, amount *big.Int, height uint64) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("transfer amount cannot be negative")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	effective := height + 1
	if n := len(t.supply); n > 0 && t.supply[n-1].Height > effective {
		return fmt.Errorf("balance change at height %d is before last change at %d",
			height, t.supply[n-1].Height)
	}

	fromBalance := lastAmount(t.balances[from], effective)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: %q holds %s, needs %s", from, fromBalance, amount)
	}
	toBalance := lastAmount(t.balances[to], effective)

	t.balances[from] = pushCheckpoint(t.balances[from], effective, new(big.Int).Sub(fromBalance, amount))
	t.balances[to] = pushCheckpoint(t.balances[to], effective, new(big.Int).Add(toBalance, amount))
	return nil
}

// PowerAt implements voting.PowerSource: the balance held at the snapshot.
func (t *TokenLedger) PowerAt(account string, snapshot uint64) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return new(big.Int).Set(lastAmount(t.balances[account], snapshot)), nil
}

// TotalPowerAt implements voting.PowerSource: the total supply at the snapshot.
func (t *TokenLedger) TotalPowerAt(snapshot uint64) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return new(big.Int).Set(lastAmount(t.supply, snapshot)), nil
}

// lastAmount returns the last checkpointed amount at or before height.
func lastAmount(checkpoints []balanceCheckpoint, height uint64) *big.Int {
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if checkpoints[i].Height <= height {
			return checkpoints[i].Amount
		}
	}
	return zero
}

// pushCheckpoint appends or collapses a same-height checkpoint.
func pushCheckpoint(checkpoints []balanceCheckpoint, height uint64, amount *big.Int) []balanceCheckpoint {
	if n := len(checkpoints); n > 0 && checkpoints[n-1].Height == height {
		checkpoints[n-1].Amount = amount
		return checkpoints
	}
	return append(checkpoints, balanceCheckpoint{Height: height, Amount: amount})
}
