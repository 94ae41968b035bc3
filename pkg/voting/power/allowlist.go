// Package power provides voting-power sources for the voting engine: a
// one-account-one-vote allowlist and a token-balance variant. Both key their
// history by chain height so answers for a past snapshot never change.
package power

import (
	"fmt"
	"math/big"
	"sync"
)

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
)

// membership is one contiguous span during which an address was listed.
// Removed == 0 means the span is still open.
type membership struct {
	Added   uint64
	Removed uint64
}

func (m membership) contains(height uint64) bool {
	return height >= m.Added && (m.Removed == 0 || height < m.Removed)
}

// countCheckpoint records the member count as of a height.
type countCheckpoint struct {
	Height uint64
	Count  uint64
}

// Allowlist is a voting.PowerSource where every listed address holds exactly
// one unit of power. Membership changes applied at height h take effect at
// h+1: the current height may already have been handed out as a snapshot, and
// snapshot answers must never change retroactively. Heights must not move
// backwards.
type Allowlist struct {
	mu      sync.RWMutex
	members map[string][]membership
	counts  []countCheckpoint
}

// NewAllowlist creates an allowlist with the given initial members. They are
// listed from the founding height itself: the list did not exist before, so
// no earlier snapshot can be invalidated.
func NewAllowlist(members []string, height uint64) *Allowlist {
	l := &Allowlist{members: make(map[string][]membership)}
	for _, addr := range members {
		if l.listedLocked(addr, height) {
			continue
		}
		l.members[addr] = append(l.members[addr], membership{Added: height})
	}
	if len(l.members) > 0 {
		l.pushCountLocked(height, uint64(len(l.members)))
	}
	return l
}

// Add lists the addresses from the height after the given one. Already-listed
// addresses are ignored.
func (l *Allowlist) Add(addresses []string, height uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	effective := height + 1
	if err := l.checkHeightLocked(effective); err != nil {
		return err
	}
	count := l.countAtLocked(effective)
	changed := false
	for _, addr := range addresses {
		if l.listedLocked(addr, effective) {
			continue
		}
		l.members[addr] = append(l.members[addr], membership{Added: effective})
		count++
		changed = true
	}
	if changed {
		l.pushCountLocked(effective, count)
	}
	return nil
}

// Remove delists the addresses from the height after the given one. Unknown
// addresses are ignored.
func (l *Allowlist) Remove(addresses []string, height uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	effective := height + 1
	if err := l.checkHeightLocked(effective); err != nil {
		return err
	}
	count := l.countAtLocked(effective)
	changed := false
	for _, addr := range addresses {
		spans := l.members[addr]
		if len(spans) == 0 {
			continue
		}
		last := &spans[len(spans)-1]
		if last.Removed != 0 || !last.contains(effective) {
			continue
		}
		last.Removed = effective
		if count > 0 {
			count--
		}
		changed = true
	}
	if changed {
		l.pushCountLocked(effective, count)
	}
	return nil
}

// IsListed reports whether the address holds power at the given height.
func (l *Allowlist) IsListed(address string, height uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.listedLocked(address, height)
}

// PowerAt implements voting.PowerSource: one unit per listed address.
func (l *Allowlist) PowerAt(account string, snapshot uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.listedLocked(account, snapshot) {
		return new(big.Int).Set(one), nil
	}
	return new(big.Int).Set(zero), nil
}

// TotalPowerAt implements voting.PowerSource: the member count at the snapshot.
func (l *Allowlist) TotalPowerAt(snapshot uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return new(big.Int).SetUint64(l.countAtLocked(snapshot)), nil
}

func (l *Allowlist) listedLocked(address string, height uint64) bool {
	for _, span := range l.members[address] {
		if span.contains(height) {
			return true
		}
	}
	return false
}

// checkHeightLocked enforces append-only history.
func (l *Allowlist) checkHeightLocked(height uint64) error {
	if n := len(l.counts); n > 0 && l.counts[n-1].Height > height {
		return fmt.Errorf("allowlist change at height %d is before last change at %d",
			height, l.counts[n-1].Height)
	}
	return nil
}

// countAtLocked finds the last checkpoint at or before height.
func (l *Allowlist) countAtLocked(height uint64) uint64 {
	for i := len(l.counts) - 1; i >= 0; i-- {
		if l.counts[i].Height <= height {
			return l.counts[i].Count
		}
	}
	return 0
}

// pushCountLocked records the new count at height, collapsing same-height updates.
func (l *Allowlist) pushCountLocked(height uint64, count uint64) {
	if n := len(l.counts); n > 0 && l.counts[n-1].Height == height {
		l.counts[n-1].Count = count
		return
	}
	l.counts = append(l.counts, countCheckpoint{Height: height, Count: count})
}
