package manager

import "harvestsim.ai/internal/sim/state"

// LedgerResult reports how much of a requested amount was actually
// applied. Adding 10 against 2 remaining capacity succeeds with
// Actual=2, Overflow=8; nothing is silently discarded or exceeded.
type LedgerResult struct {
	Success  bool
	Actual   int
	Overflow int
}

// Ledger owns capacity-bounded counter arithmetic, including tiered
// capacity unlocks. It never touches the world directly; callers hand it
// the counter to mutate.
type Ledger struct {
	tiers map[state.ResourceKind][]int
}

func NewLedger(tiers map[state.ResourceKind][]int) *Ledger {
	return &Ledger{tiers: tiers}
}

// Add credits amount to c. With enforceLimit the credit is clamped at
// capacity; without it the counter may exceed Max (used for one-off
// grants that a later validation pass is expected to flag).
func (l *Ledger) Add(c *state.Counter, amount int, enforceLimit bool) LedgerResult {
	if amount < 0 {
		return LedgerResult{}
	}
	if !enforceLimit {
		c.Current += amount
		return LedgerResult{Success: true, Actual: amount}
	}
	room := c.Max - c.Current
	if room < 0 {
		room = 0
	}
	actual := amount
	if actual > room {
		actual = room
	}
	c.Current += actual
	return LedgerResult{Success: true, Actual: actual, Overflow: amount - actual}
}

// Subtract debits amount from c. With enforceLimit a debit past zero
// fails outright; without it the debit is clamped at zero.
func (l *Ledger) Subtract(c *state.Counter, amount int, enforceLimit bool) LedgerResult {
	if amount < 0 {
		return LedgerResult{}
	}
	if enforceLimit && amount > c.Current {
		return LedgerResult{Overflow: amount - c.Current}
	}
	actual := amount
	if actual > c.Current {
		actual = c.Current
	}
	c.Current -= actual
	return LedgerResult{Success: true, Actual: actual, Overflow: amount - actual}
}

// Transfer moves amount between counters, applying capacity on the
// receiving side. The debit matches what the credit accepted, so no
// quantity is created or destroyed.
func (l *Ledger) Transfer(from, to *state.Counter, amount int, enforceLimit bool) LedgerResult {
	if amount < 0 {
		return LedgerResult{}
	}
	if amount > from.Current {
		if enforceLimit {
			return LedgerResult{Overflow: amount - from.Current}
		}
		amount = from.Current
	}
	credit := l.Add(to, amount, enforceLimit)
	from.Current -= credit.Actual
	return LedgerResult{Success: true, Actual: credit.Actual, Overflow: credit.Overflow}
}

// Upgrade moves c to the next capacity tier for kind. Returns false when
// the counter is already at the top tier or the kind has no ladder.
func (l *Ledger) Upgrade(kind state.ResourceKind, c *state.Counter) bool {
	ladder := l.tiers[kind]
	next := c.Tier + 1
	if next >= len(ladder) {
		return false
	}
	c.Tier = next
	c.Max = ladder[next]
	return true
}

// CapacityAt reports the configured capacity for kind at tier.
func (l *Ledger) CapacityAt(kind state.ResourceKind, tier int) (int, bool) {
	ladder := l.tiers[kind]
	if tier < 0 || tier >= len(ladder) {
		return 0, false
	}
	return ladder[tier], true
}
