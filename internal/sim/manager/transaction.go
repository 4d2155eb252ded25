package manager

import (
	"fmt"

	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
)

// TxStatus is the lifecycle of a transaction handle.
type TxStatus string

const (
	TxPending    TxStatus = "pending"
	TxCommitted  TxStatus = "committed"
	TxRolledBack TxStatus = "rolled_back"
	TxFailed     TxStatus = "failed"
)

// Tx groups changes into an all-or-nothing unit. It holds a deep
// pre-transaction snapshot from Begin until Commit/Rollback and must not
// outlive the tick that opened it.
type Tx struct {
	id       int
	changes  []Change
	snapshot *state.World
	status   TxStatus
	openTick uint64
}

// Status returns the transaction's current lifecycle state.
func (t *Tx) Status() TxStatus { return t.status }

// ID returns the transaction's per-run sequence number.
func (t *Tx) ID() int { return t.id }

// BeginTransaction opens a transaction. Transactions never nest: a
// second Begin while one is pending is an error.
func (m *Manager) BeginTransaction() (*Tx, error) {
	if m.open != nil {
		return nil, fmt.Errorf("transaction %d still open", m.open.id)
	}
	m.txSeq++
	tx := &Tx{
		id:       m.txSeq,
		snapshot: m.world.Clone(),
		status:   TxPending,
		openTick: m.tick,
	}
	m.open = tx
	return tx, nil
}

// AddToTransaction stages changes; nothing touches the world until
// commit.
func (m *Manager) AddToTransaction(tx *Tx, changes ...Change) error {
	if tx == nil || tx != m.open || tx.status != TxPending {
		return fmt.Errorf("transaction not open")
	}
	tx.changes = append(tx.changes, changes...)
	return nil
}

// CommitTransaction applies the staged changes in order and re-checks
// critical invariants. On any failure the pre-transaction snapshot is
// restored, the transaction is marked failed and callers observe no
// partial effect.
func (m *Manager) CommitTransaction(tx *Tx) error {
	if tx == nil || tx != m.open || tx.status != TxPending {
		return fmt.Errorf("transaction not open")
	}
	defer func() { m.open = nil }()

	for _, ch := range tx.changes {
		if err := applyChange(m.world, ch); err != nil {
			*m.world = *tx.snapshot
			tx.status = TxFailed
			m.emitTxRollback(tx, err.Error())
			return fmt.Errorf("commit tx %d: %w", tx.id, err)
		}
	}
	if issues := ValidateCritical(m.world); HasErrors(issues) {
		*m.world = *tx.snapshot
		tx.status = TxFailed
		m.emitTxRollback(tx, issues[0].Message)
		return fmt.Errorf("commit tx %d: invariant violated: %s", tx.id, issues[0].Message)
	}
	tx.status = TxCommitted
	return nil
}

// RollbackTransaction discards the transaction and restores the
// snapshot.
func (m *Manager) RollbackTransaction(tx *Tx) {
	if tx == nil || tx != m.open || tx.status != TxPending {
		return
	}
	*m.world = *tx.snapshot
	tx.status = TxRolledBack
	m.open = nil
}

func (m *Manager) emitTxRollback(tx *Tx, reason string) {
	m.emit(events.Event{
		Type:  events.TypeTxRollback,
		Level: events.LevelWarning,
		Tick:  m.tick,
		Data:  map[string]any{"tx": tx.id, "reason": reason, "changes": len(tx.changes)},
	})
}
