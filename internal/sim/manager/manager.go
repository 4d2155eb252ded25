// Package manager is the only path through which the world state may be
// mutated. It applies ordered, path-addressed changes immediately or
// under an explicit transaction with snapshot rollback, and re-checks
// critical invariants so no sequence of mutations can leave the world in
// an invalid configuration.
package manager

import (
	"fmt"

	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
)

// Options selects how a batch of changes is applied.
type Options struct {
	// Transaction, when non-nil, defers the changes to the transaction's
	// commit instead of applying them now.
	Transaction *Tx
	// ValidateBefore rejects the batch up front if the world is already
	// in violation of a critical invariant.
	ValidateBefore bool
	// ValidateAfter re-checks critical invariants after applying; on
	// violation the whole batch is rolled back.
	ValidateAfter bool
	// EmitEvents publishes a state.changed event per applied change.
	EmitEvents bool
	// AllowPartial keeps earlier changes of the batch when a later one
	// fails. Without it the batch is all-or-nothing.
	AllowPartial bool
}

// Result reports the outcome of an update.
type Result struct {
	Success bool
	Applied int
	Err     error
}

// Manager guards the world aggregate.
type Manager struct {
	world  *state.World
	bus    *events.Bus
	ledger *Ledger

	open       *Tx
	txSeq      int
	tick       uint64
	regenCarry float64
}

func New(w *state.World, bus *events.Bus, ledger *Ledger) *Manager {
	return &Manager{world: w, bus: bus, ledger: ledger}
}

// World exposes the aggregate for reading. Callers must not mutate it.
func (m *Manager) World() *state.World { return m.world }

// Ledger exposes capacity arithmetic for read-side queries.
func (m *Manager) Ledger() *Ledger { return m.ledger }

// BeginTick marks the tick boundary. A transaction leaked from the
// previous tick is force-rolled-back here; transactions must never span
// ticks.
func (m *Manager) BeginTick(tick uint64) {
	if m.open != nil {
		leaked := m.open
		m.RollbackTransaction(leaked)
		m.emit(events.Event{
			Type:  events.TypeTxRollback,
			Level: events.LevelError,
			Tick:  tick,
			Data:  map[string]any{"tx": leaked.id, "reason": "spanned tick boundary"},
		})
	}
	m.tick = tick
}

// UpdateState applies an ordered list of changes per opts.
func (m *Manager) UpdateState(changes []Change, opts Options) Result {
	if len(changes) == 0 {
		return Result{Success: true}
	}
	if opts.Transaction != nil {
		if err := m.AddToTransaction(opts.Transaction, changes...); err != nil {
			return Result{Err: err}
		}
		return Result{Success: true}
	}
	if opts.ValidateBefore {
		if issues := ValidateCritical(m.world); HasErrors(issues) {
			return Result{Err: fmt.Errorf("pre-validation failed: %s", issues[0].Message)}
		}
	}

	var snap *state.World
	if !opts.AllowPartial || opts.ValidateAfter {
		snap = m.world.Clone()
	}

	applied := 0
	for _, ch := range changes {
		if err := applyChange(m.world, ch); err != nil {
			if !opts.AllowPartial {
				*m.world = *snap
				return Result{Err: err}
			}
			m.emit(events.Event{
				Type:  events.TypeValidation,
				Level: events.LevelWarning,
				Tick:  m.tick,
				Data:  map[string]any{"path": ch.Path, "error": err.Error()},
			})
			continue
		}
		applied++
		if opts.EmitEvents {
			m.emit(events.Event{
				Type: events.TypeStateChange,
				Tick: m.tick,
				Data: map[string]any{"path": ch.Path, "op": string(ch.Op)},
			})
		}
	}

	if opts.ValidateAfter {
		if issues := ValidateCritical(m.world); HasErrors(issues) {
			*m.world = *snap
			return Result{Err: fmt.Errorf("post-validation failed: %s", issues[0].Message)}
		}
	}
	return Result{Success: true, Applied: applied}
}

// ResourceRequest is the convenience path for capacity-aware counters.
type ResourceRequest struct {
	Kind         state.ResourceKind
	Amount       int
	Subtract     bool
	EnforceLimit bool
}

// UpdateResource delegates counter arithmetic to the ledger and records
// the mutation uniformly with all other state changes.
func (m *Manager) UpdateResource(req ResourceRequest, reason, source string) LedgerResult {
	c := m.world.Resources.Counter(req.Kind)
	if c == nil {
		return LedgerResult{}
	}
	var res LedgerResult
	if req.Subtract {
		res = m.ledger.Subtract(c, req.Amount, req.EnforceLimit)
	} else {
		res = m.ledger.Add(c, req.Amount, req.EnforceLimit)
	}
	if res.Success && res.Actual != 0 {
		delta := res.Actual
		if req.Subtract {
			delta = -delta
		}
		m.emit(events.Event{
			Type: events.TypeResourceChange,
			Tick: m.tick,
			Data: map[string]any{
				"kind":    string(req.Kind),
				"delta":   delta,
				"current": c.Current,
				"reason":  reason,
				"source":  source,
			},
		})
	}
	return res
}

func (m *Manager) emit(e events.Event) {
	if m.bus == nil {
		return
	}
	if e.Minute == 0 {
		e.Minute = m.world.Clock.TotalMinutes
	}
	m.bus.Emit(e)
}
