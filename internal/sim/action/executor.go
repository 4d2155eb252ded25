// Package action executes the decision engine's chosen candidate. One
// strategy per action kind re-validates preconditions before touching
// anything, so a rejected action leaves the world byte-identical, and
// every multi-change effect goes through the manager so a mid-apply
// failure rolls back completely.
package action

import (
	"fmt"

	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/decision"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/process"
	"harvestsim.ai/internal/sim/tuning"
)

// Result reports one execution attempt. Failure is data, not an error:
// the tick loop records it and moves on.
type Result struct {
	Kind     decision.ActionKind `json:"kind"`
	Target   string              `json:"target,omitempty"`
	Executed bool                `json:"executed"`
	Reason   string              `json:"reason,omitempty"`
	Detail   map[string]any      `json:"detail,omitempty"`
}

// rejection marks a precondition failure. Rejected actions are routine
// (the world moved between filtering and execution) and log at debug.
type rejection struct{ reason string }

func (r rejection) Error() string { return r.reason }

func reject(format string, args ...any) error {
	return rejection{reason: fmt.Sprintf(format, args...)}
}

type strategy func(ex *Executor, c decision.Candidate) (map[string]any, error)

// Executor dispatches candidates to per-kind strategies.
type Executor struct {
	mgr  *manager.Manager
	reg  *process.Registry
	pctx *process.Context
	cat  *catalogs.Catalog
	tun  *tuning.Tuning
	bus  *events.Bus

	strategies map[decision.ActionKind]strategy
	helperSeq  int
}

func NewExecutor(mgr *manager.Manager, reg *process.Registry, pctx *process.Context, cat *catalogs.Catalog, tun *tuning.Tuning, bus *events.Bus) *Executor {
	ex := &Executor{mgr: mgr, reg: reg, pctx: pctx, cat: cat, tun: tun, bus: bus}
	ex.strategies = map[decision.ActionKind]strategy{
		decision.ActionPump:         pump,
		decision.ActionPlant:        plant,
		decision.ActionHarvest:      harvest,
		decision.ActionRest:         rest,
		decision.ActionEat:          eat,
		decision.ActionBuySeeds:     buySeeds,
		decision.ActionSellCrops:    sellCrops,
		decision.ActionHireHelper:   hireHelper,
		decision.ActionAssignHelper: assignHelper,
		decision.ActionTrainHelper:  trainHelper,
		decision.ActionAdventure:    startAdventure,
		decision.ActionCraft:        startCraft,
		decision.ActionMine:         startMining,
		decision.ActionCatchSeeds:   catchSeeds,
		decision.ActionNavigate:     navigate,
	}
	return ex
}

// Execute runs the candidate through its strategy and reports the
// outcome on the event bus.
func (ex *Executor) Execute(c decision.Candidate) Result {
	res := Result{Kind: c.Kind, Target: c.Target}
	st, ok := ex.strategies[c.Kind]
	if !ok {
		res.Reason = fmt.Sprintf("no strategy for action %q", c.Kind)
		ex.emitFailed(c, res.Reason, events.LevelError)
		return res
	}

	detail, err := st(ex, c)
	if err != nil {
		res.Reason = err.Error()
		level := events.LevelWarning
		if _, isRejection := err.(rejection); isRejection {
			level = events.LevelDebug
		}
		ex.emitFailed(c, res.Reason, level)
		return res
	}

	res.Executed = true
	res.Detail = detail
	w := ex.mgr.World()
	data := map[string]any{"kind": string(c.Kind)}
	if c.Target != "" {
		data["target"] = c.Target
	}
	for k, v := range detail {
		data[k] = v
	}
	ex.bus.Emit(events.Event{
		Type:   events.TypeActionExecuted,
		Tick:   w.Clock.Tick,
		Minute: w.Clock.TotalMinutes,
		Data:   data,
	})
	return res
}

func (ex *Executor) emitFailed(c decision.Candidate, reason string, level events.Level) {
	w := ex.mgr.World()
	ex.bus.Emit(events.Event{
		Type:   events.TypeActionFailed,
		Level:  level,
		Tick:   w.Clock.Tick,
		Minute: w.Clock.TotalMinutes,
		Data: map[string]any{
			"kind":   string(c.Kind),
			"target": c.Target,
			"reason": reason,
		},
	})
}

// startProcess adapts a registry start into the strategy contract.
func (ex *Executor) startProcess(kind process.Kind, data map[string]any) (map[string]any, error) {
	res := ex.reg.Start(ex.pctx, kind, data)
	if !res.CanStart {
		return nil, reject("%s", res.Reason)
	}
	return map[string]any{"process": res.Handle.ID}, nil
}
