package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/rng"
	"harvestsim.ai/internal/sim/state"
)

// MiningHandler runs the single exclusive mining expedition. Depth
// scales with level; deeper runs yield more ore.
type MiningHandler struct{}

func (MiningHandler) Metadata() Metadata {
	return Metadata{Kind: KindMining, MaxConcurrent: 1, Description: "mining expedition"}
}

func (MiningHandler) CanStart(ctx *Context, data map[string]any) (bool, string) {
	w := ctx.Manager.World()
	if w.Processes.Mining != nil {
		return false, "a mining expedition is already underway"
	}
	if w.Progression.Level < ctx.Tuning.Mine.UnlockLevel {
		return false, fmt.Sprintf("mining unlocks at level %d", ctx.Tuning.Mine.UnlockLevel)
	}
	if w.Resources.Energy.Current < ctx.Tuning.Mine.EnergyCost {
		return false, "not enough energy"
	}
	return true, ""
}

func (MiningHandler) Initialize(ctx *Context, h *Handle, data map[string]any) error {
	w := ctx.Manager.World()
	depth := w.Progression.Level / 2
	if depth < 1 {
		depth = 1
	}
	payload := &state.MiningProcess{
		ID:            h.ID,
		Depth:         depth,
		StartedMinute: w.Clock.TotalMinutes,
		Duration:      ctx.Tuning.Mine.MinutesPerRun,
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.mining", Op: manager.OpSet, Value: payload},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceEnergy, Amount: ctx.Tuning.Mine.EnergyCost,
		Subtract: true, EnforceLimit: true,
	}, "mining", h.ID)
	return nil
}

func (MiningHandler) Update(ctx *Context, h *Handle, deltaMinutes float64) (bool, error) {
	w := ctx.Manager.World()
	mine := w.Processes.Mining
	if mine == nil || mine.ID != h.ID {
		return false, fmt.Errorf("mining payload %s missing", h.ID)
	}
	next := *mine
	next.Elapsed += deltaMinutes
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.mining", Op: manager.OpSet, Value: &next},
	}, manager.Options{})
	if res.Err != nil {
		return false, res.Err
	}
	h.Progress = next.Elapsed / next.Duration
	return next.Elapsed >= next.Duration, nil
}

func (MiningHandler) Complete(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	mine := w.Processes.Mining
	if mine == nil || mine.ID != h.ID {
		return fmt.Errorf("mining payload %s missing", h.ID)
	}
	r := ctx.Rand.Stream(rng.StreamMining)
	ore := ctx.Tuning.Mine.OrePerRun + mine.Depth + r.Intn(mine.Depth+1)
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "resources.materials.ore", Op: manager.OpAdd, Value: ore},
		{Path: "processes.mining", Op: manager.OpRemove},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.ApplyXP(mine.Depth*2, "mining")
	return nil
}

func (MiningHandler) Cancel(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	if w.Processes.Mining == nil || w.Processes.Mining.ID != h.ID {
		return nil
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.mining", Op: manager.OpRemove},
	}, manager.Options{})
	return res.Err
}
