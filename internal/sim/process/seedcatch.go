package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/rng"
	"harvestsim.ai/internal/sim/state"
)

// SeedCatchHandler runs the tower's exclusive seed-catching session.
// Seeds accumulate during the session and are banked on completion.
type SeedCatchHandler struct{}

func (SeedCatchHandler) Metadata() Metadata {
	return Metadata{Kind: KindSeedCatch, MaxConcurrent: 1, Description: "tower seed catching"}
}

func (SeedCatchHandler) CanStart(ctx *Context, data map[string]any) (bool, string) {
	w := ctx.Manager.World()
	if w.Processes.SeedCatch != nil {
		return false, "already catching seeds"
	}
	if w.Progression.Level < ctx.Tuning.Tower.UnlockLevel {
		return false, fmt.Sprintf("the tower unlocks at level %d", ctx.Tuning.Tower.UnlockLevel)
	}
	if w.Resources.Energy.Current < ctx.Tuning.Tower.CatchEnergyCost {
		return false, "not enough energy"
	}
	return true, ""
}

func (SeedCatchHandler) Initialize(ctx *Context, h *Handle, data map[string]any) error {
	w := ctx.Manager.World()
	payload := &state.SeedCatchProcess{
		ID:            h.ID,
		StartedMinute: w.Clock.TotalMinutes,
		Duration:      ctx.Tuning.Tower.CatchMinutes,
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.seed_catch", Op: manager.OpSet, Value: payload},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceEnergy, Amount: ctx.Tuning.Tower.CatchEnergyCost,
		Subtract: true, EnforceLimit: true,
	}, "seed_catch", h.ID)
	return nil
}

func (SeedCatchHandler) Update(ctx *Context, h *Handle, deltaMinutes float64) (bool, error) {
	w := ctx.Manager.World()
	sc := w.Processes.SeedCatch
	if sc == nil || sc.ID != h.ID {
		return false, fmt.Errorf("seed catch payload %s missing", h.ID)
	}
	next := *sc
	next.Elapsed += deltaMinutes
	frac := next.Elapsed / next.Duration
	if frac > 1 {
		frac = 1
	}
	next.Caught = int(frac * float64(ctx.Tuning.Tower.SeedsPerCatch))
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.seed_catch", Op: manager.OpSet, Value: &next},
	}, manager.Options{})
	if res.Err != nil {
		return false, res.Err
	}
	h.Progress = frac
	return next.Elapsed >= next.Duration, nil
}

func (SeedCatchHandler) Complete(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	sc := w.Processes.SeedCatch
	if sc == nil || sc.ID != h.ID {
		return fmt.Errorf("seed catch payload %s missing", h.ID)
	}
	plantable := ctx.Catalog.ItemsByCategory("seed")
	changes := []manager.Change{
		{Path: "processes.seed_catch", Op: manager.OpRemove},
	}
	if len(plantable) > 0 {
		r := ctx.Rand.Stream(rng.StreamSeedCatch)
		for i := 0; i < sc.Caught; i++ {
			pick := plantable[r.Intn(len(plantable))]
			changes = append(changes, manager.Change{
				Path: "resources.seeds." + pick.ID, Op: manager.OpAdd, Value: 1,
			})
		}
	}
	res := ctx.Manager.UpdateState(changes, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	if sc.Caught > 0 {
		ctx.Manager.MarkProgress()
	}
	return nil
}

func (SeedCatchHandler) Cancel(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	if w.Processes.SeedCatch == nil || w.Processes.SeedCatch.ID != h.ID {
		return nil
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.seed_catch", Op: manager.OpRemove},
	}, manager.Options{})
	return res.Err
}
