package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/rng"
	"harvestsim.ai/internal/sim/state"
)

// AdventureHandler runs the single exclusive adventure slot. Energy is
// paid up front; gold, XP and loot land on completion.
type AdventureHandler struct{}

func (AdventureHandler) Metadata() Metadata {
	return Metadata{Kind: KindAdventure, MaxConcurrent: 1, Description: "adventure expedition"}
}

func (AdventureHandler) CanStart(ctx *Context, data map[string]any) (bool, string) {
	w := ctx.Manager.World()
	if w.Processes.Adventure != nil {
		return false, "an adventure is already underway"
	}
	if w.Progression.Level < ctx.Tuning.Adventure.UnlockLevel {
		return false, fmt.Sprintf("adventuring unlocks at level %d", ctx.Tuning.Adventure.UnlockLevel)
	}
	if w.Resources.Energy.Current < ctx.Tuning.Adventure.EnergyCost {
		return false, "not enough energy"
	}
	return true, ""
}

func (AdventureHandler) Initialize(ctx *Context, h *Handle, data map[string]any) error {
	w := ctx.Manager.World()
	areaID, _ := data["area_id"].(string)
	if areaID == "" {
		areaID = "meadow"
	}
	payload := &state.AdventureProcess{
		ID:            h.ID,
		AreaID:        areaID,
		StartedMinute: w.Clock.TotalMinutes,
		Duration:      ctx.Tuning.Adventure.MinutesPerRun,
		EnergySpent:   ctx.Tuning.Adventure.EnergyCost,
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.adventure", Op: manager.OpSet, Value: payload},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceEnergy, Amount: ctx.Tuning.Adventure.EnergyCost,
		Subtract: true, EnforceLimit: true,
	}, "adventure", h.ID)
	return nil
}

func (AdventureHandler) Update(ctx *Context, h *Handle, deltaMinutes float64) (bool, error) {
	w := ctx.Manager.World()
	adv := w.Processes.Adventure
	if adv == nil || adv.ID != h.ID {
		return false, fmt.Errorf("adventure payload %s missing", h.ID)
	}
	next := *adv
	next.Elapsed += deltaMinutes
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.adventure", Op: manager.OpSet, Value: &next},
	}, manager.Options{})
	if res.Err != nil {
		return false, res.Err
	}
	h.Progress = next.Elapsed / next.Duration
	return next.Elapsed >= next.Duration, nil
}

func (AdventureHandler) Complete(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	adv := w.Processes.Adventure
	if adv == nil || adv.ID != h.ID {
		return fmt.Errorf("adventure payload %s missing", h.ID)
	}
	r := ctx.Rand.Stream(rng.StreamAdventure)
	gold := ctx.Tuning.Adventure.BaseGoldReward + r.Intn(ctx.Tuning.Adventure.BaseGoldReward+1)
	loot := lootForArea(adv.AreaID)

	changes := []manager.Change{
		{Path: "processes.adventure", Op: manager.OpRemove},
	}
	if loot != "" {
		changes = append(changes, manager.Change{
			Path: "resources.materials." + loot, Op: manager.OpAdd, Value: 1 + r.Intn(3),
		})
	}
	res := ctx.Manager.UpdateState(changes, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceGold, Amount: gold, EnforceLimit: true,
	}, "adventure_reward", h.ID)
	ctx.Manager.ApplyXP(ctx.Tuning.Adventure.BaseXPReward, "adventure")
	return nil
}

func (AdventureHandler) Cancel(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	if w.Processes.Adventure == nil || w.Processes.Adventure.ID != h.ID {
		return nil
	}
	// Aborting forfeits the energy already spent.
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.adventure", Op: manager.OpRemove},
	}, manager.Options{})
	return res.Err
}

func lootForArea(areaID string) string {
	switch areaID {
	case "meadow":
		return "fiber"
	case "caves":
		return "stone"
	case "ruins":
		return "relic_shard"
	}
	return ""
}
