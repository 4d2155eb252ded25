package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/state"
)

// CropHandler grows one planted seed toward harvest. A crop never
// completes on its own: Update flips ReadyToHarvest exactly once and the
// harvest action finishes the process explicitly.
type CropHandler struct{}

func (CropHandler) Metadata() Metadata {
	return Metadata{Kind: KindCrop, Description: "crop growth on one farm plot"}
}

func (CropHandler) CanStart(ctx *Context, data map[string]any) (bool, string) {
	w := ctx.Manager.World()
	seedID, _ := data["seed_id"].(string)
	if seedID == "" {
		return false, "no seed selected"
	}
	item, ok := ctx.Catalog.ItemByID(seedID)
	if !ok {
		return false, fmt.Sprintf("unknown seed %q", seedID)
	}
	if item.Category != "seed" {
		return false, fmt.Sprintf("%q is not a seed", seedID)
	}
	if w.Resources.Seeds[seedID] < 1 {
		return false, fmt.Sprintf("no %s in stock", seedID)
	}
	if w.Farm.AvailablePlots < 1 {
		return false, "no free plot"
	}
	if w.Resources.Energy.Current < ctx.Tuning.Farm.PlantEnergyCost {
		return false, "not enough energy"
	}
	return true, ""
}

func (CropHandler) Initialize(ctx *Context, h *Handle, data map[string]any) error {
	w := ctx.Manager.World()
	seedID := data["seed_id"].(string)
	item, _ := ctx.Catalog.ItemByID(seedID)
	growth := item.GrowthMinutes
	if growth < ctx.Tuning.Farm.GrowthMinutesMin {
		growth = ctx.Tuning.Farm.GrowthMinutesMin
	}
	payload := &state.CropProcess{
		ID:             h.ID,
		SeedID:         seedID,
		PlantedMinute:  w.Clock.TotalMinutes,
		GrowthRequired: growth,
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "resources.seeds." + seedID, Op: manager.OpSubtract, Value: 1},
		{Path: "farm.available_plots", Op: manager.OpSubtract, Value: 1},
		{Path: "processes.crops." + h.ID, Op: manager.OpSet, Value: payload},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceEnergy, Amount: ctx.Tuning.Farm.PlantEnergyCost,
		Subtract: true, EnforceLimit: true,
	}, "plant", h.ID)
	return nil
}

func (CropHandler) Update(ctx *Context, h *Handle, deltaMinutes float64) (bool, error) {
	w := ctx.Manager.World()
	crop := w.Processes.Crops[h.ID]
	if crop == nil {
		return false, fmt.Errorf("crop payload %s missing", h.ID)
	}
	next := *crop
	next.Elapsed += deltaMinutes
	if next.Elapsed > next.GrowthRequired {
		next.Elapsed = next.GrowthRequired
	}
	ready := !crop.ReadyToHarvest && next.Elapsed >= next.GrowthRequired
	if ready {
		next.ReadyToHarvest = true
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.crops." + h.ID, Op: manager.OpSet, Value: &next},
	}, manager.Options{})
	if res.Err != nil {
		return false, res.Err
	}
	h.Progress = next.Elapsed / next.GrowthRequired
	if ready {
		ctx.Bus.Emit(events.Event{
			Type:   events.TypeCropReady,
			Tick:   w.Clock.Tick,
			Minute: w.Clock.TotalMinutes,
			Data:   map[string]any{"id": h.ID, "seed": next.SeedID},
		})
	}
	// Crops wait for an explicit harvest.
	return false, nil
}

func (CropHandler) Complete(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	crop := w.Processes.Crops[h.ID]
	if crop == nil {
		return fmt.Errorf("crop payload %s missing", h.ID)
	}
	item, ok := ctx.Catalog.ItemByID(crop.SeedID)
	if !ok {
		return fmt.Errorf("unknown seed %q", crop.SeedID)
	}
	yieldItem := item.YieldItem
	yieldCount := item.YieldCount
	if yieldItem == "" {
		yieldItem = crop.SeedID + "_crop"
	}
	if yieldCount <= 0 {
		yieldCount = 1
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "resources.materials." + yieldItem, Op: manager.OpAdd, Value: yieldCount},
		{Path: "farm.available_plots", Op: manager.OpAdd, Value: 1},
		{Path: "processes.crops." + h.ID, Op: manager.OpRemove},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.ApplyXP(ctx.Tuning.Farm.HarvestXP, "harvest")
	return nil
}

func (CropHandler) Cancel(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	if w.Processes.Crops[h.ID] == nil {
		return nil
	}
	// Releasing the plot keeps accounting consistent; the seed is lost.
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "farm.available_plots", Op: manager.OpAdd, Value: 1},
		{Path: "processes.crops." + h.ID, Op: manager.OpRemove},
	}, manager.Options{ValidateAfter: true})
	return res.Err
}
