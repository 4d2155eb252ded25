package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/state"
	"harvestsim.ai/internal/sim/tuning"
)

// TrainingHandler runs helper training courses. At most one course per
// helper; the cap on simultaneous courses sits at the registry.
type TrainingHandler struct{}

func (TrainingHandler) Metadata() Metadata {
	return Metadata{Kind: KindTraining, MaxConcurrent: 2, Description: "helper training course"}
}

func (TrainingHandler) CanStart(ctx *Context, data map[string]any) (bool, string) {
	w := ctx.Manager.World()
	helperID, _ := data["helper_id"].(string)
	if w.HelperByID(helperID) == nil {
		return false, fmt.Sprintf("no helper %q on the roster", helperID)
	}
	for _, tr := range w.Processes.Training {
		if tr.HelperID == helperID {
			return false, fmt.Sprintf("helper %s is already in training", helperID)
		}
	}
	if w.Resources.Gold.Current < ctx.Tuning.Helpers.TrainingCost {
		return false, "not enough gold"
	}
	return true, ""
}

func (TrainingHandler) Initialize(ctx *Context, h *Handle, data map[string]any) error {
	w := ctx.Manager.World()
	helperID := data["helper_id"].(string)
	skill, _ := data["skill"].(string)
	if skill == "" {
		skill = "farming"
	}
	payload := &state.TrainingProcess{
		ID:            h.ID,
		HelperID:      helperID,
		Skill:         skill,
		StartedMinute: w.Clock.TotalMinutes,
		Duration:      ctx.Tuning.Helpers.TrainingMinutes,
	}
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.training." + h.ID, Op: manager.OpSet, Value: payload},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceGold, Amount: ctx.Tuning.Helpers.TrainingCost,
		Subtract: true, EnforceLimit: true,
	}, "training", h.ID)
	return nil
}

func (TrainingHandler) Update(ctx *Context, h *Handle, deltaMinutes float64) (bool, error) {
	w := ctx.Manager.World()
	tr := w.Processes.Training[h.ID]
	if tr == nil {
		return false, fmt.Errorf("training payload %s missing", h.ID)
	}
	next := *tr
	next.Elapsed += deltaMinutes
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.training." + h.ID, Op: manager.OpSet, Value: &next},
	}, manager.Options{})
	if res.Err != nil {
		return false, res.Err
	}
	h.Progress = next.Elapsed / next.Duration
	return next.Elapsed >= next.Duration, nil
}

func (TrainingHandler) Complete(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	tr := w.Processes.Training[h.ID]
	if tr == nil {
		return fmt.Errorf("training payload %s missing", h.ID)
	}
	helper := w.HelperByID(tr.HelperID)
	changes := []manager.Change{
		{Path: "processes.training." + h.ID, Op: manager.OpRemove},
	}
	if helper != nil {
		upgraded := *helper
		upgraded.Skills = map[string]int{}
		for k, v := range helper.Skills {
			upgraded.Skills[k] = v
		}
		upgraded.Skills[tr.Skill]++
		upgraded.Level++
		changes = append(changes, manager.Change{
			Path: "helpers." + helper.ID, Op: manager.OpSet, Value: upgraded,
		})
	}
	res := ctx.Manager.UpdateState(changes, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.MarkProgress()
	return nil
}

func (TrainingHandler) Cancel(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	tr := w.Processes.Training[h.ID]
	if tr == nil {
		return nil
	}
	// Refund half the fee on an aborted course.
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.training." + h.ID, Op: manager.OpRemove},
	}, manager.Options{})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.UpdateResource(manager.ResourceRequest{
		Kind: state.ResourceGold, Amount: ctx.Tuning.Helpers.TrainingCost / 2,
		EnforceLimit: true,
	}, "training_refund", h.ID)
	return nil
}

// Registered wires every built-in handler into a fresh registry, with
// concurrency caps taken from tuning.
func Registered(t *tuning.Tuning) *Registry {
	r := NewRegistry()
	r.Register(CropHandler{})
	r.Register(AdventureHandler{})
	r.Register(capped{CraftHandler{}, t.Forge.MaxConcurrent})
	r.Register(MiningHandler{})
	r.Register(SeedCatchHandler{})
	r.Register(capped{TrainingHandler{}, t.Helpers.MaxConcurrent})
	return r
}

// capped overrides a handler's advertised concurrency with a tuned cap.
type capped struct {
	Handler
	max int
}

func (c capped) Metadata() Metadata {
	m := c.Handler.Metadata()
	if c.max > 0 {
		m.MaxConcurrent = c.max
	}
	return m
}
