package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/state"
)

// CraftHandler runs forge jobs. Inputs are consumed at start inside one
// transaction; output lands on completion.
type CraftHandler struct{}

func (CraftHandler) Metadata() Metadata {
	// MaxConcurrent comes from tuning at registry level via the engine;
	// 2 is the documented default forge size.
	return Metadata{Kind: KindCraft, MaxConcurrent: 2, Description: "forge crafting job"}
}

func (CraftHandler) CanStart(ctx *Context, data map[string]any) (bool, string) {
	w := ctx.Manager.World()
	recipeID, _ := data["recipe_id"].(string)
	recipe, ok := ctx.Catalog.RecipeByID(recipeID)
	if !ok {
		return false, fmt.Sprintf("unknown recipe %q", recipeID)
	}
	if w.Progression.Level < recipe.UnlockLevel {
		return false, fmt.Sprintf("recipe %s unlocks at level %d", recipeID, recipe.UnlockLevel)
	}
	for item, n := range recipe.Inputs {
		if w.Resources.Materials[item] < n {
			return false, fmt.Sprintf("need %d %s", n, item)
		}
	}
	return true, ""
}

func (CraftHandler) Initialize(ctx *Context, h *Handle, data map[string]any) error {
	w := ctx.Manager.World()
	recipeID := data["recipe_id"].(string)
	recipe, _ := ctx.Catalog.RecipeByID(recipeID)
	payload := &state.CraftProcess{
		ID:            h.ID,
		RecipeID:      recipeID,
		StartedMinute: w.Clock.TotalMinutes,
		Duration:      recipe.TimeMinutes,
	}

	// Consuming inputs and reserving the job is all-or-nothing.
	tx, err := ctx.Manager.BeginTransaction()
	if err != nil {
		return err
	}
	changes := make([]manager.Change, 0, len(recipe.Inputs)+1)
	for item, n := range recipe.Inputs {
		changes = append(changes, manager.Change{
			Path: "resources.materials." + item, Op: manager.OpSubtract, Value: n,
		})
	}
	changes = append(changes, manager.Change{
		Path: "processes.crafting." + h.ID, Op: manager.OpSet, Value: payload,
	})
	if err := ctx.Manager.AddToTransaction(tx, changes...); err != nil {
		ctx.Manager.RollbackTransaction(tx)
		return err
	}
	return ctx.Manager.CommitTransaction(tx)
}

func (CraftHandler) Update(ctx *Context, h *Handle, deltaMinutes float64) (bool, error) {
	w := ctx.Manager.World()
	job := w.Processes.Crafting[h.ID]
	if job == nil {
		return false, fmt.Errorf("craft payload %s missing", h.ID)
	}
	next := *job
	next.Elapsed += deltaMinutes
	res := ctx.Manager.UpdateState([]manager.Change{
		{Path: "processes.crafting." + h.ID, Op: manager.OpSet, Value: &next},
	}, manager.Options{})
	if res.Err != nil {
		return false, res.Err
	}
	h.Progress = next.Elapsed / next.Duration
	return next.Elapsed >= next.Duration, nil
}

func (CraftHandler) Complete(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	job := w.Processes.Crafting[h.ID]
	if job == nil {
		return fmt.Errorf("craft payload %s missing", h.ID)
	}
	recipe, ok := ctx.Catalog.RecipeByID(job.RecipeID)
	if !ok {
		return fmt.Errorf("unknown recipe %q", job.RecipeID)
	}
	count := recipe.OutputCount
	if count <= 0 {
		count = 1
	}
	changes := []manager.Change{
		{Path: "processes.crafting." + h.ID, Op: manager.OpRemove},
	}
	out, known := ctx.Catalog.ItemByID(recipe.Output)
	switch {
	case known && out.Category == "tool":
		changes = append(changes, manager.Change{
			Path: "inventory.tools." + recipe.Output, Op: manager.OpSet, Value: 0,
		})
	case known && out.Category == "weapon":
		changes = append(changes, manager.Change{
			Path: "inventory.weapons." + recipe.Output, Op: manager.OpSet, Value: true,
		})
	case known && out.Category == "armor":
		changes = append(changes, manager.Change{
			Path: "inventory.armor." + recipe.Output, Op: manager.OpSet, Value: true,
		})
	default:
		changes = append(changes, manager.Change{
			Path: "resources.materials." + recipe.Output, Op: manager.OpAdd, Value: count,
		})
	}
	res := ctx.Manager.UpdateState(changes, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return res.Err
	}
	ctx.Manager.MarkProgress()
	return nil
}

func (CraftHandler) Cancel(ctx *Context, h *Handle) error {
	w := ctx.Manager.World()
	job := w.Processes.Crafting[h.ID]
	if job == nil {
		return nil
	}
	recipe, ok := ctx.Catalog.RecipeByID(job.RecipeID)
	changes := []manager.Change{
		{Path: "processes.crafting." + h.ID, Op: manager.OpRemove},
	}
	// Refund inputs on cancel; half-finished work is not worth modeling.
	if ok {
		for item, n := range recipe.Inputs {
			changes = append(changes, manager.Change{
				Path: "resources.materials." + item, Op: manager.OpAdd, Value: n,
			})
		}
	}
	res := ctx.Manager.UpdateState(changes, manager.Options{ValidateAfter: true})
	return res.Err
}
