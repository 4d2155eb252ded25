package action

import (
	"fmt"
	"sort"

	"harvestsim.ai/internal/sim/decision"
	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/process"
	"harvestsim.ai/internal/sim/state"
)

func requireLocation(ex *Executor, loc state.Location) error {
	if cur := ex.mgr.World().Location; cur != loc {
		return reject("requires %s, currently at %s", loc, cur)
	}
	return nil
}

// pump refills water from the well. It touches nothing but the water
// counter; the ledger clamps the gain at capacity.
func pump(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationFarm); err != nil {
		return nil, err
	}
	w := ex.mgr.World()
	if w.Resources.Water.Current >= w.Resources.Water.Max {
		return nil, reject("water already full")
	}
	res := ex.mgr.UpdateResource(manager.ResourceRequest{
		Kind:         state.ResourceWater,
		Amount:       w.Farm.PumpRate,
		EnforceLimit: true,
	}, "pump", "action")
	return map[string]any{"gained": res.Actual, "water": w.Resources.Water.Current}, nil
}

func plant(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationFarm); err != nil {
		return nil, err
	}
	return ex.startProcess(process.KindCrop, map[string]any{"seed_id": c.Target})
}

// harvest consumes a ready crop. The crop process never completes on its
// own; this is the only way it finishes.
func harvest(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationFarm); err != nil {
		return nil, err
	}
	crop := ex.mgr.World().Processes.Crops[c.Target]
	if crop == nil {
		return nil, reject("no crop %q", c.Target)
	}
	if !crop.ReadyToHarvest {
		return nil, reject("crop %s not ready (%.0f/%.0f min)", c.Target, crop.Elapsed, crop.GrowthRequired)
	}
	seedID := crop.SeedID
	if err := ex.reg.Complete(ex.pctx, c.Target); err != nil {
		return nil, fmt.Errorf("harvest %s: %w", c.Target, err)
	}
	return map[string]any{"seed": seedID}, nil
}

func rest(ex *Executor, c decision.Candidate) (map[string]any, error) {
	w := ex.mgr.World()
	amount := w.Resources.Energy.Max / 4
	if amount < 1 {
		amount = 1
	}
	res := ex.mgr.UpdateResource(manager.ResourceRequest{
		Kind:         state.ResourceEnergy,
		Amount:       amount,
		EnforceLimit: true,
	}, "rest", "action")
	return map[string]any{"gained": res.Actual}, nil
}

func eat(ex *Executor, c decision.Candidate) (map[string]any, error) {
	w := ex.mgr.World()
	if w.Resources.Materials[c.Target] < 1 {
		return nil, reject("no %s to eat", c.Target)
	}
	item, ok := ex.cat.ItemByID(c.Target)
	if !ok {
		return nil, reject("unknown item %q", c.Target)
	}
	if item.EnergyRestore <= 0 {
		return nil, reject("%s is not edible", c.Target)
	}
	gain := item.EnergyRestore
	if room := w.Resources.Energy.Max - w.Resources.Energy.Current; gain > room {
		gain = room
	}
	if gain < 1 {
		return nil, reject("energy already full")
	}
	res := ex.mgr.UpdateState([]manager.Change{
		{Path: "resources.materials." + c.Target, Op: manager.OpSubtract, Value: 1},
		{Path: "resources.energy.current", Op: manager.OpAdd, Value: gain},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return nil, res.Err
	}
	return map[string]any{"gained": gain}, nil
}

// buySeeds purchases enough seeds to cover the plot deficit, capped by
// what the gold on hand affords.
func buySeeds(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationTown); err != nil {
		return nil, err
	}
	w := ex.mgr.World()
	price := ex.tun.Town.SeedPrice
	if w.Resources.Gold.Current < price {
		return nil, reject("need %d gold for seeds, have %d", price, w.Resources.Gold.Current)
	}
	qty := w.Farm.FarmPlots - w.Resources.TotalSeeds()
	if qty < 1 {
		qty = 1
	}
	if afford := w.Resources.Gold.Current / price; qty > afford {
		qty = afford
	}
	res := ex.mgr.UpdateState([]manager.Change{
		{Path: "resources.gold.current", Op: manager.OpSubtract, Value: price * qty},
		{Path: "resources.seeds." + c.Target, Op: manager.OpAdd, Value: qty},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return nil, res.Err
	}
	return map[string]any{"bought": qty, "spent": price * qty}, nil
}

// sellCrops sells as many units of the target crop as the gold cap has
// room for. Nothing is sold for a credit that would be discarded.
func sellCrops(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationTown); err != nil {
		return nil, err
	}
	w := ex.mgr.World()
	stock := w.Resources.Materials[c.Target]
	if stock < 1 {
		return nil, reject("no %s in stock", c.Target)
	}
	item, ok := ex.cat.ItemByID(c.Target)
	if !ok {
		return nil, reject("unknown item %q", c.Target)
	}
	unit := item.Value * ex.tun.Town.SellPriceFactor / 100
	if unit < 1 {
		unit = 1
	}
	room := w.Resources.Gold.Max - w.Resources.Gold.Current
	if room < unit {
		return nil, reject("gold storage full")
	}
	qty := stock
	if maxUnits := room / unit; qty > maxUnits {
		qty = maxUnits
	}
	res := ex.mgr.UpdateState([]manager.Change{
		{Path: "resources.materials." + c.Target, Op: manager.OpSubtract, Value: qty},
		{Path: "resources.gold.current", Op: manager.OpAdd, Value: unit * qty},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return nil, res.Err
	}
	return map[string]any{"sold": qty, "earned": unit * qty}, nil
}

var helperNames = []string{"Ada", "Bram", "Cora", "Dov", "Elka", "Ferro", "Gwen", "Hale"}

func hireHelper(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationTown); err != nil {
		return nil, err
	}
	w := ex.mgr.World()
	if len(w.Helpers) >= ex.tun.Town.MaxHelpers {
		return nil, reject("roster full (%d)", ex.tun.Town.MaxHelpers)
	}
	cost := ex.tun.Town.HelperHireCost
	if w.Resources.Gold.Current < cost {
		return nil, reject("need %d gold to hire, have %d", cost, w.Resources.Gold.Current)
	}
	ex.helperSeq++
	h := state.Helper{
		ID:     fmt.Sprintf("H%02d", ex.helperSeq),
		Name:   helperNames[(ex.helperSeq-1)%len(helperNames)],
		Role:   "farmhand",
		Level:  1,
		Skills: map[string]int{},
	}
	res := ex.mgr.UpdateState([]manager.Change{
		{Path: "resources.gold.current", Op: manager.OpSubtract, Value: cost},
		{Path: "helpers", Op: manager.OpAppend, Value: h},
	}, manager.Options{ValidateAfter: true})
	if res.Err != nil {
		return nil, res.Err
	}
	return map[string]any{"helper": h.ID, "name": h.Name}, nil
}

func assignHelper(ex *Executor, c decision.Candidate) (map[string]any, error) {
	w := ex.mgr.World()
	h := w.HelperByID(c.Target)
	if h == nil {
		return nil, reject("unknown helper %q", c.Target)
	}
	if h.AssignedTo != "" {
		return nil, reject("%s already assigned to %s", h.Name, h.AssignedTo)
	}
	updated := *h
	updated.Skills = map[string]int{}
	for k, v := range h.Skills {
		updated.Skills[k] = v
	}
	updated.AssignedTo = state.LocationFarm
	res := ex.mgr.UpdateState([]manager.Change{
		{Path: "helpers." + h.ID, Op: manager.OpSet, Value: updated},
	}, manager.Options{})
	if res.Err != nil {
		return nil, res.Err
	}
	return map[string]any{"helper": h.ID, "assigned_to": string(updated.AssignedTo)}, nil
}

// trainSkills is the closed skill list a course can cover.
var trainSkills = []string{"farming", "crafting", "mining"}

func trainHelper(ex *Executor, c decision.Candidate) (map[string]any, error) {
	w := ex.mgr.World()
	h := w.HelperByID(c.Target)
	if h == nil {
		return nil, reject("unknown helper %q", c.Target)
	}
	// Train the weakest skill; ties resolve in list order.
	skill := trainSkills[0]
	lowest := h.Skills[skill]
	for _, s := range trainSkills[1:] {
		if h.Skills[s] < lowest {
			skill, lowest = s, h.Skills[s]
		}
	}
	return ex.startProcess(process.KindTraining, map[string]any{
		"helper_id": c.Target,
		"skill":     skill,
	})
}

func startAdventure(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationAdventure); err != nil {
		return nil, err
	}
	area := c.Target
	if area == "" {
		area = "meadow"
	}
	return ex.startProcess(process.KindAdventure, map[string]any{"area_id": area})
}

func startCraft(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationForge); err != nil {
		return nil, err
	}
	return ex.startProcess(process.KindCraft, map[string]any{"recipe_id": c.Target})
}

func startMining(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationMine); err != nil {
		return nil, err
	}
	return ex.startProcess(process.KindMining, map[string]any{})
}

func catchSeeds(ex *Executor, c decision.Candidate) (map[string]any, error) {
	if err := requireLocation(ex, state.LocationTower); err != nil {
		return nil, err
	}
	return ex.startProcess(process.KindSeedCatch, map[string]any{})
}

func navigate(ex *Executor, c decision.Candidate) (map[string]any, error) {
	target := state.Location(c.Target)
	known := false
	for _, loc := range state.Locations {
		if loc == target {
			known = true
			break
		}
	}
	if !known {
		return nil, reject("unknown location %q", c.Target)
	}
	w := ex.mgr.World()
	if w.Location == target {
		return nil, reject("already at %s", target)
	}
	from := w.Location
	res := ex.mgr.UpdateState([]manager.Change{
		{Path: "location", Op: manager.OpSet, Value: target},
	}, manager.Options{})
	if res.Err != nil {
		return nil, res.Err
	}
	return map[string]any{"from": string(from), "to": string(target)}, nil
}

// Kinds returns the registered action kinds in sorted order, for
// host-facing introspection.
func (ex *Executor) Kinds() []decision.ActionKind {
	out := make([]decision.ActionKind, 0, len(ex.strategies))
	for k := range ex.strategies {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
