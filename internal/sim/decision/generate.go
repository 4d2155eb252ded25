package decision

import (
	"fmt"

	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/state"
	"harvestsim.ai/internal/sim/tuning"
)

// generate concatenates the four candidate sources: emergencies, actions
// contextual to the current location, helper assignment, and navigation.
func generate(w *state.World, cat *catalogs.Catalog, t *tuning.Tuning) []Candidate {
	var out []Candidate
	out = append(out, emergencyCandidates(w, cat, t)...)
	out = append(out, locationCandidates(w, cat, t)...)
	out = append(out, helperCandidates(w, t)...)
	out = append(out, navigationCandidates(w)...)
	return out
}

// emergencyCandidates covers crisis conditions that are evaluated every
// tick regardless of the policy's check-in cadence.
func emergencyCandidates(w *state.World, cat *catalogs.Catalog, t *tuning.Tuning) []Candidate {
	var out []Candidate

	if w.Resources.Energy.Current <= t.Decisions.EmergencyEnergy {
		if food := bestFood(w, cat); food != "" {
			out = append(out, Candidate{
				Kind:      ActionEat,
				Target:    food,
				Requires:  map[string]int{food: 1},
				Emergency: true,
				Factors:   []string{fmt.Sprintf("energy at %d", w.Resources.Energy.Current)},
			})
		} else {
			out = append(out, Candidate{
				Kind:      ActionRest,
				Emergency: true,
				Factors:   []string{fmt.Sprintf("energy at %d, no food", w.Resources.Energy.Current)},
			})
		}
	}

	// Seed starvation: fewer seeds than plots means farming stalls soon.
	// An active catch session is already the acquisition, so no emergency
	// while one runs.
	if w.Resources.TotalSeeds() < w.Farm.FarmPlots && w.Processes.SeedCatch == nil {
		factor := fmt.Sprintf("seeds %d below plots %d", w.Resources.TotalSeeds(), w.Farm.FarmPlots)
		switch {
		case w.Location == state.LocationTown && w.Resources.Gold.Current >= t.Town.SeedPrice:
			out = append(out, Candidate{
				Kind:      ActionBuySeeds,
				Target:    cheapestSeed(cat),
				Costs:     map[state.ResourceKind]int{state.ResourceGold: t.Town.SeedPrice},
				Emergency: true,
				Factors:   []string{factor},
			})
		case w.Location == state.LocationTower:
			out = append(out, Candidate{
				Kind:      ActionCatchSeeds,
				Costs:     map[state.ResourceKind]int{state.ResourceEnergy: t.Tower.CatchEnergyCost},
				Emergency: true,
				Factors:   []string{factor},
			})
		default:
			target := state.LocationTower
			if w.Resources.Gold.Current >= t.Town.SeedPrice {
				target = state.LocationTown
			}
			out = append(out, Candidate{
				Kind:      ActionNavigate,
				Target:    string(target),
				Emergency: true,
				Factors:   []string{factor, "moving toward seed source"},
			})
		}
	}
	return out
}

func locationCandidates(w *state.World, cat *catalogs.Catalog, t *tuning.Tuning) []Candidate {
	var out []Candidate
	switch w.Location {
	case state.LocationFarm:
		if w.Resources.Water.Current < w.Resources.Water.Max {
			out = append(out, Candidate{
				Kind:    ActionPump,
				Factors: []string{fmt.Sprintf("water %d/%d", w.Resources.Water.Current, w.Resources.Water.Max)},
			})
		}
		if w.Farm.AvailablePlots > 0 {
			if seed := bestSeed(w, cat); seed != "" {
				out = append(out, Candidate{
					Kind:   ActionPlant,
					Target: seed,
					Costs: map[state.ResourceKind]int{
						state.ResourceEnergy: t.Farm.PlantEnergyCost,
						state.ResourceWater:  t.Farm.PlantWaterCost,
					},
					Requires: map[string]int{seed: 1},
					Factors:  []string{fmt.Sprintf("%d plots free", w.Farm.AvailablePlots)},
				})
			}
		}
		for _, crop := range sortedCrops(w) {
			if crop.ReadyToHarvest {
				out = append(out, Candidate{
					Kind:    ActionHarvest,
					Target:  crop.ID,
					Factors: []string{crop.SeedID + " ready"},
				})
			}
		}
	case state.LocationTower:
		if w.Processes.SeedCatch == nil && w.Progression.Level >= t.Tower.UnlockLevel {
			out = append(out, Candidate{
				Kind:     ActionCatchSeeds,
				Costs:    map[state.ResourceKind]int{state.ResourceEnergy: t.Tower.CatchEnergyCost},
				MinLevel: t.Tower.UnlockLevel,
			})
		}
	case state.LocationTown:
		if w.Resources.Gold.Current >= t.Town.SeedPrice {
			if seed := cheapestSeed(cat); seed != "" {
				out = append(out, Candidate{
					Kind:   ActionBuySeeds,
					Target: seed,
					Costs:  map[state.ResourceKind]int{state.ResourceGold: t.Town.SeedPrice},
				})
			}
		}
		if sellable(w, cat) != "" {
			out = append(out, Candidate{
				Kind:   ActionSellCrops,
				Target: sellable(w, cat),
			})
		}
		if len(w.Helpers) < t.Town.MaxHelpers {
			out = append(out, Candidate{
				Kind:    ActionHireHelper,
				Costs:   map[state.ResourceKind]int{state.ResourceGold: t.Town.HelperHireCost},
				Factors: []string{fmt.Sprintf("%d/%d helpers hired", len(w.Helpers), t.Town.MaxHelpers)},
			})
		}
	case state.LocationAdventure:
		if w.Processes.Adventure == nil {
			out = append(out, Candidate{
				Kind:     ActionAdventure,
				Target:   "meadow",
				Costs:    map[state.ResourceKind]int{state.ResourceEnergy: t.Adventure.EnergyCost},
				MinLevel: t.Adventure.UnlockLevel,
			})
		}
	case state.LocationForge:
		for _, recipe := range affordableRecipes(w, cat) {
			out = append(out, Candidate{
				Kind:     ActionCraft,
				Target:   recipe.ID,
				Requires: recipe.Inputs,
				MinLevel: recipe.UnlockLevel,
			})
		}
	case state.LocationMine:
		if w.Processes.Mining == nil {
			out = append(out, Candidate{
				Kind:     ActionMine,
				Costs:    map[state.ResourceKind]int{state.ResourceEnergy: t.Mine.EnergyCost},
				MinLevel: t.Mine.UnlockLevel,
			})
		}
	}
	return out
}

func helperCandidates(w *state.World, t *tuning.Tuning) []Candidate {
	var out []Candidate
	for _, h := range w.Helpers {
		if h.AssignedTo == "" {
			out = append(out, Candidate{
				Kind:    ActionAssignHelper,
				Target:  h.ID,
				Factors: []string{h.Name + " idle"},
			})
			continue
		}
		inTraining := false
		for _, tr := range w.Processes.Training {
			if tr.HelperID == h.ID {
				inTraining = true
				break
			}
		}
		if !inTraining && h.Level < 5 && w.Resources.Gold.Current >= t.Helpers.TrainingCost {
			out = append(out, Candidate{
				Kind:    ActionTrainHelper,
				Target:  h.ID,
				Costs:   map[state.ResourceKind]int{state.ResourceGold: t.Helpers.TrainingCost},
				Factors: []string{fmt.Sprintf("%s at level %d", h.Name, h.Level)},
			})
		}
	}
	return out
}

func navigationCandidates(w *state.World) []Candidate {
	var out []Candidate
	for _, loc := range state.Locations {
		if loc == w.Location {
			continue
		}
		out = append(out, Candidate{
			Kind:   ActionNavigate,
			Target: string(loc),
		})
	}
	return out
}

// bestSeed prefers the priority ordering the world carries, then the
// largest stock.
func bestSeed(w *state.World, cat *catalogs.Catalog) string {
	for _, id := range w.Priorities["seeds"] {
		if w.Resources.Seeds[id] > 0 {
			return id
		}
	}
	best, bestN := "", 0
	for _, item := range cat.ItemsByCategory("seed") {
		if n := w.Resources.Seeds[item.ID]; n > bestN {
			best, bestN = item.ID, n
		}
	}
	return best
}

func cheapestSeed(cat *catalogs.Catalog) string {
	best, bestV := "", 0
	for _, item := range cat.ItemsByCategory("seed") {
		if best == "" || item.Value < bestV {
			best, bestV = item.ID, item.Value
		}
	}
	return best
}

func bestFood(w *state.World, cat *catalogs.Catalog) string {
	best, bestR := "", 0
	for _, item := range cat.ItemsByFeature("edible") {
		if w.Resources.Materials[item.ID] > 0 && item.EnergyRestore > bestR {
			best, bestR = item.ID, item.EnergyRestore
		}
	}
	return best
}

func sellable(w *state.World, cat *catalogs.Catalog) string {
	for _, item := range cat.ItemsByCategory("crop") {
		if w.Resources.Materials[item.ID] > 0 {
			return item.ID
		}
	}
	return ""
}

func affordableRecipes(w *state.World, cat *catalogs.Catalog) []catalogs.RecipeDef {
	var out []catalogs.RecipeDef
	for _, id := range sortedRecipeIDs(cat) {
		r := cat.Recipes[id]
		ok := true
		for item, n := range r.Inputs {
			if w.Resources.Materials[item] < n {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}
