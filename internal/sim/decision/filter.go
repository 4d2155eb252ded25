package decision

import (
	"sort"

	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/state"
)

// filterCandidates drops any candidate whose resource cost exceeds the
// current resources or whose prerequisites are unmet. Every rejection is
// non-fatal; the candidate simply disappears from this cycle.
func filterCandidates(w *state.World, in []Candidate) []Candidate {
	out := in[:0]
	for _, c := range in {
		if !affordable(w, c) {
			continue
		}
		if c.MinLevel > 0 && w.Progression.Level < c.MinLevel {
			continue
		}
		out = append(out, c)
	}
	return out
}

func affordable(w *state.World, c Candidate) bool {
	for kind, cost := range c.Costs {
		counter := w.Resources.Counter(kind)
		if counter == nil || counter.Current < cost {
			return false
		}
	}
	for item, n := range c.Requires {
		if w.Resources.Seeds[item]+w.Resources.Materials[item] < n {
			return false
		}
	}
	return true
}

func sortedCrops(w *state.World) []*state.CropProcess {
	ids := make([]string, 0, len(w.Processes.Crops))
	for id := range w.Processes.Crops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*state.CropProcess, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.Processes.Crops[id])
	}
	return out
}

func sortedRecipeIDs(cat *catalogs.Catalog) []string {
	ids := make([]string, 0, len(cat.Recipes))
	for id := range cat.Recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
