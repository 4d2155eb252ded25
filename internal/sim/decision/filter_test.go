package decision

import (
	"testing"

	"harvestsim.ai/internal/sim/state"
)

func TestFilterCandidates_DropsUnaffordableCosts(t *testing.T) {
	w := scoringWorld()
	w.Resources.Energy.Current = 3

	in := []Candidate{
		{Kind: ActionAdventure, Costs: map[state.ResourceKind]int{state.ResourceEnergy: 10}},
		{Kind: ActionPump},
	}
	out := filterCandidates(w, in)
	if len(out) != 1 || out[0].Kind != ActionPump {
		t.Fatalf("filtered set: %+v", out)
	}
}

func TestFilterCandidates_RequiresCountSeedsAndMaterials(t *testing.T) {
	w := scoringWorld()
	w.Resources.Materials["ore"] = 2

	// The filter reuses the input's backing array, so each call gets a
	// fresh slice.
	candidates := func() []Candidate {
		return []Candidate{
			{Kind: ActionCraft, Target: "smelt_iron", Requires: map[string]int{"ore": 3}},
			{Kind: ActionPlant, Target: "turnip_seed", Requires: map[string]int{"turnip_seed": 1}},
		}
	}
	out := filterCandidates(w, candidates())
	if len(out) != 1 || out[0].Kind != ActionPlant {
		t.Fatalf("filtered set: %+v", out)
	}

	w.Resources.Materials["ore"] = 3
	out = filterCandidates(w, candidates())
	if len(out) != 2 {
		t.Fatalf("craft still filtered with inputs on hand: %+v", out)
	}
}

func TestFilterCandidates_EnforcesMinLevel(t *testing.T) {
	w := scoringWorld()
	w.Progression.Level = 3

	in := []Candidate{
		{Kind: ActionMine, MinLevel: 4},
		{Kind: ActionAdventure, MinLevel: 3},
	}
	out := filterCandidates(w, in)
	if len(out) != 1 || out[0].Kind != ActionAdventure {
		t.Fatalf("filtered set: %+v", out)
	}
}

func TestFilterCandidates_UnknownCounterKindIsUnaffordable(t *testing.T) {
	w := scoringWorld()
	in := []Candidate{{Kind: ActionRest, Costs: map[state.ResourceKind]int{"mana": 1}}}
	if out := filterCandidates(w, in); len(out) != 0 {
		t.Fatalf("candidate with unknown cost kind survived: %+v", out)
	}
}
