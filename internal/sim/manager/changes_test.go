package manager

import (
	"testing"

	"harvestsim.ai/internal/sim/state"
)

func TestApplyChange_PathTable(t *testing.T) {
	cases := []struct {
		name    string
		change  Change
		wantErr bool
		check   func(t *testing.T, w *state.World)
	}{
		{
			name:   "counter add defaults to current",
			change: Change{Path: "resources.water", Op: OpAdd, Value: 4},
			check: func(t *testing.T, w *state.World) {
				if w.Resources.Water.Current != 4 {
					t.Fatalf("water=%d", w.Resources.Water.Current)
				}
			},
		},
		{
			name:   "counter max set",
			change: Change{Path: "resources.water.max", Op: OpSet, Value: 40},
			check: func(t *testing.T, w *state.World) {
				if w.Resources.Water.Max != 40 {
					t.Fatalf("max=%d", w.Resources.Water.Max)
				}
			},
		},
		{
			name:   "seed subtract to zero removes the key",
			change: Change{Path: "resources.seeds.turnip_seed", Op: OpSubtract, Value: 3},
			check: func(t *testing.T, w *state.World) {
				if _, ok := w.Resources.Seeds["turnip_seed"]; ok {
					t.Fatalf("zeroed seed key kept: %v", w.Resources.Seeds)
				}
			},
		},
		{
			name:   "material add creates the key",
			change: Change{Path: "resources.materials.ore", Op: OpAdd, Value: 5},
			check: func(t *testing.T, w *state.World) {
				if w.Resources.Materials["ore"] != 5 {
					t.Fatalf("ore=%d", w.Resources.Materials["ore"])
				}
			},
		},
		{
			name:   "location set from string",
			change: Change{Path: "location", Op: OpSet, Value: "town"},
			check: func(t *testing.T, w *state.World) {
				if w.Location != state.LocationTown {
					t.Fatalf("location=%s", w.Location)
				}
			},
		},
		{
			name:   "progression milestone set",
			change: Change{Path: "progression.milestones.first_harvest", Op: OpSet, Value: true},
			check: func(t *testing.T, w *state.World) {
				if !w.Progression.Milestones["first_harvest"] {
					t.Fatalf("milestone not set")
				}
			},
		},
		{
			name:   "multiply rounds",
			change: Change{Path: "resources.gold.current", Op: OpMultiply, Value: 1.5},
			check: func(t *testing.T, w *state.World) {
				if w.Resources.Gold.Current != 113 { // 75 * 1.5 = 112.5
					t.Fatalf("gold=%d", w.Resources.Gold.Current)
				}
			},
		},
		{
			name:    "unknown root",
			change:  Change{Path: "weather.today", Op: OpSet, Value: 1},
			wantErr: true,
		},
		{
			name:    "unknown counter field",
			change:  Change{Path: "resources.gold.sparkle", Op: OpSet, Value: 1},
			wantErr: true,
		},
		{
			name:    "unsupported op on location",
			change:  Change{Path: "location", Op: OpAdd, Value: "town"},
			wantErr: true,
		},
		{
			name:    "wrong value type",
			change:  Change{Path: "resources.gold.current", Op: OpSet, Value: "rich"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testWorld()
			err := applyChange(w, tc.change)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("change accepted: %+v", tc.change)
				}
				return
			}
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			tc.check(t, w)
		})
	}
}

func TestApplyChange_HelperRoster(t *testing.T) {
	w := testWorld()
	h := state.Helper{ID: "H01", Name: "Ada", Role: "farmhand", Level: 1, Skills: map[string]int{}}

	if err := applyChange(w, Change{Path: "helpers", Op: OpAppend, Value: h}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := applyChange(w, Change{Path: "helpers", Op: OpAppend, Value: h}); err == nil {
		t.Fatalf("duplicate helper id accepted")
	}

	h.AssignedTo = state.LocationFarm
	if err := applyChange(w, Change{Path: "helpers.H01", Op: OpSet, Value: h}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := w.HelperByID("H01"); got == nil || got.AssignedTo != state.LocationFarm {
		t.Fatalf("helper not updated: %+v", got)
	}

	if err := applyChange(w, Change{Path: "helpers.H99", Op: OpRemove}); err == nil {
		t.Fatalf("removing unknown helper accepted")
	}
	if err := applyChange(w, Change{Path: "helpers.H01", Op: OpRemove}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(w.Helpers) != 0 {
		t.Fatalf("roster not empty: %+v", w.Helpers)
	}
}

func TestApplyChange_ProcessSlots(t *testing.T) {
	w := testWorld()
	adv := &state.AdventureProcess{ID: "P000001", AreaID: "meadow", Duration: 60}

	if err := applyChange(w, Change{Path: "processes.adventure", Op: OpSet, Value: adv}); err != nil {
		t.Fatalf("set adventure: %v", err)
	}
	if w.Processes.Adventure == nil {
		t.Fatalf("adventure slot empty")
	}
	if err := applyChange(w, Change{Path: "processes.adventure", Op: OpRemove}); err != nil {
		t.Fatalf("remove adventure: %v", err)
	}
	if w.Processes.Adventure != nil {
		t.Fatalf("adventure slot still occupied")
	}

	crop := &state.CropProcess{ID: "P000002", SeedID: "turnip_seed", GrowthRequired: 30}
	if err := applyChange(w, Change{Path: "processes.crops.P000002", Op: OpSet, Value: crop}); err != nil {
		t.Fatalf("set crop: %v", err)
	}
	if err := applyChange(w, Change{Path: "processes.crops.P000002", Op: OpRemove}); err != nil {
		t.Fatalf("remove crop: %v", err)
	}
	if len(w.Processes.Crops) != 0 {
		t.Fatalf("crops not empty")
	}
}
