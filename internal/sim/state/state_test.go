package state

import (
	"reflect"
	"testing"
)

func sampleWorld() *World {
	w := NewWorld(InitialConfig{
		Energy: 100, EnergyMax: 100,
		Water: 10, WaterMax: 20,
		Gold: 75, GoldMax: 10000,
		FarmPlots: 3, PumpRate: 4,
		Seeds: map[string]int{"turnip_seed": 3},
	})
	w.Resources.Materials["fiber"] = 2
	w.Progression.Milestones["level_2"] = true
	w.Inventory.Tools["iron_hoe"] = 1
	w.Processes.Crops["P000001"] = &CropProcess{ID: "P000001", SeedID: "turnip_seed", GrowthRequired: 30}
	w.Farm.AvailablePlots = 2
	w.Helpers = []Helper{{ID: "H01", Name: "Ada", Level: 1, Skills: map[string]int{"farming": 2}}}
	w.Priorities["crops"] = []string{"turnip_seed"}
	return w
}

func TestClone_SharesNoMutableMemory(t *testing.T) {
	w := sampleWorld()
	c := w.Clone()
	if !reflect.DeepEqual(w, c) {
		t.Fatalf("clone not equal to original")
	}

	// Mutating every collection on the clone must leave the original alone.
	c.Resources.Seeds["turnip_seed"] = 99
	c.Resources.Materials["fiber"] = 99
	c.Progression.Milestones["level_3"] = true
	c.Inventory.Tools["iron_hoe"] = 5
	c.Processes.Crops["P000001"].Elapsed = 99
	c.Helpers[0].Skills["farming"] = 99
	c.Priorities["crops"][0] = "carrot_seed"
	c.Clock.Tick = 99

	if w.Resources.Seeds["turnip_seed"] != 3 ||
		w.Resources.Materials["fiber"] != 2 ||
		w.Progression.Milestones["level_3"] ||
		w.Inventory.Tools["iron_hoe"] != 1 ||
		w.Processes.Crops["P000001"].Elapsed != 0 ||
		w.Helpers[0].Skills["farming"] != 2 ||
		w.Priorities["crops"][0] != "turnip_seed" ||
		w.Clock.Tick != 0 {
		t.Fatalf("clone aliases the original: %+v", w)
	}
}

func TestClock_Day(t *testing.T) {
	cases := []struct {
		minutes float64
		day     int
	}{
		{0, 1},
		{1439, 1},
		{1440, 2},
		{5 * 1440, 6},
	}
	for _, tc := range cases {
		if got := (Clock{TotalMinutes: tc.minutes}).Day(); got != tc.day {
			t.Fatalf("Day(%v)=%d, want %d", tc.minutes, got, tc.day)
		}
	}
}

func TestResources_CounterAndTotals(t *testing.T) {
	w := sampleWorld()
	if c := w.Resources.Counter(ResourceWater); c == nil || c.Current != 10 {
		t.Fatalf("water counter: %+v", c)
	}
	if c := w.Resources.Counter("mana"); c != nil {
		t.Fatalf("unknown counter kind resolved: %+v", c)
	}
	w.Resources.Seeds["carrot_seed"] = 2
	if got := w.Resources.TotalSeeds(); got != 5 {
		t.Fatalf("total seeds %d", got)
	}
}

func TestHelperByID(t *testing.T) {
	w := sampleWorld()
	h := w.HelperByID("H01")
	if h == nil || h.Name != "Ada" {
		t.Fatalf("lookup: %+v", h)
	}
	// The returned pointer addresses the roster entry itself.
	h.Level = 3
	if w.Helpers[0].Level != 3 {
		t.Fatalf("lookup returned a copy")
	}
	if w.HelperByID("H99") != nil {
		t.Fatalf("unknown id resolved")
	}
}
