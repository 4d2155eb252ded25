package process

import (
	"testing"

	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/rng"
	"harvestsim.ai/internal/sim/state"
	"harvestsim.ai/internal/sim/tuning"
)

func testCatalog(t *testing.T) *catalogs.Catalog {
	t.Helper()
	cat, err := catalogs.FromDefs([]catalogs.ItemDef{
		{ID: "turnip_seed", Category: "seed", Features: []string{"plantable"}, Value: 8,
			GrowthMinutes: 30, YieldItem: "turnip", YieldCount: 2},
		{ID: "turnip", Category: "crop", Features: []string{"edible", "sellable"}, Value: 12, EnergyRestore: 6},
		{ID: "ore", Category: "material", Value: 9},
		{ID: "iron_ingot", Category: "material", Value: 40},
	}, []catalogs.RecipeDef{
		{ID: "smelt_iron", Station: "forge", Inputs: map[string]int{"ore": 3},
			Output: "iron_ingot", OutputCount: 1, TimeMinutes: 20},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func testContext(t *testing.T) (*Context, *state.World) {
	t.Helper()
	w := state.NewWorld(state.InitialConfig{
		Energy: 100, EnergyMax: 100,
		Water: 10, WaterMax: 20,
		Gold: 1000, GoldMax: 10000,
		FarmPlots: 3, PumpRate: 4,
		Seeds: map[string]int{"turnip_seed": 3},
	})
	bus := events.NewBus(64)
	tun := tuning.Defaults()
	mgr := manager.New(w, bus, manager.NewLedger(map[state.ResourceKind][]int{
		state.ResourceEnergy: tun.Resources.EnergyTiers,
		state.ResourceWater:  tun.Resources.WaterTiers,
		state.ResourceGold:   tun.Resources.GoldTiers,
	}))
	return &Context{
		Manager: mgr,
		Catalog: testCatalog(t),
		Tuning:  &tun,
		Rand:    rng.New(7),
		Bus:     bus,
	}, w
}

func TestRegistry_AdventureSlotIsExclusive(t *testing.T) {
	ctx, w := testContext(t)
	w.Progression.Level = 5
	reg := Registered(ctx.Tuning)

	first := reg.Start(ctx, KindAdventure, map[string]any{"area_id": "meadow"})
	if !first.CanStart {
		t.Fatalf("first adventure refused: %s", first.Reason)
	}
	second := reg.Start(ctx, KindAdventure, map[string]any{"area_id": "caves"})
	if second.CanStart {
		t.Fatalf("second concurrent adventure accepted")
	}
	if w.Processes.Adventure == nil || w.Processes.Adventure.ID != first.Handle.ID {
		t.Fatalf("refused start disturbed the active slot: %+v", w.Processes.Adventure)
	}
	if got := reg.ActiveCount(KindAdventure); got != 1 {
		t.Fatalf("active count %d", got)
	}
}

func TestRegistry_AdventureCompletesAndPaysOut(t *testing.T) {
	ctx, w := testContext(t)
	w.Progression.Level = 5
	reg := Registered(ctx.Tuning)

	res := reg.Start(ctx, KindAdventure, map[string]any{"area_id": "meadow"})
	if !res.CanStart {
		t.Fatalf("start: %s", res.Reason)
	}
	if w.Resources.Energy.Current != 100-ctx.Tuning.Adventure.EnergyCost {
		t.Fatalf("energy not paid up front: %d", w.Resources.Energy.Current)
	}

	goldBefore := w.Resources.Gold.Current
	xpBefore := w.Progression.XP
	if err := reg.Update(ctx, ctx.Tuning.Adventure.MinutesPerRun); err != nil {
		t.Fatalf("update: %v", err)
	}
	if w.Processes.Adventure != nil {
		t.Fatalf("slot not released after completion")
	}
	if w.Resources.Gold.Current <= goldBefore {
		t.Fatalf("no gold reward: %d -> %d", goldBefore, w.Resources.Gold.Current)
	}
	if w.Progression.XP <= xpBefore && w.Progression.Level == 5 {
		t.Fatalf("no xp reward")
	}
	if w.Resources.Materials["fiber"] < 1 {
		t.Fatalf("no meadow loot: %+v", w.Resources.Materials)
	}
	// Slot free again.
	if again := reg.Start(ctx, KindAdventure, map[string]any{"area_id": "meadow"}); !again.CanStart {
		t.Fatalf("restart refused: %s", again.Reason)
	}
}

func TestRegistry_CropFlipsReadyOnceAndNeverSelfCompletes(t *testing.T) {
	ctx, w := testContext(t)
	reg := Registered(ctx.Tuning)

	var ready int
	ctx.Bus.Subscribe(events.TypeCropReady, func(events.Event) { ready++ })

	res := reg.Start(ctx, KindCrop, map[string]any{"seed_id": "turnip_seed"})
	if !res.CanStart {
		t.Fatalf("plant: %s", res.Reason)
	}
	if w.Farm.AvailablePlots != 2 || w.Resources.Seeds["turnip_seed"] != 2 {
		t.Fatalf("plant accounting: plots=%d seeds=%d", w.Farm.AvailablePlots, w.Resources.Seeds["turnip_seed"])
	}

	// Far past the growth requirement: the crop must flip ready exactly
	// once and stay in the registry until an explicit harvest.
	for i := 0; i < 5; i++ {
		if err := reg.Update(ctx, 30); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	crop := w.Processes.Crops[res.Handle.ID]
	if crop == nil {
		t.Fatalf("crop self-completed")
	}
	if !crop.ReadyToHarvest {
		t.Fatalf("crop not ready after %v minutes", 5*30)
	}
	if ready != 1 {
		t.Fatalf("crop.ready emitted %d times", ready)
	}

	materialsBefore := w.Resources.Materials["turnip"]
	if err := reg.Complete(ctx, res.Handle.ID); err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if w.Resources.Materials["turnip"] != materialsBefore+2 {
		t.Fatalf("yield: %+v", w.Resources.Materials)
	}
	if w.Farm.AvailablePlots != 3 {
		t.Fatalf("plot not released: %d", w.Farm.AvailablePlots)
	}
	if reg.Get(res.Handle.ID) != nil {
		t.Fatalf("handle survived completion")
	}
}

func TestRegistry_CancelCropReleasesPlotNotSeed(t *testing.T) {
	ctx, w := testContext(t)
	reg := Registered(ctx.Tuning)

	res := reg.Start(ctx, KindCrop, map[string]any{"seed_id": "turnip_seed"})
	if !res.CanStart {
		t.Fatalf("plant: %s", res.Reason)
	}
	if err := reg.Cancel(ctx, res.Handle.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if w.Farm.AvailablePlots != 3 {
		t.Fatalf("plot not released: %d", w.Farm.AvailablePlots)
	}
	if w.Resources.Seeds["turnip_seed"] != 2 {
		t.Fatalf("cancelled planting refunded the seed: %d", w.Resources.Seeds["turnip_seed"])
	}
}

func TestRegistry_CraftConsumesInputsAtomically(t *testing.T) {
	ctx, w := testContext(t)
	reg := Registered(ctx.Tuning)

	res := reg.Start(ctx, KindCraft, map[string]any{"recipe_id": "smelt_iron"})
	if res.CanStart {
		t.Fatalf("craft without inputs accepted")
	}
	if len(w.Processes.Crafting) != 0 {
		t.Fatalf("refused craft left a job behind")
	}

	w.Resources.Materials["ore"] = 3
	res = reg.Start(ctx, KindCraft, map[string]any{"recipe_id": "smelt_iron"})
	if !res.CanStart {
		t.Fatalf("craft: %s", res.Reason)
	}
	if w.Resources.Materials["ore"] != 0 {
		t.Fatalf("inputs not consumed: %+v", w.Resources.Materials)
	}
	if err := reg.Update(ctx, 20); err != nil {
		t.Fatalf("update: %v", err)
	}
	if w.Resources.Materials["iron_ingot"] != 1 {
		t.Fatalf("output missing: %+v", w.Resources.Materials)
	}
}

func TestRegistry_CraftCapComesFromTuning(t *testing.T) {
	ctx, w := testContext(t)
	ctx.Tuning.Forge.MaxConcurrent = 1
	reg := Registered(ctx.Tuning)
	w.Resources.Materials["ore"] = 6

	if res := reg.Start(ctx, KindCraft, map[string]any{"recipe_id": "smelt_iron"}); !res.CanStart {
		t.Fatalf("first craft: %s", res.Reason)
	}
	if res := reg.Start(ctx, KindCraft, map[string]any{"recipe_id": "smelt_iron"}); res.CanStart {
		t.Fatalf("second craft accepted over cap 1")
	}
	if w.Resources.Materials["ore"] != 3 {
		t.Fatalf("refused craft consumed inputs: %+v", w.Resources.Materials)
	}
}

func TestRegistry_SeedCatchBanksOnCompletion(t *testing.T) {
	ctx, w := testContext(t)
	reg := Registered(ctx.Tuning)
	seedsBefore := w.Resources.TotalSeeds()

	res := reg.Start(ctx, KindSeedCatch, nil)
	if !res.CanStart {
		t.Fatalf("start: %s", res.Reason)
	}
	// Half the session: seeds accumulate in the payload but are not banked.
	if err := reg.Update(ctx, ctx.Tuning.Tower.CatchMinutes/2); err != nil {
		t.Fatalf("update: %v", err)
	}
	if w.Resources.TotalSeeds() != seedsBefore {
		t.Fatalf("seeds banked mid-session")
	}
	if err := reg.Update(ctx, ctx.Tuning.Tower.CatchMinutes); err != nil {
		t.Fatalf("update: %v", err)
	}
	if w.Processes.SeedCatch != nil {
		t.Fatalf("session not cleaned up")
	}
	if got := w.Resources.TotalSeeds(); got != seedsBefore+ctx.Tuning.Tower.SeedsPerCatch {
		t.Fatalf("banked %d seeds, want %d", got-seedsBefore, ctx.Tuning.Tower.SeedsPerCatch)
	}
}

func TestRegistry_TrainingRejectsDoubleBooking(t *testing.T) {
	ctx, w := testContext(t)
	reg := Registered(ctx.Tuning)
	w.Helpers = []state.Helper{
		{ID: "H01", Name: "Ada", Level: 1, Skills: map[string]int{}},
	}

	first := reg.Start(ctx, KindTraining, map[string]any{"helper_id": "H01", "skill": "farming"})
	if !first.CanStart {
		t.Fatalf("train: %s", first.Reason)
	}
	second := reg.Start(ctx, KindTraining, map[string]any{"helper_id": "H01", "skill": "mining"})
	if second.CanStart {
		t.Fatalf("double-booked training accepted")
	}

	if err := reg.Update(ctx, ctx.Tuning.Helpers.TrainingMinutes); err != nil {
		t.Fatalf("update: %v", err)
	}
	h := w.HelperByID("H01")
	if h.Level != 2 || h.Skills["farming"] != 1 {
		t.Fatalf("training result: %+v", h)
	}
}
