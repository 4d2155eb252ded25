package manager

import (
	"reflect"
	"testing"

	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
)

func testWorld() *state.World {
	return state.NewWorld(state.InitialConfig{
		Energy: 100, EnergyMax: 100,
		Water: 0, WaterMax: 20,
		Gold: 75, GoldMax: 10000,
		FarmPlots: 3, PumpRate: 4,
		Seeds: map[string]int{"turnip_seed": 3},
	})
}

func testManager(w *state.World, bus *events.Bus) *Manager {
	return New(w, bus, NewLedger(map[state.ResourceKind][]int{
		state.ResourceEnergy: {100, 150},
		state.ResourceWater:  {20, 40},
		state.ResourceGold:   {10000, 50000},
	}))
}

func TestUpdateState_BatchIsAllOrNothing(t *testing.T) {
	w := testWorld()
	m := testManager(w, events.NewBus(16))

	res := m.UpdateState([]Change{
		{Path: "resources.gold.current", Op: OpSubtract, Value: 10},
		{Path: "resources.not_a_thing", Op: OpSet, Value: 1},
	}, Options{})
	if res.Err == nil {
		t.Fatalf("batch with unknown path succeeded")
	}
	if w.Resources.Gold.Current != 75 {
		t.Fatalf("first change survived the rollback: gold=%d", w.Resources.Gold.Current)
	}
}

func TestUpdateState_AllowPartialKeepsEarlierChanges(t *testing.T) {
	w := testWorld()
	m := testManager(w, events.NewBus(16))

	res := m.UpdateState([]Change{
		{Path: "resources.gold.current", Op: OpSubtract, Value: 10},
		{Path: "resources.not_a_thing", Op: OpSet, Value: 1},
	}, Options{AllowPartial: true})
	if !res.Success || res.Applied != 1 {
		t.Fatalf("partial batch: %+v", res)
	}
	if w.Resources.Gold.Current != 65 {
		t.Fatalf("gold=%d, want 65", w.Resources.Gold.Current)
	}
}

func TestUpdateState_ValidateAfterRollsBackInvariantBreak(t *testing.T) {
	w := testWorld()
	m := testManager(w, events.NewBus(16))
	before := w.Clone()

	res := m.UpdateState([]Change{
		{Path: "resources.gold.current", Op: OpSubtract, Value: 100},
	}, Options{ValidateAfter: true})
	if res.Err == nil {
		t.Fatalf("negative gold passed post-validation")
	}
	if !reflect.DeepEqual(w, before) {
		t.Fatalf("world changed despite rollback")
	}
}

func TestUpdateResource_EmitsResourceEvent(t *testing.T) {
	w := testWorld()
	bus := events.NewBus(16)
	m := testManager(w, bus)

	var got []events.Event
	bus.Subscribe(events.TypeResourceChange, func(e events.Event) { got = append(got, e) })

	res := m.UpdateResource(ResourceRequest{
		Kind: state.ResourceWater, Amount: 4, EnforceLimit: true,
	}, "pump", "test")
	if !res.Success || res.Actual != 4 {
		t.Fatalf("update: %+v", res)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 resource event, got %d", len(got))
	}
	if got[0].Data["kind"] != "water" || got[0].Data["delta"] != 4 {
		t.Fatalf("event data: %+v", got[0].Data)
	}
}

func TestTransaction_CommitAppliesAtomically(t *testing.T) {
	w := testWorld()
	m := testManager(w, events.NewBus(16))

	tx, err := m.BeginTransaction()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	res := m.UpdateState([]Change{
		{Path: "resources.gold.current", Op: OpSubtract, Value: 10},
		{Path: "resources.seeds.turnip_seed", Op: OpAdd, Value: 1},
	}, Options{Transaction: tx})
	if !res.Success {
		t.Fatalf("stage: %+v", res)
	}
	if w.Resources.Gold.Current != 75 {
		t.Fatalf("staged change applied before commit")
	}
	if err := m.CommitTransaction(tx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if w.Resources.Gold.Current != 65 || w.Resources.Seeds["turnip_seed"] != 4 {
		t.Fatalf("after commit gold=%d seeds=%d", w.Resources.Gold.Current, w.Resources.Seeds["turnip_seed"])
	}
	if tx.Status() != TxCommitted {
		t.Fatalf("status %s", tx.Status())
	}
}

func TestTransaction_FailedCommitRestoresSnapshot(t *testing.T) {
	w := testWorld()
	m := testManager(w, events.NewBus(16))
	before := w.Clone()

	tx, _ := m.BeginTransaction()
	_ = m.AddToTransaction(tx,
		Change{Path: "resources.gold.current", Op: OpSubtract, Value: 10},
		Change{Path: "resources.energy.current", Op: OpAdd, Value: 500}, // breaks capacity
	)
	if err := m.CommitTransaction(tx); err == nil {
		t.Fatalf("commit should fail on invariant break")
	}
	if tx.Status() != TxFailed {
		t.Fatalf("status %s", tx.Status())
	}
	if !reflect.DeepEqual(w, before) {
		t.Fatalf("partial transaction effects visible")
	}
	// A failed commit releases the slot for the next transaction.
	if _, err := m.BeginTransaction(); err != nil {
		t.Fatalf("begin after failed commit: %v", err)
	}
}

func TestTransaction_NeverNests(t *testing.T) {
	m := testManager(testWorld(), events.NewBus(16))
	tx, err := m.BeginTransaction()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := m.BeginTransaction(); err == nil {
		t.Fatalf("nested begin accepted")
	}
	m.RollbackTransaction(tx)
	if tx.Status() != TxRolledBack {
		t.Fatalf("status %s", tx.Status())
	}
}

func TestBeginTick_RollsBackLeakedTransaction(t *testing.T) {
	w := testWorld()
	bus := events.NewBus(16)
	m := testManager(w, bus)

	var rollbacks []events.Event
	bus.Subscribe(events.TypeTxRollback, func(e events.Event) { rollbacks = append(rollbacks, e) })

	tx, _ := m.BeginTransaction()
	_ = m.AddToTransaction(tx, Change{Path: "resources.gold.current", Op: OpSubtract, Value: 10})

	m.BeginTick(2)

	if tx.Status() != TxRolledBack {
		t.Fatalf("leaked transaction status %s", tx.Status())
	}
	if w.Resources.Gold.Current != 75 {
		t.Fatalf("leaked transaction mutated gold to %d", w.Resources.Gold.Current)
	}
	if len(rollbacks) != 1 {
		t.Fatalf("want 1 rollback event, got %d", len(rollbacks))
	}
	if _, err := m.BeginTransaction(); err != nil {
		t.Fatalf("begin after forced rollback: %v", err)
	}
}
