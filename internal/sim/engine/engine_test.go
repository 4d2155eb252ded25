package engine

import (
	"testing"

	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/tuning"
)

func engineCatalog(t *testing.T) *catalogs.Catalog {
	t.Helper()
	cat, err := catalogs.FromDefs([]catalogs.ItemDef{
		{ID: "turnip_seed", Category: "seed", Features: []string{"plantable"}, Value: 8,
			GrowthMinutes: 30, YieldItem: "turnip", YieldCount: 2},
		{ID: "turnip", Category: "crop", Features: []string{"edible", "sellable"}, Value: 12, EnergyRestore: 6},
	}, nil)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

// drain empties the buffered notification stream.
func drain(e *Engine) []Notification {
	var out []Notification
	for {
		select {
		case n := <-e.out:
			out = append(out, n)
		default:
			return out
		}
	}
}

// post a command directly to the handler; the loop goroutine is not
// running in these tests.
func sendCmd(t *testing.T, e *Engine, cmd command) reply {
	t.Helper()
	cmd.reply = make(chan reply, 1)
	e.handleCommand(cmd)
	return <-cmd.reply
}

func TestNew_RequiresCatalog(t *testing.T) {
	if _, err := New(Config{Seed: 1}); err == nil {
		t.Fatalf("nil catalog accepted")
	}
}

func TestNew_RejectsExcessiveSpeed(t *testing.T) {
	if _, err := New(Config{Seed: 1, Catalog: engineCatalog(t), Speed: 5000}); err == nil {
		t.Fatalf("speed above maximum accepted")
	}
}

func TestNew_StocksCheapestSeedByDefault(t *testing.T) {
	e, err := New(Config{Seed: 1, Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := e.mgr.World().Resources.Seeds["turnip_seed"]; got != 3 {
		t.Fatalf("starting seeds: %d", got)
	}
}

func TestStep_AdvancesClockAndNotifies(t *testing.T) {
	e, err := New(Config{Seed: 1, Policy: "optimizer", Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	e.step()

	w := e.mgr.World()
	if w.Clock.Tick != 1 || w.Clock.TotalMinutes != 1 {
		t.Fatalf("clock tick=%d minutes=%v", w.Clock.Tick, w.Clock.TotalMinutes)
	}
	notes := drain(e)
	if len(notes) != 1 || notes[0].Type != NoteTick {
		t.Fatalf("notifications: %+v", notes)
	}
	if notes[0].Tick.Tick != 1 || notes[0].Tick.IsComplete {
		t.Fatalf("summary: %+v", notes[0].Tick)
	}
	if e.stats.Ticks != 1 {
		t.Fatalf("stats.Ticks=%d", e.stats.Ticks)
	}
}

func TestStep_TickSummaryWorldIsACopy(t *testing.T) {
	e, err := New(Config{Seed: 1, Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	e.step()

	notes := drain(e)
	before := e.mgr.World().Resources.Gold.Current
	notes[0].Tick.World.Resources.Gold.Current = -999
	if e.mgr.World().Resources.Gold.Current != before {
		t.Fatalf("summary world aliases the live world")
	}
}

func TestStep_VictoryCompletesRun(t *testing.T) {
	tun := tuning.Defaults()
	tun.Decisions.VictoryLevel = 1
	e, err := New(Config{Seed: 1, Tuning: tun, Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	e.step()

	if e.status != StatusCompleted || e.reason != ReasonVictory {
		t.Fatalf("status=%s reason=%s", e.status, e.reason)
	}
	notes := drain(e)
	if len(notes) != 2 || notes[0].Type != NoteTick || notes[1].Type != NoteComplete {
		t.Fatalf("notifications: %+v", notes)
	}
	if !notes[0].Tick.IsComplete {
		t.Fatalf("terminal tick not flagged complete")
	}
	c := notes[1].Complete
	if c.Reason != ReasonVictory || c.FinalState == nil || c.Stats.Ticks != 1 {
		t.Fatalf("completion: %+v", c)
	}
}

func TestStep_BottleneckWhenProgressStalls(t *testing.T) {
	tun := tuning.Defaults()
	tun.Decisions.MinutesPerTick = 2000
	tun.Decisions.BottleneckDays = 1
	e, err := New(Config{Seed: 1, Tuning: tun, Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// One giant tick with no XP gain exceeds a full idle day.
	e.step()

	if e.status != StatusCompleted || e.reason != ReasonBottleneck {
		t.Fatalf("status=%s reason=%s", e.status, e.reason)
	}
	notes := drain(e)
	if len(notes) != 2 {
		t.Fatalf("notifications: %+v", notes)
	}
	if !notes[0].Tick.IsStuck {
		t.Fatalf("terminal tick not flagged stuck")
	}
}

func TestHandleCommand_Lifecycle(t *testing.T) {
	e, err := New(Config{Seed: 1, Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if r := sendCmd(t, e, command{kind: cmdPause}); r.err == nil {
		t.Fatalf("pause while idle accepted")
	}
	if r := sendCmd(t, e, command{kind: cmdStart}); r.err != nil {
		t.Fatalf("start: %v", r.err)
	}
	if e.status != StatusRunning {
		t.Fatalf("status %s after start", e.status)
	}

	if r := sendCmd(t, e, command{kind: cmdSetSpeed, speed: 5000}); r.err == nil {
		t.Fatalf("invalid speed accepted")
	}
	if r := sendCmd(t, e, command{kind: cmdSetSpeed, speed: 4}); r.err != nil {
		t.Fatalf("set speed: %v", r.err)
	}
	// Speed changes land at the next tick boundary, not immediately.
	if e.speed != 1 || e.nextSpeed != 4 {
		t.Fatalf("speed=%v next=%v", e.speed, e.nextSpeed)
	}

	if r := sendCmd(t, e, command{kind: cmdPause}); r.err != nil {
		t.Fatalf("pause: %v", r.err)
	}
	if r := sendCmd(t, e, command{kind: cmdStop}); r.err != nil {
		t.Fatalf("stop: %v", r.err)
	}
	if e.status != StatusCompleted || e.reason != ReasonManual {
		t.Fatalf("status=%s reason=%s after stop", e.status, e.reason)
	}
	if r := sendCmd(t, e, command{kind: cmdStart}); r.err == nil {
		t.Fatalf("restart after completion accepted")
	}

	notes := drain(e)
	if len(notes) != 1 || notes[0].Type != NoteComplete {
		t.Fatalf("notifications: %+v", notes)
	}
}

func TestHandleCommand_GetStateAndStats(t *testing.T) {
	e, err := New(Config{Seed: 1, Catalog: engineCatalog(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	e.step()
	drain(e)

	r := sendCmd(t, e, command{kind: cmdGetState})
	if r.summary == nil || r.summary.Tick != 1 || r.summary.World == nil {
		t.Fatalf("state: %+v", r.summary)
	}
	r = sendCmd(t, e, command{kind: cmdGetStats})
	if r.stats.Ticks != 1 || r.stats.Status != StatusIdle {
		t.Fatalf("stats: %+v", r.stats)
	}
	// The stats reply carries per-type event counts over the recent
	// window alongside the run counters.
	if r.events["tick.start"] != 1 {
		t.Fatalf("event counts: %+v", r.events)
	}
}
