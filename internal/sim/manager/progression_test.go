package manager

import (
	"testing"

	"harvestsim.ai/internal/sim/events"
)

func TestApplyXP_ResolvesChainedLevelUps(t *testing.T) {
	w := testWorld()
	bus := events.NewBus(16)
	m := testManager(w, bus)

	var milestones []events.Event
	bus.Subscribe(events.TypeMilestone, func(e events.Event) { milestones = append(milestones, e) })

	// 350 XP from level 1: 100 to reach 2, 200 to reach 3, 50 left over.
	m.ApplyXP(350, "test")

	if w.Progression.Level != 3 || w.Progression.XP != 50 {
		t.Fatalf("level=%d xp=%d, want 3/50", w.Progression.Level, w.Progression.XP)
	}
	if !w.Progression.Milestones["level_2"] || !w.Progression.Milestones["level_3"] {
		t.Fatalf("milestones: %+v", w.Progression.Milestones)
	}
	if len(milestones) != 2 {
		t.Fatalf("want 2 milestone events, got %d", len(milestones))
	}
}

func TestApplyXP_MarksProgress(t *testing.T) {
	w := testWorld()
	m := testManager(w, events.NewBus(16))
	w.Clock.TotalMinutes = 500

	m.ApplyXP(1, "test")
	if w.LastProgressMinute != 500 {
		t.Fatalf("last progress %v, want 500", w.LastProgressMinute)
	}
}

func TestXPForNextLevel(t *testing.T) {
	for level, want := range map[int]int{1: 100, 5: 500, 19: 1900} {
		if got := XPForNextLevel(level); got != want {
			t.Fatalf("XPForNextLevel(%d)=%d, want %d", level, got, want)
		}
	}
}

func TestAdvanceClock_RegenCarriesFractions(t *testing.T) {
	w := testWorld()
	w.Resources.Energy.Current = 50
	m := testManager(w, events.NewBus(16))

	// 0.25/minute: no whole point until the fourth minute.
	for i := 0; i < 3; i++ {
		m.AdvanceClock(1, 0.25)
	}
	if w.Resources.Energy.Current != 50 {
		t.Fatalf("energy=%d after 3 minutes, want 50", w.Resources.Energy.Current)
	}
	m.AdvanceClock(1, 0.25)
	if w.Resources.Energy.Current != 51 {
		t.Fatalf("energy=%d after 4 minutes, want 51", w.Resources.Energy.Current)
	}
	if w.Clock.Tick != 4 || w.Clock.TotalMinutes != 4 {
		t.Fatalf("clock tick=%d minutes=%v", w.Clock.Tick, w.Clock.TotalMinutes)
	}
}

func TestAdvanceClock_RegenClampsAtCapacity(t *testing.T) {
	w := testWorld()
	w.Resources.Energy.Current = 100
	m := testManager(w, events.NewBus(16))

	m.AdvanceClock(60, 0.25)
	if w.Resources.Energy.Current != 100 {
		t.Fatalf("energy over capacity: %d", w.Resources.Energy.Current)
	}
	if w.Clock.Day() != 1 {
		t.Fatalf("day=%d", w.Clock.Day())
	}
}
