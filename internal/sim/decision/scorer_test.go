package decision

import (
	"reflect"
	"testing"

	"harvestsim.ai/internal/sim/state"
)

func scoringWorld() *state.World {
	return state.NewWorld(state.InitialConfig{
		Energy: 100, EnergyMax: 100,
		Water: 10, WaterMax: 20,
		Gold: 75, GoldMax: 10000,
		FarmPlots: 3, PumpRate: 4,
		Seeds: map[string]int{"turnip_seed": 3},
	})
}

func TestScoreCandidate_Pure(t *testing.T) {
	w := scoringWorld()
	c := Candidate{Kind: ActionPlant, Target: "turnip_seed"}
	before := w.Clone()

	s1, f1 := scoreCandidate(c, w, Optimizer{})
	s2, f2 := scoreCandidate(c, w, Optimizer{})

	if s1 != s2 {
		t.Fatalf("scores differ for identical input: %v vs %v", s1, s2)
	}
	if !reflect.DeepEqual(f1, f2) {
		t.Fatalf("factors differ: %v vs %v", f1, f2)
	}
	if !reflect.DeepEqual(w, before) {
		t.Fatalf("scoring mutated the world")
	}
}

func TestScoreCandidate_EmergencyOutranksEverythingForEveryPersona(t *testing.T) {
	w := scoringWorld()
	emergency := Candidate{Kind: ActionEat, Target: "turnip", Emergency: true}

	for _, p := range []Policy{Optimizer{}, Casual{}, WeekendWarrior{}} {
		eScore, _ := scoreCandidate(emergency, w, p)
		for kind := range baseScores {
			s, _ := scoreCandidate(Candidate{Kind: kind}, w, p)
			if s >= eScore {
				t.Fatalf("policy %s: %s score %.1f >= emergency %.1f", p.Name(), kind, s, eScore)
			}
		}
	}
}

func TestScoreCandidate_DrynessRaisesPump(t *testing.T) {
	dryWorld := scoringWorld()
	dryWorld.Resources.Water.Current = 0
	wetWorld := scoringWorld()
	wetWorld.Resources.Water.Current = 18

	dry, _ := scoreCandidate(Candidate{Kind: ActionPump}, dryWorld, Optimizer{})
	wet, _ := scoreCandidate(Candidate{Kind: ActionPump}, wetWorld, Optimizer{})
	if dry <= wet {
		t.Fatalf("dry pump %.1f not above wet pump %.1f", dry, wet)
	}
}

func TestClassifyUrgency(t *testing.T) {
	cases := []struct {
		score float64
		want  Urgency
	}{
		{5, UrgencyLow},
		{25, UrgencyNormal},
		{55, UrgencyHigh},
		{90, UrgencyCritical},
		{150, UrgencyEmergency},
	}
	for _, tc := range cases {
		if got := classifyUrgency(tc.score, 20, 50, 80, 120); got != tc.want {
			t.Fatalf("classifyUrgency(%.0f)=%s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestPolicies_CheckinCadence(t *testing.T) {
	w := scoringWorld()

	if (Optimizer{}).ShouldCheckIn(14, 0, w) {
		t.Fatalf("optimizer checked in before its interval")
	}
	if !(Optimizer{}).ShouldCheckIn(15, 0, w) {
		t.Fatalf("optimizer skipped its interval")
	}

	if (Casual{}).ShouldCheckIn(120, 0, w) {
		t.Fatalf("casual checked in after 2h")
	}
	if !(Casual{}).ShouldCheckIn(240, 0, w) {
		t.Fatalf("casual skipped after 4h")
	}
}

func TestWeekendWarrior_IntervalDependsOnDay(t *testing.T) {
	w := scoringWorld()
	// Day 1 is a weekday.
	if got := (WeekendWarrior{}).MinCheckinInterval(w); got != 480 {
		t.Fatalf("weekday interval %v", got)
	}
	// Day 6 is the first weekend day.
	w.Clock.TotalMinutes = 5 * 24 * 60
	if w.Clock.Day() != 6 {
		t.Fatalf("day=%d, want 6", w.Clock.Day())
	}
	if got := (WeekendWarrior{}).MinCheckinInterval(w); got != 30 {
		t.Fatalf("weekend interval %v", got)
	}
}

func TestPolicyByName(t *testing.T) {
	if PolicyByName("casual").Name() != "casual" {
		t.Fatalf("casual lookup")
	}
	if PolicyByName("weekend_warrior").Name() != "weekend_warrior" {
		t.Fatalf("weekend_warrior lookup")
	}
	if PolicyByName("???").Name() != "optimizer" {
		t.Fatalf("unknown persona should fall back to optimizer")
	}
}
