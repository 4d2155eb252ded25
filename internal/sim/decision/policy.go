package decision

import "harvestsim.ai/internal/sim/state"

// Policy encapsulates how often and how well the simulated agent plays.
// It is swapped per run without touching the decision engine.
type Policy interface {
	Name() string
	// ShouldCheckIn decides whether the agent looks at the game now.
	// Emergencies bypass this.
	ShouldCheckIn(nowMinute, lastCheckinMinute float64, w *state.World) bool
	// MinCheckinInterval is the suggested wait (simulated minutes) when
	// ShouldCheckIn declines.
	MinCheckinInterval(w *state.World) float64
	// AdjustActionScore turns a base score into this persona's score.
	AdjustActionScore(kind ActionKind, base float64, w *state.World) float64

	Efficiency() float64    // 0..1, how sharply the persona plays
	RiskTolerance() float64 // 0..1, appetite for risky kinds
	Optimization() float64  // 0..1, bias toward progression
}

// adjust applies the shared scoring shape: an efficiency multiplier on
// everything, risk scaling on risky kinds, and a progression bonus.
// Emergency bases arrive high enough that they stay on top through any
// persona's multipliers.
func adjust(p Policy, kind ActionKind, base float64) float64 {
	score := base * (0.5 + p.Efficiency()/2)
	if riskyKinds[kind] {
		score *= 0.5 + p.RiskTolerance()/2
	}
	if progressionKinds[kind] {
		score *= 1 + 0.25*p.Optimization()
	}
	return score
}

// Optimizer is the aggressive min-max persona: near-constant check-ins,
// high risk appetite, full progression focus.
type Optimizer struct{}

func (Optimizer) Name() string { return "optimizer" }

func (Optimizer) ShouldCheckIn(now, last float64, w *state.World) bool {
	return now-last >= 15
}

func (Optimizer) MinCheckinInterval(*state.World) float64 { return 15 }

func (o Optimizer) AdjustActionScore(kind ActionKind, base float64, w *state.World) float64 {
	return adjust(o, kind, base)
}

func (Optimizer) Efficiency() float64    { return 0.95 }
func (Optimizer) RiskTolerance() float64 { return 0.8 }
func (Optimizer) Optimization() float64  { return 0.95 }

// Casual is the relaxed persona: a few long sessions a day, risk-averse,
// plays for comfort rather than pace.
type Casual struct{}

func (Casual) Name() string { return "casual" }

func (Casual) ShouldCheckIn(now, last float64, w *state.World) bool {
	return now-last >= 240
}

func (Casual) MinCheckinInterval(*state.World) float64 { return 240 }

func (c Casual) AdjustActionScore(kind ActionKind, base float64, w *state.World) float64 {
	return adjust(c, kind, base)
}

func (Casual) Efficiency() float64    { return 0.6 }
func (Casual) RiskTolerance() float64 { return 0.3 }
func (Casual) Optimization() float64  { return 0.4 }

// WeekendWarrior barely plays on weekdays and binges on the weekend
// (days 6 and 7 of each simulated week).
type WeekendWarrior struct{}

func (WeekendWarrior) Name() string { return "weekend_warrior" }

func isWeekend(w *state.World) bool {
	dow := (w.Clock.Day() - 1) % 7
	return dow >= 5
}

func (p WeekendWarrior) ShouldCheckIn(now, last float64, w *state.World) bool {
	return now-last >= p.MinCheckinInterval(w)
}

func (WeekendWarrior) MinCheckinInterval(w *state.World) float64 {
	if isWeekend(w) {
		return 30
	}
	return 480
}

func (p WeekendWarrior) AdjustActionScore(kind ActionKind, base float64, w *state.World) float64 {
	score := adjust(p, kind, base)
	if isWeekend(w) && riskyKinds[kind] {
		// Long weekend sessions favor the long-running activities.
		score *= 1.2
	}
	return score
}

func (WeekendWarrior) Efficiency() float64    { return 0.75 }
func (WeekendWarrior) RiskTolerance() float64 { return 0.6 }
func (WeekendWarrior) Optimization() float64  { return 0.7 }

// PolicyByName resolves a persona name. Unknown names fall back to the
// optimizer, the benchmark persona for balance work.
func PolicyByName(name string) Policy {
	switch name {
	case "casual":
		return Casual{}
	case "weekend_warrior":
		return WeekendWarrior{}
	default:
		return Optimizer{}
	}
}
