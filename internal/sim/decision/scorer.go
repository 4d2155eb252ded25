package decision

import (
	"fmt"

	"harvestsim.ai/internal/sim/state"
)

// Base scores per action kind. Emergencies sit far enough above the
// rest that no persona multiplier can demote them.
const emergencyBase = 160

var baseScores = map[ActionKind]float64{
	ActionHarvest:      80,
	ActionPlant:        70,
	ActionPump:         40,
	ActionCatchSeeds:   55,
	ActionBuySeeds:     50,
	ActionSellCrops:    45,
	ActionCraft:        60,
	ActionAdventure:    65,
	ActionMine:         60,
	ActionHireHelper:   35,
	ActionAssignHelper: 50,
	ActionTrainHelper:  30,
	ActionEat:          25,
	ActionRest:         10,
	ActionNavigate:     5,
}

// scoreCandidate is a pure function of (candidate, world, policy):
// identical inputs always yield the identical score and factors.
func scoreCandidate(c Candidate, w *state.World, p Policy) (float64, []string) {
	factors := append([]string(nil), c.Factors...)

	base := baseScores[c.Kind]
	if c.Emergency {
		base = emergencyBase
		factors = append(factors, "emergency")
	}

	// Contextual nudges on top of the kind base.
	switch c.Kind {
	case ActionPump:
		if w.Resources.Water.Max > 0 {
			dry := 1 - float64(w.Resources.Water.Current)/float64(w.Resources.Water.Max)
			base += 30 * dry
			factors = append(factors, fmt.Sprintf("dryness %.2f", dry))
		}
	case ActionPlant:
		if w.Farm.FarmPlots > 0 {
			idle := float64(w.Farm.AvailablePlots) / float64(w.Farm.FarmPlots)
			base += 20 * idle
			factors = append(factors, fmt.Sprintf("idle plots %.2f", idle))
		}
	case ActionSellCrops:
		if w.Resources.Gold.Current < 50 {
			base += 20
			factors = append(factors, "gold low")
		}
	}

	score := p.AdjustActionScore(c.Kind, base, w)
	factors = append(factors, fmt.Sprintf("base %.1f -> %.1f (%s)", base, score, p.Name()))
	return score, factors
}

func classifyUrgency(top float64, normal, high, critical, emergency float64) Urgency {
	switch {
	case top >= emergency:
		return UrgencyEmergency
	case top >= critical:
		return UrgencyCritical
	case top >= high:
		return UrgencyHigh
	case top >= normal:
		return UrgencyNormal
	default:
		return UrgencyLow
	}
}
