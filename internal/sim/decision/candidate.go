// Package decision produces, each tick, a small ranked set of legal next
// actions given the current world and the active behavior policy.
package decision

import "harvestsim.ai/internal/sim/state"

// ActionKind is the closed set of things the agent can do. The executor
// keeps a strategy per kind; adding a kind means registering a strategy.
type ActionKind string

const (
	ActionPump         ActionKind = "pump"
	ActionPlant        ActionKind = "plant"
	ActionHarvest      ActionKind = "harvest"
	ActionRest         ActionKind = "rest"
	ActionEat          ActionKind = "eat"
	ActionBuySeeds     ActionKind = "buy_seeds"
	ActionSellCrops    ActionKind = "sell_crops"
	ActionHireHelper   ActionKind = "hire_helper"
	ActionAssignHelper ActionKind = "assign_helper"
	ActionTrainHelper  ActionKind = "train_helper"
	ActionAdventure    ActionKind = "start_adventure"
	ActionCraft        ActionKind = "start_craft"
	ActionMine         ActionKind = "start_mining"
	ActionCatchSeeds   ActionKind = "catch_seeds"
	ActionNavigate     ActionKind = "navigate"
)

// riskyKinds lose appeal for risk-averse personas.
var riskyKinds = map[ActionKind]bool{
	ActionAdventure: true,
	ActionMine:      true,
}

// progressionKinds push level/unlock progress and get a bonus from
// optimization-minded personas.
var progressionKinds = map[ActionKind]bool{
	ActionPlant:     true,
	ActionHarvest:   true,
	ActionCraft:     true,
	ActionAdventure: true,
}

// Candidate is an ephemeral, scored proposal. It is regenerated every
// decision cycle and never stored in the world state.
type Candidate struct {
	Kind   ActionKind
	Target string // seed id, process id, recipe id, helper id or location

	// Costs against capacity-bounded counters; Requires against item
	// quantities (seeds/materials). The filter drops candidates that
	// cannot pay.
	Costs    map[state.ResourceKind]int
	Requires map[string]int
	MinLevel int

	// Emergency candidates bypass check-in cadence and outrank
	// everything else.
	Emergency bool

	Score   float64
	Factors []string
}

// Urgency classifies the decision's top score.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyNormal    Urgency = "normal"
	UrgencyHigh      Urgency = "high"
	UrgencyCritical  Urgency = "critical"
	UrgencyEmergency Urgency = "emergency"
)

// Decision is the engine's per-tick output.
type Decision struct {
	NoAction          bool
	NextCheckinMinute float64
	Candidates        []Candidate
	Urgency           Urgency
}
