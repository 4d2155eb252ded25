package protocol

import (
	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
)

// INITIALIZE (host -> core): configure a run before starting it.
type InitializeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version,omitempty"`
	Config          RunConfig      `json:"config"`
	Parameters      map[string]any `json:"parameters,omitempty"` // dotted-path tuning overrides
	Catalog         *CatalogDefs   `json:"catalog,omitempty"`    // omitted: server-side catalog file
}

// RunConfig selects seed, persona and pacing for one run.
type RunConfig struct {
	Seed          int64          `json:"seed"`
	Policy        string         `json:"policy,omitempty"`
	Speed         float64        `json:"speed,omitempty"`
	StartingSeeds map[string]int `json:"starting_seeds,omitempty"`
}

// CatalogDefs carries host-supplied item/recipe tables.
type CatalogDefs struct {
	Items   []catalogs.ItemDef   `json:"items"`
	Recipes []catalogs.RecipeDef `json:"recipes,omitempty"`
}

// START (host -> core). A positive speed overrides the current one.
type StartMsg struct {
	Type  string  `json:"type"`
	Speed float64 `json:"speed,omitempty"`
}

// SET_SPEED (host -> core).
type SetSpeedMsg struct {
	Type  string  `json:"type"`
	Speed float64 `json:"speed"`
}

// READY (core -> host): the run is initialized and idle.
type ReadyMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	RunID           string         `json:"run_id"`
	Seed            int64          `json:"seed"`
	Policy          string         `json:"policy"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemsDigest   string `json:"items_digest"`
	ItemCount     int    `json:"item_count"`
	RecipesDigest string `json:"recipes_digest"`
	RecipeCount   int    `json:"recipe_count"`
}

// StateView is the condensed per-tick snapshot. The full world travels
// only on explicit GET_STATE requests.
type StateView struct {
	Tick      uint64  `json:"tick"`
	Day       int     `json:"day"`
	Minute    float64 `json:"minute"`
	Location  string  `json:"location"`
	Level     int     `json:"level"`
	XP        int     `json:"xp"`
	Energy    int     `json:"energy"`
	EnergyMax int     `json:"energy_max"`
	Water     int     `json:"water"`
	WaterMax  int     `json:"water_max"`
	Gold      int     `json:"gold"`
	GoldMax   int     `json:"gold_max"`
	Seeds     int     `json:"seeds"`
	PlotsFree int     `json:"plots_free"`
	PlotsAll  int     `json:"plots_all"`
	Processes int     `json:"processes"`
	Helpers   int     `json:"helpers"`
}

// NewStateView condenses a world snapshot for the tick stream.
func NewStateView(w *state.World) StateView {
	active := len(w.Processes.Crops) + len(w.Processes.Crafting) + len(w.Processes.Training)
	if w.Processes.Adventure != nil {
		active++
	}
	if w.Processes.Mining != nil {
		active++
	}
	if w.Processes.SeedCatch != nil {
		active++
	}
	return StateView{
		Tick:      w.Clock.Tick,
		Day:       w.Clock.Day(),
		Minute:    w.Clock.TotalMinutes,
		Location:  string(w.Location),
		Level:     w.Progression.Level,
		XP:        w.Progression.XP,
		Energy:    w.Resources.Energy.Current,
		EnergyMax: w.Resources.Energy.Max,
		Water:     w.Resources.Water.Current,
		WaterMax:  w.Resources.Water.Max,
		Gold:      w.Resources.Gold.Current,
		GoldMax:   w.Resources.Gold.Max,
		Seeds:     w.Resources.TotalSeeds(),
		PlotsFree: w.Farm.AvailablePlots,
		PlotsAll:  w.Farm.FarmPlots,
		Processes: active,
		Helpers:   len(w.Helpers),
	}
}

// TICK (core -> host): one completed tick.
type TickMsg struct {
	Type       string         `json:"type"`
	Tick       uint64         `json:"tick"`
	State      StateView      `json:"state"`
	NoAction   bool           `json:"no_action,omitempty"`
	Action     any            `json:"action,omitempty"`
	Urgency    string         `json:"urgency,omitempty"`
	Events     []events.Event `json:"events,omitempty"`
	IsComplete bool           `json:"is_complete"`
	IsStuck    bool           `json:"is_stuck"`
}

// STATE (core -> host): reply to GET_STATE with the full world.
type StateMsg struct {
	Type  string       `json:"type"`
	View  StateView    `json:"view"`
	World *state.World `json:"world"`
}

// COMPLETE (core -> host): terminal report.
type CompleteMsg struct {
	Type       string       `json:"type"`
	Reason     string       `json:"reason"`
	Summary    string       `json:"summary"`
	FinalState *state.World `json:"final_state"`
	Stats      any          `json:"stats"`
}

// ERROR (core -> host). Fatal means the run halted.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// STATS (core -> host): reply to GET_STATS.
type StatsMsg struct {
	Type        string         `json:"type"`
	Stats       any            `json:"stats"`
	EventCounts map[string]int `json:"event_counts,omitempty"`
}
