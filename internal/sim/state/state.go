package state

// Location is where the agent currently is. Navigation actions move the
// agent between locations; most actions are only legal at one of them.
type Location string

const (
	LocationFarm      Location = "farm"
	LocationTower     Location = "tower"
	LocationTown      Location = "town"
	LocationAdventure Location = "adventure"
	LocationForge     Location = "forge"
	LocationMine      Location = "mine"
)

// Locations lists every location in a fixed order.
var Locations = []Location{
	LocationFarm, LocationTower, LocationTown,
	LocationAdventure, LocationForge, LocationMine,
}

// Clock is simulated time. One tick advances TotalMinutes by a variable
// delta; Day is derived (1-based) for bottleneck/termination bookkeeping.
type Clock struct {
	Tick         uint64  `json:"tick"`
	TotalMinutes float64 `json:"total_minutes"`
}

const minutesPerDay = 24 * 60

// Day returns the 1-based simulated day.
func (c Clock) Day() int {
	return int(c.TotalMinutes/minutesPerDay) + 1
}

// Progression tracks level and unlocked content.
type Progression struct {
	Level      int             `json:"level"`
	XP         int             `json:"xp"`
	Unlocked   map[string]bool `json:"unlocked"`
	Milestones map[string]bool `json:"milestones"`
}

// Inventory is the agent's durable equipment. Tools map tool id to its
// upgrade tier (0 = base). Blueprints are pending, not yet crafted.
type Inventory struct {
	Tools      map[string]int  `json:"tools"`
	Weapons    map[string]bool `json:"weapons"`
	Armor      map[string]bool `json:"armor"`
	Blueprints []string        `json:"blueprints"`
}

// Helper is one hired worker on the roster.
type Helper struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Role       string         `json:"role"`
	Level      int            `json:"level"`
	AssignedTo Location       `json:"assigned_to,omitempty"`
	Skills     map[string]int `json:"skills"`
}

// Farm tracks plot availability. AvailablePlots must never exceed
// FarmPlots; planting reserves a plot, harvest/cancel releases it.
type Farm struct {
	FarmPlots      int `json:"farm_plots"`
	AvailablePlots int `json:"available_plots"`
	PumpRate       int `json:"pump_rate"`
}

// World is the single root aggregate for a run. It is pure data: every
// mutation flows through the state manager, and no component holds a
// behavioral back-reference into it.
type World struct {
	Clock       Clock       `json:"clock"`
	Resources   Resources   `json:"resources"`
	Progression Progression `json:"progression"`
	Inventory   Inventory   `json:"inventory"`
	Farm        Farm        `json:"farm"`
	Processes   Processes   `json:"processes"`
	Helpers     []Helper    `json:"helpers"`
	Location    Location    `json:"location"`

	// Behavior-automation toggles and named priority orderings, both
	// consulted by the decision engine but owned by the world.
	Automation map[string]bool     `json:"automation"`
	Priorities map[string][]string `json:"priorities"`

	// LastProgressMinute is the simulated minute of the most recent
	// measurable progress (harvest, level, milestone). Drives the
	// bottleneck termination check.
	LastProgressMinute float64 `json:"last_progress_minute"`
}

// InitialConfig carries the documented starting values for a run.
type InitialConfig struct {
	Energy    int
	EnergyMax int
	Water     int
	WaterMax  int
	Gold      int
	GoldMax   int
	FarmPlots int
	PumpRate  int
	Seeds     map[string]int
}

// NewWorld creates the run's world with the documented initial values.
func NewWorld(cfg InitialConfig) *World {
	w := &World{
		Resources: Resources{
			Energy:    Counter{Current: cfg.Energy, Max: cfg.EnergyMax},
			Water:     Counter{Current: cfg.Water, Max: cfg.WaterMax},
			Gold:      Counter{Current: cfg.Gold, Max: cfg.GoldMax},
			Seeds:     map[string]int{},
			Materials: map[string]int{},
		},
		Progression: Progression{
			Level:      1,
			Unlocked:   map[string]bool{},
			Milestones: map[string]bool{},
		},
		Inventory: Inventory{
			Tools:   map[string]int{},
			Weapons: map[string]bool{},
			Armor:   map[string]bool{},
		},
		Farm: Farm{
			FarmPlots:      cfg.FarmPlots,
			AvailablePlots: cfg.FarmPlots,
			PumpRate:       cfg.PumpRate,
		},
		Processes: Processes{
			Crops:    map[string]*CropProcess{},
			Crafting: map[string]*CraftProcess{},
			Training: map[string]*TrainingProcess{},
		},
		Location:   LocationFarm,
		Automation: map[string]bool{},
		Priorities: map[string][]string{},
	}
	for id, n := range cfg.Seeds {
		w.Resources.Seeds[id] = n
	}
	return w
}

// Clone produces a deep copy. Used for transaction snapshots and the
// host-facing state round-trip; the copy shares no mutable memory with
// the original.
func (w *World) Clone() *World {
	out := *w
	out.Resources = w.Resources.clone()
	out.Progression.Unlocked = cloneBoolMap(w.Progression.Unlocked)
	out.Progression.Milestones = cloneBoolMap(w.Progression.Milestones)
	out.Inventory.Tools = cloneIntMap(w.Inventory.Tools)
	out.Inventory.Weapons = cloneBoolMap(w.Inventory.Weapons)
	out.Inventory.Armor = cloneBoolMap(w.Inventory.Armor)
	out.Inventory.Blueprints = append([]string(nil), w.Inventory.Blueprints...)
	out.Processes = w.Processes.clone()
	if w.Helpers != nil {
		out.Helpers = make([]Helper, len(w.Helpers))
		for i, h := range w.Helpers {
			h.Skills = cloneIntMap(h.Skills)
			out.Helpers[i] = h
		}
	}
	out.Automation = cloneBoolMap(w.Automation)
	if w.Priorities != nil {
		out.Priorities = make(map[string][]string, len(w.Priorities))
		for k, v := range w.Priorities {
			out.Priorities[k] = append([]string(nil), v...)
		}
	}
	return &out
}

// HelperByID returns the helper with the given id, or nil.
func (w *World) HelperByID(id string) *Helper {
	for i := range w.Helpers {
		if w.Helpers[i].ID == id {
			return &w.Helpers[i]
		}
	}
	return nil
}
