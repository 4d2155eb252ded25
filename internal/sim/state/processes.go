package state

// Process payloads live inside the world state as pure data. The process
// scheduler owns the handles that drive them; handlers receive the world
// state by explicit parameter and never keep a reference back into it.

// CropProcess is one planted plot growing toward harvest.
type CropProcess struct {
	ID             string  `json:"id"`
	SeedID         string  `json:"seed_id"`
	PlantedMinute  float64 `json:"planted_minute"`
	GrowthRequired float64 `json:"growth_required"` // simulated minutes
	Elapsed        float64 `json:"elapsed"`
	Watered        bool    `json:"watered"`
	ReadyToHarvest bool    `json:"ready_to_harvest"`
}

// AdventureProcess is the single exclusive adventure slot.
type AdventureProcess struct {
	ID            string  `json:"id"`
	AreaID        string  `json:"area_id"`
	StartedMinute float64 `json:"started_minute"`
	Duration      float64 `json:"duration"`
	Elapsed       float64 `json:"elapsed"`
	EnergySpent   int     `json:"energy_spent"`
}

// CraftProcess is one forge job converting materials into an item.
type CraftProcess struct {
	ID            string  `json:"id"`
	RecipeID      string  `json:"recipe_id"`
	StartedMinute float64 `json:"started_minute"`
	Duration      float64 `json:"duration"`
	Elapsed       float64 `json:"elapsed"`
}

// MiningProcess is the single exclusive mining expedition slot.
type MiningProcess struct {
	ID            string  `json:"id"`
	Depth         int     `json:"depth"`
	StartedMinute float64 `json:"started_minute"`
	Duration      float64 `json:"duration"`
	Elapsed       float64 `json:"elapsed"`
}

// SeedCatchProcess is the single exclusive tower seed-catching session.
type SeedCatchProcess struct {
	ID            string  `json:"id"`
	StartedMinute float64 `json:"started_minute"`
	Duration      float64 `json:"duration"`
	Elapsed       float64 `json:"elapsed"`
	Caught        int     `json:"caught"`
}

// TrainingProcess is one helper's training course.
type TrainingProcess struct {
	ID            string  `json:"id"`
	HelperID      string  `json:"helper_id"`
	Skill         string  `json:"skill"`
	StartedMinute float64 `json:"started_minute"`
	Duration      float64 `json:"duration"`
	Elapsed       float64 `json:"elapsed"`
}

// Processes holds the kind-specific payload for every in-flight activity.
// Adventure, mining and seed catching are exclusive slots; crops, crafting
// and training are keyed by process id.
type Processes struct {
	Crops     map[string]*CropProcess     `json:"crops"`
	Adventure *AdventureProcess           `json:"adventure,omitempty"`
	Crafting  map[string]*CraftProcess    `json:"crafting"`
	Mining    *MiningProcess              `json:"mining,omitempty"`
	SeedCatch *SeedCatchProcess           `json:"seed_catch,omitempty"`
	Training  map[string]*TrainingProcess `json:"training"`
}

func (p *Processes) clone() Processes {
	out := Processes{}
	if p.Crops != nil {
		out.Crops = make(map[string]*CropProcess, len(p.Crops))
		for k, v := range p.Crops {
			c := *v
			out.Crops[k] = &c
		}
	}
	if p.Adventure != nil {
		a := *p.Adventure
		out.Adventure = &a
	}
	if p.Crafting != nil {
		out.Crafting = make(map[string]*CraftProcess, len(p.Crafting))
		for k, v := range p.Crafting {
			c := *v
			out.Crafting[k] = &c
		}
	}
	if p.Mining != nil {
		m := *p.Mining
		out.Mining = &m
	}
	if p.SeedCatch != nil {
		s := *p.SeedCatch
		out.SeedCatch = &s
	}
	if p.Training != nil {
		out.Training = make(map[string]*TrainingProcess, len(p.Training))
		for k, v := range p.Training {
			c := *v
			out.Training[k] = &c
		}
	}
	return out
}
