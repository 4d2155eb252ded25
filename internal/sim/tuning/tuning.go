// Package tuning holds the named parameter groups that drive game
// balance. Values are loaded from YAML, overridden via dotted paths
// before a run starts, and immutable once the run is started.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Farm      FarmParams      `yaml:"farm"`
	Tower     TowerParams     `yaml:"tower"`
	Town      TownParams      `yaml:"town"`
	Adventure AdventureParams `yaml:"adventure"`
	Forge     ForgeParams     `yaml:"forge"`
	Mine      MineParams      `yaml:"mine"`
	Helpers   HelperParams    `yaml:"helpers"`
	Resources ResourceParams  `yaml:"resources"`
	Decisions DecisionParams  `yaml:"decisions"`
}

type FarmParams struct {
	StartingPlots    int     `yaml:"starting_plots"`
	PumpRate         int     `yaml:"pump_rate"`
	PlantEnergyCost  int     `yaml:"plant_energy_cost"`
	PlantWaterCost   int     `yaml:"plant_water_cost"`
	HarvestXP        int     `yaml:"harvest_xp"`
	GrowthMinutesMin float64 `yaml:"growth_minutes_min"`
}

type TowerParams struct {
	CatchMinutes    float64 `yaml:"catch_minutes"`
	CatchEnergyCost int     `yaml:"catch_energy_cost"`
	SeedsPerCatch   int     `yaml:"seeds_per_catch"`
	UnlockLevel     int     `yaml:"unlock_level"`
}

type TownParams struct {
	SeedPrice       int `yaml:"seed_price"`
	HelperHireCost  int `yaml:"helper_hire_cost"`
	MaxHelpers      int `yaml:"max_helpers"`
	SellPriceFactor int `yaml:"sell_price_factor"` // percent of catalog value
}

type AdventureParams struct {
	MinutesPerRun  float64 `yaml:"minutes_per_run"`
	EnergyCost     int     `yaml:"energy_cost"`
	BaseGoldReward int     `yaml:"base_gold_reward"`
	BaseXPReward   int     `yaml:"base_xp_reward"`
	UnlockLevel    int     `yaml:"unlock_level"`
}

type ForgeParams struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	UnlockLevel   int `yaml:"unlock_level"`
}

type MineParams struct {
	MinutesPerRun float64 `yaml:"minutes_per_run"`
	EnergyCost    int     `yaml:"energy_cost"`
	OrePerRun     int     `yaml:"ore_per_run"`
	UnlockLevel   int     `yaml:"unlock_level"`
}

type HelperParams struct {
	TrainingMinutes float64 `yaml:"training_minutes"`
	TrainingCost    int     `yaml:"training_cost"`
	MaxConcurrent   int     `yaml:"max_concurrent"`
}

type ResourceParams struct {
	EnergyTiers []int   `yaml:"energy_tiers"`
	WaterTiers  []int   `yaml:"water_tiers"`
	GoldTiers   []int   `yaml:"gold_tiers"`
	EnergyRegen float64 `yaml:"energy_regen_per_minute"`
	StartEnergy int     `yaml:"start_energy"`
	StartWater  int     `yaml:"start_water"`
	StartGold   int     `yaml:"start_gold"`
}

type DecisionParams struct {
	MaxCandidates     int     `yaml:"max_candidates"`
	EmergencyEnergy   int     `yaml:"emergency_energy"`
	EmergencyWater    int     `yaml:"emergency_water"`
	BottleneckDays    int     `yaml:"bottleneck_days"`
	VictoryLevel      int     `yaml:"victory_level"`
	UrgencyNormal     float64 `yaml:"urgency_normal"`
	UrgencyHigh       float64 `yaml:"urgency_high"`
	UrgencyCritical   float64 `yaml:"urgency_critical"`
	UrgencyEmergency  float64 `yaml:"urgency_emergency"`
	HistorySize       int     `yaml:"history_size"`
	StatsWindowTicks  int     `yaml:"stats_window_ticks"`
	MinutesPerTick    float64 `yaml:"minutes_per_tick"`
	BaseTickMillis    int     `yaml:"base_tick_millis"`
	MaxSpeedMultiple  float64 `yaml:"max_speed_multiple"`
	SnapshotEveryTick int     `yaml:"snapshot_every_ticks"`
}

// Load reads tuning from a YAML file and applies defaults for anything
// left unset.
func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

// Defaults returns the documented default parameter set.
func Defaults() Tuning {
	var t Tuning
	t.ApplyDefaults()
	return t
}

func (t *Tuning) ApplyDefaults() {
	f := &t.Farm
	if f.StartingPlots <= 0 {
		f.StartingPlots = 3
	}
	if f.PumpRate <= 0 {
		f.PumpRate = 4
	}
	if f.PlantEnergyCost <= 0 {
		f.PlantEnergyCost = 1
	}
	if f.PlantWaterCost <= 0 {
		f.PlantWaterCost = 1
	}
	if f.HarvestXP <= 0 {
		f.HarvestXP = 5
	}
	if f.GrowthMinutesMin <= 0 {
		f.GrowthMinutesMin = 30
	}

	tw := &t.Tower
	if tw.CatchMinutes <= 0 {
		tw.CatchMinutes = 10
	}
	if tw.CatchEnergyCost <= 0 {
		tw.CatchEnergyCost = 1
	}
	if tw.SeedsPerCatch <= 0 {
		tw.SeedsPerCatch = 3
	}
	if tw.UnlockLevel <= 0 {
		tw.UnlockLevel = 1
	}

	tn := &t.Town
	if tn.SeedPrice <= 0 {
		tn.SeedPrice = 10
	}
	if tn.HelperHireCost <= 0 {
		tn.HelperHireCost = 500
	}
	if tn.MaxHelpers <= 0 {
		tn.MaxHelpers = 4
	}
	if tn.SellPriceFactor <= 0 {
		tn.SellPriceFactor = 100
	}

	a := &t.Adventure
	if a.MinutesPerRun <= 0 {
		a.MinutesPerRun = 60
	}
	if a.EnergyCost <= 0 {
		a.EnergyCost = 10
	}
	if a.BaseGoldReward <= 0 {
		a.BaseGoldReward = 25
	}
	if a.BaseXPReward <= 0 {
		a.BaseXPReward = 15
	}
	if a.UnlockLevel <= 0 {
		a.UnlockLevel = 3
	}

	fg := &t.Forge
	if fg.MaxConcurrent <= 0 {
		fg.MaxConcurrent = 2
	}
	if fg.UnlockLevel <= 0 {
		fg.UnlockLevel = 5
	}

	m := &t.Mine
	if m.MinutesPerRun <= 0 {
		m.MinutesPerRun = 45
	}
	if m.EnergyCost <= 0 {
		m.EnergyCost = 8
	}
	if m.OrePerRun <= 0 {
		m.OrePerRun = 5
	}
	if m.UnlockLevel <= 0 {
		m.UnlockLevel = 4
	}

	h := &t.Helpers
	if h.TrainingMinutes <= 0 {
		h.TrainingMinutes = 120
	}
	if h.TrainingCost <= 0 {
		h.TrainingCost = 100
	}
	if h.MaxConcurrent <= 0 {
		h.MaxConcurrent = 2
	}

	r := &t.Resources
	if len(r.EnergyTiers) == 0 {
		r.EnergyTiers = []int{100, 150, 225, 350}
	}
	if len(r.WaterTiers) == 0 {
		r.WaterTiers = []int{20, 40, 80, 160}
	}
	if len(r.GoldTiers) == 0 {
		r.GoldTiers = []int{10000, 50000, 250000}
	}
	if r.EnergyRegen <= 0 {
		r.EnergyRegen = 0.25
	}
	if r.StartEnergy <= 0 {
		r.StartEnergy = 100
	}
	if r.StartGold <= 0 {
		r.StartGold = 75
	}

	d := &t.Decisions
	if d.MaxCandidates <= 0 {
		d.MaxCandidates = 3
	}
	if d.EmergencyEnergy <= 0 {
		d.EmergencyEnergy = 5
	}
	if d.BottleneckDays <= 0 {
		d.BottleneckDays = 3
	}
	if d.VictoryLevel <= 0 {
		d.VictoryLevel = 20
	}
	if d.UrgencyNormal <= 0 {
		d.UrgencyNormal = 20
	}
	if d.UrgencyHigh <= 0 {
		d.UrgencyHigh = 50
	}
	if d.UrgencyCritical <= 0 {
		d.UrgencyCritical = 80
	}
	if d.UrgencyEmergency <= 0 {
		d.UrgencyEmergency = 120
	}
	if d.HistorySize <= 0 {
		d.HistorySize = 2000
	}
	if d.StatsWindowTicks <= 0 {
		d.StatsWindowTicks = 600
	}
	if d.MinutesPerTick <= 0 {
		d.MinutesPerTick = 1
	}
	if d.BaseTickMillis <= 0 {
		d.BaseTickMillis = 100
	}
	if d.MaxSpeedMultiple <= 0 {
		d.MaxSpeedMultiple = 1000
	}
	if d.SnapshotEveryTick <= 0 {
		d.SnapshotEveryTick = 3000
	}
}
