// Package engine runs the simulation's tick loop. The loop owns every
// core component and executes on a single goroutine; hosts talk to it
// exclusively through commands and the outbound notification channel, so
// core and host never touch the same state concurrently.
package engine

import (
	"fmt"

	"harvestsim.ai/internal/sim/action"
	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/decision"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/process"
	"harvestsim.ai/internal/sim/rng"
	"harvestsim.ai/internal/sim/state"
	"harvestsim.ai/internal/sim/tuning"
)

// Status is the run-loop state machine.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// CompletionReason says why a run reached the completed state.
type CompletionReason string

const (
	ReasonVictory    CompletionReason = "victory"
	ReasonBottleneck CompletionReason = "bottleneck"
	ReasonManual     CompletionReason = "manual"
	ReasonError      CompletionReason = "error"
)

// Config assembles one run.
type Config struct {
	Seed    int64
	Policy  string
	Speed   float64
	Tuning  tuning.Tuning
	Catalog *catalogs.Catalog
	// StartingSeeds stocks the initial seed pouch; empty means the
	// cheapest catalog seed, three of them.
	StartingSeeds map[string]int
}

// Engine is the orchestrator. All fields are owned by the Run goroutine
// after Run starts; external callers use the command methods.
type Engine struct {
	cfg Config
	tun tuning.Tuning
	cat *catalogs.Catalog

	bus  *events.Bus
	mgr  *manager.Manager
	reg  *process.Registry
	pctx *process.Context
	dec  *decision.Engine
	exec *action.Executor

	status     Status
	reason     CompletionReason
	speed      float64
	nextSpeed  float64
	stats      Stats
	tickEvents []events.Event

	cmds chan command
	out  chan Notification
	done chan struct{}
}

// New wires a run from its config. The engine is idle until Start.
func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("engine: catalog required")
	}
	cfg.Tuning.ApplyDefaults()
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}
	if cfg.Speed > cfg.Tuning.Decisions.MaxSpeedMultiple {
		return nil, fmt.Errorf("engine: speed %.1f above maximum %.1f", cfg.Speed, cfg.Tuning.Decisions.MaxSpeedMultiple)
	}

	seeds := cfg.StartingSeeds
	if len(seeds) == 0 {
		seeds = defaultSeeds(cfg.Catalog)
	}
	r := cfg.Tuning.Resources
	w := state.NewWorld(state.InitialConfig{
		Energy:    r.StartEnergy,
		EnergyMax: r.EnergyTiers[0],
		Water:     r.StartWater,
		WaterMax:  r.WaterTiers[0],
		Gold:      r.StartGold,
		GoldMax:   r.GoldTiers[0],
		FarmPlots: cfg.Tuning.Farm.StartingPlots,
		PumpRate:  cfg.Tuning.Farm.PumpRate,
		Seeds:     seeds,
	})

	bus := events.NewBus(cfg.Tuning.Decisions.HistorySize)
	ledger := manager.NewLedger(map[state.ResourceKind][]int{
		state.ResourceEnergy: r.EnergyTiers,
		state.ResourceWater:  r.WaterTiers,
		state.ResourceGold:   r.GoldTiers,
	})
	mgr := manager.New(w, bus, ledger)
	reg := process.Registered(&cfg.Tuning)
	pctx := &process.Context{
		Manager: mgr,
		Catalog: cfg.Catalog,
		Tuning:  &cfg.Tuning,
		Rand:    rng.New(cfg.Seed),
		Bus:     bus,
	}

	e := &Engine{
		cfg:       cfg,
		tun:       cfg.Tuning,
		cat:       cfg.Catalog,
		bus:       bus,
		mgr:       mgr,
		reg:       reg,
		pctx:      pctx,
		dec:       decision.NewEngine(decision.PolicyByName(cfg.Policy), cfg.Catalog, &cfg.Tuning, bus),
		exec:      action.NewExecutor(mgr, reg, pctx, cfg.Catalog, &cfg.Tuning, bus),
		status:    StatusIdle,
		speed:     cfg.Speed,
		nextSpeed: cfg.Speed,
		cmds:      make(chan command, 16),
		out:       make(chan Notification, 256),
		done:      make(chan struct{}),
	}
	e.bus.Subscribe(events.Wildcard, func(ev events.Event) {
		e.tickEvents = append(e.tickEvents, ev)
		e.stats.Events++
	})
	e.bus.Subscribe(events.TypeProcessDone, func(events.Event) {
		e.stats.ProcessesCompleted++
	})
	return e, nil
}

func defaultSeeds(cat *catalogs.Catalog) map[string]int {
	items := cat.ItemsByCategory("seed")
	if len(items) == 0 {
		return nil
	}
	best := items[0]
	for _, it := range items[1:] {
		if it.Value < best.Value {
			best = it
		}
	}
	return map[string]int{best.ID: 3}
}

// Config returns the run's configuration (read-only after New).
func (e *Engine) Config() Config { return e.cfg }

// Catalog returns the run's catalog.
func (e *Engine) Catalog() *catalogs.Catalog { return e.cat }

// Bus exposes the run's event channel for additional subscribers
// (persistence, logging). Subscribe before Start; the loop goroutine
// owns the bus afterwards.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Notifications is the outbound host-facing stream.
func (e *Engine) Notifications() <-chan Notification { return e.out }
