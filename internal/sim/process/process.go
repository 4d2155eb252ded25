// Package process advances many concurrent, independently-timed
// activities each tick. A registry dispatches to one handler per
// activity kind; per-kind concurrency caps are enforced at the registry
// so no handler can bypass them.
package process

import (
	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/manager"
	"harvestsim.ai/internal/sim/rng"
	"harvestsim.ai/internal/sim/tuning"
)

// Kind tags one activity family.
type Kind string

const (
	KindCrop      Kind = "crop"
	KindAdventure Kind = "adventure"
	KindCraft     Kind = "craft"
	KindMining    Kind = "mining"
	KindSeedCatch Kind = "seed_catch"
	KindTraining  Kind = "training"
)

// Status of a process handle.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Handle is the scheduler's record of one in-flight activity. The
// kind-specific payload lives inside the world state; Data carries the
// start parameters the handler was given.
type Handle struct {
	ID            string
	Kind          Kind
	Status        Status
	Progress      float64 // [0,1]
	StartedMinute float64
	Data          map[string]any
}

// Context hands handlers everything they touch, per call. Handlers never
// store a reference to the world or to the context.
type Context struct {
	Manager *manager.Manager
	Catalog *catalogs.Catalog
	Tuning  *tuning.Tuning
	Rand    *rng.Source
	Bus     *events.Bus
}

// Metadata describes a handler's kind to the registry.
type Metadata struct {
	Kind          Kind
	MaxConcurrent int
	Description   string
}

// Handler is the per-kind capability set.
type Handler interface {
	// CanStart checks kind-specific preconditions. A false result
	// carries a human-readable reason.
	CanStart(ctx *Context, data map[string]any) (bool, string)
	// Initialize seeds the kind-specific payload inside the world state
	// and pays any up-front costs.
	Initialize(ctx *Context, h *Handle, data map[string]any) error
	// Update advances the payload by deltaMinutes of simulated time and
	// reports whether the process has completed.
	Update(ctx *Context, h *Handle, deltaMinutes float64) (completed bool, err error)
	// Complete applies completion rewards/side effects and removes the
	// payload.
	Complete(ctx *Context, h *Handle) error
	// Cancel tears the payload down leaving the world consistent (e.g.
	// releasing a reserved plot).
	Cancel(ctx *Context, h *Handle) error
	Metadata() Metadata
}
