package manager

import (
	"fmt"

	"harvestsim.ai/internal/sim/state"
)

// Severity of a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path addresses the offending field in
// the same dotted form the change API uses.
type Issue struct {
	Severity Severity
	Category string
	Path     string
	Message  string
}

// Validate checks the full invariant set. It is a pure function: it
// never mutates the world and identical input yields identical output.
func Validate(w *state.World) []Issue {
	issues := ValidateCritical(w)

	reserved := len(w.Processes.Crops)
	if w.Farm.AvailablePlots+reserved != w.Farm.FarmPlots {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: "farm",
			Path:     "farm.available_plots",
			Message: fmt.Sprintf("plot accounting drift: %d available + %d planted != %d total",
				w.Farm.AvailablePlots, reserved, w.Farm.FarmPlots),
		})
	}
	if w.Progression.Level < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: "progression",
			Path:     "progression.level",
			Message:  fmt.Sprintf("level %d below 1", w.Progression.Level),
		})
	}
	if w.Progression.XP < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: "progression",
			Path:     "progression.xp",
			Message:  fmt.Sprintf("negative xp %d", w.Progression.XP),
		})
	}
	for id, tier := range w.Inventory.Tools {
		if tier < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "inventory",
				Path:     "inventory.tools." + id,
				Message:  fmt.Sprintf("negative tool tier %d", tier),
			})
		}
	}
	for _, c := range w.Processes.Crops {
		if c.Elapsed < 0 || (c.GrowthRequired > 0 && c.Elapsed > c.GrowthRequired && !c.ReadyToHarvest) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Category: "process",
				Path:     "processes.crops." + c.ID,
				Message:  "crop elapsed out of range for its growth requirement",
			})
		}
	}
	return issues
}

// ValidateCritical is the fast subset run after every transaction
// commit: capacity bounds, non-negative quantities, plot bounds and
// exclusive-slot uniqueness.
func ValidateCritical(w *state.World) []Issue {
	var issues []Issue

	for _, kind := range state.ResourceKinds {
		c := w.Resources.Counter(kind)
		if c.Current < 0 || c.Current > c.Max {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "resource",
				Path:     "resources." + string(kind),
				Message:  fmt.Sprintf("counter %d outside [0,%d]", c.Current, c.Max),
			})
		}
	}
	for id, n := range w.Resources.Seeds {
		if n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "resource",
				Path:     "resources.seeds." + id,
				Message:  fmt.Sprintf("negative seed count %d", n),
			})
		}
	}
	for id, n := range w.Resources.Materials {
		if n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "resource",
				Path:     "resources.materials." + id,
				Message:  fmt.Sprintf("negative material count %d", n),
			})
		}
	}
	if w.Farm.AvailablePlots < 0 || w.Farm.AvailablePlots > w.Farm.FarmPlots {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: "farm",
			Path:     "farm.available_plots",
			Message:  fmt.Sprintf("available plots %d outside [0,%d]", w.Farm.AvailablePlots, w.Farm.FarmPlots),
		})
	}

	// Exclusive slots: duplicate identity keys across process collections
	// and at most one training course per helper.
	seen := map[string]string{}
	record := func(id, coll string) {
		if id == "" {
			return
		}
		if prev, dup := seen[id]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "process",
				Path:     "processes." + coll + "." + id,
				Message:  fmt.Sprintf("process id %q already used by %s", id, prev),
			})
			return
		}
		seen[id] = coll
	}
	for id := range w.Processes.Crops {
		record(id, "crops")
	}
	for id := range w.Processes.Crafting {
		record(id, "crafting")
	}
	for id := range w.Processes.Training {
		record(id, "training")
	}
	if w.Processes.Adventure != nil {
		record(w.Processes.Adventure.ID, "adventure")
	}
	if w.Processes.Mining != nil {
		record(w.Processes.Mining.ID, "mining")
	}
	if w.Processes.SeedCatch != nil {
		record(w.Processes.SeedCatch.ID, "seed_catch")
	}
	trainedHelpers := map[string]bool{}
	for id, tr := range w.Processes.Training {
		if trainedHelpers[tr.HelperID] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "process",
				Path:     "processes.training." + id,
				Message:  fmt.Sprintf("helper %q already in training", tr.HelperID),
			})
		}
		trainedHelpers[tr.HelperID] = true
	}
	return issues
}

// HasErrors reports whether any finding is severity error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}
