package manager

import (
	"fmt"
	"math"
	"strings"

	"harvestsim.ai/internal/sim/state"
)

// Op is one of the supported mutation verbs.
type Op string

const (
	OpSet      Op = "set"
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
	OpMultiply Op = "multiply"
	OpAppend   Op = "append"
	OpRemove   Op = "remove"
)

// Change is one path-addressed mutation. Paths resolve against a closed
// table of known locations in the world; an unknown path is a validation
// error, never a panic.
type Change struct {
	Path  string
	Op    Op
	Value any
}

func applyChange(w *state.World, ch Change) error {
	segs := strings.Split(ch.Path, ".")
	switch segs[0] {
	case "resources":
		return applyResourceChange(w, segs, ch)
	case "farm":
		return applyFarmChange(w, segs, ch)
	case "progression":
		return applyProgressionChange(w, segs, ch)
	case "inventory":
		return applyInventoryChange(w, segs, ch)
	case "processes":
		return applyProcessChange(w, segs, ch)
	case "helpers":
		return applyHelperChange(w, segs, ch)
	case "location":
		if ch.Op != OpSet {
			return opErr(ch)
		}
		loc, ok := ch.Value.(state.Location)
		if !ok {
			s, sok := ch.Value.(string)
			if !sok {
				return valueErr(ch)
			}
			loc = state.Location(s)
		}
		w.Location = loc
		return nil
	case "automation":
		if len(segs) != 2 || ch.Op != OpSet {
			return opErr(ch)
		}
		b, ok := ch.Value.(bool)
		if !ok {
			return valueErr(ch)
		}
		w.Automation[segs[1]] = b
		return nil
	case "priorities":
		if len(segs) != 2 || ch.Op != OpSet {
			return opErr(ch)
		}
		order, ok := ch.Value.([]string)
		if !ok {
			return valueErr(ch)
		}
		w.Priorities[segs[1]] = append([]string(nil), order...)
		return nil
	case "last_progress_minute":
		if ch.Op != OpSet {
			return opErr(ch)
		}
		f, err := toFloat(ch.Value)
		if err != nil {
			return valueErr(ch)
		}
		w.LastProgressMinute = f
		return nil
	}
	return pathErr(ch)
}

func applyResourceChange(w *state.World, segs []string, ch Change) error {
	if len(segs) < 2 {
		return pathErr(ch)
	}
	switch segs[1] {
	case "seeds":
		if len(segs) != 3 {
			return pathErr(ch)
		}
		return applyIntMap(w.Resources.Seeds, segs[2], ch)
	case "materials":
		if len(segs) != 3 {
			return pathErr(ch)
		}
		return applyIntMap(w.Resources.Materials, segs[2], ch)
	}
	c := w.Resources.Counter(state.ResourceKind(segs[1]))
	if c == nil {
		return pathErr(ch)
	}
	field := "current"
	if len(segs) == 3 {
		field = segs[2]
	} else if len(segs) != 2 {
		return pathErr(ch)
	}
	switch field {
	case "current":
		return applyIntOp(&c.Current, ch)
	case "max":
		return applyIntOp(&c.Max, ch)
	case "tier":
		return applyIntOp(&c.Tier, ch)
	}
	return pathErr(ch)
}

func applyFarmChange(w *state.World, segs []string, ch Change) error {
	if len(segs) != 2 {
		return pathErr(ch)
	}
	switch segs[1] {
	case "farm_plots":
		return applyIntOp(&w.Farm.FarmPlots, ch)
	case "available_plots":
		return applyIntOp(&w.Farm.AvailablePlots, ch)
	case "pump_rate":
		return applyIntOp(&w.Farm.PumpRate, ch)
	}
	return pathErr(ch)
}

func applyProgressionChange(w *state.World, segs []string, ch Change) error {
	if len(segs) < 2 {
		return pathErr(ch)
	}
	switch segs[1] {
	case "level":
		return applyIntOp(&w.Progression.Level, ch)
	case "xp":
		return applyIntOp(&w.Progression.XP, ch)
	case "unlocked", "milestones":
		if len(segs) != 3 || ch.Op != OpSet {
			return opErr(ch)
		}
		b, ok := ch.Value.(bool)
		if !ok {
			return valueErr(ch)
		}
		if segs[1] == "unlocked" {
			w.Progression.Unlocked[segs[2]] = b
		} else {
			w.Progression.Milestones[segs[2]] = b
		}
		return nil
	}
	return pathErr(ch)
}

func applyInventoryChange(w *state.World, segs []string, ch Change) error {
	if len(segs) < 2 {
		return pathErr(ch)
	}
	switch segs[1] {
	case "tools":
		if len(segs) != 3 {
			return pathErr(ch)
		}
		return applyIntMap(w.Inventory.Tools, segs[2], ch)
	case "weapons", "armor":
		if len(segs) != 3 || ch.Op != OpSet {
			return opErr(ch)
		}
		b, ok := ch.Value.(bool)
		if !ok {
			return valueErr(ch)
		}
		if segs[1] == "weapons" {
			w.Inventory.Weapons[segs[2]] = b
		} else {
			w.Inventory.Armor[segs[2]] = b
		}
		return nil
	case "blueprints":
		s, ok := ch.Value.(string)
		if !ok {
			return valueErr(ch)
		}
		switch ch.Op {
		case OpAppend:
			w.Inventory.Blueprints = append(w.Inventory.Blueprints, s)
			return nil
		case OpRemove:
			for i, bp := range w.Inventory.Blueprints {
				if bp == s {
					w.Inventory.Blueprints = append(w.Inventory.Blueprints[:i], w.Inventory.Blueprints[i+1:]...)
					return nil
				}
			}
			return fmt.Errorf("change %s: blueprint %q not present", ch.Path, s)
		}
		return opErr(ch)
	}
	return pathErr(ch)
}

func applyProcessChange(w *state.World, segs []string, ch Change) error {
	if len(segs) < 2 {
		return pathErr(ch)
	}
	switch segs[1] {
	case "adventure":
		switch ch.Op {
		case OpSet:
			p, ok := ch.Value.(*state.AdventureProcess)
			if !ok {
				return valueErr(ch)
			}
			w.Processes.Adventure = p
			return nil
		case OpRemove:
			w.Processes.Adventure = nil
			return nil
		}
		return opErr(ch)
	case "mining":
		switch ch.Op {
		case OpSet:
			p, ok := ch.Value.(*state.MiningProcess)
			if !ok {
				return valueErr(ch)
			}
			w.Processes.Mining = p
			return nil
		case OpRemove:
			w.Processes.Mining = nil
			return nil
		}
		return opErr(ch)
	case "seed_catch":
		switch ch.Op {
		case OpSet:
			p, ok := ch.Value.(*state.SeedCatchProcess)
			if !ok {
				return valueErr(ch)
			}
			w.Processes.SeedCatch = p
			return nil
		case OpRemove:
			w.Processes.SeedCatch = nil
			return nil
		}
		return opErr(ch)
	case "crops":
		if len(segs) != 3 {
			return pathErr(ch)
		}
		switch ch.Op {
		case OpSet:
			p, ok := ch.Value.(*state.CropProcess)
			if !ok {
				return valueErr(ch)
			}
			w.Processes.Crops[segs[2]] = p
			return nil
		case OpRemove:
			delete(w.Processes.Crops, segs[2])
			return nil
		}
		return opErr(ch)
	case "crafting":
		if len(segs) != 3 {
			return pathErr(ch)
		}
		switch ch.Op {
		case OpSet:
			p, ok := ch.Value.(*state.CraftProcess)
			if !ok {
				return valueErr(ch)
			}
			w.Processes.Crafting[segs[2]] = p
			return nil
		case OpRemove:
			delete(w.Processes.Crafting, segs[2])
			return nil
		}
		return opErr(ch)
	case "training":
		if len(segs) != 3 {
			return pathErr(ch)
		}
		switch ch.Op {
		case OpSet:
			p, ok := ch.Value.(*state.TrainingProcess)
			if !ok {
				return valueErr(ch)
			}
			w.Processes.Training[segs[2]] = p
			return nil
		case OpRemove:
			delete(w.Processes.Training, segs[2])
			return nil
		}
		return opErr(ch)
	}
	return pathErr(ch)
}

func applyHelperChange(w *state.World, segs []string, ch Change) error {
	switch len(segs) {
	case 1:
		if ch.Op != OpAppend {
			return opErr(ch)
		}
		h, ok := ch.Value.(state.Helper)
		if !ok {
			return valueErr(ch)
		}
		if w.HelperByID(h.ID) != nil {
			return fmt.Errorf("change %s: helper %q already on roster", ch.Path, h.ID)
		}
		w.Helpers = append(w.Helpers, h)
		return nil
	case 2:
		switch ch.Op {
		case OpSet:
			h, ok := ch.Value.(state.Helper)
			if !ok {
				return valueErr(ch)
			}
			cur := w.HelperByID(segs[1])
			if cur == nil {
				return fmt.Errorf("change %s: unknown helper %q", ch.Path, segs[1])
			}
			*cur = h
			return nil
		case OpRemove:
			for i := range w.Helpers {
				if w.Helpers[i].ID == segs[1] {
					w.Helpers = append(w.Helpers[:i], w.Helpers[i+1:]...)
					return nil
				}
			}
			return fmt.Errorf("change %s: unknown helper %q", ch.Path, segs[1])
		}
		return opErr(ch)
	}
	return pathErr(ch)
}

func applyIntMap(m map[string]int, key string, ch Change) error {
	cur := m[key]
	if err := applyIntOp(&cur, ch); err != nil {
		return err
	}
	if cur == 0 && (ch.Op == OpSubtract || ch.Op == OpSet) {
		delete(m, key)
		return nil
	}
	m[key] = cur
	return nil
}

func applyIntOp(target *int, ch Change) error {
	switch ch.Op {
	case OpSet:
		n, err := toInt(ch.Value)
		if err != nil {
			return valueErr(ch)
		}
		*target = n
	case OpAdd:
		n, err := toInt(ch.Value)
		if err != nil {
			return valueErr(ch)
		}
		*target += n
	case OpSubtract:
		n, err := toInt(ch.Value)
		if err != nil {
			return valueErr(ch)
		}
		*target -= n
	case OpMultiply:
		f, err := toFloat(ch.Value)
		if err != nil {
			return valueErr(ch)
		}
		*target = int(math.Round(float64(*target) * f))
	default:
		return opErr(ch)
	}
	return nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func pathErr(ch Change) error {
	return fmt.Errorf("change %s: unknown path", ch.Path)
}

func opErr(ch Change) error {
	return fmt.Errorf("change %s: op %q not supported here", ch.Path, ch.Op)
}

func valueErr(ch Change) error {
	return fmt.Errorf("change %s: bad value type %T for op %q", ch.Path, ch.Value, ch.Op)
}
