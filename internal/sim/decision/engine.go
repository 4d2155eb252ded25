package decision

import (
	"sort"

	"harvestsim.ai/internal/sim/catalogs"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
	"harvestsim.ai/internal/sim/tuning"
)

// Engine ranks candidate actions once per tick. It holds no mutable
// world reference; the world arrives by parameter each cycle.
type Engine struct {
	policy Policy
	cat    *catalogs.Catalog
	tun    *tuning.Tuning
	bus    *events.Bus

	lastCheckinMinute float64
}

func NewEngine(policy Policy, cat *catalogs.Catalog, tun *tuning.Tuning, bus *events.Bus) *Engine {
	return &Engine{policy: policy, cat: cat, tun: tun, bus: bus}
}

// Policy returns the active behavior policy.
func (e *Engine) Policy() Policy { return e.policy }

// Decide produces the ranked top candidates for this tick, or a
// no-action result carrying the policy's suggested next check-in.
// Emergency conditions are evaluated regardless of check-in cadence.
func (e *Engine) Decide(w *state.World) Decision {
	now := w.Clock.TotalMinutes

	all := generate(w, e.cat, e.tun)
	legal := filterCandidates(w, all)

	hasEmergency := false
	for _, c := range legal {
		if c.Emergency {
			hasEmergency = true
			break
		}
	}

	if !hasEmergency && !e.policy.ShouldCheckIn(now, e.lastCheckinMinute, w) {
		next := e.lastCheckinMinute + e.policy.MinCheckinInterval(w)
		e.bus.Emit(events.Event{
			Type:   events.TypeDecisionSkip,
			Level:  events.LevelDebug,
			Tick:   w.Clock.Tick,
			Minute: now,
			Data:   map[string]any{"policy": e.policy.Name(), "next_checkin": next},
		})
		return Decision{NoAction: true, NextCheckinMinute: next, Urgency: UrgencyLow}
	}
	e.lastCheckinMinute = now

	for i := range legal {
		legal[i].Score, legal[i].Factors = scoreCandidate(legal[i], w, e.policy)
	}
	// Descending by score; ties break on kind+target so runs with the
	// same seed rank identically.
	sort.SliceStable(legal, func(i, j int) bool {
		if legal[i].Score != legal[j].Score {
			return legal[i].Score > legal[j].Score
		}
		if legal[i].Kind != legal[j].Kind {
			return legal[i].Kind < legal[j].Kind
		}
		return legal[i].Target < legal[j].Target
	})

	max := e.tun.Decisions.MaxCandidates
	if len(legal) > max {
		legal = legal[:max]
	}

	d := Decision{Candidates: legal, Urgency: UrgencyLow}
	if len(legal) > 0 {
		d.Urgency = classifyUrgency(legal[0].Score,
			e.tun.Decisions.UrgencyNormal,
			e.tun.Decisions.UrgencyHigh,
			e.tun.Decisions.UrgencyCritical,
			e.tun.Decisions.UrgencyEmergency)
	}

	evType := events.TypeDecision
	if hasEmergency {
		evType = events.TypeEmergency
	}
	data := map[string]any{
		"policy":     e.policy.Name(),
		"urgency":    string(d.Urgency),
		"candidates": len(legal),
		"generated":  len(all),
	}
	if len(legal) > 0 {
		data["top_kind"] = string(legal[0].Kind)
		data["top_score"] = legal[0].Score
	}
	e.bus.Emit(events.Event{
		Type:   evType,
		Level:  events.LevelDebug,
		Tick:   w.Clock.Tick,
		Minute: now,
		Data:   data,
	})
	return d
}
