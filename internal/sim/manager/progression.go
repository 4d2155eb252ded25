package manager

import (
	"fmt"

	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
)

// XPForNextLevel is the experience needed to go from level to level+1.
func XPForNextLevel(level int) int {
	return level * 100
}

// ApplyXP credits experience, resolving any level-ups, and marks
// measurable progress for the bottleneck check. Level-ups emit milestone
// events.
func (m *Manager) ApplyXP(amount int, source string) {
	if amount <= 0 {
		return
	}
	p := &m.world.Progression
	p.XP += amount
	for p.XP >= XPForNextLevel(p.Level) {
		p.XP -= XPForNextLevel(p.Level)
		p.Level++
		key := fmt.Sprintf("level_%d", p.Level)
		p.Milestones[key] = true
		m.emit(events.Event{
			Type:  events.TypeMilestone,
			Level: events.LevelInfo,
			Tick:  m.tick,
			Data:  map[string]any{"milestone": key, "level": p.Level, "source": source},
		})
	}
	m.MarkProgress()
}

// MarkProgress records that measurable progress happened this minute.
func (m *Manager) MarkProgress() {
	m.world.LastProgressMinute = m.world.Clock.TotalMinutes
}

// AdvanceClock moves simulated time forward by deltaMinutes and applies
// passive per-minute effects (energy regeneration).
func (m *Manager) AdvanceClock(deltaMinutes float64, regenPerMinute float64) {
	m.world.Clock.Tick++
	m.world.Clock.TotalMinutes += deltaMinutes
	if regenPerMinute > 0 {
		m.regenCarry += regenPerMinute * deltaMinutes
		whole := int(m.regenCarry)
		if whole > 0 {
			m.regenCarry -= float64(whole)
			m.UpdateResource(ResourceRequest{
				Kind:         state.ResourceEnergy,
				Amount:       whole,
				EnforceLimit: true,
			}, "regen", "clock")
		}
	}
}
