package engine

import (
	"harvestsim.ai/internal/sim/action"
	"harvestsim.ai/internal/sim/decision"
	"harvestsim.ai/internal/sim/events"
	"harvestsim.ai/internal/sim/state"
)

// NotificationType tags the outbound stream.
type NotificationType string

const (
	NoteTick     NotificationType = "tick"
	NoteComplete NotificationType = "complete"
	NoteError    NotificationType = "error"
)

// Notification is one outbound message to the host. Exactly one of the
// payload pointers matching Type is set.
type Notification struct {
	Type     NotificationType
	Tick     *TickSummary
	Complete *Completion
	Error    *ErrorNote
}

// TickSummary reports one completed tick. World is a deep clone; the
// host may hold it for as long as it likes.
type TickSummary struct {
	Tick       uint64           `json:"tick"`
	Day        int              `json:"day"`
	Minute     float64          `json:"minute"`
	Status     Status           `json:"status"`
	NoAction   bool             `json:"no_action"`
	Action     *action.Result   `json:"action,omitempty"`
	Urgency    decision.Urgency `json:"urgency"`
	Events     []events.Event   `json:"events,omitempty"`
	IsComplete bool             `json:"is_complete"`
	IsStuck    bool             `json:"is_stuck"`
	World      *state.World     `json:"world"`
}

// Completion is the terminal report of a run.
type Completion struct {
	Reason     CompletionReason `json:"reason"`
	Summary    string           `json:"summary"`
	FinalState *state.World     `json:"final_state"`
	Stats      Stats            `json:"stats"`
}

// ErrorNote reports a loop failure. Fatal means the run halted.
type ErrorNote struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Stats is the run's running counter set.
type Stats struct {
	Ticks              uint64  `json:"ticks"`
	SimMinutes         float64 `json:"sim_minutes"`
	Day                int     `json:"day"`
	Decisions          int     `json:"decisions"`
	NoActionTicks      int     `json:"no_action_ticks"`
	ActionsExecuted    int     `json:"actions_executed"`
	ActionsFailed      int     `json:"actions_failed"`
	ProcessesCompleted int     `json:"processes_completed"`
	Events             int     `json:"events"`
	Level              int     `json:"level"`
	XP                 int     `json:"xp"`
	Speed              float64 `json:"speed"`
	Status             Status  `json:"status"`
	Reason             string  `json:"reason,omitempty"`
}

// send enqueues a notification without ever blocking the tick loop. When
// the host falls behind, the oldest queued tick summary is dropped first.
func (e *Engine) send(n Notification) {
	select {
	case e.out <- n:
		return
	default:
	}
	select {
	case <-e.out:
	default:
	}
	select {
	case e.out <- n:
	default:
	}
}
