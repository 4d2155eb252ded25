// Package events is the engine's single observability surface: a per-run
// pub/sub channel with a bounded history log. Decision, execution and
// process diagnostics all flow through here instead of ad hoc logging.
package events

// Level classifies an event for history filtering.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event is one structured notification. Data is shallow key/value detail;
// subscribers must not mutate it.
type Event struct {
	Type   string         `json:"type"`
	Level  Level          `json:"level"`
	Tick   uint64         `json:"tick"`
	Minute float64        `json:"minute"`
	Data   map[string]any `json:"data,omitempty"`
}

// Well-known event types emitted by the engine core.
const (
	TypeTickStart      = "tick.start"
	TypeActionExecuted = "action.executed"
	TypeActionFailed   = "action.failed"
	TypeDecision       = "decision.made"
	TypeDecisionSkip   = "decision.skipped"
	TypeProcessStart   = "process.started"
	TypeProcessDone    = "process.completed"
	TypeProcessCancel  = "process.cancelled"
	TypeCropReady      = "crop.ready"
	TypeResourceChange = "resource.changed"
	TypeStateChange    = "state.changed"
	TypeTxRollback     = "transaction.rolled_back"
	TypeValidation     = "validation.issue"
	TypeMilestone      = "progress.milestone"
	TypeEmergency      = "decision.emergency"
	TypeRunComplete    = "run.complete"
)
