package engine

import (
	"context"
	"fmt"
	"time"

	"harvestsim.ai/internal/sim/action"
	"harvestsim.ai/internal/sim/decision"
	"harvestsim.ai/internal/sim/events"
)

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdPause
	cmdSetSpeed
	cmdStop
	cmdGetState
	cmdGetStats
)

type command struct {
	kind  cmdKind
	speed float64
	reply chan reply
}

type reply struct {
	err     error
	summary *TickSummary
	stats   Stats
	events  map[string]int
}

// Run executes the tick loop until ctx is cancelled. Commands and ticks
// interleave on this one goroutine; nothing else mutates the world.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var tickC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.cmds:
			wasRunning := e.status == StatusRunning
			e.handleCommand(cmd)
			switch {
			case e.status == StatusRunning && !wasRunning:
				timer.Reset(e.interval())
				tickC = timer.C
			case e.status != StatusRunning && wasRunning:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				tickC = nil
			}
		case <-tickC:
			// Speed changes land here, never mid-tick.
			e.speed = e.nextSpeed
			e.step()
			if e.status == StatusRunning {
				timer.Reset(e.interval())
			} else {
				tickC = nil
			}
		}
	}
}

func (e *Engine) interval() time.Duration {
	base := float64(e.tun.Decisions.BaseTickMillis) * float64(time.Millisecond)
	return time.Duration(base / e.speed)
}

func (e *Engine) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdStart:
		if e.status == StatusCompleted {
			cmd.reply <- reply{err: fmt.Errorf("run already completed (%s)", e.reason)}
			return
		}
		if cmd.speed > 0 {
			if err := e.validSpeed(cmd.speed); err != nil {
				cmd.reply <- reply{err: err}
				return
			}
			e.nextSpeed = cmd.speed
		}
		e.status = StatusRunning
		cmd.reply <- reply{}
	case cmdPause:
		if e.status != StatusRunning {
			cmd.reply <- reply{err: fmt.Errorf("cannot pause while %s", e.status)}
			return
		}
		e.status = StatusPaused
		cmd.reply <- reply{}
	case cmdSetSpeed:
		if err := e.validSpeed(cmd.speed); err != nil {
			cmd.reply <- reply{err: err}
			return
		}
		e.nextSpeed = cmd.speed
		cmd.reply <- reply{}
	case cmdStop:
		if e.status != StatusCompleted {
			e.finish(ReasonManual)
		}
		cmd.reply <- reply{}
	case cmdGetState:
		cmd.reply <- reply{summary: e.summarize(nil, decision.Decision{NoAction: true, Urgency: decision.UrgencyLow}, false)}
	case cmdGetStats:
		cmd.reply <- reply{
			stats: e.statsSnapshot(),
			events: e.bus.Stats(e.mgr.World().Clock.Tick,
				uint64(e.tun.Decisions.StatsWindowTicks)),
		}
	}
}

func (e *Engine) validSpeed(s float64) error {
	if s <= 0 || s > e.tun.Decisions.MaxSpeedMultiple {
		return fmt.Errorf("speed %.2f outside (0, %.0f]", s, e.tun.Decisions.MaxSpeedMultiple)
	}
	return nil
}

// step advances one tick. Anything that escapes the phase calls is a
// fatal error: the run halts and the host decides what happens next.
func (e *Engine) step() {
	tick := e.mgr.World().Clock.Tick + 1
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("tick %d: %v", tick, r)
			e.send(Notification{Type: NoteError, Error: &ErrorNote{Message: msg, Fatal: true}})
			e.finish(ReasonError)
		}
	}()

	delta := e.tun.Decisions.MinutesPerTick
	e.tickEvents = e.tickEvents[:0]
	e.mgr.BeginTick(tick)
	e.bus.Emit(events.Event{
		Type:  events.TypeTickStart,
		Level: events.LevelDebug,
		Tick:  tick,
		Data:  map[string]any{"delta_minutes": delta, "speed": e.speed},
	})

	e.mgr.AdvanceClock(delta, e.tun.Resources.EnergyRegen)

	d := e.dec.Decide(e.mgr.World())
	var actRes *action.Result
	if d.NoAction {
		e.stats.NoActionTicks++
	} else {
		e.stats.Decisions++
		if len(d.Candidates) > 0 {
			r := e.exec.Execute(d.Candidates[0])
			actRes = &r
			if r.Executed {
				e.stats.ActionsExecuted++
			} else {
				e.stats.ActionsFailed++
			}
		}
	}

	if err := e.reg.Update(e.pctx, delta); err != nil {
		e.bus.Emit(events.Event{
			Type:   events.TypeValidation,
			Level:  events.LevelError,
			Tick:   tick,
			Minute: e.mgr.World().Clock.TotalMinutes,
			Data:   map[string]any{"phase": "scheduler", "error": err.Error()},
		})
	}

	e.bus.Flush()

	w := e.mgr.World()
	e.stats.Ticks = w.Clock.Tick
	e.stats.SimMinutes = w.Clock.TotalMinutes
	e.stats.Day = w.Clock.Day()
	e.stats.Level = w.Progression.Level
	e.stats.XP = w.Progression.XP

	done, reason := e.checkTermination()
	summary := e.summarize(actRes, d, done)
	summary.IsStuck = reason == ReasonBottleneck
	e.send(Notification{Type: NoteTick, Tick: summary})
	if done {
		e.finish(reason)
	}
}

func (e *Engine) checkTermination() (bool, CompletionReason) {
	w := e.mgr.World()
	if w.Progression.Level >= e.tun.Decisions.VictoryLevel {
		return true, ReasonVictory
	}
	idle := w.Clock.TotalMinutes - w.LastProgressMinute
	if idle >= float64(e.tun.Decisions.BottleneckDays)*24*60 {
		return true, ReasonBottleneck
	}
	return false, ""
}

func (e *Engine) summarize(actRes *action.Result, d decision.Decision, done bool) *TickSummary {
	w := e.mgr.World()
	return &TickSummary{
		Tick:       w.Clock.Tick,
		Day:        w.Clock.Day(),
		Minute:     w.Clock.TotalMinutes,
		Status:     e.status,
		NoAction:   d.NoAction,
		Action:     actRes,
		Urgency:    d.Urgency,
		Events:     append([]events.Event(nil), e.tickEvents...),
		IsComplete: done,
		World:      w.Clone(),
	}
}

func (e *Engine) finish(reason CompletionReason) {
	e.status = StatusCompleted
	e.reason = reason
	w := e.mgr.World()
	e.bus.Emit(events.Event{
		Type:   events.TypeRunComplete,
		Tick:   w.Clock.Tick,
		Minute: w.Clock.TotalMinutes,
		Data:   map[string]any{"reason": string(reason), "level": w.Progression.Level, "day": w.Clock.Day()},
	})
	summary := fmt.Sprintf("run %s on day %d at level %d after %d ticks",
		reason, w.Clock.Day(), w.Progression.Level, w.Clock.Tick)
	e.send(Notification{Type: NoteComplete, Complete: &Completion{
		Reason:     reason,
		Summary:    summary,
		FinalState: w.Clone(),
		Stats:      e.statsSnapshot(),
	}})
}

func (e *Engine) statsSnapshot() Stats {
	s := e.stats
	s.Speed = e.nextSpeed
	s.Status = e.status
	s.Reason = string(e.reason)
	return s
}

// ---- host-facing command methods (safe from other goroutines) ----

func (e *Engine) post(cmd command) (reply, error) {
	cmd.reply = make(chan reply, 1)
	select {
	case e.cmds <- cmd:
	case <-e.done:
		return reply{}, fmt.Errorf("engine stopped")
	}
	select {
	case r := <-cmd.reply:
		return r, nil
	case <-e.done:
		return reply{}, fmt.Errorf("engine stopped")
	}
}

// Start begins or resumes ticking. A positive speed overrides the
// current one, effective from the first new tick.
func (e *Engine) Start(speed float64) error {
	r, err := e.post(command{kind: cmdStart, speed: speed})
	if err != nil {
		return err
	}
	return r.err
}

// Pause suspends ticking at the next tick boundary.
func (e *Engine) Pause() error {
	r, err := e.post(command{kind: cmdPause})
	if err != nil {
		return err
	}
	return r.err
}

// SetSpeed changes the speed multiplier, effective at the next tick.
func (e *Engine) SetSpeed(speed float64) error {
	r, err := e.post(command{kind: cmdSetSpeed, speed: speed})
	if err != nil {
		return err
	}
	return r.err
}

// Stop completes the run with reason manual.
func (e *Engine) Stop() error {
	r, err := e.post(command{kind: cmdStop})
	if err != nil {
		return err
	}
	return r.err
}

// State returns a current snapshot shaped like a tick summary.
func (e *Engine) State() (*TickSummary, error) {
	r, err := e.post(command{kind: cmdGetState})
	if err != nil {
		return nil, err
	}
	return r.summary, r.err
}

// Stats returns the run counters and the per-type event counts over the
// recent stats window.
func (e *Engine) Stats() (Stats, map[string]int, error) {
	r, err := e.post(command{kind: cmdGetStats})
	if err != nil {
		return Stats{}, nil, err
	}
	return r.stats, r.events, r.err
}
