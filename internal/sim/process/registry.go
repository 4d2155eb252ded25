package process

import (
	"fmt"

	"harvestsim.ai/internal/sim/events"
)

// StartResult is the outcome of a start attempt. A refused start leaves
// every existing handle untouched.
type StartResult struct {
	CanStart bool
	Reason   string
	Handle   *Handle
}

// Registry owns every active process handle and the handler table.
// Handles advance in start order so runs are deterministic.
type Registry struct {
	handlers map[Kind]Handler
	handles  map[string]*Handle
	order    []string
	nextID   uint64
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: map[Kind]Handler{},
		handles:  map[string]*Handle{},
	}
}

// Register installs a handler for its kind. Re-registering a kind
// replaces the previous handler.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Metadata().Kind] = h
}

// ActiveCount reports how many handles of kind are in flight.
func (r *Registry) ActiveCount(kind Kind) int {
	n := 0
	for _, id := range r.order {
		if r.handles[id].Kind == kind {
			n++
		}
	}
	return n
}

// Get returns the handle with the given id, or nil.
func (r *Registry) Get(id string) *Handle { return r.handles[id] }

// Handles returns the active handles in start order.
func (r *Registry) Handles() []*Handle {
	out := make([]*Handle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handles[id])
	}
	return out
}

// Start begins a new process of kind. The concurrency cap is checked
// here, before the handler is consulted, so handlers cannot bypass it.
func (r *Registry) Start(ctx *Context, kind Kind, data map[string]any) StartResult {
	h, ok := r.handlers[kind]
	if !ok {
		return StartResult{Reason: fmt.Sprintf("no handler for kind %q", kind)}
	}
	meta := h.Metadata()
	if meta.MaxConcurrent > 0 && r.ActiveCount(kind) >= meta.MaxConcurrent {
		return StartResult{Reason: fmt.Sprintf("%s already at max concurrent (%d)", kind, meta.MaxConcurrent)}
	}
	if ok, reason := h.CanStart(ctx, data); !ok {
		return StartResult{Reason: reason}
	}

	r.nextID++
	handle := &Handle{
		ID:            fmt.Sprintf("P%06d", r.nextID),
		Kind:          kind,
		Status:        StatusActive,
		StartedMinute: ctx.Manager.World().Clock.TotalMinutes,
		Data:          data,
	}
	if err := h.Initialize(ctx, handle, data); err != nil {
		return StartResult{Reason: err.Error()}
	}
	r.handles[handle.ID] = handle
	r.order = append(r.order, handle.ID)
	ctx.Bus.Emit(events.Event{
		Type:   events.TypeProcessStart,
		Tick:   ctx.Manager.World().Clock.Tick,
		Minute: ctx.Manager.World().Clock.TotalMinutes,
		Data:   map[string]any{"id": handle.ID, "kind": string(kind)},
	})
	return StartResult{CanStart: true, Handle: handle}
}

// Update advances every active handle by deltaMinutes. Completed handles
// get their handler's Complete applied and are removed.
func (r *Registry) Update(ctx *Context, deltaMinutes float64) error {
	// Snapshot the order: completions mutate it.
	ids := append([]string(nil), r.order...)
	for _, id := range ids {
		handle, ok := r.handles[id]
		if !ok {
			continue
		}
		h := r.handlers[handle.Kind]
		done, err := h.Update(ctx, handle, deltaMinutes)
		if err != nil {
			ctx.Bus.Emit(events.Event{
				Type:   events.TypeValidation,
				Level:  events.LevelError,
				Tick:   ctx.Manager.World().Clock.Tick,
				Minute: ctx.Manager.World().Clock.TotalMinutes,
				Data:   map[string]any{"id": id, "kind": string(handle.Kind), "error": err.Error()},
			})
			continue
		}
		if done {
			if err := r.Complete(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Complete finishes a handle now, applying its handler's rewards. Used
// by the scheduler on natural completion and by actions that consume a
// ready process (e.g. harvest).
func (r *Registry) Complete(ctx *Context, id string) error {
	handle, ok := r.handles[id]
	if !ok {
		return fmt.Errorf("complete: unknown process %q", id)
	}
	h := r.handlers[handle.Kind]
	if err := h.Complete(ctx, handle); err != nil {
		return fmt.Errorf("complete %s: %w", id, err)
	}
	handle.Status = StatusCompleted
	handle.Progress = 1
	r.remove(id)
	ctx.Bus.Emit(events.Event{
		Type:   events.TypeProcessDone,
		Tick:   ctx.Manager.World().Clock.Tick,
		Minute: ctx.Manager.World().Clock.TotalMinutes,
		Data:   map[string]any{"id": id, "kind": string(handle.Kind)},
	})
	return nil
}

// Cancel aborts a handle. The handler must leave the world consistent.
func (r *Registry) Cancel(ctx *Context, id string) error {
	handle, ok := r.handles[id]
	if !ok {
		return fmt.Errorf("cancel: unknown process %q", id)
	}
	h := r.handlers[handle.Kind]
	if err := h.Cancel(ctx, handle); err != nil {
		return fmt.Errorf("cancel %s: %w", id, err)
	}
	handle.Status = StatusCancelled
	r.remove(id)
	ctx.Bus.Emit(events.Event{
		Type:   events.TypeProcessCancel,
		Tick:   ctx.Manager.World().Clock.Tick,
		Minute: ctx.Manager.World().Clock.TotalMinutes,
		Data:   map[string]any{"id": id, "kind": string(handle.Kind)},
	})
	return nil
}

func (r *Registry) remove(id string) {
	delete(r.handles, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
