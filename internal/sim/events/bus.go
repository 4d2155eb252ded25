package events

import "sort"

// Wildcard subscribes to every event type.
const Wildcard = "*"

// Handler receives events. A panicking handler is isolated: the panic is
// swallowed and delivery to the remaining handlers continues.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is the per-run event channel. One instance is constructed per
// simulation run and passed to every component that publishes; it is
// never shared across runs. Not safe for concurrent use; all publishing
// happens on the single tick-loop goroutine.
type Bus struct {
	nextSub int
	subs    map[string][]subscription
	history *history
	pending []Event // queued by EmitAsync, drained at the tick boundary
}

func NewBus(historySize int) *Bus {
	return &Bus{
		subs:    map[string][]subscription{},
		history: newHistory(historySize),
	}
}

// Subscribe registers fn for the given event type (or Wildcard) and
// returns an id usable with Unsubscribe.
func (b *Bus) Subscribe(eventType string, fn Handler) int {
	b.nextSub++
	id := b.nextSub
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, fn: fn})
	return id
}

func (b *Bus) Unsubscribe(id int) {
	for t, subs := range b.subs {
		for i, s := range subs {
			if s.id == id {
				b.subs[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers e synchronously to type and wildcard subscribers and
// records it in the history.
func (b *Bus) Emit(e Event) {
	if e.Level == "" {
		e.Level = LevelInfo
	}
	b.history.add(e)
	b.deliver(b.subs[e.Type], e)
	b.deliver(b.subs[Wildcard], e)
}

// EmitAsync queues e for delivery at the next Flush (the tick boundary).
// The event is recorded in the history immediately so exports see it in
// emission order.
func (b *Bus) EmitAsync(e Event) {
	if e.Level == "" {
		e.Level = LevelInfo
	}
	b.history.add(e)
	b.pending = append(b.pending, e)
}

// Flush delivers every queued async event. Called once per tick.
func (b *Bus) Flush() {
	queued := b.pending
	b.pending = nil
	for _, e := range queued {
		b.deliver(b.subs[e.Type], e)
		b.deliver(b.subs[Wildcard], e)
	}
}

func (b *Bus) deliver(subs []subscription, e Event) {
	for _, s := range subs {
		func() {
			defer func() { _ = recover() }()
			s.fn(e)
		}()
	}
}

// History returns events at or above the given level, oldest first.
// An empty level returns everything still in the ring.
func (b *Bus) History(minLevel Level) []Event {
	return b.history.list(minLevel)
}

// Stats counts events per type over the last windowTicks ticks ending at
// nowTick. windowTicks <= 0 counts the whole retained history.
func (b *Bus) Stats(nowTick, windowTicks uint64) map[string]int {
	out := map[string]int{}
	for _, e := range b.history.list("") {
		if windowTicks > 0 && nowTick-e.Tick >= windowTicks {
			continue
		}
		out[e.Type]++
	}
	return out
}

// Types returns the distinct event types currently retained, sorted.
func (b *Bus) Types() []string {
	seen := map[string]bool{}
	for _, e := range b.history.list("") {
		seen[e.Type] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
