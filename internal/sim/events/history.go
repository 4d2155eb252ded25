package events

// history is a bounded ring buffer of events. When full, the oldest
// event is overwritten.
type history struct {
	buf   []Event
	start int
	count int
}

func newHistory(size int) *history {
	if size <= 0 {
		size = 1000
	}
	return &history{buf: make([]Event, size)}
}

func (h *history) add(e Event) {
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = e
		h.count++
		return
	}
	h.buf[h.start] = e
	h.start = (h.start + 1) % len(h.buf)
}

func (h *history) list(minLevel Level) []Event {
	min := -1
	if minLevel != "" {
		min = levelRank[minLevel]
	}
	out := make([]Event, 0, h.count)
	for i := 0; i < h.count; i++ {
		e := h.buf[(h.start+i)%len(h.buf)]
		if min >= 0 && levelRank[e.Level] < min {
			continue
		}
		out = append(out, e)
	}
	return out
}
