package execution

// dedupWindow remembers the IDs of the last n envelopes so duplicate
// deliveries from an at-least-once transport can be dropped before they
// reach the barrier. Bounded: once full, the oldest remembered ID is
// evicted per new arrival.
type dedupWindow struct {
	ring []string
	next int
	seen map[string]struct{}
}

func newDedupWindow(n int) *dedupWindow {
	return &dedupWindow{
		ring: make([]string, n),
		seen: make(map[string]struct{}, n),
	}
}

// observe records id and reports whether it was already in the window.
// Messages without an ID are never treated as duplicates.
func (w *dedupWindow) observe(id string) (duplicate bool) {
	if id == "" {
		return false
	}
	if _, ok := w.seen[id]; ok {
		return true
	}
	if old := w.ring[w.next]; old != "" {
		delete(w.seen, old)
	}
	w.ring[w.next] = id
	w.next = (w.next + 1) % len(w.ring)
	w.seen[id] = struct{}{}
	return false
}
