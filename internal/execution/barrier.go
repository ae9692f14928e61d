package execution

// Barrier accumulates upstream arrivals for one node and releases exactly
// once per completed round.
//
// A Barrier is owned by exactly one Executor and only ever touched from that
// executor's receive loop, so it needs no locking: serialized consumption is
// the concurrency-safety mechanism. If a node's messages are ever fanned out
// to multiple concurrent handlers, the Offer path (read, check, reset) must
// become a critical section.
type Barrier struct {
	required int
	pending  int
	buffer   [][]byte
}

// NewBarrier creates a barrier that releases after required arrivals.
func NewBarrier(required int) *Barrier {
	return &Barrier{
		required: required,
		buffer:   make([][]byte, 0, required),
	}
}

// Offer routes one arrival into the barrier. The arrival that brings the
// count to the threshold performs the reset and returns the round's
// payloads; earlier arrivals return released == false. Arrivals after a
// release accumulate into the next round.
func (b *Barrier) Offer(payload []byte) (released bool, round [][]byte) {
	b.buffer = append(b.buffer, payload)
	b.pending++
	if b.pending < b.required {
		return false, nil
	}
	round = b.buffer
	b.buffer = make([][]byte, 0, b.required)
	b.pending = 0
	return true, round
}

// Remaining returns how many arrivals are still missing in the current
// round.
func (b *Barrier) Remaining() int {
	return b.required - b.pending
}

// Required returns the fan-in threshold.
func (b *Barrier) Required() int {
	return b.required
}
