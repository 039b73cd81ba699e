// Package bridge implements the lock-free state-handoff machinery (C4): a
// triple-buffered snapshot publisher/consumer and fixed-capacity SPSC
// rings for commands (UI -> audio) and position reports (audio -> UI).
//
// No example in the retrieved pack implements a generic lock-free SPSC
// structure (the closest, smallnest/ringbuffer, is a mutex-guarded byte
// ring used for PCM streams, not typed messages), so this package is
// written directly against sync/atomic, generalizing the teacher's own
// preference for lock-free hot paths in its audio callback.
package bridge

import "sync/atomic"

// TripleBuffer hands a *T from a single publisher to a single consumer
// without the consumer ever blocking or allocating. Publish and Consume
// may run concurrently; Consume never takes a lock.
type TripleBuffer[T any] struct {
	slots      [3]atomic.Pointer[T]
	writeIndex atomic.Int32 // slot the publisher is about to fill next
	readyIndex atomic.Int32 // slot most recently published, -1 if none yet
	current    *T           // consumer-owned, never touched by the publisher
}

// NewTripleBuffer returns an empty triple buffer; Consume returns nil until
// the first Publish.
func NewTripleBuffer[T any]() *TripleBuffer[T] {
	tb := &TripleBuffer[T]{}
	tb.readyIndex.Store(-1)
	return tb
}

// Publish writes value into the next free slot and marks it ready. Safe to
// call only from the single publisher goroutine/thread.
func (tb *TripleBuffer[T]) Publish(value *T) {
	idx := tb.writeIndex.Load()
	tb.slots[idx].Store(value)
	tb.readyIndex.Store(idx)
	tb.writeIndex.Store((idx + 1) % 3)
}

// Consume returns the latest published value, swapping it in if a newer
// one is available. If nothing has ever been published it returns nil.
// Safe to call only from the single consumer goroutine/thread; never
// blocks, never allocates.
func (tb *TripleBuffer[T]) Consume() *T {
	ready := tb.readyIndex.Load()
	if ready < 0 {
		return tb.current
	}
	if value := tb.slots[ready].Load(); value != nil {
		tb.current = value
	}
	return tb.current
}
