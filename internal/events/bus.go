// Package events carries print service notifications to subscribers.
package events

import (
	"sync"

	"github.com/cskr/pubsub/v2"
	"go.uber.org/atomic"

	"receipt-print/internal/session"
)

// DefaultCapacity is the per-subscriber buffer size
const DefaultCapacity = 16

// Bus is an in-process broadcast channel keyed by event kind.
// Publishing never blocks; a subscriber with a full buffer misses the event.
// After Close every call is a no-op.
type Bus struct {
	ps *pubsub.PubSub[session.EventKind, session.Event]

	// mu keeps calls into ps from racing Shutdown, after which ps stops
	// reading commands
	mu     sync.RWMutex
	closed atomic.Bool
}

// NewBus returns a running bus. capacity <= 0 selects DefaultCapacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ps: pubsub.New[session.EventKind, session.Event](capacity)}
}

// Publish delivers ev to every subscriber of ev.Kind
func (b *Bus) Publish(ev session.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed.Load() {
		return
	}
	b.ps.TryPub(ev, ev.Kind)
}

// Subscribe implements session.EventSource. After Close it returns a closed
// channel.
func (b *Bus) Subscribe(kinds ...session.EventKind) (<-chan session.Event, func()) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed.Load() {
		ch := make(chan session.Event)
		close(ch)
		return ch, func() {}
	}

	ch := b.ps.Sub(kinds...)
	return ch, func() {
		// unsub must not run on the subscriber's goroutine
		go b.unsub(ch, kinds)
	}
}

func (b *Bus) unsub(ch chan session.Event, kinds []session.EventKind) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed.Load() {
		return
	}
	b.ps.Unsub(ch, kinds...)
}

// Close stops the bus and closes all subscriber channels. It is safe to
// call more than once.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ps.Shutdown()
}
