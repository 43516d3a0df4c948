// Package eventbus implements the synchronous publish/subscribe fan-out used
// for session events. Handlers run on the publisher's goroutine in
// subscription order; a panicking handler is recovered and logged without
// blocking delivery to later handlers.
package eventbus

import (
	"log"
	"sync"

	"github.com/crateandcrypt/netclient"
)

type entry struct {
	id uint64
	fn netclient.Handler
}

// Bus is an in-process event bus. The zero value is not usable; construct
// with New.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]entry
	logger *log.Logger
}

func New(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{
		subs:   make(map[string][]entry),
		logger: logger,
	}
}

// Subscription identifies one registered handler. Cancel removes it;
// cancelling twice is a no-op.
type Subscription struct {
	bus   *Bus
	event string
	id    uint64
}

func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.event, s.id)
	s.bus = nil
}

// Subscribe registers a handler for an event name.
func (b *Bus) Subscribe(event string, fn netclient.Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[event] = append(b.subs[event], entry{id: b.nextID, fn: fn})
	return &Subscription{bus: b, event: event, id: b.nextID}
}

func (b *Bus) remove(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.subs[event]
	for i, e := range entries {
		if e.id == id {
			b.subs[event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(b.subs[event]) == 0 {
		delete(b.subs, event)
	}
}

// Publish delivers data to every current subscriber of the event, in
// subscription order, on the calling goroutine.
func (b *Bus) Publish(event string, data any) {
	b.mu.Lock()
	entries := make([]entry, len(b.subs[event]))
	copy(entries, b.subs[event])
	b.mu.Unlock()

	for _, e := range entries {
		b.dispatch(event, e, data)
	}
}

func (b *Bus) dispatch(event string, e entry, data any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("eventbus: handler for %q panicked: %v", event, r)
		}
	}()
	e.fn(data)
}
