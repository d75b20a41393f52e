package registry

import (
	"sync"

	"github.com/stacnet/stac-access-backend/interfaces"
)

// EventFeed fans registry lifecycle events out to subscribers. Delivery is
// best-effort: a subscriber whose buffer is full misses the event rather than
// blocking the registry operation that produced it.
type EventFeed struct {
	mu          sync.Mutex
	subscribers map[int]chan interfaces.Event
	nextID      int
	closed      bool
}

// NewEventFeed creates an empty event feed.
func NewEventFeed() *EventFeed {
	return &EventFeed{subscribers: make(map[int]chan interfaces.Event)}
}

// Subscribe registers a new subscriber with the given channel buffer size.
// The returned cancel function removes the subscription and closes the channel.
func (f *EventFeed) Subscribe(buffer int) (<-chan interfaces.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan interfaces.Event, buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subscribers[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subscribers[id]; ok {
			delete(f.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to all current subscribers without blocking.
func (f *EventFeed) Publish(ev interfaces.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close removes all subscribers and closes their channels. Publishing after
// Close is a no-op.
func (f *EventFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subscribers {
		delete(f.subscribers, id)
		close(ch)
	}
}
