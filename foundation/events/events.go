// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"sync"
)

// Events maintains a mapping of unique id and channels so goroutines can
// register and receive events.
type Events struct {
	mu   sync.RWMutex
	m    map[string]chan string
	size int
}

// New constructs an events value for registering and receiving events. The
// size sets the buffer on each subscriber channel.
func New(size int) *Events {
	return &Events{
		m:    make(map[string]chan string),
		size: size,
	}
}

// Acquire takes ownership of the specified unique id and returns a channel
// to receive events on.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.m[id]; exists {
		return ch
	}

	evt.m[id] = make(chan string, evt.size)
	return evt.m[id]
}

// Release releases the unique id and closes the associated channel.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)

	return nil
}

// Signal sends a formatted event message to every registered channel. A
// subscriber that cannot keep up loses the message rather than blocking
// the sender.
func (evt *Events) Signal(v string, args ...any) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	msg := fmt.Sprintf(v, args...)

	for _, ch := range evt.m {
		select {
		case ch <- msg:
		default:
		}
	}
}
