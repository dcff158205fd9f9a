package session

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/gridbot/internal/game/event"
)

// Bridge routes session events to a Go channel so a live viewer (websocket,
// terminal) can follow a run.
type Bridge struct {
	id     string
	events chan event.Event
	mu     sync.Mutex
	closed bool
}

// NewBridge creates a Bridge for the viewer identified by id.
//
// Precondition: id must be non-empty.
// Postcondition: Returns a Bridge with an open events channel.
func NewBridge(id string, bufferSize int) *Bridge {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bridge{
		id:     id,
		events: make(chan event.Event, bufferSize),
	}
}

// ID returns the viewer identifier.
func (b *Bridge) ID() string {
	return b.id
}

// Push enqueues ev without blocking.
//
// Postcondition: ev is enqueued, or an error is returned if the bridge is
// closed or its buffer is full.
func (b *Bridge) Push(ev event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("bridge %s is closed", b.id)
	}
	select {
	case b.events <- ev:
		return nil
	default:
		return fmt.Errorf("bridge %s event buffer full", b.id)
	}
}

// Events returns the read-only events channel. It is closed by Close.
func (b *Bridge) Events() <-chan event.Event {
	return b.events
}

// Close marks the bridge as closed and closes the events channel.
//
// Postcondition: Further Push calls return an error.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
	return nil
}

// IsClosed reports whether the bridge has been closed.
func (b *Bridge) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
