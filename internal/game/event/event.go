// Package event defines the semantic events the engine emits for an external
// renderer and the sinks that collect them.
package event

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Name identifies the renderer method an event targets.
type Name string

// Event names understood by renderers.
const (
	MoveTo        Name = "move_to"
	TurnLeft      Name = "turn_left"
	AddWall       Name = "add_wall"
	RemoveWall    Name = "remove_wall"
	AddObject     Name = "add_object"
	RemoveObject  Name = "remove_object"
	UpdateObject  Name = "update_object"
	AddFlag       Name = "add_flag"
	RemoveFlag    Name = "remove_flag"
	AddMessage    Name = "add_msg"
	SetTrace      Name = "set_trace"
	SetSpeed      Name = "set_speed"
	ShowMessage   Name = "show_message"
	DrawAll       Name = "draw_all"
	SetSuccessMsg Name = "set_succes_msg"
	Error         Name = "error"
	Halt          Name = "halt"
)

// Event is one renderer instruction.
type Event struct {
	Name   Name  `json:"method_name"`
	Params []any `json:"params"`
}

// New builds an event. Params is never nil so it encodes as [].
func New(name Name, params ...any) Event {
	if params == nil {
		params = []any{}
	}
	return Event{Name: name, Params: params}
}

// String renders the event as "name [params...]".
func (e Event) String() string {
	return fmt.Sprintf("%s %v", e.Name, e.Params)
}

// Decode parses one JSON encoded event.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if e.Params == nil {
		e.Params = []any{}
	}
	return e, nil
}

// Sink receives events in emission order.
type Sink interface {
	Publish(events ...Event)
}

// Recorder is a Sink that keeps every event it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends events.
func (r *Recorder) Publish(events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Name, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}
