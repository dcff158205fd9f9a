// Package robot implements the actor that moves across a world, manipulates
// walls and objects, and is evaluated against the world's goals.
package robot

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/grid"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

var (
	// ErrWallCollision is returned when a step is blocked.
	ErrWallCollision = errors.New("Opps You Hit the walls")
	// ErrWallAlreadyExists is returned by BuildWall when the way ahead is blocked.
	ErrWallAlreadyExists = errors.New("Wall Already exists")
	// ErrNoWallExists is returned by RemoveWall when the way ahead is clear.
	ErrNoWallExists = errors.New("No Wall exists")
	// ErrCapacityExceeded is returned by Take when the carrying limit is reached.
	ErrCapacityExceeded = errors.New("carrying capacity reached")
	// ErrCannotPick is returned by Take on a cell that forbids picking.
	ErrCannotPick = errors.New("Can't Pick From this Cell")
	// ErrCannotDrop is returned by Put on a cell that forbids dropping.
	ErrCannotDrop = errors.New("Can't drop to this Cell")
	// ErrNothingToPick is returned by Take when no matching object remains.
	ErrNothingToPick = errors.New("No Items to Pick.")
	// ErrNoMessage is returned by ReadMessage on a cell without a message.
	ErrNoMessage = errors.New("no message here")
	// ErrInvalidSteps is returned by Move for a negative step count.
	ErrInvalidSteps = errors.New("step count must not be negative")
)

// Pick is one entry of the pick ledger.
type Pick struct {
	Name   string
	Origin string // position key the object was taken from
}

// Stats summarises what the robot has done so far.
type Stats struct {
	MaxCapacity *int     `json:"max_capacity"`
	CurrentLoad int      `json:"current_load"`
	TotalMoves  int      `json:"total_moves"`
	Basket      []string `json:"basket"`
}

// Robot is an actor bound to one robot record of a World. Its position and
// orientation live in that record.
//
// Invariant: every ledger entry has a matching positive tally in collections.
type Robot struct {
	index       int
	record      *world.RobotRecord
	world       *world.World
	collections map[string]map[string]int
	ledger      []Pick
	reports     []string
	maxCapacity int
	moves       int
	flags       int
	speed       float64
}

// New binds a Robot to record index of w.
//
// Precondition: w must be non-nil.
// Postcondition: Returns a Robot or an error when index has no record.
func New(w *world.World, index int) (*Robot, error) {
	rec, err := w.Robot(index)
	if err != nil {
		return nil, err
	}
	return &Robot{
		index:       index,
		record:      rec,
		world:       w,
		collections: make(map[string]map[string]int),
	}, nil
}

// Index returns the robot record index.
func (r *Robot) Index() int { return r.index }

// Position returns the current cell.
func (r *Robot) Position() (x, y int) { return r.record.X, r.record.Y }

// Orientation returns the current heading.
func (r *Robot) Orientation() grid.Direction { return r.record.Orientation }

// Reports returns the report log.
func (r *Robot) Reports() []string { return append([]string(nil), r.reports...) }

// FlagCount returns the number of flags collected.
func (r *Robot) FlagCount() int { return r.flags }

// Moves returns the number of successful single steps.
func (r *Robot) Moves() int { return r.moves }

// Speed returns the last value passed to SetSpeed.
func (r *Robot) Speed() float64 { return r.speed }

// Collected returns how many objects named name were taken from (x, y) and
// not yet dropped.
func (r *Robot) Collected(x, y int, name string) int {
	return r.collections[world.Key(x, y)][name]
}

// Ledger returns a copy of the pick ledger, oldest first.
func (r *Robot) Ledger() []Pick { return append([]Pick(nil), r.ledger...) }

// SetMaxCapacity limits how many objects may be carried; n <= 0 removes the
// limit.
func (r *Robot) SetMaxCapacity(n int) {
	if n < 0 {
		n = 0
	}
	r.maxCapacity = n
}

// Stats returns the carrying and movement summary.
func (r *Robot) Stats() Stats {
	s := Stats{CurrentLoad: len(r.ledger), TotalMoves: r.moves, Basket: r.Basket()}
	if r.maxCapacity > 0 {
		c := r.maxCapacity
		s.MaxCapacity = &c
	}
	return s
}

func (r *Robot) moveTo() event.Event {
	return event.New(event.MoveTo, r.index, r.record.X, r.record.Y)
}

// Move advances up to steps cells. All steps are charged up front; a blocked
// step stops the move with ErrWallCollision and is not refunded.
//
// Postcondition: the last event is always move_to with the final position.
func (r *Robot) Move(steps int) ([]event.Event, error) {
	if steps < 0 {
		return nil, fmt.Errorf("move %d: %w", steps, ErrInvalidSteps)
	}
	if halt, err := r.world.Charge(steps); err != nil {
		return halt, err
	}
	var evs []event.Event
	for i := 0; i < steps; i++ {
		if !r.FrontIsClear() {
			evs = append(evs, r.moveTo())
			return evs, fmt.Errorf("moving %s from %d,%d: %w", r.record.Orientation, r.record.X, r.record.Y, ErrWallCollision)
		}
		dx, dy := r.record.Orientation.Delta()
		r.record.X += dx
		r.record.Y += dy
		if ev, ok := r.pickFlag(); ok {
			evs = append(evs, ev)
		}
		r.moves++
	}
	return append(evs, r.moveTo()), nil
}

// pickFlag collects the flag under the robot, if any.
func (r *Robot) pickFlag() (event.Event, bool) {
	x, y := r.Position()
	if !r.world.HasFlag(x, y) {
		return event.Event{}, false
	}
	ev, err := r.world.RemoveFlag(x, y)
	if err != nil {
		return event.Event{}, false
	}
	r.flags++
	return ev, true
}

// TurnLeft rotates a quarter turn counter-clockwise.
func (r *Robot) TurnLeft() ([]event.Event, error) {
	if halt, err := r.world.Charge(1); err != nil {
		return halt, err
	}
	r.record.Orientation = r.record.Orientation.Left()
	return []event.Event{event.New(event.TurnLeft, r.index)}, nil
}

// BuildWall builds a wall ahead where a goal marker allows it. With the way
// ahead clear and no marker the call does nothing.
func (r *Robot) BuildWall() ([]event.Event, error) {
	if halt, err := r.world.Charge(1); err != nil {
		return halt, err
	}
	x, y := r.Position()
	dir := r.record.Orientation
	if !r.world.IsClear(x, y, dir) {
		return nil, fmt.Errorf("building %s of %d,%d: %w", dir, x, y, ErrWallAlreadyExists)
	}
	if !r.world.HasGoalWall(x, y, dir) {
		return nil, nil
	}
	ev, err := r.world.AddWall(x, y, dir)
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// RemoveWall removes the wall ahead. Removal does not require the REMOVABLE
// bit. A border ahead counts as blocked but is left in place.
func (r *Robot) RemoveWall() ([]event.Event, error) {
	if halt, err := r.world.Charge(1); err != nil {
		return halt, err
	}
	x, y := r.Position()
	dir := r.record.Orientation
	if r.world.IsClear(x, y, dir) {
		return nil, fmt.Errorf("removing %s of %d,%d: %w", dir, x, y, ErrNoWallExists)
	}
	if !r.world.HasWall(x, y, dir) {
		return nil, nil
	}
	ev, err := r.world.RemoveWall(x, y, dir)
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// Report appends msg to the report log. It costs nothing.
func (r *Robot) Report(msg string) {
	r.reports = append(r.reports, msg)
}

// SetTrace changes the trail colour drawn behind the robot.
func (r *Robot) SetTrace(color string) ([]event.Event, error) {
	evs, err := r.world.Emit(event.New(event.SetTrace, r.index, color))
	if err != nil {
		return evs, err
	}
	r.record.TraceColor = color
	return evs, nil
}

// SetSpeed changes the renderer animation delay.
func (r *Robot) SetSpeed(seconds float64) ([]event.Event, error) {
	evs, err := r.world.Emit(event.New(event.SetSpeed, r.index, seconds))
	if err != nil {
		return evs, err
	}
	r.speed = seconds
	return evs, nil
}
