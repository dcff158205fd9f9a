package robot

import (
	"fmt"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/goal"
)

// FrontIsClear reports whether the robot can step forward. Free.
func (r *Robot) FrontIsClear() bool {
	x, y := r.Position()
	return r.world.IsClear(x, y, r.record.Orientation)
}

// RightIsClear reports whether the cell to the right is reachable. Free.
func (r *Robot) RightIsClear() bool {
	x, y := r.Position()
	return r.world.IsClear(x, y, r.record.Orientation.Right())
}

// WallInFront is the negation of FrontIsClear. Free.
func (r *Robot) WallInFront() bool { return !r.FrontIsClear() }

// WallOnRight is the negation of RightIsClear. Free.
func (r *Robot) WallOnRight() bool { return !r.RightIsClear() }

// OnFlag reports whether a flag lies under the robot. Free.
func (r *Robot) OnFlag() bool {
	x, y := r.Position()
	return r.world.HasFlag(x, y)
}

// CarriesFlag reports whether any flag has been collected. Free.
func (r *Robot) CarriesFlag() bool { return r.flags > 0 }

// MessageHere reports whether the current cell carries a message. Free.
func (r *Robot) MessageHere() bool {
	x, y := r.Position()
	_, ok := r.world.Message(x, y)
	return ok
}

// ReadMessage returns the message under the robot with a show_message event
// asking the renderer to display it for waitFor seconds.
func (r *Robot) ReadMessage(waitFor float64) (string, []event.Event, error) {
	x, y := r.Position()
	msg, ok := r.world.Message(x, y)
	if !ok {
		return "", nil, fmt.Errorf("reading at %d,%d: %w", x, y, ErrNoMessage)
	}
	evs, err := r.world.Emit(event.New(event.ShowMessage, msg, waitFor))
	if err != nil {
		return "", evs, err
	}
	return msg, evs, nil
}

// AtGoal reports whether the robot stands on the first position goal. It
// costs one instruction and is false when the world has no position goal.
func (r *Robot) AtGoal() bool {
	r.world.IncrInstruction(1)
	goals := r.world.PositionGoals()
	if len(goals) == 0 {
		return false
	}
	return goal.IsCompleted(goals[0], r, r.world)
}

// Done reports whether every goal is completed. It costs one instruction.
func (r *Robot) Done() bool {
	r.world.IncrInstruction(1)
	return r.world.Done(r)
}
