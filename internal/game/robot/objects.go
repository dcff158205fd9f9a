package robot

import (
	"fmt"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

// available returns the object under the robot when it matches objectType
// (any type when empty) and the robot has not yet collected all of it.
func (r *Robot) available(objectType string) (world.Object, bool) {
	x, y := r.Position()
	obj, ok := r.world.Object(x, y)
	if !ok {
		return world.Object{}, false
	}
	if objectType != "" && obj.Name != objectType {
		return world.Object{}, false
	}
	if r.collections[world.Key(x, y)][obj.Name] == obj.Count {
		return world.Object{}, false
	}
	return obj, true
}

// Take picks one unit of the object under the robot. The capacity check runs
// before any instruction is charged.
//
// Postcondition: on success the ledger grows by one and the world object is
// removed once every unit has been collected.
func (r *Robot) Take(objectType string) ([]event.Event, error) {
	if r.maxCapacity > 0 && len(r.ledger) >= r.maxCapacity {
		return nil, fmt.Errorf("Can't Carry more than %d items: %w", r.maxCapacity, ErrCapacityExceeded)
	}
	if halt, err := r.world.Charge(1); err != nil {
		return halt, err
	}
	x, y := r.Position()
	cell, err := r.world.CellAt(x, y)
	if err != nil {
		return nil, err
	}
	if !cell.Editable.Pick {
		return nil, fmt.Errorf("taking at %d,%d: %w", x, y, ErrCannotPick)
	}
	obj, ok := r.available(objectType)
	if !ok {
		return nil, fmt.Errorf("taking %q at %d,%d: %w", objectType, x, y, ErrNothingToPick)
	}

	k := world.Key(x, y)
	tally, ok := r.collections[k]
	if !ok {
		tally = make(map[string]int)
		r.collections[k] = tally
	}
	tally[obj.Name]++
	r.ledger = append(r.ledger, Pick{Name: obj.Name, Origin: k})

	picked := tally[obj.Name]
	switch {
	case obj.Count == picked:
		return []event.Event{r.world.RemoveObject(x, y)}, nil
	case obj.Count > picked:
		return []event.Event{event.New(event.UpdateObject, x, y, obj.Count-picked)}, nil
	default:
		return nil, nil
	}
}

// Put drops the most recently taken object on the current cell. The drop
// permission is checked before any instruction is charged. With nothing
// carried the call does nothing.
func (r *Robot) Put() ([]event.Event, error) {
	x, y := r.Position()
	cell, err := r.world.CellAt(x, y)
	if err != nil {
		return nil, err
	}
	if !cell.Editable.Drop {
		return nil, fmt.Errorf("putting at %d,%d: %w", x, y, ErrCannotDrop)
	}
	if halt, err := r.world.Charge(1); err != nil {
		return halt, err
	}
	if len(r.ledger) == 0 {
		return nil, nil
	}

	last := r.ledger[len(r.ledger)-1]
	r.ledger = r.ledger[:len(r.ledger)-1]
	if tally, ok := r.collections[last.Origin]; ok {
		if tally[last.Name] > 1 {
			tally[last.Name]--
		} else {
			delete(tally, last.Name)
		}
		if len(tally) == 0 {
			delete(r.collections, last.Origin)
		}
	}

	existing, _ := r.world.ObjectCount(x, y, last.Name)
	ev, err := r.world.AddObject(x, y, last.Name, existing+1)
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// Basket returns the names of carried objects, oldest first.
func (r *Robot) Basket() []string {
	out := make([]string, len(r.ledger))
	for i, p := range r.ledger {
		out[i] = p.Name
	}
	return out
}

// CarriesObject reports whether anything is carried.
func (r *Robot) CarriesObject() bool { return len(r.ledger) > 0 }

// HasObject returns how many carried objects are named name, or the total
// load when name is empty. It costs one instruction.
func (r *Robot) HasObject(name string) int {
	r.world.IncrInstruction(1)
	if name == "" {
		return len(r.ledger)
	}
	n := 0
	for _, p := range r.ledger {
		if p.Name == name {
			n++
		}
	}
	return n
}

// OnObject reports whether an uncollected object of objectType (any when
// empty) lies under the robot. It costs one instruction.
func (r *Robot) OnObject(objectType string) bool {
	r.world.IncrInstruction(1)
	_, ok := r.available(objectType)
	return ok
}

// ObjectHere returns the name of the uncollected object under the robot. It
// costs one instruction.
func (r *Robot) ObjectHere() (string, bool) {
	r.world.IncrInstruction(1)
	obj, ok := r.available("")
	return obj.Name, ok
}
