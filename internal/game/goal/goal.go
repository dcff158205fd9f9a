// Package goal defines the closed set of task goals a world can carry and
// evaluates them against an actor and its world.
package goal

import (
	"fmt"

	"github.com/cory-johannsen/gridbot/internal/game/grid"
)

// Kind names a goal variant.
type Kind int

// Goal kinds.
const (
	KindPosition Kind = iota + 1
	KindWall
	KindObject
	KindDrop
	KindReporter
	KindFlagCount
)

var kindNames = map[Kind]string{
	KindPosition:  "position",
	KindWall:      "wall",
	KindObject:    "object",
	KindDrop:      "drop",
	KindReporter:  "reporter",
	KindFlagCount: "flag_count",
}

// String returns the kind name used in documents and storage.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown goal kind %q", s)
}

// Actor is the view of a robot a goal needs.
type Actor interface {
	Position() (x, y int)
	Reports() []string
	// Collected returns how many objects named name the actor took from (x, y).
	Collected(x, y int, name string) int
	FlagCount() int
}

// World is the view of a world a goal needs.
type World interface {
	HasBlock(x, y int, dir grid.Direction) bool
	// ObjectCount returns the count of name at (x, y) and whether such an
	// object is present.
	ObjectCount(x, y int, name string) (int, bool)
}

// Goal is one of Position, Wall, Object, Drop, Reporter or FlagCount. The set
// is closed; values are immutable once constructed.
type Goal interface {
	Kind() Kind
	// Message is the expectation shown to the student.
	Message() string
	sealed()
}

// Position requires the actor to finish at (X, Y).
type Position struct{ X, Y int }

// Wall requires every listed side of (X, Y) to be blocked.
type Wall struct {
	X, Y       int
	Directions []grid.Direction
}

// Object requires the actor to have taken exactly Count objects named Name
// from (X, Y).
type Object struct {
	X, Y  int
	Name  string
	Count int
}

// Drop requires the world to hold exactly Count objects named Name at (X, Y).
type Drop struct {
	X, Y  int
	Name  string
	Count int
}

// Reporter requires Text to appear among the actor's reports.
type Reporter struct{ Text string }

// FlagCount requires the actor to have collected exactly Count flags.
type FlagCount struct{ Count int }

func (Position) Kind() Kind  { return KindPosition }
func (Wall) Kind() Kind      { return KindWall }
func (Object) Kind() Kind    { return KindObject }
func (Drop) Kind() Kind      { return KindDrop }
func (Reporter) Kind() Kind  { return KindReporter }
func (FlagCount) Kind() Kind { return KindFlagCount }

func (Position) sealed()  {}
func (Wall) sealed()      {}
func (Object) sealed()    {}
func (Drop) sealed()      {}
func (Reporter) sealed()  {}
func (FlagCount) sealed() {}

func (g Position) Message() string {
	return fmt.Sprintf("Expected: Final Position: %d,%d", g.X, g.Y)
}

func (g Wall) Message() string {
	return fmt.Sprintf("Expected: Build walls at:  %d,%d", g.X, g.Y)
}

func (g Object) Message() string {
	return fmt.Sprintf("Expected: Pick object %s at: %d,%d", g.Name, g.X, g.Y)
}

func (g Drop) Message() string {
	return fmt.Sprintf("Expected: Drop object %s at: %d,%d", g.Name, g.X, g.Y)
}

func (g Reporter) Message() string {
	return fmt.Sprintf("Expected: %s", g.Text)
}

func (g FlagCount) Message() string {
	return fmt.Sprintf("Expected: %d Flags", g.Count)
}

// IsCompleted evaluates g against a and w. It never mutates either.
func IsCompleted(g Goal, a Actor, w World) bool {
	switch g := g.(type) {
	case Position:
		x, y := a.Position()
		return x == g.X && y == g.Y
	case Wall:
		for _, d := range g.Directions {
			if !w.HasBlock(g.X, g.Y, d) {
				return false
			}
		}
		return true
	case Object:
		return a.Collected(g.X, g.Y, g.Name) == g.Count
	case Drop:
		n, ok := w.ObjectCount(g.X, g.Y, g.Name)
		return ok && n == g.Count
	case Reporter:
		for _, r := range a.Reports() {
			if r == g.Text {
				return true
			}
		}
		return false
	case FlagCount:
		return a.FlagCount() == g.Count
	default:
		panic(fmt.Sprintf("goal: unhandled goal type %T", g))
	}
}

// FailureMessage describes what was observed when g is not completed.
func FailureMessage(g Goal, a Actor) string {
	switch g := g.(type) {
	case Position:
		x, y := a.Position()
		return fmt.Sprintf("%s -> Got: Position %d,%d", g.Message(), x, y)
	case Reporter:
		return fmt.Sprintf("%s -> Missing: %s", g.Message(), g.Text)
	case FlagCount:
		return fmt.Sprintf("%s -> Got: %d Flags", g.Message(), a.FlagCount())
	default:
		return g.Message()
	}
}
