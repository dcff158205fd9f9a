// Package grid provides the bounded cell grid and the two independent wall
// arrays that constrain movement across it.
package grid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Direction is one of the four compass headings. The numeric order is the
// counter-clockwise turning order: east, north, west, south.
type Direction int

// The four headings in turning order.
const (
	East Direction = iota
	North
	West
	South
)

// Directions lists all headings in turning order.
var Directions = []Direction{East, North, West, South}

var directionNames = [...]string{"east", "north", "west", "south"}

// unit vectors indexed by Direction.
var deltas = [...][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= East && d <= South
}

// String returns the lowercase heading name.
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// Left returns the heading after a quarter turn counter-clockwise.
func (d Direction) Left() Direction {
	return (d + 1) % 4
}

// Right returns the heading after a quarter turn clockwise.
func (d Direction) Right() Direction {
	return (d + 3) % 4
}

// Delta returns the unit vector for d.
//
// Precondition: d.Valid().
func (d Direction) Delta() (dx, dy int) {
	v := deltas[d]
	return v[0], v[1]
}

// ParseDirection accepts a heading name in any case or its index 0..3.
//
// Postcondition: Returns a valid Direction or a non-nil error.
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for i, name := range directionNames {
		if s == name {
			return Direction(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Direction(n).Valid() {
		return Direction(n), nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MarshalJSON encodes d as its name.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a name or an integer index.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		if !Direction(n).Valid() {
			return fmt.Errorf("direction index %d out of range", n)
		}
		*d = Direction(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("direction must be a name or index: %w", err)
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML accepts either a name or an integer index.
func (d *Direction) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: direction must be a scalar", node.Line)
	}
	parsed, err := ParseDirection(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}
