// Package dice provides the injectable randomness source used when a world
// document asks for a random choice, together with the audit record of each
// draw.
package dice

import "fmt"

// Draw is the audit record of one random decision.
//
// Postcondition: Value is the result the caller must use.
type Draw struct {
	Label string // what was being decided, e.g. "rows" or "robot[0].position"
	Spec  string // the source specification, e.g. "3-7" or "[1 2 3]"
	Value int    // the drawn value
}

// String returns a human-readable audit string in the format:
//
//	"rows: 3-7 → 5"
//
// Precondition: d.Label is non-empty.
func (d Draw) String() string {
	if d.Label == "" {
		panic("dice: Draw.String() precondition violated: Label must be non-empty")
	}
	return fmt.Sprintf("%s: %s → %d", d.Label, d.Spec, d.Value)
}

// Source is the randomness provider for world construction.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
