package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is an inclusive integer interval written as "min-max".
// Precondition: Min <= Max after successful ParseRange.
type Range struct {
	Raw string // original input string
	Min int
	Max int
}

// ParseRange parses "min-max" into a Range. Both bounds must be non-negative
// integers and min must not exceed max.
//
// Postcondition: Returns a valid Range or a descriptive error.
func ParseRange(s string) (Range, error) {
	raw := s
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("dice: missing '-' in range %q", raw)
	}
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("dice: invalid lower bound in %q: %w", raw, err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Range{}, fmt.Errorf("dice: invalid upper bound in %q: %w", raw, err)
	}
	if min > max {
		return Range{}, fmt.Errorf("dice: lower bound %d exceeds upper bound %d in %q", min, max, raw)
	}
	return Range{Raw: raw, Min: min, Max: max}, nil
}

// String returns the canonical "min-max" form.
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}
