package world

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
)

type scalarForm int

const (
	scalarUnset scalarForm = iota
	scalarFixed
	scalarChoice
	scalarRange
)

// Scalar is a document integer that may be fixed, a list of candidates drawn
// uniformly, or an inclusive "min-max" range. The zero value is unset.
type Scalar struct {
	form    scalarForm
	fixed   int
	choices []int
	rng     dice.Range
}

// Fixed returns a Scalar that always resolves to n.
func Fixed(n int) Scalar { return Scalar{form: scalarFixed, fixed: n} }

// OneOf returns a Scalar that resolves to one of values.
//
// Precondition: len(values) > 0.
func OneOf(values ...int) Scalar {
	return Scalar{form: scalarChoice, choices: append([]int(nil), values...)}
}

// Between returns a Scalar that resolves uniformly within [min, max].
func Between(min, max int) Scalar {
	return Scalar{form: scalarRange, rng: dice.Range{Raw: fmt.Sprintf("%d-%d", min, max), Min: min, Max: max}}
}

// IsSet reports whether the Scalar was present in the document.
func (s Scalar) IsSet() bool { return s.form != scalarUnset }

// Resolve returns the concrete value, drawing from r when the Scalar is random.
// An unset Scalar resolves to 0.
func (s Scalar) Resolve(label string, r *dice.Roller) int {
	switch s.form {
	case scalarFixed:
		return s.fixed
	case scalarChoice:
		return r.Choose(label, s.choices).Value
	case scalarRange:
		return r.Between(label, s.rng).Value
	default:
		return 0
	}
}

// ResolveOr is Resolve with a fallback for unset values.
func (s Scalar) ResolveOr(label string, r *dice.Roller, def int) int {
	if !s.IsSet() {
		return def
	}
	return s.Resolve(label, r)
}

func (s Scalar) String() string {
	switch s.form {
	case scalarFixed:
		return strconv.Itoa(s.fixed)
	case scalarChoice:
		return fmt.Sprint(s.choices)
	case scalarRange:
		return s.rng.String()
	default:
		return "<unset>"
	}
}

// UnmarshalJSON accepts a number, an array of numbers or a string.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := scalarFrom(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalYAML accepts a number, a sequence of numbers or a string.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	parsed, err := scalarFrom(v)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

func scalarFrom(v any) (Scalar, error) {
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return Scalar{}, fmt.Errorf("empty choice list")
		}
		values := make([]int, 0, len(t))
		for _, e := range t {
			n, err := toInt(e)
			if err != nil {
				return Scalar{}, fmt.Errorf("choice list: %w", err)
			}
			values = append(values, n)
		}
		return OneOf(values...), nil
	case string:
		if strings.Contains(t, "-") {
			r, err := dice.ParseRange(t)
			if err != nil {
				return Scalar{}, err
			}
			return Scalar{form: scalarRange, rng: r}, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return Scalar{}, fmt.Errorf("invalid integer %q", t)
		}
		return Fixed(n), nil
	default:
		n, err := toInt(v)
		if err != nil {
			return Scalar{}, err
		}
		return Fixed(n), nil
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integer value %v", t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

// TileList is a list of tile names that documents may also write as a single
// string.
type TileList []string

// UnmarshalJSON accepts a string or an array of strings.
func (l *TileList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = TileList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("tiles must be a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}

// UnmarshalYAML accepts a string or a sequence of strings.
func (l *TileList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = TileList{node.Value}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return fmt.Errorf("line %d: tiles must be a string or a list of strings: %w", node.Line, err)
	}
	*l = many
	return nil
}

// Text is free text that documents may also write as a list of lines, which
// are joined with newlines.
type Text string

// UnmarshalJSON accepts a string or an array of strings.
func (t *Text) UnmarshalJSON(b []byte) error {
	var l TileList
	if err := l.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("text must be a string or a list of strings: %w", err)
	}
	*t = Text(strings.Join(l, "\n"))
	return nil
}

// UnmarshalYAML accepts a string or a sequence of strings.
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	var l TileList
	if err := l.UnmarshalYAML(node); err != nil {
		return err
	}
	*t = Text(strings.Join(l, "\n"))
	return nil
}

// Key formats a position as the "x,y" key used by documents and snapshots.
func Key(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (x, y int, err error) {
	xs, ys, ok := strings.Cut(key, ",")
	if !ok {
		return 0, 0, fmt.Errorf("position key %q must be \"x,y\"", key)
	}
	if x, err = strconv.Atoi(strings.TrimSpace(xs)); err != nil {
		return 0, 0, fmt.Errorf("position key %q: invalid x", key)
	}
	if y, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
		return 0, 0, fmt.Errorf("position key %q: invalid y", key)
	}
	return x, y, nil
}
