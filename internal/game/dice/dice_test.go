package dice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
)

// TestDraw_String verifies the audit string contains label, spec and value.
func TestDraw_String(t *testing.T) {
	d := dice.Draw{Label: "rows", Spec: "3-7", Value: 5}
	assert.Equal(t, "rows: 3-7 → 5", d.String())
}

// TestDraw_String_PanicsOnEmptyLabel verifies that String() enforces its
// precondition.
func TestDraw_String_PanicsOnEmptyLabel(t *testing.T) {
	assert.Panics(t, func() { _ = dice.Draw{Value: 1}.String() })
}

// TestCryptoSource_Intn_InRange verifies every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

// TestCryptoSource_Intn_PanicsOnZero verifies Intn panics when n <= 0.
func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(-1) })
	assert.Panics(t, func() { dice.NewSequenceSource(1).Intn(0) })
}

// TestSeededSource_Reproducible verifies two sources with the same seed
// produce the same stream.
func TestSeededSource_Reproducible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		n := rapid.IntRange(1, 100).Draw(rt, "n")
		a, b := dice.NewSeededSource(seed), dice.NewSeededSource(seed)
		for i := 0; i < 20; i++ {
			va := a.Intn(n)
			assert.Equal(rt, va, b.Intn(n))
			assert.GreaterOrEqual(rt, va, 0)
			assert.Less(rt, va, n)
		}
	})
}

func TestSequenceSource_CyclesAndReduces(t *testing.T) {
	src := dice.NewSequenceSource(0, 4, 7)
	assert.Equal(t, 0, src.Intn(3))
	assert.Equal(t, 1, src.Intn(3))
	assert.Equal(t, 1, src.Intn(3))
	assert.Equal(t, 0, src.Intn(5))
	assert.Panics(t, func() { dice.NewSequenceSource() })
}

func TestParseRange(t *testing.T) {
	r, err := dice.ParseRange("3-7")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Min)
	assert.Equal(t, 7, r.Max)
	assert.Equal(t, "3-7", r.String())

	r, err = dice.ParseRange(" 2 - 2 ")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Min)
	assert.Equal(t, 2, r.Max)

	for _, bad := range []string{"5", "a-3", "3-b", "7-3", ""} {
		_, err := dice.ParseRange(bad)
		assert.Error(t, err, bad)
	}
}

// TestBetween_Property verifies the postcondition Min <= result <= Max.
func TestBetween_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.IntRange(0, 50).Draw(rt, "min")
		max := rapid.IntRange(min, min+50).Draw(rt, "max")
		seed := rapid.Uint64().Draw(rt, "seed")
		v := dice.Between(dice.Range{Min: min, Max: max}, dice.NewSeededSource(seed))
		assert.GreaterOrEqual(rt, v, min)
		assert.LessOrEqual(rt, v, max)
	})
}

func TestChoose_UsesSourceIndex(t *testing.T) {
	assert.Equal(t, 30, dice.Choose([]int{10, 20, 30}, dice.NewSequenceSource(2)))
	assert.Equal(t, 2, dice.Index(5, dice.NewSequenceSource(7)))
}

func TestRoller_ReturnsDraws(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSequenceSource(1, 0, 3), zap.NewNop())

	d := r.Between("rows", dice.Range{Min: 4, Max: 6})
	assert.Equal(t, 5, d.Value)
	assert.Equal(t, "4-6", d.Spec)

	d = r.Choose("cols", []int{8, 9})
	assert.Equal(t, 8, d.Value)
	assert.True(t, strings.Contains(d.Spec, "8"))

	d = r.Index("position", 2)
	assert.Equal(t, 1, d.Value)
}
