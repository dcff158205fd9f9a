package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/goal"
	"github.com/cory-johannsen/gridbot/internal/game/grid"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

func TestLoadFile_JSON(t *testing.T) {
	w, err := world.LoadFile("testdata/maze.json", world.Options{}, roller(0), zap.NewNop())
	require.NoError(t, err)

	rows, cols := w.Dimensions()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, "Small maze", w.Title())
	assert.Equal(t, "Reach the house.\nCollect the apples.", w.Description())
	assert.Equal(t, "img/lava.png", w.TileMap()["lava"])

	assert.True(t, w.HasWall(2, 1, grid.North))
	assert.True(t, w.HasWall(2, 2, grid.South))
	assert.True(t, w.HasWall(3, 3, grid.East))
	assert.True(t, w.HasWall(3, 2, grid.North))
	assert.True(t, w.HasGoalWall(4, 3, grid.North))
	assert.True(t, w.HasWall(1, 2, grid.North))
	assert.True(t, w.HasWall(1, 3, grid.South))
	snap := w.Snapshot()
	assert.Equal(t, int(grid.KindRemovable), snap.VWalls[3][3])
	assert.Equal(t, int(grid.KindRemovable), snap.HWalls[1][2])
	assert.Equal(t, int(grid.WallNormal), snap.HWalls[2][1])

	c, err := w.CellAt(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"grass", "water"}, c.Background)
	c, err = w.CellAt(5, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"house"}, c.Background)

	m, ok := w.Message(3, 2)
	assert.True(t, ok)
	assert.Equal(t, "turn left", m)

	require.Equal(t, 1, w.RobotCount())
	r, err := w.Robot(0)
	require.NoError(t, err)
	assert.Equal(t, world.RobotRecord{X: 1, Y: 1, Orientation: grid.North, TraceColor: "blue"}, *r)

	n, ok := w.ObjectCount(2, 2, "apple")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.True(t, w.HasFlag(4, 1))

	goals := w.Goals()
	require.Len(t, goals, 6)
	assert.Equal(t, goal.Position{X: 5, Y: 4}, goals[0])
	assert.Equal(t, goal.Wall{X: 1, Y: 1, Directions: []grid.Direction{grid.West, grid.South}}, goals[1])
	assert.Equal(t, goal.Object{X: 2, Y: 2, Name: "apple", Count: 2}, goals[2])
	assert.Equal(t, goal.Drop{X: 5, Y: 4, Name: "apple", Count: 1}, goals[3])
	assert.Equal(t, goal.Reporter{Text: "done"}, goals[4])
	assert.Equal(t, goal.FlagCount{Count: 1}, goals[5])
}

func TestLoadFile_YAMLUsesSource(t *testing.T) {
	// draws: rows index, cols offset, robot position index, beeper offset, goal index
	w, err := world.LoadFile("testdata/random.yaml", world.Options{}, roller(2, 1, 1, 2, 0), zap.NewNop())
	require.NoError(t, err)

	rows, cols := w.Dimensions()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 5, cols)

	r, err := w.Robot(0)
	require.NoError(t, err)
	assert.Equal(t, 2, r.X)
	assert.Equal(t, 1, r.Y)
	assert.Equal(t, grid.East, r.Orientation)
	assert.Equal(t, "red", r.TraceColor)

	n, ok := w.ObjectCount(1, 2, "beeper")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, []goal.Position{{X: 3, Y: 3}}, w.PositionGoals())
	assert.Equal(t, "Random layout", w.Description())
}

// TestLoadFile_SeedReproducible verifies the same seed yields the same world.
func TestLoadFile_SeedReproducible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		build := func() world.Snapshot {
			r := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
			w, err := world.LoadFile("testdata/random.yaml", world.Options{}, r, zap.NewNop())
			require.NoError(rt, err)
			return w.Snapshot()
		}
		assert.Equal(rt, build(), build())
	})
}

func TestLoadDocument_Errors(t *testing.T) {
	_, err := world.LoadDocumentFromBytes([]byte(`{"cols": 3}`), world.FormatJSON)
	assert.Error(t, err)

	_, err = world.LoadDocumentFromBytes([]byte(`{"rows": 3, "cols": 3, "bogus": 1}`), world.FormatJSON)
	assert.Error(t, err)

	_, err = world.LoadDocumentFromBytes([]byte("rows: 3\ncols: 3\nwalls:\n  \"1,1\": [up]\n"), world.FormatYAML)
	assert.Error(t, err)

	_, err = world.LoadDocumentFromFile("testdata/missing.toml")
	assert.Error(t, err)
}

func TestFromDocument_Errors(t *testing.T) {
	cases := map[string]string{
		"robot without position": `{"rows":3,"cols":3,"robots":[{"_orientation":0}]}`,
		"robot off grid":         `{"rows":3,"cols":3,"robots":[{"x":4,"y":1}]}`,
		"bad orientation":        `{"rows":3,"cols":3,"robots":[{"x":1,"y":1,"_orientation":5}]}`,
		"bad key":                `{"rows":3,"cols":3,"walls":{"1-1":["east"]}}`,
		"flag off grid":          `{"rows":3,"cols":3,"flags":[[9,9]]}`,
	}
	for name, doc := range cases {
		d, err := world.LoadDocumentFromBytes([]byte(doc), world.FormatJSON)
		require.NoError(t, err, name)
		_, err = world.FromDocument(d, world.Options{}, roller(0), zap.NewNop())
		assert.Error(t, err, name)
	}
}

func TestFromDocument_ClampsDimensions(t *testing.T) {
	d, err := world.LoadDocumentFromBytes([]byte(`{"rows": 40, "cols": 0}`), world.FormatJSON)
	require.NoError(t, err)
	w, err := world.FromDocument(d, world.Options{}, roller(0), zap.NewNop())
	require.NoError(t, err)
	rows, cols := w.Dimensions()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 1, cols)
}

func TestCatalog(t *testing.T) {
	c, err := world.LoadCatalog("testdata", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"maze", "random"}, c.Names())
	assert.Equal(t, 2, c.Count())

	e, ok := c.Get("maze")
	require.True(t, ok)
	assert.Equal(t, "Small maze", e.Document.Title)

	w, err := c.Build("random", world.Options{UICounter: 2}, dice.NewSeededSource(7), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ttgt_world_2", w.UIID())

	_, err = c.Build("nope", world.Options{}, dice.NewSeededSource(7), zap.NewNop())
	assert.ErrorIs(t, err, world.ErrWorldNotFound)

	_, err = world.NewCatalog(&world.Entry{Name: "a", Path: "x"}, &world.Entry{Name: "a", Path: "y"})
	assert.Error(t, err)

	_, err = world.LoadCatalog(t.TempDir(), nil)
	assert.Error(t, err)
}
