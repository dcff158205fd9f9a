package grid_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gridbot/internal/game/grid"
)

func TestSetDimensions_Clamps(t *testing.T) {
	g := grid.New(0, 99)
	assert.Equal(t, 1, g.Rows())
	assert.Equal(t, 20, g.Cols())

	g.SetDimensions(-5, 7)
	assert.Equal(t, 1, g.Rows())
	assert.Equal(t, 7, g.Cols())
}

func TestSetDimensions_AllocatesWallArrays(t *testing.T) {
	g := grid.New(3, 5)
	h := g.HWalls()
	v := g.VWalls()
	require.Len(t, h, 6)
	require.Len(t, v, 6)
	for i := range h {
		assert.Len(t, h[i], 4)
		assert.Len(t, v[i], 4)
	}
}

func TestSetDimensions_DiscardsWalls(t *testing.T) {
	g := grid.New(5, 5)
	require.NoError(t, g.AddWall(2, 2, grid.East, grid.KindNormal))
	g.SetDimensions(5, 5)
	assert.False(t, g.HasWall(2, 2, grid.East))
}

func TestCell_DefaultsEditable(t *testing.T) {
	g := grid.New(2, 2)
	c, err := g.Cell(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.X)
	assert.Equal(t, 1, c.Y)
	assert.True(t, c.Editable.Pick)
	assert.True(t, c.Editable.Drop)
	_, ok := c.Message()
	assert.False(t, ok)
}

func TestCell_OutOfBounds(t *testing.T) {
	g := grid.New(2, 2)
	_, err := g.Cell(3, 1)
	assert.ErrorIs(t, err, grid.ErrOutOfBounds)
	_, err = g.Cell(0, 1)
	assert.ErrorIs(t, err, grid.ErrOutOfBounds)
}

func TestHasBorder_Edges(t *testing.T) {
	g := grid.New(4, 3)
	assert.True(t, g.HasBorder(3, 2, grid.East))
	assert.True(t, g.HasBorder(2, 4, grid.North))
	assert.True(t, g.HasBorder(1, 2, grid.West))
	assert.True(t, g.HasBorder(2, 1, grid.South))
	assert.False(t, g.HasBorder(2, 2, grid.East))
	assert.False(t, g.HasBorder(2, 2, grid.South))
}

func TestGoalWall_DoesNotBlock(t *testing.T) {
	g := grid.New(5, 5)
	require.NoError(t, g.AddWall(2, 2, grid.North, grid.KindGoal))
	assert.True(t, g.HasGoalWall(2, 2, grid.North))
	assert.True(t, g.HasGoalWall(2, 3, grid.South))
	assert.False(t, g.HasWall(2, 2, grid.North))
	assert.True(t, g.IsClear(2, 2, grid.North))
}

func TestAddWall_Removable(t *testing.T) {
	g := grid.New(5, 5)
	require.NoError(t, g.AddWall(3, 3, grid.West, grid.KindRemovable))
	assert.True(t, g.HasWall(2, 3, grid.East))
	assert.True(t, g.HasRemovableWall(2, 3, grid.East))
	assert.True(t, g.HasBlock(3, 3, grid.West))

	require.NoError(t, g.RemoveWall(2, 3, grid.East))
	assert.False(t, g.HasWall(3, 3, grid.West))
	assert.False(t, g.HasRemovableWall(3, 3, grid.West))
}

func TestSetAsGoal_OrsBit(t *testing.T) {
	g := grid.New(5, 5)
	require.NoError(t, g.AddWall(1, 1, grid.East, grid.KindNormal))
	require.NoError(t, g.SetAsGoal(1, 1, grid.East))
	require.NoError(t, g.SetAsRemovable(2, 1, grid.West))
	assert.Equal(t, 7, g.VWalls()[1][1])
}

func TestWallCoord(t *testing.T) {
	cases := []struct {
		dir    grid.Direction
		wx, wy int
		ui     grid.Direction
	}{
		{grid.East, 4, 4, grid.East},
		{grid.North, 4, 4, grid.North},
		{grid.West, 3, 4, grid.East},
		{grid.South, 4, 3, grid.North},
	}
	for _, tc := range cases {
		wx, wy, ui := grid.WallCoord(4, 4, tc.dir)
		assert.Equal(t, tc.wx, wx, tc.dir.String())
		assert.Equal(t, tc.wy, wy, tc.dir.String())
		assert.Equal(t, tc.ui, ui, tc.dir.String())
	}
}

// TestWallSymmetry_Property verifies that a wall added on one side of a cell
// is visible from the neighbouring cell on the opposite side.
func TestWallSymmetry_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(2, 20).Draw(rt, "rows")
		cols := rapid.IntRange(2, 20).Draw(rt, "cols")
		g := grid.New(rows, cols)

		x := rapid.IntRange(1, cols).Draw(rt, "x")
		y := rapid.IntRange(1, rows).Draw(rt, "y")
		dir := grid.Direction(rapid.IntRange(0, 3).Draw(rt, "dir"))
		dx, dy := dir.Delta()
		nx, ny := x+dx, y+dy
		if !g.InBounds(nx, ny) {
			rt.Skip("neighbour outside the grid")
		}
		opposite := dir.Left().Left()

		require.NoError(rt, g.AddWall(x, y, dir, grid.KindNormal))
		assert.True(rt, g.HasWall(nx, ny, opposite))
		assert.False(rt, g.IsClear(nx, ny, opposite))

		require.NoError(rt, g.RemoveWall(nx, ny, opposite))
		assert.False(rt, g.HasWall(x, y, dir))
		assert.True(rt, g.IsClear(x, y, dir))
	})
}

func TestDirection_Turns(t *testing.T) {
	assert.Equal(t, grid.North, grid.East.Left())
	assert.Equal(t, grid.East, grid.South.Left())
	assert.Equal(t, grid.South, grid.East.Right())
	for _, d := range grid.Directions {
		assert.Equal(t, d, d.Left().Left().Left().Left())
		assert.Equal(t, d, d.Left().Right())
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]grid.Direction{
		"east": grid.East, "North": grid.North, " WEST ": grid.West, "3": grid.South,
	} {
		got, err := grid.ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := grid.ParseDirection("up")
	assert.Error(t, err)
	_, err = grid.ParseDirection("4")
	assert.Error(t, err)
}

func TestDirection_Decoding(t *testing.T) {
	var fromJSON []grid.Direction
	require.NoError(t, json.Unmarshal([]byte(`["east", 1, "South"]`), &fromJSON))
	assert.Equal(t, []grid.Direction{grid.East, grid.North, grid.South}, fromJSON)

	var fromYAML []grid.Direction
	require.NoError(t, yaml.Unmarshal([]byte("[west, 0]"), &fromYAML))
	assert.Equal(t, []grid.Direction{grid.West, grid.East}, fromYAML)

	var bad grid.Direction
	assert.Error(t, json.Unmarshal([]byte(`7`), &bad))
}

func TestTiles_ParallelToCells(t *testing.T) {
	g := grid.New(2, 3)
	require.NoError(t, g.SetBackground(3, 2, []string{"grass", "house"}))
	tiles := g.Tiles()
	require.Len(t, tiles, 3)
	assert.Equal(t, []string{"grass", "house"}, tiles[2][1])
	assert.Nil(t, tiles[0][0])
}
