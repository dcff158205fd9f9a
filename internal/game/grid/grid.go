package grid

import (
	"errors"
	"fmt"
)

// Size limits for either grid dimension.
const (
	MinSize = 1
	MaxSize = 20
)

// ErrOutOfBounds is returned when a position lies outside the grid.
var ErrOutOfBounds = errors.New("position out of bounds")

// WallType is a bitmask of wall attributes stored per wall slot.
type WallType int

// Wall attribute bits. Only WallNormal blocks movement.
const (
	WallNormal    WallType = 1
	WallRemovable WallType = 2
	WallGoal      WallType = 4
)

// Has reports whether all bits of f are set in t.
func (t WallType) Has(f WallType) bool {
	return t&f == f
}

// Editability holds per-cell permissions for object manipulation.
type Editability struct {
	Pick bool `json:"pick"`
	Drop bool `json:"drop"`
}

// Cell is one addressable square of the grid. Cells are replaced wholesale
// when the grid is resized and never move.
type Cell struct {
	X, Y       int
	Background []string
	Editable   Editability

	message    string
	hasMessage bool
}

// Message returns the cell message and whether one is set.
func (c Cell) Message() (string, bool) {
	return c.message, c.hasMessage
}

// Grid is a rows × cols board of 1-indexed cells plus horizontal and vertical
// wall arrays sized (cols+1) × (rows+1).
//
// Invariant: a wall slot is addressed by the same canonical coordinate from
// either of its two adjacent cells (see WallCoord).
type Grid struct {
	rows, cols int
	cells      [][]*Cell
	hwalls     [][]WallType
	vwalls     [][]WallType
}

// New returns a grid with the given dimensions (clamped).
func New(rows, cols int) *Grid {
	g := &Grid{}
	g.SetDimensions(rows, cols)
	return g
}

func clamp(n int) int {
	if n < MinSize {
		return MinSize
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}

// SetDimensions clamps rows and cols to [MinSize, MaxSize] and reallocates all
// cells and both wall arrays. Any previous walls, tiles, messages and
// editability flags are discarded.
func (g *Grid) SetDimensions(rows, cols int) {
	g.rows = clamp(rows)
	g.cols = clamp(cols)

	g.hwalls = newWallArray(g.cols+1, g.rows+1)
	g.vwalls = newWallArray(g.cols+1, g.rows+1)

	g.cells = make([][]*Cell, g.cols)
	for i := range g.cells {
		g.cells[i] = make([]*Cell, g.rows)
		for j := range g.cells[i] {
			g.cells[i][j] = &Cell{
				X:        i + 1,
				Y:        j + 1,
				Editable: Editability{Pick: true, Drop: true},
			}
		}
	}
}

func newWallArray(w, h int) [][]WallType {
	a := make([][]WallType, w)
	for i := range a {
		a[i] = make([]WallType, h)
	}
	return a
}

// Rows returns the number of rows (the y extent).
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns (the x extent).
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 1 && x <= g.cols && y >= 1 && y <= g.rows
}

// Cell returns the cell at (x, y).
//
// Postcondition: Returns a non-nil cell or ErrOutOfBounds.
func (g *Grid) Cell(x, y int) (*Cell, error) {
	if !g.InBounds(x, y) {
		return nil, fmt.Errorf("cell %d,%d in %dx%d grid: %w", x, y, g.rows, g.cols, ErrOutOfBounds)
	}
	return g.cells[x-1][y-1], nil
}

// SetMessage attaches a message to the cell at (x, y).
func (g *Grid) SetMessage(x, y int, msg string) error {
	c, err := g.Cell(x, y)
	if err != nil {
		return err
	}
	c.message = msg
	c.hasMessage = true
	return nil
}

// SetBackground replaces the background tiles of the cell at (x, y).
func (g *Grid) SetBackground(x, y int, tiles []string) error {
	c, err := g.Cell(x, y)
	if err != nil {
		return err
	}
	c.Background = append([]string(nil), tiles...)
	return nil
}

// SetEditable updates the pick and drop permissions of the cell at (x, y).
func (g *Grid) SetEditable(x, y int, e Editability) error {
	c, err := g.Cell(x, y)
	if err != nil {
		return err
	}
	c.Editable = e
	return nil
}

// Tiles returns the background of every cell as a cols × rows array; cells
// without a background hold nil.
func (g *Grid) Tiles() [][][]string {
	out := make([][][]string, g.cols)
	for i := range g.cells {
		out[i] = make([][]string, g.rows)
		for j, c := range g.cells[i] {
			if len(c.Background) > 0 {
				out[i][j] = append([]string(nil), c.Background...)
			}
		}
	}
	return out
}

// HWalls returns a copy of the horizontal wall array.
func (g *Grid) HWalls() [][]int { return copyWalls(g.hwalls) }

// VWalls returns a copy of the vertical wall array.
func (g *Grid) VWalls() [][]int { return copyWalls(g.vwalls) }

func copyWalls(a [][]WallType) [][]int {
	out := make([][]int, len(a))
	for i := range a {
		out[i] = make([]int, len(a[i]))
		for j, v := range a[i] {
			out[i][j] = int(v)
		}
	}
	return out
}
