package grid

import "fmt"

// Wall kinds accepted by AddWall. Each is the full mask stored in the slot.
const (
	KindNormal    = WallNormal
	KindRemovable = WallNormal | WallRemovable
	KindGoal      = WallGoal
)

// WallCoord returns the canonical slot coordinate of the wall on side dir of
// cell (x, y), together with the direction the slot is drawn in (East for
// vertical walls, North for horizontal walls).
func WallCoord(x, y int, dir Direction) (wx, wy int, ui Direction) {
	switch dir {
	case West:
		return x - 1, y, East
	case South:
		return x, y - 1, North
	case North:
		return x, y, North
	default:
		return x, y, East
	}
}

// slot returns a pointer to the wall slot on side dir of (x, y).
func (g *Grid) slot(x, y int, dir Direction) (*WallType, error) {
	if !g.InBounds(x, y) {
		return nil, fmt.Errorf("wall %s of %d,%d: %w", dir, x, y, ErrOutOfBounds)
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("wall of %d,%d: invalid direction %d", x, y, int(dir))
	}
	wx, wy, ui := WallCoord(x, y, dir)
	if ui == East {
		return &g.vwalls[wx][wy], nil
	}
	return &g.hwalls[wx][wy], nil
}

// wallAt returns the stored mask, or zero for an unaddressable slot.
func (g *Grid) wallAt(x, y int, dir Direction) WallType {
	p, err := g.slot(x, y, dir)
	if err != nil {
		return 0
	}
	return *p
}

// HasBorder reports whether side dir of (x, y) lies on the outer edge. Positions
// outside the grid are bordered on every side.
func (g *Grid) HasBorder(x, y int, dir Direction) bool {
	if !g.InBounds(x, y) {
		return true
	}
	switch dir {
	case East:
		return x == g.cols
	case North:
		return y == g.rows
	case West:
		return x == 1
	case South:
		return y == 1
	}
	return true
}

// HasWall reports whether a NORMAL wall stands on side dir of (x, y).
func (g *Grid) HasWall(x, y int, dir Direction) bool {
	return g.wallAt(x, y, dir).Has(WallNormal)
}

// HasGoalWall reports whether side dir of (x, y) is marked as a buildable goal
// slot.
func (g *Grid) HasGoalWall(x, y int, dir Direction) bool {
	return g.wallAt(x, y, dir).Has(WallGoal)
}

// HasRemovableWall reports whether the wall on side dir of (x, y) carries the
// REMOVABLE bit.
func (g *Grid) HasRemovableWall(x, y int, dir Direction) bool {
	return g.wallAt(x, y, dir).Has(WallRemovable)
}

// HasBlock reports whether movement out of (x, y) towards dir is impossible.
func (g *Grid) HasBlock(x, y int, dir Direction) bool {
	return g.HasBorder(x, y, dir) || g.HasWall(x, y, dir)
}

// IsClear is the negation of HasBlock.
func (g *Grid) IsClear(x, y int, dir Direction) bool {
	return !g.HasBlock(x, y, dir)
}

// AddWall overwrites the slot on side dir of (x, y) with kind.
//
// Postcondition: the slot value equals kind when err is nil.
func (g *Grid) AddWall(x, y int, dir Direction, kind WallType) error {
	p, err := g.slot(x, y, dir)
	if err != nil {
		return err
	}
	*p = kind
	return nil
}

// RemoveWall clears the slot on side dir of (x, y), including any REMOVABLE
// or GOAL bits.
func (g *Grid) RemoveWall(x, y int, dir Direction) error {
	p, err := g.slot(x, y, dir)
	if err != nil {
		return err
	}
	*p = 0
	return nil
}

// SetAsRemovable ORs the REMOVABLE bit into the slot.
func (g *Grid) SetAsRemovable(x, y int, dir Direction) error {
	p, err := g.slot(x, y, dir)
	if err != nil {
		return err
	}
	*p |= WallRemovable
	return nil
}

// SetAsGoal ORs the GOAL bit into the slot.
func (g *Grid) SetAsGoal(x, y int, dir Direction) error {
	p, err := g.slot(x, y, dir)
	if err != nil {
		return err
	}
	*p |= WallGoal
	return nil
}
