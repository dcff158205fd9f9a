package world

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/grid"
)

// parser applies a Document to a World in a fixed order so that a seeded
// Source always yields the same world.
type parser struct {
	world  *World
	doc    *Document
	roller *dice.Roller
}

// FromDocument builds a World from doc, resolving random values through
// roller.
//
// Precondition: doc, roller and logger must be non-nil.
// Postcondition: Returns a fully populated World or the first parse error.
func FromDocument(doc *Document, opts Options, roller *dice.Roller, logger *zap.Logger) (*World, error) {
	w := New(opts, logger)
	if err := Apply(w, doc, roller); err != nil {
		return nil, err
	}
	return w, nil
}

// LoadFile decodes the document at path and builds a World from it.
func LoadFile(path string, opts Options, roller *dice.Roller, logger *zap.Logger) (*World, error) {
	doc, err := LoadDocumentFromFile(path)
	if err != nil {
		return nil, err
	}
	w, err := FromDocument(doc, opts, roller, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Apply populates an existing World from doc. Sections are applied in the
// order dimensions, scene, tile maps, walls, tiles, messages, robots,
// objects, flags, goals, description.
func Apply(w *World, doc *Document, roller *dice.Roller) error {
	p := &parser{world: w, doc: doc, roller: roller}
	steps := []struct {
		name string
		fn   func() error
	}{
		{"dimensions", p.parseDimensions},
		{"scene", p.parseScene},
		{"tileMaps", p.parseTileMaps},
		{"walls", p.parseWalls},
		{"tiles", p.parseTiles},
		{"messages", p.parseMessages},
		{"robots", p.parseRobots},
		{"objects", p.parseObjects},
		{"flags", p.parseFlags},
		{"goal", p.parseGoals},
		{"description", p.parseDescription},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("parsing %s: %w", s.name, err)
		}
	}
	return nil
}

func (p *parser) parseDimensions() error {
	rows := p.doc.Rows.Resolve("rows", p.roller)
	cols := p.doc.Cols.Resolve("cols", p.roller)
	p.world.SetDimensions(rows, cols)
	return nil
}

func (p *parser) parseScene() error {
	p.world.SetStyle(p.doc.BorderColor, p.doc.GridLineColor)
	p.world.SetTitle(p.doc.Title)
	return nil
}

func (p *parser) parseTileMaps() error {
	p.world.AddTileMap(p.doc.TileMaps)
	return nil
}

func (p *parser) parseWalls() error {
	if err := p.eachWall(p.doc.Walls, func(x, y int, d grid.Direction) error {
		_, err := p.world.AddWall(x, y, d)
		return err
	}); err != nil {
		return err
	}
	if err := p.eachWall(p.doc.RemovableWalls, func(x, y int, d grid.Direction) error {
		if p.world.HasWall(x, y, d) {
			return p.world.SetWallRemovable(x, y, d)
		}
		_, err := p.world.AddRemovableWall(x, y, d)
		return err
	}); err != nil {
		return err
	}
	return p.eachWall(p.doc.GoalWalls, func(x, y int, d grid.Direction) error {
		return p.world.SetWallGoal(x, y, d)
	})
}

func (p *parser) eachWall(walls map[string][]grid.Direction, fn func(x, y int, d grid.Direction) error) error {
	for _, k := range sortedKeys(walls) {
		x, y, err := ParseKey(k)
		if err != nil {
			return err
		}
		for _, d := range walls[k] {
			if err := fn(x, y, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) parseTiles() error {
	for _, k := range sortedKeys(p.doc.Tiles) {
		x, y, err := ParseKey(k)
		if err != nil {
			return err
		}
		if err := p.world.AddTile(x, y, p.doc.Tiles[k]...); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseMessages() error {
	for _, k := range sortedKeys(p.doc.Messages) {
		x, y, err := ParseKey(k)
		if err != nil {
			return err
		}
		if _, err := p.world.AddMessage(x, y, p.doc.Messages[k]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseRobots() error {
	for i, spec := range p.doc.Robots {
		label := fmt.Sprintf("robots[%d]", i)
		var x, y int
		switch {
		case len(spec.PossibleInitialPositions) > 0:
			pos := spec.PossibleInitialPositions[p.roller.Index(label+".position", len(spec.PossibleInitialPositions)).Value]
			x, y = pos[0], pos[1]
		case spec.X.IsSet() && spec.Y.IsSet():
			x = spec.X.Resolve(label+".x", p.roller)
			y = spec.Y.Resolve(label+".y", p.roller)
		default:
			return fmt.Errorf("%s: needs x and y or possible_initial_positions", label)
		}
		o := grid.Direction(spec.Orientation.ResolveOr(label+".orientation", p.roller, int(grid.East)))
		if _, err := p.world.AddRobot(x, y, o, spec.TraceColor); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	return nil
}

func (p *parser) parseObjects() error {
	return p.eachObject(p.doc.Objects, "objects", func(x, y int, name string, n int) error {
		_, err := p.world.AddObject(x, y, name, n)
		return err
	})
}

// eachObject walks a "x,y" → {name: count} table in position then name order.
func (p *parser) eachObject(table map[string]map[string]Scalar, label string, fn func(x, y int, name string, n int) error) error {
	for _, k := range sortedKeys(table) {
		x, y, err := ParseKey(k)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(table[k]))
		for name := range table[k] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			n := table[k][name].Resolve(fmt.Sprintf("%s[%s].%s", label, k, name), p.roller)
			if err := fn(x, y, name, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) parseFlags() error {
	for _, pos := range p.doc.Flags {
		if _, err := p.world.AddFlag(pos[0], pos[1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseGoals() error {
	g := p.doc.Goal
	if g == nil {
		return nil
	}

	switch {
	case len(g.PossibleFinalPositions) > 0:
		pos := g.PossibleFinalPositions[p.roller.Index("goal.position", len(g.PossibleFinalPositions)).Value]
		p.world.AddPositionGoal(pos[0], pos[1])
	case g.Position != nil:
		x := g.Position.X.Resolve("goal.position.x", p.roller)
		y := g.Position.Y.Resolve("goal.position.y", p.roller)
		p.world.AddPositionGoal(x, y)
		if len(g.Position.Image) > 0 {
			if err := p.world.AddTile(x, y, g.Position.Image...); err != nil {
				return err
			}
		}
	}

	for _, k := range sortedKeys(g.Walls) {
		x, y, err := ParseKey(k)
		if err != nil {
			return err
		}
		p.world.AddWallGoal(x, y, g.Walls[k]...)
	}

	if err := p.eachObject(g.Objects, "goal.objects", func(x, y int, name string, n int) error {
		p.world.AddPickGoal(x, y, name, n)
		return nil
	}); err != nil {
		return err
	}
	if err := p.eachObject(g.Drop, "goal.drop", func(x, y int, name string, n int) error {
		p.world.AddDropGoal(x, y, name, n)
		return nil
	}); err != nil {
		return err
	}

	for _, text := range g.Reporter {
		p.world.AddReporterGoal(text)
	}
	if g.FlagCount.IsSet() {
		p.world.AddFlagCountGoal(g.FlagCount.Resolve("goal.flag_count", p.roller))
	}
	return nil
}

func (p *parser) parseDescription() error {
	p.world.AddDescription(strings.TrimSpace(string(p.doc.Description)))
	return nil
}
