// Package world holds the authoritative state of one grid world: walls,
// tiles, objects, flags, messages, goals, robot records and the instruction
// quota. It also decodes and parses declarative world documents.
package world

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/goal"
	"github.com/cory-johannsen/gridbot/internal/game/grid"
)

// Defaults applied by New.
const (
	DefaultMaxInstructions = 1000
	DefaultRows            = 10
	DefaultCols            = 10
	DefaultBorderColor     = "darkred"
	DefaultGridLineColor   = "gray"
	DefaultTraceColor      = "red"
)

var (
	// ErrQuotaExceeded is returned once the instruction quota is spent.
	ErrQuotaExceeded = errors.New("Instruction Quota Exceeded")
	// ErrAlreadyChecked is returned by a second Check.
	ErrAlreadyChecked = errors.New("Already Checked once.")
	// ErrMissingFlag is returned when removing a flag that is not there.
	ErrMissingFlag = errors.New("no flag at position")
	// ErrOutOfBounds is returned for positions outside the grid.
	ErrOutOfBounds = grid.ErrOutOfBounds
)

// DefaultTileMap maps tile names to renderer assets. Documents may override
// or extend it.
var DefaultTileMap = map[string]string{
	"house":    "img/house.png",
	"goal":     "img/goal.png",
	"flag":     "img/flag.png",
	"apple":    "img/apple.png",
	"banana":   "img/banana.png",
	"box":      "img/box.png",
	"envelope": "img/envelope.png",
	"grass":    "img/grass.png",
	"gravel":   "img/gravel.png",
	"water":    "img/water.png",
	"mud":      "img/mud.png",
	"bricks":   "img/bricks.png",
}

// Options configure a new World.
type Options struct {
	// MaxInstructions is the instruction quota; zero selects DefaultMaxInstructions.
	MaxInstructions int
	// UICounter distinguishes several worlds rendered on one page.
	UICounter int
	// Floating is passed through to the renderer.
	Floating bool
}

// RobotRecord is the mutable initial and current state of one robot.
type RobotRecord struct {
	X           int
	Y           int
	Orientation grid.Direction
	TraceColor  string
}

// Object is the single stack of same-named objects occupying a cell.
type Object struct {
	Name  string
	Count int
}

// GoalResult is the outcome of one goal during Check.
type GoalResult struct {
	Kind    goal.Kind
	Message string
	Passed  bool
}

// CheckResult is the verdict of Check.
type CheckResult struct {
	Passed bool
	Goals  []GoalResult
}

// World is the authoritative state of one grid world. It is not safe for
// concurrent use; callers serialise access (see session.Session).
type World struct {
	grid *grid.Grid

	objects  map[string]Object
	flags    map[string]struct{}
	messages map[string]string
	tileMap  map[string]string
	goals    []goal.Goal
	robots   []*RobotRecord

	title         string
	description   string
	borderColor   string
	gridLineColor string
	floating      bool
	uiID          string

	maxInstructions  int
	instructionCount int
	checked          bool

	logger *zap.Logger
}

// New returns an empty 10x10 world.
//
// Precondition: logger must be non-nil.
func New(opts Options, logger *zap.Logger) *World {
	max := opts.MaxInstructions
	if max <= 0 {
		max = DefaultMaxInstructions
	}
	counter := opts.UICounter
	if counter <= 0 {
		counter = 1
	}
	w := &World{
		grid:            grid.New(DefaultRows, DefaultCols),
		objects:         make(map[string]Object),
		flags:           make(map[string]struct{}),
		messages:        make(map[string]string),
		borderColor:     DefaultBorderColor,
		gridLineColor:   DefaultGridLineColor,
		floating:        opts.Floating,
		uiID:            fmt.Sprintf("ttgt_world_%d", counter),
		maxInstructions: max,
		logger:          logger,
	}
	w.AddTileMap(nil)
	return w
}

// UIID returns the renderer identifier of this world.
func (w *World) UIID() string { return w.uiID }

// Dimensions returns rows and cols.
func (w *World) Dimensions() (rows, cols int) { return w.grid.Rows(), w.grid.Cols() }

// SetDimensions resizes the grid (clamped to [1,20]). It is meant for
// initialization: walls, tiles, editability, messages, objects and flags are
// all discarded. Robots and goals are kept.
func (w *World) SetDimensions(rows, cols int) {
	w.grid.SetDimensions(rows, cols)
	clear(w.objects)
	clear(w.flags)
	clear(w.messages)
}

// InBounds reports whether (x, y) is a cell of the grid.
func (w *World) InBounds(x, y int) bool { return w.grid.InBounds(x, y) }

// CellAt returns a copy of the cell at (x, y).
func (w *World) CellAt(x, y int) (grid.Cell, error) {
	c, err := w.grid.Cell(x, y)
	if err != nil {
		return grid.Cell{}, err
	}
	return *c, nil
}

// SetStyle sets the border and grid line colours. Empty values keep the
// current colour.
func (w *World) SetStyle(borderColor, gridLineColor string) {
	if borderColor != "" {
		w.borderColor = borderColor
	}
	if gridLineColor != "" {
		w.gridLineColor = gridLineColor
	}
}

// Walls.

// IsClear reports whether movement from (x, y) towards dir is possible.
func (w *World) IsClear(x, y int, dir grid.Direction) bool { return w.grid.IsClear(x, y, dir) }

// HasBlock reports whether a border or NORMAL wall stands on side dir of (x, y).
func (w *World) HasBlock(x, y int, dir grid.Direction) bool { return w.grid.HasBlock(x, y, dir) }

// HasWall reports whether a NORMAL wall stands on side dir of (x, y).
func (w *World) HasWall(x, y int, dir grid.Direction) bool { return w.grid.HasWall(x, y, dir) }

// HasGoalWall reports whether side dir of (x, y) is a buildable goal slot.
func (w *World) HasGoalWall(x, y int, dir grid.Direction) bool {
	return w.grid.HasGoalWall(x, y, dir)
}

func wallEvent(name event.Name, x, y int, dir grid.Direction) event.Event {
	wx, wy, ui := grid.WallCoord(x, y, dir)
	return event.New(name, wx, wy, ui.String())
}

// AddWall places a NORMAL wall on side dir of (x, y).
//
// Postcondition: on success the returned add_wall event addresses the
// canonical slot.
func (w *World) AddWall(x, y int, dir grid.Direction) (event.Event, error) {
	return w.addWall(x, y, dir, grid.KindNormal)
}

// AddRemovableWall places a NORMAL|REMOVABLE wall on side dir of (x, y).
func (w *World) AddRemovableWall(x, y int, dir grid.Direction) (event.Event, error) {
	return w.addWall(x, y, dir, grid.KindRemovable)
}

// AddGoalWall marks side dir of (x, y) as a slot where a robot may build.
func (w *World) AddGoalWall(x, y int, dir grid.Direction) (event.Event, error) {
	return w.addWall(x, y, dir, grid.KindGoal)
}

func (w *World) addWall(x, y int, dir grid.Direction, kind grid.WallType) (event.Event, error) {
	if err := w.grid.AddWall(x, y, dir, kind); err != nil {
		return event.Event{}, err
	}
	return wallEvent(event.AddWall, x, y, dir), nil
}

// SetWallRemovable ORs the REMOVABLE bit into side dir of (x, y).
func (w *World) SetWallRemovable(x, y int, dir grid.Direction) error {
	return w.grid.SetAsRemovable(x, y, dir)
}

// SetWallGoal ORs the GOAL bit into side dir of (x, y).
func (w *World) SetWallGoal(x, y int, dir grid.Direction) error {
	return w.grid.SetAsGoal(x, y, dir)
}

// RemoveWall clears side dir of (x, y).
func (w *World) RemoveWall(x, y int, dir grid.Direction) (event.Event, error) {
	if err := w.grid.RemoveWall(x, y, dir); err != nil {
		return event.Event{}, err
	}
	return wallEvent(event.RemoveWall, x, y, dir), nil
}

// Objects.

// AddObject replaces whatever occupies (x, y) with count objects named name.
func (w *World) AddObject(x, y int, name string, count int) (event.Event, error) {
	if !w.grid.InBounds(x, y) {
		return event.Event{}, fmt.Errorf("object %s at %d,%d: %w", name, x, y, ErrOutOfBounds)
	}
	w.objects[Key(x, y)] = Object{Name: name, Count: count}
	return event.New(event.AddObject, x, y, name, count), nil
}

// RemoveObject deletes the object stack at (x, y).
func (w *World) RemoveObject(x, y int) event.Event {
	delete(w.objects, Key(x, y))
	return event.New(event.RemoveObject, x, y)
}

// Object returns the object stack at (x, y).
func (w *World) Object(x, y int) (Object, bool) {
	o, ok := w.objects[Key(x, y)]
	return o, ok
}

// ObjectCount returns the count of name at (x, y) and whether that object is
// present.
func (w *World) ObjectCount(x, y int, name string) (int, bool) {
	o, ok := w.objects[Key(x, y)]
	if !ok || o.Name != name {
		return 0, false
	}
	return o.Count, true
}

// Flags.

// AddFlag places a flag on (x, y).
func (w *World) AddFlag(x, y int) (event.Event, error) {
	if !w.grid.InBounds(x, y) {
		return event.Event{}, fmt.Errorf("flag at %d,%d: %w", x, y, ErrOutOfBounds)
	}
	w.flags[Key(x, y)] = struct{}{}
	return event.New(event.AddFlag, x, y), nil
}

// HasFlag reports whether a flag lies on (x, y).
func (w *World) HasFlag(x, y int) bool {
	_, ok := w.flags[Key(x, y)]
	return ok
}

// RemoveFlag removes the flag on (x, y).
//
// Postcondition: returns ErrMissingFlag when no flag was there.
func (w *World) RemoveFlag(x, y int) (event.Event, error) {
	k := Key(x, y)
	if _, ok := w.flags[k]; !ok {
		return event.Event{}, fmt.Errorf("removing flag at %s: %w", k, ErrMissingFlag)
	}
	delete(w.flags, k)
	return event.New(event.RemoveFlag, x, y), nil
}

// FlagCount returns the number of flags still on the grid.
func (w *World) FlagCount() int { return len(w.flags) }

// Messages, tiles and text.

// AddMessage attaches msg to (x, y).
func (w *World) AddMessage(x, y int, msg string) (event.Event, error) {
	if err := w.grid.SetMessage(x, y, msg); err != nil {
		return event.Event{}, err
	}
	w.messages[Key(x, y)] = msg
	return event.New(event.AddMessage, x, y, msg), nil
}

// Message returns the message at (x, y).
func (w *World) Message(x, y int) (string, bool) {
	m, ok := w.messages[Key(x, y)]
	return m, ok
}

// AddTile replaces the background of (x, y).
func (w *World) AddTile(x, y int, tiles ...string) error {
	return w.grid.SetBackground(x, y, tiles)
}

// AddTileMap resets the tile map to DefaultTileMap merged with overrides.
func (w *World) AddTileMap(overrides map[string]string) {
	w.tileMap = make(map[string]string, len(DefaultTileMap)+len(overrides))
	for k, v := range DefaultTileMap {
		w.tileMap[k] = v
	}
	for k, v := range overrides {
		w.tileMap[k] = v
	}
}

// TileMap returns a copy of the tile map.
func (w *World) TileMap() map[string]string {
	out := make(map[string]string, len(w.tileMap))
	for k, v := range w.tileMap {
		out[k] = v
	}
	return out
}

// SetPickAllowed sets whether objects may be taken from (x, y).
func (w *World) SetPickAllowed(x, y int, allowed bool) error {
	c, err := w.grid.Cell(x, y)
	if err != nil {
		return err
	}
	e := c.Editable
	e.Pick = allowed
	return w.grid.SetEditable(x, y, e)
}

// SetDropAllowed sets whether objects may be put on (x, y).
func (w *World) SetDropAllowed(x, y int, allowed bool) error {
	c, err := w.grid.Cell(x, y)
	if err != nil {
		return err
	}
	e := c.Editable
	e.Drop = allowed
	return w.grid.SetEditable(x, y, e)
}

// AddDescription sets the task description.
func (w *World) AddDescription(desc string) { w.description = desc }

// Description returns the task description.
func (w *World) Description() string { return w.description }

// SetTitle sets the task title.
func (w *World) SetTitle(title string) { w.title = title }

// Title returns the task title.
func (w *World) Title() string { return w.title }

// Robots.

// AddRobot appends a robot record and returns its index.
func (w *World) AddRobot(x, y int, orientation grid.Direction, traceColor string) (int, error) {
	if !w.grid.InBounds(x, y) {
		return 0, fmt.Errorf("robot at %d,%d: %w", x, y, ErrOutOfBounds)
	}
	if !orientation.Valid() {
		return 0, fmt.Errorf("robot orientation %d out of range", int(orientation))
	}
	if traceColor == "" {
		traceColor = DefaultTraceColor
	}
	w.robots = append(w.robots, &RobotRecord{X: x, Y: y, Orientation: orientation, TraceColor: traceColor})
	return len(w.robots) - 1, nil
}

// Robot returns the live record of robot i.
func (w *World) Robot(i int) (*RobotRecord, error) {
	if i < 0 || i >= len(w.robots) {
		return nil, fmt.Errorf("robot index %d out of range (have %d)", i, len(w.robots))
	}
	return w.robots[i], nil
}

// RobotCount returns the number of robot records.
func (w *World) RobotCount() int { return len(w.robots) }

// Goals.

// AddGoal appends g.
func (w *World) AddGoal(g goal.Goal) { w.goals = append(w.goals, g) }

// AddPositionGoal requires the robot to finish on (x, y).
func (w *World) AddPositionGoal(x, y int) { w.AddGoal(goal.Position{X: x, Y: y}) }

// AddHomeGoal is a position goal marked with a house tile.
func (w *World) AddHomeGoal(x, y int) error {
	if err := w.AddTile(x, y, "house"); err != nil {
		return err
	}
	w.AddPositionGoal(x, y)
	return nil
}

// AddWallGoal requires every side in dirs of (x, y) to be blocked.
func (w *World) AddWallGoal(x, y int, dirs ...grid.Direction) {
	w.AddGoal(goal.Wall{X: x, Y: y, Directions: append([]grid.Direction(nil), dirs...)})
}

// AddPickGoal requires the robot to take exactly count objects named name
// from (x, y).
func (w *World) AddPickGoal(x, y int, name string, count int) {
	w.AddGoal(goal.Object{X: x, Y: y, Name: name, Count: count})
}

// AddDropGoal requires exactly count objects named name to lie on (x, y).
func (w *World) AddDropGoal(x, y int, name string, count int) {
	w.AddGoal(goal.Drop{X: x, Y: y, Name: name, Count: count})
}

// AddReporterGoal requires the robot to have reported text.
func (w *World) AddReporterGoal(text string) { w.AddGoal(goal.Reporter{Text: text}) }

// AddFlagCountGoal requires the robot to have collected count flags.
func (w *World) AddFlagCountGoal(count int) { w.AddGoal(goal.FlagCount{Count: count}) }

// Goals returns the goals in insertion order.
func (w *World) Goals() []goal.Goal {
	return append([]goal.Goal(nil), w.goals...)
}

// PositionGoals returns the position goals in insertion order.
func (w *World) PositionGoals() []goal.Position {
	var out []goal.Position
	for _, g := range w.goals {
		if p, ok := g.(goal.Position); ok {
			out = append(out, p)
		}
	}
	return out
}

// DropGoals returns the drop goals in insertion order.
func (w *World) DropGoals() []goal.Drop {
	var out []goal.Drop
	for _, g := range w.goals {
		if d, ok := g.(goal.Drop); ok {
			out = append(out, d)
		}
	}
	return out
}

// Quota.

// MaxInstructions returns the instruction quota.
func (w *World) MaxInstructions() int { return w.maxInstructions }

// SetQuota replaces the instruction quota.
func (w *World) SetQuota(n int) { w.maxInstructions = n }

// InstructionCount returns the instructions charged so far.
func (w *World) InstructionCount() int { return w.instructionCount }

// IncrInstruction charges n instructions without gating. The count
// saturates at math.MaxInt and never decreases.
func (w *World) IncrInstruction(n int) {
	if n <= 0 {
		return
	}
	if n > math.MaxInt-w.instructionCount {
		w.instructionCount = math.MaxInt
		return
	}
	w.instructionCount += n
}

// HasBalance reports whether the quota still exceeds the charged count.
func (w *World) HasBalance() bool { return w.maxInstructions > w.instructionCount }

// Charge adds n instructions and then applies the quota gate.
//
// Postcondition: when the quota is spent the returned events are a single
// halt event and err wraps ErrQuotaExceeded; the caller must not mutate.
func (w *World) Charge(n int) ([]event.Event, error) {
	w.IncrInstruction(n)
	return w.gate()
}

// Emit passes evs through the quota gate. Once the quota is spent the events
// are replaced by a halt event and ErrQuotaExceeded is returned.
func (w *World) Emit(evs ...event.Event) ([]event.Event, error) {
	if halt, err := w.gate(); err != nil {
		return halt, err
	}
	return evs, nil
}

func (w *World) gate() ([]event.Event, error) {
	if w.HasBalance() {
		return nil, nil
	}
	return []event.Event{event.New(event.Halt)},
		fmt.Errorf("%d of %d instructions used: %w", w.instructionCount, w.maxInstructions, ErrQuotaExceeded)
}

// Evaluation.

// Done reports whether every goal is completed by a. It has no side effects.
func (w *World) Done(a goal.Actor) bool {
	for _, g := range w.goals {
		if !goal.IsCompleted(g, a, w) {
			return false
		}
	}
	return true
}

// Checked reports whether Check has run.
func (w *World) Checked() bool { return w.checked }

// Check evaluates every goal against a once. A second call returns
// ErrAlreadyChecked.
//
// Postcondition: Checked() is true after the first call.
func (w *World) Check(a goal.Actor) (CheckResult, error) {
	if w.checked {
		return CheckResult{}, ErrAlreadyChecked
	}
	res := CheckResult{Passed: true, Goals: make([]GoalResult, 0, len(w.goals))}
	for _, g := range w.goals {
		passed := goal.IsCompleted(g, a, w)
		msg := g.Message()
		if !passed {
			res.Passed = false
			msg = goal.FailureMessage(g, a)
		}
		res.Goals = append(res.Goals, GoalResult{Kind: g.Kind(), Message: msg, Passed: passed})
		w.logger.Info("goal checked",
			zap.String("world", w.uiID),
			zap.Stringer("kind", g.Kind()),
			zap.String("message", msg),
			zap.Bool("passed", passed),
		)
	}
	w.checked = true
	return res, nil
}

// sortedKeys returns the keys of m ordered by position, x first.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		xi, yi, erri := ParseKey(keys[i])
		xj, yj, errj := ParseKey(keys[j])
		if erri != nil || errj != nil {
			return keys[i] < keys[j]
		}
		if xi != xj {
			return xi < xj
		}
		return yi < yj
	})
	return keys
}
