package world

import "github.com/cory-johannsen/gridbot/internal/game/event"

// Properties are the scene styling values sent to the renderer.
type Properties struct {
	BorderColor   string `json:"border_color"`
	GridLineColor string `json:"grid_line_color"`
	Floating      bool   `json:"floating"`
}

// RobotState is the renderer view of a robot record.
type RobotState struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation int    `json:"orientation"`
	TraceColor  string `json:"traceColor"`
}

// DropGoalState is the renderer view of a drop goal.
type DropGoalState struct {
	ObjectName string `json:"obj_name"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Val        int    `json:"val"`
}

// Snapshot is a read-only copy of everything the renderer needs to draw the
// world from scratch.
type Snapshot struct {
	Properties   Properties                `json:"world_properties"`
	UIID         string                    `json:"ui_id"`
	Rows         int                       `json:"rows"`
	Cols         int                       `json:"cols"`
	VWalls       [][]int                   `json:"vwalls"`
	HWalls       [][]int                   `json:"hwalls"`
	Robots       []RobotState              `json:"robots"`
	Objects      map[string]map[string]int `json:"objects"`
	TileMap      map[string]string         `json:"tilemap"`
	Tiles        [][][]string              `json:"tiles"`
	Messages     map[string]string         `json:"messages"`
	Flags        map[string]int            `json:"flags"`
	GoalMessages []string                  `json:"goals"`
	DropGoals    []DropGoalState           `json:"drop_goals"`
	Title        string                    `json:"title,omitempty"`
	Description  string                    `json:"description,omitempty"`
}

// Snapshot copies the current state. It has no side effects.
func (w *World) Snapshot() Snapshot {
	rows, cols := w.Dimensions()
	s := Snapshot{
		Properties: Properties{
			BorderColor:   w.borderColor,
			GridLineColor: w.gridLineColor,
			Floating:      w.floating,
		},
		UIID:         w.uiID,
		Rows:         rows,
		Cols:         cols,
		VWalls:       w.grid.VWalls(),
		HWalls:       w.grid.HWalls(),
		Robots:       make([]RobotState, 0, len(w.robots)),
		Objects:      make(map[string]map[string]int, len(w.objects)),
		TileMap:      w.TileMap(),
		Tiles:        w.grid.Tiles(),
		Messages:     make(map[string]string, len(w.messages)),
		Flags:        make(map[string]int, len(w.flags)),
		GoalMessages: make([]string, 0, len(w.goals)),
		DropGoals:    []DropGoalState{},
		Title:        w.title,
		Description:  w.description,
	}
	for _, r := range w.robots {
		s.Robots = append(s.Robots, RobotState{X: r.X, Y: r.Y, Orientation: int(r.Orientation), TraceColor: r.TraceColor})
	}
	for k, o := range w.objects {
		s.Objects[k] = map[string]int{o.Name: o.Count}
	}
	for k, m := range w.messages {
		s.Messages[k] = m
	}
	for k := range w.flags {
		s.Flags[k] = 1
	}
	for _, g := range w.goals {
		s.GoalMessages = append(s.GoalMessages, g.Message())
	}
	for _, d := range w.DropGoals() {
		s.DropGoals = append(s.DropGoals, DropGoalState{ObjectName: d.Name, X: d.X, Y: d.Y, Val: d.Count})
	}
	return s
}

// Params returns the positional draw_all parameter list.
func (s Snapshot) Params() []any {
	return []any{
		s.Properties, s.UIID, s.Rows, s.Cols, s.VWalls, s.HWalls, s.Robots,
		s.Objects, s.TileMap, s.Tiles, s.Messages, s.Flags, s.GoalMessages, s.DropGoals,
	}
}

// RenderAll returns a draw_all event describing the whole world, subject to
// the quota gate. It does not charge instructions.
func (w *World) RenderAll() ([]event.Event, error) {
	return w.Emit(event.New(event.DrawAll, w.Snapshot().Params()...))
}
