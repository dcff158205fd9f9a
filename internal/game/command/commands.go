// Package command provides the robot program language: a line parser, the
// command registry, and execution against a session.
package command

// Categories for organizing commands.
const (
	CategoryMovement = "movement"
	CategoryWalls    = "walls"
	CategoryObjects  = "objects"
	CategoryDisplay  = "display"
	CategorySystem   = "system"
)

// Handler identifiers mapping commands to robot operations.
const (
	HandlerMove        = "move"
	HandlerTurnLeft    = "turn_left"
	HandlerTake        = "take"
	HandlerPut         = "put"
	HandlerBuildWall   = "build_wall"
	HandlerRemoveWall  = "remove_wall"
	HandlerReport      = "report"
	HandlerSetTrace    = "set_trace"
	HandlerSetSpeed    = "set_speed"
	HandlerReadMessage = "read_message"
	HandlerCheck       = "check"
)

// Command defines one instruction of the program language.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown in help.
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command.
	Category string
	// Handler selects the robot operation.
	Handler string
}

// BuiltinCommands returns every command of the program language.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "move", Aliases: []string{"forward", "fd"}, Usage: "move [steps]", Help: "Step forward, one cell by default", Category: CategoryMovement, Handler: HandlerMove},
		{Name: "turn_left", Aliases: []string{"left", "lt"}, Usage: "turn_left", Help: "Turn a quarter counter-clockwise", Category: CategoryMovement, Handler: HandlerTurnLeft},

		{Name: "build_wall", Aliases: []string{"build"}, Usage: "build_wall", Help: "Build a wall ahead on a marked slot", Category: CategoryWalls, Handler: HandlerBuildWall},
		{Name: "remove_wall", Aliases: []string{"demolish"}, Usage: "remove_wall", Help: "Remove the wall ahead", Category: CategoryWalls, Handler: HandlerRemoveWall},

		{Name: "take", Aliases: []string{"pick"}, Usage: "take [object]", Help: "Pick up one object here", Category: CategoryObjects, Handler: HandlerTake},
		{Name: "put", Aliases: []string{"drop"}, Usage: "put", Help: "Drop the most recently taken object", Category: CategoryObjects, Handler: HandlerPut},

		{Name: "report", Aliases: []string{"say"}, Usage: "report <text>", Help: "Append text to the report log", Category: CategoryDisplay, Handler: HandlerReport},
		{Name: "set_trace", Aliases: []string{"trace"}, Usage: "set_trace <color>", Help: "Change the trail colour", Category: CategoryDisplay, Handler: HandlerSetTrace},
		{Name: "set_speed", Aliases: []string{"speed"}, Usage: "set_speed <seconds>", Help: "Change the animation delay", Category: CategoryDisplay, Handler: HandlerSetSpeed},
		{Name: "read_message", Aliases: []string{"read"}, Usage: "read_message [seconds]", Help: "Show the message under the robot", Category: CategoryDisplay, Handler: HandlerReadMessage},

		{Name: "check", Aliases: nil, Usage: "check", Help: "Evaluate the goals once", Category: CategorySystem, Handler: HandlerCheck},
	}
}
