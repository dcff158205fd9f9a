package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

var (
	// ErrUnknownCommand is returned for a word that names no command or alias.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadArgument is returned when a command's arguments do not parse.
	ErrBadArgument = errors.New("bad argument")
)

// Outcome is the visible result of one executed command.
type Outcome struct {
	Command string `json:"command"`
	// Output is text for the caller, e.g. a message read from the cell.
	Output string             `json:"output,omitempty"`
	Check  *world.CheckResult `json:"check,omitempty"`
}

// Executor runs parsed commands against one robot of a session.
type Executor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExecutor returns an Executor resolving names through registry.
//
// Precondition: registry and logger must be non-nil.
func NewExecutor(registry *Registry, logger *zap.Logger) *Executor {
	return &Executor{registry: registry, logger: logger}
}

// Execute runs one parsed command on robot idx of s.
//
// Postcondition: engine errors are returned unwrapped enough for errors.Is.
func (e *Executor) Execute(s *session.Session, idx int, res ParseResult) (Outcome, error) {
	cmd, ok := e.registry.Resolve(res.Command)
	if !ok {
		return Outcome{}, fmt.Errorf("%q: %w", res.Command, ErrUnknownCommand)
	}
	out := Outcome{Command: cmd.Name}

	switch cmd.Handler {
	case HandlerMove:
		steps := 1
		if len(res.Args) > 0 {
			n, err := strconv.Atoi(res.Args[0])
			if err != nil {
				return out, fmt.Errorf("move %q: %w", res.Args[0], ErrBadArgument)
			}
			steps = n
		}
		return out, s.Act(idx, func(r *robot.Robot) ([]event.Event, error) { return r.Move(steps) })

	case HandlerTurnLeft:
		return out, s.Act(idx, (*robot.Robot).TurnLeft)

	case HandlerTake:
		name := ""
		if len(res.Args) > 0 {
			name = res.Args[0]
		}
		return out, s.Act(idx, func(r *robot.Robot) ([]event.Event, error) { return r.Take(name) })

	case HandlerPut:
		return out, s.Act(idx, (*robot.Robot).Put)

	case HandlerBuildWall:
		return out, s.Act(idx, (*robot.Robot).BuildWall)

	case HandlerRemoveWall:
		return out, s.Act(idx, (*robot.Robot).RemoveWall)

	case HandlerReport:
		if res.RawArgs == "" {
			return out, fmt.Errorf("report needs text: %w", ErrBadArgument)
		}
		return out, s.Act(idx, func(r *robot.Robot) ([]event.Event, error) {
			r.Report(res.RawArgs)
			return nil, nil
		})

	case HandlerSetTrace:
		if len(res.Args) != 1 {
			return out, fmt.Errorf("set_trace needs one colour: %w", ErrBadArgument)
		}
		return out, s.Act(idx, func(r *robot.Robot) ([]event.Event, error) { return r.SetTrace(res.Args[0]) })

	case HandlerSetSpeed:
		if len(res.Args) != 1 {
			return out, fmt.Errorf("set_speed needs seconds: %w", ErrBadArgument)
		}
		secs, err := strconv.ParseFloat(res.Args[0], 64)
		if err != nil || secs < 0 {
			return out, fmt.Errorf("set_speed %q: %w", res.Args[0], ErrBadArgument)
		}
		return out, s.Act(idx, func(r *robot.Robot) ([]event.Event, error) { return r.SetSpeed(secs) })

	case HandlerReadMessage:
		wait := 0.0
		if len(res.Args) > 0 {
			w, err := strconv.ParseFloat(res.Args[0], 64)
			if err != nil || w < 0 {
				return out, fmt.Errorf("read_message %q: %w", res.Args[0], ErrBadArgument)
			}
			wait = w
		}
		err := s.Act(idx, func(r *robot.Robot) ([]event.Event, error) {
			msg, evs, err := r.ReadMessage(wait)
			out.Output = msg
			return evs, err
		})
		return out, err

	case HandlerCheck:
		cr, err := s.Check(idx)
		if err == nil || errors.Is(err, world.ErrQuotaExceeded) {
			out.Check = &cr
		}
		return out, err
	}
	return out, fmt.Errorf("command %q has no handler %q", cmd.Name, cmd.Handler)
}

// Run parses src and executes it line by line on robot idx of s. Execution
// stops at the first error or when ctx is done.
//
// Postcondition: the returned outcomes cover every line that ran, including
// the failing one.
func (e *Executor) Run(ctx context.Context, s *session.Session, idx int, src string) ([]Outcome, error) {
	prog := ParseProgram(src)
	outcomes := make([]Outcome, 0, len(prog))
	for _, res := range prog {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("line %d: %w", res.Line, err)
		}
		out, err := e.Execute(s, idx, res)
		outcomes = append(outcomes, out)
		if err != nil {
			e.logger.Debug("program stopped",
				zap.Int("line", res.Line),
				zap.String("command", res.Command),
				zap.Error(err),
			)
			return outcomes, fmt.Errorf("line %d: %s: %w", res.Line, res.Command, err)
		}
	}
	return outcomes, nil
}
