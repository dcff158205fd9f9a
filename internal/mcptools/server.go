// Package mcptools lets an MCP client drive one robot step by step.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
	"github.com/cory-johannsen/gridbot/internal/grading"
)

// ErrNoWorld is reported by robot tools before load_world succeeds.
var ErrNoWorld = errors.New("no world loaded; call load_world first")

const instructions = `gridbot - drive a robot through a grid world.

1. Call load_world with one of the listed world names.
2. Use move, turn_left, take, put, build_wall, remove_wall and report to act.
   The robot can only turn left; turn three times to face right.
3. Use look to see the robot's position, surroundings and instruction count.
4. Call check once at the end; it reports which goals passed.

Every action spends instructions. Once the quota is spent the world halts.`

// StepResult is the text body of every robot tool result.
type StepResult struct {
	Events []event.Event  `json:"events"`
	State  session.State  `json:"state"`
	Output string         `json:"output,omitempty"`
	Check  *CheckResponse `json:"check,omitempty"`
}

// CheckResponse is the verdict returned by the check tool.
type CheckResponse struct {
	Passed bool                  `json:"passed"`
	Goals  []grading.GoalOutcome `json:"goals"`
}

// Server hosts the robot tools over one session at a time.
type Server struct {
	builder *session.Builder
	logger  *zap.Logger
	mcp     *server.MCPServer
	tools   map[string]server.ToolHandlerFunc

	mu      sync.Mutex
	current *session.Session
}

// New creates a Server whose load_world tool builds sessions with builder.
//
// Precondition: builder and logger must be non-nil.
func New(builder *session.Builder, version string, logger *zap.Logger) *Server {
	s := &Server{builder: builder, logger: logger, tools: make(map[string]server.ToolHandlerFunc)}
	s.mcp = server.NewMCPServer(
		"gridbot",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves the tools on stdin and stdout until the client leaves.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func noArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}}
}

func (s *Server) registerTools() {
	s.addTool(mcp.Tool{
		Name:        "list_worlds",
		Description: "List the worlds that can be loaded",
		InputSchema: noArgs(),
	}, s.handleListWorlds)

	s.addTool(mcp.Tool{
		Name:        "load_world",
		Description: "Start a fresh session in the named world, replacing any current one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"world": map[string]interface{}{
					"type":        "string",
					"description": "World name from list_worlds",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Seed for randomised worlds (optional)",
				},
			},
			Required: []string{"world"},
		},
	}, s.handleLoadWorld)

	s.addTool(mcp.Tool{
		Name:        "move",
		Description: "Move forward; stops with an error at a wall",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": "Cells to move (default 1)",
					"minimum":     0,
				},
			},
		},
	}, s.action(func(r *robot.Robot, args map[string]interface{}) ([]event.Event, error) {
		steps := 1
		if v, ok := args["steps"].(float64); ok {
			steps = int(v)
		}
		return r.Move(steps)
	}))

	s.addTool(mcp.Tool{
		Name:        "turn_left",
		Description: "Turn a quarter turn counter-clockwise",
		InputSchema: noArgs(),
	}, s.action(func(r *robot.Robot, _ map[string]interface{}) ([]event.Event, error) {
		return r.TurnLeft()
	}))

	s.addTool(mcp.Tool{
		Name:        "take",
		Description: "Pick up one object from the current cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"object": map[string]interface{}{
					"type":        "string",
					"description": "Object type to take; empty takes any",
				},
			},
		},
	}, s.action(func(r *robot.Robot, args map[string]interface{}) ([]event.Event, error) {
		name, _ := args["object"].(string)
		return r.Take(name)
	}))

	s.addTool(mcp.Tool{
		Name:        "put",
		Description: "Drop the most recently taken object on the current cell",
		InputSchema: noArgs(),
	}, s.action(func(r *robot.Robot, _ map[string]interface{}) ([]event.Event, error) {
		return r.Put()
	}))

	s.addTool(mcp.Tool{
		Name:        "build_wall",
		Description: "Build a wall in front of the robot",
		InputSchema: noArgs(),
	}, s.action(func(r *robot.Robot, _ map[string]interface{}) ([]event.Event, error) {
		return r.BuildWall()
	}))

	s.addTool(mcp.Tool{
		Name:        "remove_wall",
		Description: "Remove the wall in front of the robot if it is removable",
		InputSchema: noArgs(),
	}, s.action(func(r *robot.Robot, _ map[string]interface{}) ([]event.Event, error) {
		return r.RemoveWall()
	}))

	s.addTool(mcp.Tool{
		Name:        "report",
		Description: "Record a report message; reporter goals compare against it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Text to report",
				},
			},
			Required: []string{"message"},
		},
	}, s.action(func(r *robot.Robot, args map[string]interface{}) ([]event.Event, error) {
		msg, _ := args["message"].(string)
		r.Report(msg)
		return nil, nil
	}))

	s.addTool(mcp.Tool{
		Name:        "look",
		Description: "Describe the robot and its surroundings without acting",
		InputSchema: noArgs(),
	}, s.handleLook)

	s.addTool(mcp.Tool{
		Name:        "check",
		Description: "Evaluate the goals; allowed once per world",
		InputSchema: noArgs(),
	}, s.handleCheck)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools[tool.Name] = handler
	s.mcp.AddTool(tool, handler)
}

// Call invokes the named tool directly, bypassing the transport.
func (s *Server) Call(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return h(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func (s *Server) session() (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoWorld
	}
	return s.current, nil
}

func respond(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) step(sess *session.Session, before int, output string, check *CheckResponse) (*mcp.CallToolResult, error) {
	state, err := sess.State(0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evs := sess.Events()
	return respond(StepResult{Events: evs[before:], State: state, Output: output, Check: check})
}

// action adapts a robot call into a tool handler that reports the new
// events and the resulting state.
func (s *Server) action(fn func(r *robot.Robot, args map[string]interface{}) ([]event.Event, error)) server.ToolHandlerFunc {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, err := s.session()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := arguments(request)
		before := len(sess.Events())
		err = sess.Act(0, func(r *robot.Robot) ([]event.Event, error) { return fn(r, args) })
		if err != nil {
			s.logger.Debug("tool action failed", zap.String("tool", request.Params.Name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.step(sess, before, "", nil)
	}
}

func (s *Server) handleListWorlds(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(map[string]any{"worlds": s.builder.Catalog().Names()})
}

func (s *Server) handleLoadWorld(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, _ := args["world"].(string)
	if name == "" {
		return mcp.NewToolResultError("world is required"), nil
	}
	src := dice.NewCryptoSource()
	if v, ok := args["seed"].(float64); ok && v > 0 {
		src = dice.NewSeededSource(uint64(v))
	}
	sess, err := s.builder.Build(name, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sess.RobotCount() == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("world %q has no robot", name)), nil
	}

	s.mu.Lock()
	if s.current != nil {
		s.current.Close()
	}
	s.current = sess
	s.mu.Unlock()

	s.logger.Info("world loaded", zap.String("world", name), zap.String("session", sess.ID))
	return s.step(sess, 0, sess.World().Description(), nil)
}

func (s *Server) handleLook(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.step(sess, len(sess.Events()), "", nil)
}

func (s *Server) handleCheck(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	before := len(sess.Events())
	res, err := sess.Check(0)
	if err != nil && !errors.Is(err, world.ErrQuotaExceeded) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.step(sess, before, "", &CheckResponse{Passed: res.Passed, Goals: grading.GoalsFromCheck(res)})
}
