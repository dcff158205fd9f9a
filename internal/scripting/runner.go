package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/session"
)

// ErrInstructionLimit is returned when a program exceeds its Lua opcode
// budget. It is distinct from the world instruction quota.
var ErrInstructionLimit = errors.New("scripting: opcode limit exceeded")

// Result describes a finished program run.
type Result struct {
	// Output holds the lines passed to print, in order.
	Output []string `json:"output,omitempty"`
}

// Runner executes Lua programs against session robots. Every run gets a
// fresh sandboxed state, so a Runner is safe for concurrent use.
type Runner struct {
	instLimit int
	logger    *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: logger must be non-nil.
// Postcondition: instLimit <= 0 selects DefaultInstructionLimit.
func NewRunner(instLimit int, logger *zap.Logger) *Runner {
	if logger == nil {
		panic("scripting.NewRunner: logger must not be nil")
	}
	return &Runner{instLimit: instLimit, logger: logger}
}

// Run executes src as the program of robot idx of s.
//
// Postcondition: an engine error that stopped the program is returned
// wrapped so errors.Is matches it; the opcode budget running out returns
// ErrInstructionLimit; cancellation of ctx returns ctx.Err().
func (r *Runner) Run(ctx context.Context, s *session.Session, idx int, src string) (Result, error) {
	L := newSandbox(ctx, r.instLimit)
	defer L.Close()

	b := &binding{sess: s, idx: idx, logger: r.logger.With(zap.String("session", s.ID))}
	b.registerModules(L.LState)

	err := L.DoString(src)
	res := Result{Output: b.output}
	if err == nil {
		return res, nil
	}

	switch {
	case b.lastErr != nil && strings.Contains(err.Error(), b.lastErr.Error()):
		return res, fmt.Errorf("scripting: %w", b.lastErr)
	case ctx.Err() != nil:
		return res, fmt.Errorf("scripting: %w", ctx.Err())
	case L.budget.exhausted():
		return res, ErrInstructionLimit
	default:
		return res, fmt.Errorf("scripting: %w", err)
	}
}

// RunFile reads a program from path and runs it like Run.
func (r *Runner) RunFile(ctx context.Context, s *session.Session, idx int, path string) (Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return r.Run(ctx, s, idx, string(src))
}
