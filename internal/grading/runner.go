package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/command"
	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
	"github.com/cory-johannsen/gridbot/internal/observability"
	"github.com/cory-johannsen/gridbot/internal/scripting"
	"github.com/cory-johannsen/gridbot/internal/trace"
)

// Language selects how a program's source is interpreted.
type Language string

// Program languages.
const (
	LanguageLua      Language = "lua"
	LanguageCommands Language = "commands"
)

// ErrUnknownLanguage is returned for a Request naming no Language.
var ErrUnknownLanguage = errors.New("unknown program language")

// Request describes one program to grade.
type Request struct {
	World    string   `json:"world"`
	Seed     uint64   `json:"seed,omitempty"`
	Language Language `json:"language"`
	Source   string   `json:"source"`
}

// Run is a finished, graded program run.
type Run struct {
	Result  Result
	Session *session.Session
	// Output holds printed lines (lua) or command output (commands).
	Output []string
	// TracePath is set when the run was traced to disk.
	TracePath string
}

// Options configure a Runner.
type Options struct {
	// Seed fixes the world seed of requests that carry none; 0 draws a
	// fresh seed per run.
	Seed uint64
	// TraceDir receives one trace per run when non-empty.
	TraceDir string
}

// Runner builds a session for each Request, runs the program on robot 0,
// checks the goals and stores the result.
type Runner struct {
	builder  *session.Builder
	store    Store
	lua      *scripting.Runner
	commands *command.Executor
	sessions *session.Manager
	opts     Options
	logger   *zap.Logger
}

// NewRunner wires a Runner. sessions may be nil; when set, every finished
// session is registered under its result ID.
//
// Precondition: builder, store, lua, commands and logger must be non-nil.
func NewRunner(builder *session.Builder, store Store, lua *scripting.Runner, commands *command.Executor, sessions *session.Manager, opts Options, logger *zap.Logger) *Runner {
	return &Runner{
		builder:  builder,
		store:    store,
		lua:      lua,
		commands: commands,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

// Store returns the result store.
func (r *Runner) Store() Store { return r.store }

func (r *Runner) seed(req Request) uint64 {
	switch {
	case req.Seed != 0:
		return req.Seed
	case r.opts.Seed != 0:
		return r.opts.Seed
	default:
		return uint64(dice.NewCryptoSource().Intn(math.MaxInt32)) + 1
	}
}

// Run grades req. A program that stops on an engine error is still graded;
// its error is kept in Result.ProgramError. Only construction, storage,
// tracing and cancellation failures are returned.
//
// Postcondition: on success the Result is saved and Run.Session holds the
// full event transcript.
func (r *Runner) Run(ctx context.Context, req Request) (*Run, error) {
	if req.Language != LanguageLua && req.Language != LanguageCommands {
		return nil, fmt.Errorf("%q: %w", req.Language, ErrUnknownLanguage)
	}
	seed := r.seed(req)
	s, err := r.builder.Build(req.World, dice.NewSeededSource(seed))
	if err != nil {
		return nil, fmt.Errorf("building world %q: %w", req.World, err)
	}
	logger := r.logger.With(observability.RunFields(s.ID, req.World, seed)...)
	if s.RobotCount() == 0 {
		return nil, fmt.Errorf("world %q has no robot", req.World)
	}

	start := time.Now()
	output, progErr := r.execute(ctx, s, req)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("grading %s: %w", s.ID, ctx.Err())
	}

	verdict, checked := s.Verdict()
	if !checked {
		// The verdict is valid even when sending the message hits the quota.
		verdict, err = s.Check(0)
		if err != nil && !errors.Is(err, world.ErrQuotaExceeded) {
			return nil, fmt.Errorf("checking %s: %w", s.ID, err)
		}
	}

	res := Result{
		ID:           s.ID,
		WorldName:    req.World,
		Seed:         seed,
		Language:     req.Language,
		Passed:       verdict.Passed,
		Goals:        GoalsFromCheck(verdict),
		Instructions: s.World().InstructionCount(),
		CreatedAt:    time.Now().UTC(),
	}
	_ = s.Inspect(0, func(rb *robot.Robot) error {
		res.Moves = rb.Moves()
		return nil
	})
	if progErr != nil {
		res.ProgramError = progErr.Error()
	}

	run := &Run{Result: res, Session: s, Output: output}
	if r.opts.TraceDir != "" {
		run.TracePath, err = r.writeTrace(s, seed)
		if err != nil {
			return nil, err
		}
	}
	if err := r.store.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("saving result %s: %w", res.ID, err)
	}
	if r.sessions != nil {
		if err := r.sessions.Add(s); err != nil {
			logger.Warn("session not registered", zap.Error(err))
		}
	}
	logger.Info("program graded",
		zap.String("language", string(req.Language)),
		zap.Bool("passed", res.Passed),
		zap.Int("instructions", res.Instructions),
		zap.NamedError("program_error", progErr),
		zap.Duration("elapsed", time.Since(start)),
	)
	return run, nil
}

func (r *Runner) execute(ctx context.Context, s *session.Session, req Request) ([]string, error) {
	if req.Language == LanguageLua {
		res, err := r.lua.Run(ctx, s, 0, req.Source)
		return res.Output, err
	}
	outcomes, err := r.commands.Run(ctx, s, 0, req.Source)
	var output []string
	for _, o := range outcomes {
		if o.Output != "" {
			output = append(output, o.Output)
		}
	}
	return output, err
}

func (r *Runner) writeTrace(s *session.Session, seed uint64) (string, error) {
	path := trace.Path(r.opts.TraceDir, s.ID)
	w, err := trace.Create(path, trace.Header{
		Session:   s.ID,
		World:     s.WorldName,
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("creating trace: %w", err)
	}
	if err := w.Write(s.Events()...); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing trace: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing trace: %w", err)
	}
	return path, nil
}
