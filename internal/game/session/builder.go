package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/robot"
	"github.com/cory-johannsen/gridbot/internal/game/world"
)

// LevelHook customises a freshly parsed world before it is rendered.
type LevelHook func(w *world.World) error

// RobotHook customises the first robot of a fresh session.
type RobotHook func(r *robot.Robot) ([]event.Event, error)

// BuilderOptions apply to every session a Builder creates.
type BuilderOptions struct {
	MaxInstructions int
	MaxCapacity     int
	Floating        bool
}

// Builder creates sessions for named levels of a Catalog, applying optional
// per-level hooks. Each session gets its own renderer counter.
type Builder struct {
	catalog *world.Catalog
	opts    BuilderOptions
	logger  *zap.Logger

	mu         sync.Mutex
	counter    int
	levelHooks map[string]LevelHook
	robotHooks map[string]RobotHook
}

// NewBuilder returns a Builder over catalog.
//
// Precondition: catalog and logger must be non-nil.
func NewBuilder(catalog *world.Catalog, opts BuilderOptions, logger *zap.Logger) *Builder {
	return &Builder{
		catalog:    catalog,
		opts:       opts,
		logger:     logger,
		levelHooks: make(map[string]LevelHook),
		robotHooks: make(map[string]RobotHook),
	}
}

// Catalog returns the level catalog.
func (b *Builder) Catalog() *world.Catalog { return b.catalog }

// OnLevel registers fn to run on every world built for level.
func (b *Builder) OnLevel(level string, fn LevelHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levelHooks[level] = fn
}

// OnRobot registers fn to run on the first robot of every session for level.
func (b *Builder) OnRobot(level string, fn RobotHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.robotHooks[level] = fn
}

// Build parses level with src, applies hooks and returns a ready Session
// whose first robot draws a red trace.
//
// Postcondition: Returns a Session or the first construction error.
func (b *Builder) Build(level string, src dice.Source) (*Session, error) {
	b.mu.Lock()
	b.counter++
	counter := b.counter
	levelHook := b.levelHooks[level]
	robotHook := b.robotHooks[level]
	b.mu.Unlock()

	w, err := b.catalog.Build(level, world.Options{
		MaxInstructions: b.opts.MaxInstructions,
		UICounter:       counter,
		Floating:        b.opts.Floating,
	}, src, b.logger)
	if err != nil {
		return nil, err
	}
	if levelHook != nil {
		if err := levelHook(w); err != nil {
			return nil, fmt.Errorf("level %q hook: %w", level, err)
		}
	}

	s, err := New(level, w, b.logger)
	if err != nil {
		return nil, err
	}
	if s.RobotCount() == 0 {
		return s, nil
	}

	if b.opts.MaxCapacity > 0 {
		for i := 0; i < s.RobotCount(); i++ {
			_ = s.Inspect(i, func(r *robot.Robot) error {
				r.SetMaxCapacity(b.opts.MaxCapacity)
				return nil
			})
		}
	}
	err = s.Act(0, func(r *robot.Robot) ([]event.Event, error) {
		evs, err := r.SetTrace(world.DefaultTraceColor)
		if err != nil || robotHook == nil {
			return evs, err
		}
		more, err := robotHook(r)
		return append(evs, more...), err
	})
	if err != nil {
		return nil, fmt.Errorf("initialising robot for %q: %w", level, err)
	}
	b.logger.Debug("session built", zap.String("level", level), zap.String("session", s.ID))
	return s, nil
}
