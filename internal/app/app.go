// Package app wires configuration into the engine, storage and grading
// components shared by the gridbot binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/config"
	"github.com/cory-johannsen/gridbot/internal/game/command"
	"github.com/cory-johannsen/gridbot/internal/game/session"
	"github.com/cory-johannsen/gridbot/internal/game/world"
	"github.com/cory-johannsen/gridbot/internal/grading"
	"github.com/cory-johannsen/gridbot/internal/scripting"
	"github.com/cory-johannsen/gridbot/internal/storage"
	"github.com/cory-johannsen/gridbot/internal/worldschema"
)

// App holds the wired components.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Catalog  *world.Catalog
	Builder  *session.Builder
	Sessions *session.Manager
	Store    grading.Store
	Runner   *grading.Runner

	closeStore func() error
}

// New loads the world catalog, opens the result store and builds the
// grading runner.
//
// Precondition: cfg must have passed Validate; logger must be non-nil.
// Postcondition: the caller must Close the App.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	start := time.Now()

	var validator world.Validator
	if cfg.Worlds.ValidateSchema {
		v, err := worldschema.New()
		if err != nil {
			return nil, fmt.Errorf("compiling world schema: %w", err)
		}
		validator = v
	}
	catalog, err := world.LoadCatalog(cfg.Worlds.Dir, validator)
	if err != nil {
		return nil, err
	}
	logger.Info("worlds loaded",
		zap.String("dir", cfg.Worlds.Dir),
		zap.Int("count", catalog.Count()),
		zap.Duration("elapsed", time.Since(start)),
	)

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}

	builder := session.NewBuilder(catalog, session.BuilderOptions{
		MaxInstructions: cfg.Engine.MaxInstructions,
		MaxCapacity:     cfg.Engine.MaxCapacity,
		Floating:        cfg.Engine.Floating,
	}, logger)
	sessions := session.NewManager()
	runner := grading.NewRunner(
		builder,
		store,
		scripting.NewRunner(cfg.Scripting.InstructionLimit, logger),
		command.NewExecutor(command.DefaultRegistry(), logger),
		sessions,
		grading.Options{Seed: cfg.Engine.Seed, TraceDir: cfg.Trace.Dir},
		logger,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    catalog,
		Builder:    builder,
		Sessions:   sessions,
		Store:      store,
		Runner:     runner,
		closeStore: closeStore,
	}, nil
}

// Close releases the result store.
func (a *App) Close() error {
	return a.closeStore()
}
