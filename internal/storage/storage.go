// Package storage selects the grading result store named by configuration.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/config"
	"github.com/cory-johannsen/gridbot/internal/grading"
	"github.com/cory-johannsen/gridbot/internal/storage/postgres"
	"github.com/cory-johannsen/gridbot/internal/storage/sqlite"
)

// Open returns the store for cfg.Storage.Driver and a function releasing it.
//
// Precondition: cfg must have passed Validate.
// Postcondition: close is never nil when err is nil.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (grading.Store, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("grading results in postgres",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
		)
		return pool.Results(), func() error { pool.Close(); return nil }, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("grading results in sqlite", zap.String("path", cfg.Storage.SQLitePath))
		return s, s.Close, nil
	case config.DriverNone, "":
		logger.Info("grading results kept in memory")
		return grading.NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
