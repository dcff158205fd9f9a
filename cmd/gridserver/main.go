// Package main provides the gridserver binary: the HTTP and WebSocket API
// for grading robot programs.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/api"
	"github.com/cory-johannsen/gridbot/internal/app"
	"github.com/cory-johannsen/gridbot/internal/config"
	"github.com/cory-johannsen/gridbot/internal/observability"
	"github.com/cory-johannsen/gridbot/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file applied before the config")
	worldsDir := flag.String("worlds", "", "override worlds.dir")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no env file loaded from %s", *envFile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *worldsDir != "" {
		cfg.Worlds.Dir = *worldsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("wiring application", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing result store", zap.Error(err))
		}
	}()

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      api.NewServer(a.Runner, a.Catalog, a.Sessions, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	lc := server.NewLifecycle(logger)
	lc.Add("http", &server.HTTPService{Server: httpSrv, ShutdownTimeout: cfg.HTTP.ShutdownTimeout})

	logger.Info("gridserver ready",
		zap.String("addr", cfg.HTTP.Addr()),
		zap.String("storage", cfg.Storage.Driver),
		zap.Duration("startup", time.Since(start)),
	)
	if err := lc.Run(ctx); err != nil {
		logger.Error("gridserver stopped with error", zap.Error(err))
	}
}
