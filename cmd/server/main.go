// Package main implements the task lifecycle server: it ingests work with
// duplicate suppression, keeps the queue replenished from the backlog, and
// reconciles execution results back into durable task state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/air-con/task-manager/internal/config"
	"github.com/air-con/task-manager/internal/platform/logger"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply pending database migrations before serving")
	flag.Parse()

	app, err := initializeApp(*migrate)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.scheduler.Start()

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging, and wires the
// application's dependencies.
func initializeApp(migrate bool) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"low_water_mark", cfg.Scheduler.LowWaterMark,
		"high_water_mark", cfg.Scheduler.HighWaterMark,
		"auth_enabled", cfg.Auth.APIKeyHash != "")

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := runMigrations(app.db, appLogger); err != nil {
			app.cleanup()
			return nil, err
		}
	}

	return app, nil
}
