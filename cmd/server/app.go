package main

import (
	"database/sql"
	"log/slog"

	"github.com/air-con/task-manager/internal/config"
	"github.com/air-con/task-manager/internal/notify"
	"github.com/air-con/task-manager/internal/platform/postgres"
	"github.com/air-con/task-manager/internal/queue"
	"github.com/air-con/task-manager/internal/scheduler"
	"github.com/air-con/task-manager/internal/service"
)

// application holds the wired dependencies for the server process.
type application struct {
	config *config.Config
	logger *slog.Logger

	db          *sql.DB
	taskStore   *postgres.TaskStore
	resultStore *postgres.ResultStore

	publisher *queue.AsynqPublisher
	probe     *queue.DepthProbe

	notifySwitch *notify.Switch
	notifier     *notify.WebhookNotifier

	ingestService   *service.IngestService
	priorityService *service.PriorityService
	statusService   *service.StatusService

	scheduler *scheduler.Scheduler
}

// newApplication wires every component from configuration. The database
// connection is established here; periodic loops are registered but not
// started.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewTaskStore(db)
	app.resultStore = postgres.NewResultStore(db)

	app.publisher = queue.NewAsynqPublisher(cfg.Queue, logger)
	app.probe = queue.NewDepthProbe(cfg.Queue, logger)

	app.notifySwitch = notify.NewSwitch(cfg.Notify.Enabled)
	app.notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, app.notifySwitch, logger)

	app.ingestService = service.NewIngestService(app.taskStore, logger)
	app.priorityService = service.NewPriorityService(app.taskStore, app.publisher, logger)
	app.statusService = service.NewStatusService(app.taskStore, logger)

	if err := app.setupScheduler(); err != nil {
		app.cleanup()
		return nil, err
	}

	return app, nil
}

// setupScheduler registers the periodic loops on their configured
// schedules.
func (app *application) setupScheduler() error {
	app.scheduler = scheduler.New(app.logger)

	replenisher := scheduler.NewReplenisher(
		app.taskStore,
		app.publisher,
		app.notifier,
		app.config.Scheduler,
		app.config.Queue.DefaultPriority,
		app.logger,
	)
	if err := app.scheduler.Register("replenish",
		scheduler.EverySpec(app.config.Scheduler.ReplenishInterval),
		replenisher.Run); err != nil {
		return err
	}

	reconciler := scheduler.NewReconciler(
		app.taskStore,
		app.resultStore,
		app.statusService,
		app.notifier,
		app.logger,
	)
	if err := app.scheduler.Register("reconcile",
		scheduler.EverySpec(app.config.Scheduler.ReconcileInterval),
		reconciler.Run); err != nil {
		return err
	}

	archiver := scheduler.NewArchiver(
		app.taskStore,
		newRedisClient(app.config.Queue),
		app.config.Scheduler.ArchiveAge,
		app.logger,
	)
	return app.scheduler.Register("archive",
		app.config.Scheduler.ArchiveSpec,
		archiver.Run)
}

// cleanup releases the application's external connections.
func (app *application) cleanup() {
	if app.scheduler != nil {
		<-app.scheduler.Stop().Done()
	}
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("failed to close queue publisher", "error", err)
		}
	}
	if app.probe != nil {
		if err := app.probe.Close(); err != nil {
			app.logger.Error("failed to close queue probe", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
