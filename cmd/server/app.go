package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/takeatask-api/internal/config"
	"github.com/phrazzld/takeatask-api/internal/events"
	"github.com/phrazzld/takeatask-api/internal/notify"
	"github.com/phrazzld/takeatask-api/internal/platform/blob"
	"github.com/phrazzld/takeatask-api/internal/platform/postgres"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/service/auth"
	"github.com/phrazzld/takeatask-api/internal/store"
)

const dispatcherStopTimeout = 10 * time.Second

// application holds the shared dependencies and releases them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	tx               store.Transactor
	userStore        store.UserStore
	tagStore         store.TagStore
	taskStore        store.TaskStore
	subtaskStore     store.SubtaskStore
	commentStore     store.CommentStore
	attachmentStore  store.AttachmentStore
	blobs            blob.Store
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	userService       service.UserService
	tagService        service.TagService
	taskService       service.TaskService
	subtaskService    service.SubtaskService
	commentService    service.CommentService
	attachmentService service.AttachmentService

	eventEmitter events.EventEmitter
	dispatcher   *notify.Dispatcher
}

// newApplication wires stores, services and the notification pipeline on top
// of an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		tx:     store.NewDBTransactor(db),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	app.tagStore = postgres.NewPostgresTagStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.subtaskStore = postgres.NewPostgresSubtaskStore(db, logger)
	app.commentStore = postgres.NewPostgresCommentStore(db, logger)
	app.attachmentStore = postgres.NewPostgresAttachmentStore(db, logger)

	app.blobs, err = blob.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize attachment storage: %w", err)
	}

	app.eventEmitter = events.NopEmitter{}
	if cfg.Notify.Enabled {
		app.dispatcher = notify.NewDispatcher(
			notify.NewSender(cfg.Notify, logger),
			notify.DispatcherConfig{
				QueueSize:   cfg.Notify.QueueSize,
				WorkerCount: cfg.Notify.WorkerCount,
			},
			logger,
		)
		emitter := events.NewInMemoryEventEmitter(logger)
		emitter.RegisterHandler(notify.NewHandler(app.userStore, app.dispatcher, logger))
		app.eventEmitter = emitter
		logger.Info("notifications enabled",
			slog.Bool("smtp", cfg.Notify.SMTPHost != ""),
			slog.Int("workers", cfg.Notify.WorkerCount))
	}

	app.userService = service.NewUserService(app.userStore, app.tx, logger)
	app.tagService = service.NewTagService(app.tagStore, app.tx, logger)
	app.taskService = service.NewTaskService(
		service.TaskStores{
			Tasks:       app.taskStore,
			Tags:        app.tagStore,
			Users:       app.userStore,
			Subtasks:    app.subtaskStore,
			Comments:    app.commentStore,
			Attachments: app.attachmentStore,
		},
		app.blobs,
		app.eventEmitter,
		app.tx,
		logger,
	)
	app.subtaskService = service.NewSubtaskService(app.taskStore, app.subtaskStore, app.userStore, app.tx, logger)
	app.commentService = service.NewCommentService(app.taskStore, app.commentStore, app.tx, logger)
	app.attachmentService = service.NewAttachmentService(
		app.taskStore, app.attachmentStore, app.blobs, app.tx, logger)

	logger.Info("application initialized")
	return app, nil
}

// seed inserts the default data set.
func (app *application) seed(ctx context.Context) error {
	seeder := service.NewSeeder(app.userStore, app.tagStore, app.taskStore, app.tx, app.config.Seed, app.logger)
	if _, err := seeder.Seed(ctx); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}

// Run starts the notification workers and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if app.dispatcher != nil {
		app.dispatcher.Start()
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains pending notifications and closes the database.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), dispatcherStopTimeout)
		if err := app.dispatcher.Stop(ctx); err != nil {
			app.logger.Warn("notification dispatcher did not stop cleanly", slog.Any("error", err))
		}
		cancel()
	}

	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}
