package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/takeatask-api/internal/api"
	apiMiddleware "github.com/phrazzld/takeatask-api/internal/api/middleware"
)

// setupRouter builds the HTTP handler tree from the application services.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore)

	api.RegisterRoutes(r, api.Handlers{
		Auth: api.NewAuthHandler(
			app.userStore,
			app.userService,
			app.jwtService,
			app.passwordVerifier,
			app.logger,
		),
		Users:       api.NewUserHandler(app.userService, app.logger),
		Tags:        api.NewTagHandler(app.tagService, app.logger),
		Tasks:       api.NewTaskHandler(app.taskService, app.logger),
		Subtasks:    api.NewSubtaskHandler(app.subtaskService, app.logger),
		Comments:    api.NewCommentHandler(app.commentService, app.logger),
		Attachments: api.NewAttachmentHandler(app.attachmentService, app.config.Storage.MaxUploadBytes, app.logger),
	}, authMiddleware.Authenticate)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", slog.Any("error", err))
		}
	})

	return r
}
