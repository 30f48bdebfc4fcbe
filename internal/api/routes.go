package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/takeatask-api/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Tags        *TagHandler
	Tasks       *TaskHandler
	Subtasks    *SubtaskHandler
	Comments    *CommentHandler
	Attachments *AttachmentHandler
}

// RegisterRoutes mounts the API on r. authenticate guards every route
// except the auth endpoints.
func RegisterRoutes(r chi.Router, h Handlers, authenticate func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/refresh", h.Auth.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.ListUsers)
				r.With(middleware.RequireAdmin).Post("/", h.Users.CreateUser)
				r.Get("/me", h.Users.Me)
				r.Get("/by-login/{login}", h.Users.GetUserByLogin)
				r.Get("/{id}", h.Users.GetUser)
				r.Put("/{id}", h.Users.UpdateUser)
				r.With(middleware.RequireAdmin).Delete("/{id}", h.Users.DeleteUser)
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", h.Tags.ListTags)
				r.Post("/", h.Tags.CreateTag)
				r.Get("/by-name/{name}", h.Tags.GetTagByName)
				r.Get("/{id}", h.Tags.GetTag)
				r.Put("/{id}", h.Tags.UpdateTag)
				r.Delete("/{id}", h.Tags.DeleteTag)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.ListTasks)
				r.Post("/", h.Tasks.CreateTask)
				r.Get("/stats", h.Tasks.Stats)
				r.Get("/search", h.Tasks.SearchTasks)
				r.Route("/{taskID}", func(r chi.Router) {
					r.Get("/", h.Tasks.GetTask)
					r.Put("/", h.Tasks.UpdateTask)
					r.Delete("/", h.Tasks.DeleteTask)

					r.Route("/subtasks", func(r chi.Router) {
						r.Get("/", h.Subtasks.ListSubtasks)
						r.Post("/", h.Subtasks.CreateSubtask)
						r.Get("/{id}", h.Subtasks.GetSubtask)
						r.Put("/{id}", h.Subtasks.UpdateSubtask)
						r.Delete("/{id}", h.Subtasks.DeleteSubtask)
					})
					r.Route("/comments", func(r chi.Router) {
						r.Get("/", h.Comments.ListComments)
						r.Post("/", h.Comments.CreateComment)
						r.Get("/{id}", h.Comments.GetComment)
						r.Delete("/{id}", h.Comments.DeleteComment)
					})
					r.Route("/attachments", func(r chi.Router) {
						r.Get("/", h.Attachments.ListAttachments)
						r.Post("/", h.Attachments.UploadAttachment)
						r.Get("/{id}", h.Attachments.GetAttachment)
						r.Get("/{id}/download", h.Attachments.DownloadAttachment)
						r.Delete("/{id}", h.Attachments.DeleteAttachment)
					})
				})
			})
		})
	})
}
