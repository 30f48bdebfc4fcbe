package api

import (
	"strings"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// Authentication

// RegisterRequest is the payload of POST /api/auth/register.
type RegisterRequest struct {
	Name       string `json:"name"        validate:"required,min=3,max=100"`
	Login      string `json:"login"       validate:"required,min=3,max=50"`
	Email      string `json:"email"       validate:"required,email,max=100"`
	Password   string `json:"password"    validate:"required,min=6,max=72"`
	JobTitle   string `json:"job_title"   validate:"max=100"`
	Phone      string `json:"phone"       validate:"omitempty,min=10,max=20"`
	Department string `json:"department"  validate:"max=100"`
}

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the payload of POST /api/auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserSummary identifies the authenticated user in AuthResponse.
type UserSummary struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Login string      `json:"login"`
	Role  domain.Role `json:"role"`
}

// AuthResponse is returned by login, registration and refresh.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    string      `json:"expires_at"`
	User         UserSummary `json:"user"`
}

// Users

// CreateUserRequest is the payload of POST /api/users. An empty role
// creates a standard user.
type CreateUserRequest struct {
	RegisterRequest
	Role        string             `json:"role" validate:"omitempty,oneof=STANDARD_USER ADMINISTRATOR_MANAGER"`
	Preferences domain.Preferences `json:"preferences"`
}

func (req *RegisterRequest) toInput() service.NewUserInput {
	return service.NewUserInput{
		Name:       req.Name,
		Login:      req.Login,
		Email:      req.Email,
		Password:   req.Password,
		JobTitle:   req.JobTitle,
		Phone:      req.Phone,
		Department: req.Department,
	}
}

func (req *CreateUserRequest) toInput() (service.NewUserInput, error) {
	in := req.RegisterRequest.toInput()
	in.Preferences = req.Preferences
	if req.Role != "" {
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			return in, err
		}
		in.Role = role
	}
	return in, nil
}

// UpdateUserRequest is the payload of PUT /api/users/{id}. Absent keys are
// left unchanged and null clears optional fields.
type UpdateUserRequest struct {
	Name        patch.Field[string]             `json:"name"`
	Login       patch.Field[string]             `json:"login"`
	Email       patch.Field[string]             `json:"email"`
	Password    patch.Field[string]             `json:"password"`
	Role        patch.Field[string]             `json:"role"`
	JobTitle    patch.Field[string]             `json:"job_title"`
	Phone       patch.Field[string]             `json:"phone"`
	Department  patch.Field[string]             `json:"department"`
	Active      patch.Field[bool]               `json:"active"`
	Preferences patch.Field[domain.Preferences] `json:"preferences"`
}

func (req *UpdateUserRequest) toPatch() (service.UserPatch, error) {
	p := service.UserPatch{
		Name:        req.Name,
		Login:       req.Login,
		Email:       req.Email,
		Password:    req.Password,
		JobTitle:    req.JobTitle,
		Phone:       req.Phone,
		Department:  req.Department,
		Active:      req.Active,
		Preferences: req.Preferences,
	}
	switch {
	case req.Role.IsNull():
		p.Role = patch.Null[domain.Role]()
	case req.Role.HasValue():
		raw, _ := req.Role.Value()
		role, err := domain.ParseRole(raw)
		if err != nil {
			return p, err
		}
		p.Role = patch.Set(role)
	}
	return p, nil
}

// Tags

// TagRequest is the payload of POST /api/tags.
type TagRequest struct {
	Name        string `json:"name"        validate:"required,min=2,max=50"`
	Color       string `json:"color"       validate:"omitempty,hexcolor"`
	Description string `json:"description" validate:"max=255"`
}

// UpdateTagRequest is the payload of PUT /api/tags/{id}.
type UpdateTagRequest struct {
	Name        patch.Field[string] `json:"name"`
	Color       patch.Field[string] `json:"color"`
	Description patch.Field[string] `json:"description"`
}

// Tasks

// TaskRequest is the payload of POST /api/tasks. Without an assignee the
// task is assigned to its creator.
type TaskRequest struct {
	Name        string   `json:"name"        validate:"required,min=3,max=150"`
	Description string   `json:"description"`
	Status      string   `json:"status"      validate:"omitempty,oneof=TODO IN_PROGRESS BLOCKED IN_REVIEW DONE"`
	Priority    string   `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeID  *int64   `json:"assignee_id" validate:"omitempty,gt=0"`
	Deadline    string   `json:"deadline"`
	TagIDs      []int64  `json:"tag_ids"     validate:"dive,gt=0"`
	TagNames    []string `json:"tag_names"   validate:"dive,max=50"`
}

func (req *TaskRequest) toInput() (service.TaskInput, error) {
	in := service.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		AssigneeID:  req.AssigneeID,
		TagIDs:      req.TagIDs,
		TagNames:    req.TagNames,
	}
	if strings.TrimSpace(req.Deadline) != "" {
		d, err := parseDeadline(req.Deadline, false)
		if err != nil {
			return in, err
		}
		in.Deadline = &d
	}
	return in, nil
}

// UpdateTaskRequest is the payload of PUT /api/tasks/{id}. A null
// assignee_id unassigns the task and a null deadline clears it. Sending
// tag_ids or tag_names replaces the tag set.
type UpdateTaskRequest struct {
	Name        patch.Field[string]   `json:"name"`
	Description patch.Field[string]   `json:"description"`
	Status      patch.Field[string]   `json:"status"`
	Priority    patch.Field[string]   `json:"priority"`
	AssigneeID  patch.Field[int64]    `json:"assignee_id"`
	Deadline    patch.Field[string]   `json:"deadline"`
	TagIDs      patch.Field[[]int64]  `json:"tag_ids"`
	TagNames    patch.Field[[]string] `json:"tag_names"`
}

func (req *UpdateTaskRequest) toPatch() (service.TaskPatch, error) {
	p := service.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		TagIDs:      req.TagIDs,
		TagNames:    req.TagNames,
	}
	if req.Status.IsNull() || req.Priority.IsNull() {
		return p, newBadRequest("status and priority cannot be null")
	}
	if raw, ok := req.Status.Value(); ok {
		st, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return p, err
		}
		p.Status = patch.Set(st)
	}
	if raw, ok := req.Priority.Value(); ok {
		pr, err := domain.ParseTaskPriority(raw)
		if err != nil {
			return p, err
		}
		p.Priority = patch.Set(pr)
	}
	switch {
	case req.Deadline.IsNull():
		p.Deadline = patch.Null[time.Time]()
	case req.Deadline.HasValue():
		raw, _ := req.Deadline.Value()
		d, err := parseDeadline(raw, false)
		if err != nil {
			return p, err
		}
		p.Deadline = patch.Set(d)
	}
	return p, nil
}

// TaskDetailResponse is a task with its children, returned by GET /api/tasks/{id}.
type TaskDetailResponse struct {
	*domain.Task
	Subtasks    []*domain.Subtask    `json:"subtasks"`
	Comments    []*domain.Comment    `json:"comments"`
	Attachments []*domain.Attachment `json:"attachments"`
}

func newTaskDetailResponse(d *service.TaskDetail) TaskDetailResponse {
	return TaskDetailResponse{
		Task:        d.Task,
		Subtasks:    orEmpty(d.Subtasks),
		Comments:    orEmpty(d.Comments),
		Attachments: orEmpty(d.Attachments),
	}
}

// orEmpty keeps JSON lists as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Subtasks and comments

// SubtaskRequest is the payload of POST /api/tasks/{taskID}/subtasks.
type SubtaskRequest struct {
	Description string `json:"description" validate:"required,max=255"`
	AssigneeID  *int64 `json:"assignee_id" validate:"omitempty,gt=0"`
}

// UpdateSubtaskRequest is the payload of PUT .../subtasks/{id}.
type UpdateSubtaskRequest struct {
	Description patch.Field[string] `json:"description"`
	Completed   patch.Field[bool]   `json:"completed"`
	AssigneeID  patch.Field[int64]  `json:"assignee_id"`
}

// CommentRequest is the payload of POST /api/tasks/{taskID}/comments.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}
