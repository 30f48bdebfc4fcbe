package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/takeatask-api/internal/config"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// DefaultTags is the catalog every new installation starts with.
var DefaultTags = []struct {
	Name        string
	Color       string
	Description string
}{
	{"Backend", "#3B82F6", "Server-side and API work"},
	{"Frontend", "#10B981", "User interface work"},
	{"Infraestrutura", "#F59E0B", "Infrastructure and deployment"},
	{"Urgente", "#EF4444", "Needs attention now"},
	{"Segurança", "#8B5CF6", "Security work"},
	{"Database", "#6366F1", "Schema and query work"},
	{"UI/UX", "#EC4899", "Design and usability"},
	{"Documentação", "#78716C", "Documentation"},
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	Tags  int
	Users int
	Tasks int
}

// Seeder fills an empty installation with default data. Running it again
// creates nothing that already exists.
type Seeder struct {
	users  store.UserStore
	tags   store.TagStore
	tasks  store.TaskStore
	tx     store.Transactor
	cfg    config.SeedConfig
	logger *slog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(
	users store.UserStore,
	tags store.TagStore,
	tasks store.TaskStore,
	tx store.Transactor,
	cfg config.SeedConfig,
	logger *slog.Logger,
) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		users:  users,
		tags:   tags,
		tasks:  tasks,
		tx:     tx,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "seeder")),
	}
}

// Seed inserts the default tags, the configured accounts and, when no task
// exists yet, two sample tasks.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var res SeedResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		tags := s.tags.WithTx(tx)
		tasks := s.tasks.WithTx(tx)

		byName := make(map[string]*domain.Tag, len(DefaultTags))
		for _, d := range DefaultTags {
			tag, err := tags.GetByName(ctx, d.Name)
			if errors.Is(err, store.ErrTagNotFound) {
				tag, err = domain.NewTag(d.Name, d.Color, d.Description)
				if err != nil {
					return err
				}
				if err := tags.Create(ctx, tag); err != nil {
					return err
				}
				res.Tags++
			}
			if err != nil {
				return err
			}
			byName[tag.Name] = tag
		}

		admin, created, err := s.ensureUser(ctx, users, "Administrator", s.cfg.AdminLogin,
			s.cfg.AdminEmail, s.cfg.AdminPassword, domain.RoleAdministratorManager)
		if err != nil {
			return err
		}
		if created {
			res.Users++
		}
		member, created, err := s.ensureUser(ctx, users, "Standard User", s.cfg.UserLogin,
			s.cfg.UserEmail, s.cfg.UserPassword, domain.RoleStandardUser)
		if err != nil {
			return err
		}
		if created {
			res.Users++
		}

		if admin == nil || member == nil {
			return nil
		}
		n, err := tasks.Count(ctx)
		if err != nil || n > 0 {
			return err
		}
		res.Tasks, err = seedTasks(ctx, tasks, admin, member, byName)
		return err
	})
	if err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		return SeedResult{}, NewServiceError("seed", "seed", err)
	}

	log.Info("seed complete",
		slog.Int("tags", res.Tags),
		slog.Int("users", res.Users),
		slog.Int("tasks", res.Tasks))
	return res, nil
}

// ensureUser returns the account with login, creating it when a password is
// configured. It returns nil without error when the account is neither
// present nor configured.
func (s *Seeder) ensureUser(
	ctx context.Context,
	users store.UserStore,
	name, login, email, password string,
	role domain.Role,
) (*domain.User, bool, error) {
	if login == "" {
		return nil, false, nil
	}
	u, err := users.GetByLogin(ctx, login)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, err
	}
	if password == "" {
		logger.FromContextOrDefault(ctx, s.logger).Warn("skipping seed account without password",
			slog.String("login", login))
		return nil, false, nil
	}
	u, err = domain.NewUser(name, login, email, password, role)
	if err != nil {
		return nil, false, err
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func seedTasks(
	ctx context.Context,
	tasks store.TaskStore,
	admin, member *domain.User,
	tags map[string]*domain.Tag,
) (int, error) {
	deadline := time.Now().UTC().AddDate(0, 0, 7)
	samples := []struct {
		name, description string
		status            domain.TaskStatus
		priority          domain.TaskPriority
		assignee          int64
		tags              []string
	}{
		{
			name:        "Configure the development environment",
			description: "Install the toolchain and run the service locally.",
			status:      domain.StatusInProgress,
			priority:    domain.PriorityHigh,
			assignee:    member.ID,
			tags:        []string{"Infraestrutura", "Documentação"},
		},
		{
			name:        "Review the task API",
			description: "Check the endpoints against the client requirements.",
			status:      domain.StatusToDo,
			priority:    domain.PriorityMedium,
			assignee:    admin.ID,
			tags:        []string{"Backend"},
		},
	}

	for _, smp := range samples {
		assignee := smp.assignee
		task, err := domain.NewTask(admin.ID, smp.name, smp.description, smp.status, smp.priority, &assignee, &deadline)
		if err != nil {
			return 0, err
		}
		for _, name := range smp.tags {
			if tag, ok := tags[name]; ok {
				task.Tags = append(task.Tags, *tag)
			}
		}
		if err := tasks.Create(ctx, task); err != nil {
			return 0, err
		}
	}
	return len(samples), nil
}
