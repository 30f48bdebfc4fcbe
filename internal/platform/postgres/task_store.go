package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// taskSelect reads tasks aliased "t" (the alias filter predicates render
// against) with the creator and assignee names.
const taskSelect = `
	SELECT t.id, t.name, t.description, t.status, t.priority,
		t.assignee_id, a.name, t.creator_id, c.name, t.deadline, t.created_at, t.updated_at
	FROM tasks t
	JOIN users c ON c.id = t.creator_id
	LEFT JOIN users a ON a.id = t.assignee_id`

// PostgresTaskStore implements store.TaskStore.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		t                     domain.Task
		description, assignee sql.NullString
		status, priority      string
		assigneeID            sql.NullInt64
		deadline              sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Name, &description, &status, &priority,
		&assigneeID, &assignee, &t.CreatorID, &t.CreatorName, &deadline,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.AssigneeID = int64Ptr(assigneeID)
	t.AssigneeName = assignee.String
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	t.Tags = []domain.Tag{}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create implements store.TaskStore.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (name, description, status, priority, assignee_id, creator_id,
			deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, task.Name, nullString(task.Description), string(task.Status), string(task.Priority),
		nullInt64(task.AssigneeID), task.CreatorID, nullTime(task.Deadline),
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := s.insertTags(ctx, task.ID, task.TagIDs()); err != nil {
		return err
	}

	log.Info("task created", slog.Int64("task_id", task.ID), slog.Int64("creator_id", task.CreatorID))
	return nil
}

func (s *PostgresTaskStore) insertTags(ctx context.Context, taskID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			taskID, tagID)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to link tag",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID),
				slog.Int64("tag_id", tagID))
			return MapError(err)
		}
	}
	return nil
}

// loadTags fills the Tags of every task in one query.
func (s *PostgresTaskStore) loadTags(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Task, len(tasks))
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tt.task_id, g.id, g.name, g.color, g.description, g.created_at, g.updated_at
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id = ANY($1)
		ORDER BY g.name, g.id
	`, ids)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			taskID             int64
			tag                domain.Tag
			color, description sql.NullString
		)
		if err := rows.Scan(&taskID, &tag.ID, &tag.Name, &color, &description,
			&tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return MapError(err)
		}
		tag.Color = color.String
		tag.Description = description.String
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, tag)
		}
	}
	return MapError(rows.Err())
}

// GetByID implements store.TaskStore.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+" WHERE t.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
			slog.String("error", err.Error()), slog.Int64("task_id", id))
		return nil, MapError(err)
	}
	if err := s.loadTags(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// List implements store.TaskStore.
func (s *PostgresTaskStore) List(ctx context.Context, preds []filter.Predicate) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var args filter.Args
	query := taskSelect
	if where := filter.Where(preds, &args); where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY t.id"

	rows, err := s.db.QueryContext(ctx, query, args.Values()...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	if err := s.loadTags(ctx, tasks); err != nil {
		return nil, err
	}

	log.Debug("listed tasks", slog.Int("count", len(tasks)), slog.Int("predicates", len(preds)))
	return tasks, nil
}

// Update implements store.TaskStore.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}
	task.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET name = $1, description = $2, status = $3, priority = $4,
			assignee_id = $5, deadline = $6, updated_at = $7
		WHERE id = $8
	`, task.Name, nullString(task.Description), string(task.Status), string(task.Priority),
		nullInt64(task.AssigneeID), nullTime(task.Deadline), task.UpdatedAt, task.ID)
	if err != nil {
		log.Error("failed to update task", slog.String("error", err.Error()), slog.Int64("task_id", task.ID))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = $1", task.ID); err != nil {
		return MapError(err)
	}
	return s.insertTags(ctx, task.ID, task.TagIDs())
}

// Delete implements store.TaskStore. Children and tag links cascade.
func (s *PostgresTaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()), slog.Int64("task_id", id))
		return MapDeleteError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Stats implements store.TaskStore.
func (s *PostgresTaskStore) Stats(ctx context.Context, assigneeID *int64, now time.Time) (domain.TaskStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'DONE'),
			COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
			COUNT(*) FILTER (WHERE status <> 'DONE' AND deadline IS NOT NULL AND deadline < $1)
		FROM tasks`
	args := []any{now}
	if assigneeID != nil {
		query += " WHERE assignee_id = $2"
		args = append(args, *assigneeID)
	}

	var st domain.TaskStats
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&st.Total, &st.Completed, &st.InProgress, &st.Overdue)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute task stats",
			slog.String("error", err.Error()))
		return domain.TaskStats{}, MapError(err)
	}
	return st, nil
}

// Count implements store.TaskStore.
func (s *PostgresTaskStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}
