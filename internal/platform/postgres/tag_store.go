package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

const tagColumns = `id, name, color, description, created_at, updated_at`

// PostgresTagStore implements store.TagStore.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTagStore creates a new PostgreSQL implementation of the TagStore interface.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTagStore{
		db:     db,
		logger: logger.With(slog.String("component", "tag_store")),
	}
}

var _ store.TagStore = (*PostgresTagStore)(nil)

// WithTx implements store.TagStore.
func (s *PostgresTagStore) WithTx(tx *sql.Tx) store.TagStore {
	return &PostgresTagStore{db: tx, logger: s.logger}
}

func scanTag(row scanner) (*domain.Tag, error) {
	var (
		t                  domain.Tag
		color, description sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &color, &description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Color = color.String
	t.Description = description.String
	return &t, nil
}

// Create implements store.TagStore.
func (s *PostgresTagStore) Create(ctx context.Context, tag *domain.Tag) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tag.Validate(); err != nil {
		return err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, color, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, tag.Name, nullString(tag.Color), nullString(tag.Description), tag.CreatedAt, tag.UpdatedAt,
	).Scan(&tag.ID)
	if err != nil {
		log.Warn("failed to create tag", slog.String("error", err.Error()), slog.String("name", tag.Name))
		return MapError(err)
	}

	log.Info("tag created", slog.Int64("tag_id", tag.ID), slog.String("name", tag.Name))
	return nil
}

func (s *PostgresTagStore) getOne(ctx context.Context, where string, arg any) (*domain.Tag, error) {
	tag, err := scanTag(s.db.QueryRowContext(ctx, "SELECT "+tagColumns+" FROM tags WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTagNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load tag", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return tag, nil
}

// GetByID implements store.TagStore.
func (s *PostgresTagStore) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByName implements store.TagStore.
func (s *PostgresTagStore) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	return s.getOne(ctx, "name = $1", strings.TrimSpace(name))
}

// List implements store.TagStore.
func (s *PostgresTagStore) List(ctx context.Context, query string) ([]*domain.Tag, error) {
	sqlText := "SELECT " + tagColumns + " FROM tags"
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		sqlText += " WHERE name ILIKE $1 OR description ILIKE $1"
		args = append(args, "%"+escapeLike(q)+"%")
	}
	sqlText += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tags", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tags := []*domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tags = append(tags, tag)
	}
	return tags, MapError(rows.Err())
}

// Update implements store.TagStore.
func (s *PostgresTagStore) Update(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return err
	}
	tag.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = $1, color = $2, description = $3, updated_at = $4
		WHERE id = $5
	`, tag.Name, nullString(tag.Color), nullString(tag.Description), tag.UpdatedAt, tag.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to update tag",
			slog.String("error", err.Error()), slog.Int64("tag_id", tag.ID))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTagNotFound)
}

// Delete implements store.TagStore.
func (s *PostgresTagStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return MapDeleteError(err)
	}
	return CheckRowsAffected(result, store.ErrTagNotFound)
}

// UpsertByName implements store.TagStore. The no-op update makes RETURNING
// yield the existing row on conflict.
func (s *PostgresTagStore) UpsertByName(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := domain.NewTag(name, "", "")
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+tagColumns, tag.Name, tag.CreatedAt, tag.UpdatedAt)
	out, err := scanTag(row)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert tag",
			slog.String("error", err.Error()), slog.String("name", tag.Name))
		return nil, MapError(err)
	}
	return out, nil
}

// CountTaskReferences implements store.TagStore.
func (s *PostgresTagStore) CountTaskReferences(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM task_tags WHERE tag_id = $1", id).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}
