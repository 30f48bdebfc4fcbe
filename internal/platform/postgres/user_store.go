package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

const userColumns = `id, name, login, email, hashed_password, role, job_title, phone, department,
	active, theme, locale, timezone, date_format, time_format, created_at, updated_at`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db         store.DBTX
	bcryptCost int
	logger     *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// Passwords are hashed with bcryptCost; out-of-range values use bcrypt.DefaultCost.
func NewPostgresUserStore(db store.DBTX, bcryptCost int, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PostgresUserStore{
		db:         db,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, bcryptCost: s.bcryptCost, logger: s.logger}
}

func (s *PostgresUserStore) hashPassword(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hash)
	user.Password = ""
	return nil
}

// Create implements store.UserStore.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create", slog.String("error", err.Error()))
		return err
	}
	if err := s.hashPassword(user); err != nil {
		return err
	}

	query := `
		INSERT INTO users (name, login, email, hashed_password, role, job_title, phone, department,
			active, theme, locale, timezone, date_format, time_format, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	p := user.Preferences
	err := s.db.QueryRowContext(ctx, query,
		user.Name, user.Login, user.Email, user.HashedPassword, string(user.Role),
		nullString(user.JobTitle), nullString(user.Phone), nullString(user.Department),
		user.Active, nullString(p.Theme), nullString(p.Locale), nullString(p.Timezone),
		nullString(p.DateFormat), nullString(p.TimeFormat), user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		log.Error("failed to create user", slog.String("error", err.Error()), slog.String("login", user.Login))
		return MapError(err)
	}

	log.Info("user created", slog.Int64("user_id", user.ID))
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u                           domain.User
		role                        string
		jobTitle, phone, department sql.NullString
		theme, locale, timezone     sql.NullString
		dateFormat, timeFormat      sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Login, &u.Email, &u.HashedPassword, &role,
		&jobTitle, &phone, &department, &u.Active,
		&theme, &locale, &timezone, &dateFormat, &timeFormat,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.JobTitle = jobTitle.String
	u.Phone = phone.String
	u.Department = department.String
	u.Preferences = domain.Preferences{
		Theme:      theme.String,
		Locale:     locale.String,
		Timezone:   timezone.String,
		DateFormat: dateFormat.String,
		TimeFormat: timeFormat.String,
	}
	return &u, nil
}

func (s *PostgresUserStore) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load user", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return u, nil
}

// GetByID implements store.UserStore.
func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByLogin implements store.UserStore.
func (s *PostgresUserStore) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return s.getOne(ctx, "login = $1", login)
}

// GetByEmail implements store.UserStore.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, "email = $1", email)
}

// List implements store.UserStore.
func (s *PostgresUserStore) List(ctx context.Context, query string) ([]*domain.User, error) {
	sqlText := "SELECT " + userColumns + " FROM users"
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		sqlText += ` WHERE name ILIKE $1 OR login ILIKE $1`
		args = append(args, "%"+escapeLike(q)+"%")
	}
	sqlText += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, MapError(err)
		}
		users = append(users, u)
	}
	return users, MapError(rows.Err())
}

// Update implements store.UserStore.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}
	if err := s.hashPassword(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users SET name = $1, login = $2, email = $3, hashed_password = $4, role = $5,
			job_title = $6, phone = $7, department = $8, active = $9, theme = $10, locale = $11,
			timezone = $12, date_format = $13, time_format = $14, updated_at = $15
		WHERE id = $16
	`
	p := user.Preferences
	result, err := s.db.ExecContext(ctx, query,
		user.Name, user.Login, user.Email, user.HashedPassword, string(user.Role),
		nullString(user.JobTitle), nullString(user.Phone), nullString(user.Department), user.Active,
		nullString(p.Theme), nullString(p.Locale), nullString(p.Timezone),
		nullString(p.DateFormat), nullString(p.TimeFormat), user.UpdatedAt, user.ID,
	)
	if err != nil {
		log.Error("failed to update user", slog.String("error", err.Error()), slog.Int64("user_id", user.ID))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete implements store.UserStore.
func (s *PostgresUserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to delete user",
			slog.String("error", err.Error()), slog.Int64("user_id", id))
		return MapDeleteError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Count implements store.UserStore.
func (s *PostgresUserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}
