package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user and sets its ID and timestamps.
	// The plaintext Password is hashed by the store.
	// Returns ErrLoginExists or ErrEmailExists on uniqueness violations.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByLogin returns ErrUserNotFound if no user has the login.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// GetByEmail returns ErrUserNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns users ordered by name. A non-empty query keeps only
	// users whose name or login contains it, ignoring case.
	List(ctx context.Context, query string) ([]*domain.User, error)

	// Update writes every field of user. A non-empty Password replaces the hash.
	Update(ctx context.Context, user *domain.User) error

	// Delete permanently removes the user.
	// Returns ErrReferenced if tasks, comments or attachments still point at it.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
