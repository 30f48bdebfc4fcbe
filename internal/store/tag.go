package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

// TagStore defines the interface for tag persistence.
type TagStore interface {
	// Create returns ErrTagNameExists when the name is taken.
	Create(ctx context.Context, tag *domain.Tag) error

	GetByID(ctx context.Context, id int64) (*domain.Tag, error)
	GetByName(ctx context.Context, name string) (*domain.Tag, error)

	// List returns tags ordered by name, optionally keeping those whose name
	// or description contains query, ignoring case.
	List(ctx context.Context, query string) ([]*domain.Tag, error)

	Update(ctx context.Context, tag *domain.Tag) error

	// Delete returns ErrReferenced while any task carries the tag.
	Delete(ctx context.Context, id int64) error

	// UpsertByName returns the tag called name, creating it when missing.
	// Repeated calls with the same name return the same ID.
	UpsertByName(ctx context.Context, name string) (*domain.Tag, error)

	// CountTaskReferences returns how many tasks carry the tag.
	CountTaskReferences(ctx context.Context, id int64) (int, error)

	WithTx(tx *sql.Tx) TagStore
}
