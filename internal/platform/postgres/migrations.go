package postgres

import (
	"embed"
	"io/fs"

	"github.com/go-extras/go-kit/must"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationsFS holds the goose SQL migrations, rooted at the migrations directory.
var MigrationsFS fs.FS = must.Must(fs.Sub(embeddedMigrations, "migrations"))

// MigrationsTable is the goose version table name.
const MigrationsTable = "schema_migrations"
