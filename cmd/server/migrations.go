package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/phrazzld/takeatask-api/internal/platform/postgres"
)

var migrateCommands = []string{"up", "down", "status", "version"}

// slogGooseLogger adapts goose's logger to slog. Fatalf does not exit; goose
// errors are returned to the caller instead.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// configureGoose points goose at the embedded migrations.
func configureGoose(log *slog.Logger) error {
	goose.SetBaseFS(postgres.MigrationsFS)
	goose.SetTableName(postgres.MigrationsTable)
	goose.SetLogger(&slogGooseLogger{logger: log.With(slog.String("component", "migrations"))})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// runMigrations executes one of migrateCommands against db.
func runMigrations(ctx context.Context, db *sql.DB, command string, log *slog.Logger) error {
	if err := configureGoose(log); err != nil {
		return err
	}
	log.Info("running migrations", slog.String("command", command))

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	case "version":
		err = goose.VersionContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migrate command %q, expected one of %s",
			command, strings.Join(migrateCommands, ", "))
	}
	if err != nil {
		return fmt.Errorf("migrate %s failed: %w", command, err)
	}
	return nil
}
