package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/phrazzld/takeatask-api/internal/config"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
)

const configFlag = "config"

var commonFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a YAML config file (default ./config.yaml)",
	},
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "takeatask",
		Short: "Task board API server",
		Long: `takeatask serves the task board REST API: users, tags, tasks, subtasks,
comments and attachments behind JWT authentication.

Settings come from config.yaml and TAKEATASK_* environment variables,
for example TAKEATASK_DATABASE_URL and TAKEATASK_AUTH_JWT_SECRET.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApplication(ctx, func(app *application) error {
				if seed {
					if err := app.seed(ctx); err != nil {
						return err
					}
				}
				return app.Run(ctx)
			})
		},
	}
	cobraflags.RegisterMap(cmd, commonFlags)
	cmd.Flags().BoolVar(&seed, "seed", false, "Insert the default tags, accounts and sample tasks before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Apply or inspect database migrations",
		Long:      "Runs the embedded SQL migrations with goose. Without an argument, applies all pending migrations.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer closeDatabase(db, log)

			return runMigrations(cmd.Context(), db, command, log)
		},
	}
	cobraflags.RegisterMap(cmd, commonFlags)
	return cmd
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default tags, accounts and sample tasks",
		Long: `Creates the default tag catalog, the administrator and standard accounts
named in the seed section of the configuration and, on an empty board,
two sample tasks. Existing data is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd.Context(), func(app *application) error {
				return app.seed(cmd.Context())
			})
		},
	}
	cobraflags.RegisterMap(cmd, commonFlags)
	return cmd
}

// loadRuntime loads the configuration and installs the process logger.
func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(commonFlags[configFlag].GetString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("upload_dir", cfg.Storage.UploadDir))
	return cfg, log, nil
}

// withApplication wires the application around a database connection, runs
// fn and releases everything afterwards.
func withApplication(ctx context.Context, fn func(*application) error) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		closeDatabase(db, log)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return fn(app)
}
