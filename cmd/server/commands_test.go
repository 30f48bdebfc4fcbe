package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/platform/logger"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "migrate", "seed"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.Flag(configFlag), "%s should accept --%s", name, configFlag)
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flag("seed"))
}

func TestMigrateCommand_Args(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "default", args: nil},
		{name: "up", args: []string{"up"}},
		{name: "down", args: []string{"down"}},
		{name: "status", args: []string{"status"}},
		{name: "version", args: []string{"version"}},
		{name: "unknown", args: []string{"sideways"}, wantErr: true},
		{name: "too many", args: []string{"up", "down"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newMigrateCommand()
			err := cmd.Args(cmd, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunMigrations_UnknownCommand(t *testing.T) {
	log, _ := logger.NewTestLogger()

	err := runMigrations(context.Background(), nil, "sideways", log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migrate command")
}

func TestSlogGooseLogger(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger()
	gl := &slogGooseLogger{logger: log}

	gl.Printf("OK   %s\n", "00001_init.sql")
	gl.Fatalf("failed to apply %d migrations", 2)

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "OK   00001_init.sql", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "failed to apply 2 migrations", entries[1]["msg"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}
