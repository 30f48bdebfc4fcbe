package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/config"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/mocks"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

func newSeeder(mem *mocks.Memory, cfg config.SeedConfig) *service.Seeder {
	log, _ := logger.NewTestLogger()
	return service.NewSeeder(mem.Users(), mem.Tags(), mem.Tasks(), &mocks.Transactor{}, cfg, log)
}

func TestSeeder_Seed(t *testing.T) {
	mem := mocks.NewMemory()
	cfg := config.SeedConfig{
		AdminLogin:    "admin",
		AdminEmail:    "admin@takeatask.local",
		AdminPassword: "admin-secret",
		UserLogin:     "user",
		UserEmail:     "user@takeatask.local",
		UserPassword:  "user-secret",
	}
	seeder := newSeeder(mem, cfg)
	ctx := context.Background()

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.SeedResult{Tags: len(service.DefaultTags), Users: 2, Tasks: 2}, res)

	admin, err := mem.Users().GetByLogin(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministratorManager, admin.Role)
	user, err := mem.Users().GetByLogin(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStandardUser, user.Role)

	urgent, err := mem.Tags().GetByName(ctx, "Urgente")
	require.NoError(t, err)
	assert.Equal(t, "#EF4444", urgent.Color)

	t.Run("second run creates nothing", func(t *testing.T) {
		res, err := seeder.Seed(ctx)
		require.NoError(t, err)
		assert.Equal(t, service.SeedResult{}, res)

		n, err := mem.Tasks().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestSeeder_SkipsAccountsWithoutPassword(t *testing.T) {
	mem := mocks.NewMemory()
	seeder := newSeeder(mem, config.SeedConfig{
		AdminLogin:    "admin",
		AdminEmail:    "admin@takeatask.local",
		AdminPassword: "admin-secret",
		UserLogin:     "user",
		UserEmail:     "user@takeatask.local",
	})

	res, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)
	assert.Zero(t, res.Tasks, "sample tasks need both accounts")
	assert.Equal(t, len(service.DefaultTags), res.Tags)

	_, err = mem.Users().GetByLogin(context.Background(), "user")
	assert.Error(t, err)
}
