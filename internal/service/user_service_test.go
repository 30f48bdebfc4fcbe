package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/store"
)

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)

	u, err := f.users.Register(context.Background(), service.NewUserInput{
		Name:     "Dave",
		Login:    "dave",
		Email:    "dave@example.com",
		Password: "secret123",
		Role:     domain.RoleAdministratorManager,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStandardUser, u.Role, "self-registration never grants admin")
	assert.True(t, u.Active)
	assert.Empty(t, u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte("secret123")))

	t.Run("duplicate login", func(t *testing.T) {
		_, err := f.users.Register(context.Background(), service.NewUserInput{
			Name:     "Other Dave",
			Login:    "dave",
			Email:    "dave2@example.com",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, store.ErrLoginExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.users.Register(context.Background(), service.NewUserInput{
			Name:     "Other Dave",
			Login:    "dave2",
			Email:    "dave@example.com",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := f.users.Register(context.Background(), service.NewUserInput{
			Name:     "Phoney",
			Login:    "phoney",
			Email:    "phoney@example.com",
			Password: "secret123",
			Phone:    "123",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestUserService_CreateUser(t *testing.T) {
	f := newFixture(t)
	in := service.NewUserInput{
		Name:     "Eve Manager",
		Login:    "eve",
		Email:    "eve@example.com",
		Password: "secret123",
		Role:     domain.RoleAdministratorManager,
	}

	_, err := f.users.CreateUser(context.Background(), f.alice, in)
	assert.ErrorIs(t, err, service.ErrForbidden)

	u, err := f.users.CreateUser(context.Background(), f.admin, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministratorManager, u.Role)

	_, err = f.users.CreateUser(context.Background(), nil, in)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestUserService_UpdateUser(t *testing.T) {
	tests := []struct {
		name    string
		caller  func(f *fixture) *domain.User
		target  func(f *fixture) int64
		patch   service.UserPatch
		wantErr error
		check   func(t *testing.T, u *domain.User)
	}{
		{
			name:   "self updates profile",
			caller: func(f *fixture) *domain.User { return f.alice },
			target: func(f *fixture) int64 { return f.alice.ID },
			patch: service.UserPatch{
				Name:       patch.Set("Alice Liddell"),
				Department: patch.Set("Wonderland"),
			},
			check: func(t *testing.T, u *domain.User) {
				assert.Equal(t, "Alice Liddell", u.Name)
				assert.Equal(t, "Wonderland", u.Department)
				assert.Equal(t, "alice", u.Login)
			},
		},
		{
			name:    "other standard user",
			caller:  func(f *fixture) *domain.User { return f.carol },
			target:  func(f *fixture) int64 { return f.alice.ID },
			patch:   service.UserPatch{Name: patch.Set("Hijacked")},
			wantErr: service.ErrForbidden,
		},
		{
			name:    "standard user promoting themselves",
			caller:  func(f *fixture) *domain.User { return f.alice },
			target:  func(f *fixture) int64 { return f.alice.ID },
			patch:   service.UserPatch{Role: patch.Set(domain.RoleAdministratorManager)},
			wantErr: service.ErrForbidden,
		},
		{
			name:    "standard user deactivating themselves",
			caller:  func(f *fixture) *domain.User { return f.alice },
			target:  func(f *fixture) int64 { return f.alice.ID },
			patch:   service.UserPatch{Active: patch.Set(false)},
			wantErr: service.ErrForbidden,
		},
		{
			name:   "resending the current role is allowed",
			caller: func(f *fixture) *domain.User { return f.alice },
			target: func(f *fixture) int64 { return f.alice.ID },
			patch:  service.UserPatch{Role: patch.Set(domain.RoleStandardUser)},
		},
		{
			name:   "administrator promotes and deactivates",
			caller: func(f *fixture) *domain.User { return f.admin },
			target: func(f *fixture) int64 { return f.alice.ID },
			patch: service.UserPatch{
				Role:   patch.Set(domain.RoleAdministratorManager),
				Active: patch.Set(false),
			},
			check: func(t *testing.T, u *domain.User) {
				assert.Equal(t, domain.RoleAdministratorManager, u.Role)
				assert.False(t, u.Active)
			},
		},
		{
			name:    "null name is invalid",
			caller:  func(f *fixture) *domain.User { return f.alice },
			target:  func(f *fixture) int64 { return f.alice.ID },
			patch:   service.UserPatch{Name: patch.Null[string]()},
			wantErr: domain.ErrValidation,
		},
		{
			name:   "null job title clears it",
			caller: func(f *fixture) *domain.User { return f.alice },
			target: func(f *fixture) int64 { return f.alice.ID },
			patch:  service.UserPatch{JobTitle: patch.Null[string]()},
			check: func(t *testing.T, u *domain.User) {
				assert.Empty(t, u.JobTitle)
			},
		},
		{
			name:    "login taken by someone else",
			caller:  func(f *fixture) *domain.User { return f.alice },
			target:  func(f *fixture) int64 { return f.alice.ID },
			patch:   service.UserPatch{Login: patch.Set("carol")},
			wantErr: store.ErrDuplicate,
		},
		{
			name:    "unknown user",
			caller:  func(f *fixture) *domain.User { return f.admin },
			target:  func(f *fixture) int64 { return 9999 },
			patch:   service.UserPatch{Name: patch.Set("Nobody")},
			wantErr: store.ErrUserNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			u, err := f.users.UpdateUser(context.Background(), tc.caller(f), tc.target(f), tc.patch)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, u)
			}
		})
	}
}

func TestUserService_UpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oldHash := f.alice.HashedPassword

	u, err := f.users.UpdateUser(ctx, f.alice, f.alice.ID, service.UserPatch{Password: patch.Set("")})
	require.NoError(t, err)
	assert.Equal(t, oldHash, u.HashedPassword, "an empty password keeps the hash")

	u, err = f.users.UpdateUser(ctx, f.alice, f.alice.ID, service.UserPatch{Password: patch.Set("brand-new-pw")})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, u.HashedPassword)

	stored, err := f.users.GetUser(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("brand-new-pw")))
}

func TestUserService_DeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.users.DeleteUser(ctx, f.alice, f.carol.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	f.createTask(t, f.alice, service.TaskInput{Name: "Keeps alice around", AssigneeID: &f.carol.ID})

	err = f.users.DeleteUser(ctx, f.admin, f.alice.ID)
	assert.ErrorIs(t, err, store.ErrReferenced, "creators cannot be deleted")

	require.NoError(t, f.users.DeleteUser(ctx, f.admin, f.carol.ID))
	_, err = f.users.GetUser(ctx, f.carol.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	tasks, err := f.tasks.ListTasks(ctx, f.alice, filter.Criteria{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].AssigneeID, "assignee references are cleared")
}

func TestUserService_Lookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.GetUserByLogin(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, u.ID)

	list, err := f.users.ListUsers(ctx, "BUILD")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.bob.ID, list[0].ID)

	all, err := f.users.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
