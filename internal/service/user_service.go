package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// NewUserInput carries the fields of a new account.
type NewUserInput struct {
	Name        string
	Login       string
	Email       string
	Password    string
	Role        domain.Role
	JobTitle    string
	Phone       string
	Department  string
	Preferences domain.Preferences
}

// UserPatch is a partial update of an account. Absent fields are left alone.
type UserPatch struct {
	Name        patch.Field[string]
	Login       patch.Field[string]
	Email       patch.Field[string]
	Password    patch.Field[string]
	Role        patch.Field[domain.Role]
	JobTitle    patch.Field[string]
	Phone       patch.Field[string]
	Department  patch.Field[string]
	Active      patch.Field[bool]
	Preferences patch.Field[domain.Preferences]
}

// UserService provides account management.
type UserService interface {
	// Register creates a standard account for self-registration.
	Register(ctx context.Context, in NewUserInput) (*domain.User, error)

	// CreateUser creates an account with any role. Administrators only.
	CreateUser(ctx context.Context, caller *domain.User, in NewUserInput) (*domain.User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	// GetUserByLogin retrieves a user by login.
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)

	// ListUsers lists users, optionally filtered by a name or login substring.
	ListUsers(ctx context.Context, query string) ([]*domain.User, error)

	// UpdateUser applies p to the user with the given ID. Users may update
	// themselves; role and active changes require an administrator.
	UpdateUser(ctx context.Context, caller *domain.User, id int64, p UserPatch) (*domain.User, error)

	// DeleteUser removes an account. Administrators only.
	DeleteUser(ctx context.Context, caller *domain.User, id int64) error
}

type userServiceImpl struct {
	users  store.UserStore
	tx     store.Transactor
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users store.UserStore, tx store.Transactor, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userServiceImpl{
		users:  users,
		tx:     tx,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

// Register implements UserService.
func (s *userServiceImpl) Register(ctx context.Context, in NewUserInput) (*domain.User, error) {
	in.Role = domain.RoleStandardUser
	return s.create(ctx, "register", in)
}

// CreateUser implements UserService.
func (s *userServiceImpl) CreateUser(ctx context.Context, caller *domain.User, in NewUserInput) (*domain.User, error) {
	if err := requireCaller(caller, "user", "create"); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, NewServiceError("user", "create", ErrForbidden)
	}
	if in.Role == "" {
		in.Role = domain.RoleStandardUser
	}
	return s.create(ctx, "create", in)
}

func (s *userServiceImpl) create(ctx context.Context, op string, in NewUserInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(in.Name, in.Login, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, NewServiceError("user", op, err)
	}
	user.JobTitle = strings.TrimSpace(in.JobTitle)
	user.Phone = strings.TrimSpace(in.Phone)
	user.Department = strings.TrimSpace(in.Department)
	user.Preferences = in.Preferences
	if err := user.Validate(); err != nil {
		return nil, NewServiceError("user", op, err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.users.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("duplicate login or email", slog.String("login", user.Login))
		} else {
			log.Error("failed to create user",
				slog.String("error", err.Error()),
				slog.String("login", user.Login))
		}
		return nil, NewServiceError("user", op, err)
	}

	log.Info("user created",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)))
	return user, nil
}

// GetUser implements UserService.
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("user", "get", err)
	}
	return user, nil
}

// GetUserByLogin implements UserService.
func (s *userServiceImpl) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, NewServiceError("user", "get_by_login", err)
	}
	return user, nil
}

// ListUsers implements UserService.
func (s *userServiceImpl) ListUsers(ctx context.Context, query string) ([]*domain.User, error) {
	users, err := s.users.List(ctx, query)
	if err != nil {
		return nil, NewServiceError("user", "list", err)
	}
	return users, nil
}

// UpdateUser implements UserService.
func (s *userServiceImpl) UpdateUser(
	ctx context.Context,
	caller *domain.User,
	id int64,
	p UserPatch,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "user", "update"); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && caller.ID != id {
		return nil, NewServiceError("user", "update", ErrForbidden)
	}

	var updated *domain.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		user, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := applyUserPatch(user, caller, p); err != nil {
			return err
		}
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update user",
				slog.String("error", err.Error()),
				slog.Int64("user_id", id))
		}
		return nil, NewServiceError("user", "update", err)
	}

	log.Info("user updated", slog.Int64("user_id", id))
	return updated, nil
}

func applyUserPatch(user, caller *domain.User, p UserPatch) error {
	if role, ok := p.Role.Value(); ok && role != user.Role {
		if !caller.IsAdmin() {
			return ErrForbidden
		}
		if !role.Valid() {
			return domain.NewValidationError("role", "must be STANDARD_USER or ADMINISTRATOR_MANAGER", domain.ErrInvalidRole)
		}
		user.Role = role
	} else if p.Role.IsNull() {
		return domain.NewValidationError("role", "cannot be null", domain.ErrInvalidRole)
	}
	if active, ok := p.Active.Value(); ok && active != user.Active {
		if !caller.IsAdmin() {
			return ErrForbidden
		}
		user.Active = active
	}

	p.Name.Apply(&user.Name)
	p.Login.Apply(&user.Login)
	p.Email.Apply(&user.Email)
	p.JobTitle.Apply(&user.JobTitle)
	p.Phone.Apply(&user.Phone)
	p.Department.Apply(&user.Department)
	p.Preferences.Apply(&user.Preferences)
	user.Name = strings.TrimSpace(user.Name)
	user.Login = strings.TrimSpace(user.Login)
	user.Email = strings.TrimSpace(user.Email)

	// An empty password keeps the current hash.
	user.Password = ""
	if pw, ok := p.Password.Value(); ok && pw != "" {
		user.Password = pw
	}
	return user.Validate()
}

// DeleteUser implements UserService.
func (s *userServiceImpl) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "user", "delete"); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return NewServiceError("user", "delete", ErrForbidden)
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.users.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete user",
				slog.String("error", err.Error()),
				slog.Int64("user_id", id))
		}
		return NewServiceError("user", "delete", err)
	}

	log.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

// isExpected reports whether err is a client-caused failure that does not
// deserve an error-level log line.
func isExpected(err error) bool {
	return store.IsNotFoundError(err) ||
		store.IsDuplicateError(err) ||
		errors.Is(err, store.ErrReferenced) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrTagInUse)
}

// requireCaller returns ErrUnauthenticated for a nil caller.
func requireCaller(caller *domain.User, svc, op string) error {
	if caller == nil {
		return NewServiceError(svc, op, ErrUnauthenticated)
	}
	return nil
}
