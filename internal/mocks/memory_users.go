package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// MemoryUserStore implements store.UserStore over a Memory.
type MemoryUserStore struct {
	m *Memory

	// CreateFn overrides Create when set.
	CreateFn func(ctx context.Context, user *domain.User) error
}

var _ store.UserStore = (*MemoryUserStore)(nil)

// WithTx implements store.UserStore.
func (s *MemoryUserStore) WithTx(*sql.Tx) store.UserStore { return s }

// Create implements store.UserStore.
func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.checkUnique(user); err != nil {
		return err
	}
	if err := hashPassword(user); err != nil {
		return err
	}
	user.ID = s.m.id()
	s.m.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) checkUnique(user *domain.User) error {
	for _, u := range s.m.users {
		if u.ID == user.ID {
			continue
		}
		if u.Login == user.Login {
			return store.ErrLoginExists
		}
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	return nil
}

func (s *MemoryUserStore) find(match func(*domain.User) bool) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByID implements store.UserStore.
func (s *MemoryUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id })
}

// GetByLogin implements store.UserStore.
func (s *MemoryUserStore) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Login == login })
}

// GetByEmail implements store.UserStore.
func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email == email })
}

// List implements store.UserStore.
func (s *MemoryUserStore) List(_ context.Context, query string) ([]*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	q := strings.TrimSpace(query)
	out := []*domain.User{}
	for _, u := range s.m.users {
		if q == "" || containsFold(u.Name, q) || containsFold(u.Login, q) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update implements store.UserStore.
func (s *MemoryUserStore) Update(_ context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	if err := s.checkUnique(user); err != nil {
		return err
	}
	if err := hashPassword(user); err != nil {
		return err
	}
	user.UpdatedAt = s.m.now()
	s.m.users[user.ID] = cloneUser(user)
	return nil
}

// Delete implements store.UserStore. Creator, author and uploader references
// block the delete; assignee references are cleared.
func (s *MemoryUserStore) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	for _, t := range s.m.tasks {
		if t.CreatorID == id {
			return store.ErrReferenced
		}
	}
	for _, c := range s.m.comments {
		if c.AuthorID == id {
			return store.ErrReferenced
		}
	}
	for _, a := range s.m.attachments {
		if a.UploaderID == id {
			return store.ErrReferenced
		}
	}
	for _, t := range s.m.tasks {
		if t.IsAssignedTo(id) {
			t.AssigneeID = nil
		}
	}
	for _, st := range s.m.subtasks {
		if st.AssigneeID != nil && *st.AssigneeID == id {
			st.AssigneeID = nil
		}
	}
	delete(s.m.users, id)
	return nil
}

// Count implements store.UserStore.
func (s *MemoryUserStore) Count(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.users), nil
}

func containsFold(s, sub string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(sub))
}
