package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// MemoryTagStore implements store.TagStore over a Memory.
type MemoryTagStore struct {
	m *Memory
}

var _ store.TagStore = (*MemoryTagStore)(nil)

// WithTx implements store.TagStore.
func (s *MemoryTagStore) WithTx(*sql.Tx) store.TagStore { return s }

func (s *MemoryTagStore) nameTaken(name string, exceptID int64) bool {
	for _, t := range s.m.tags {
		if t.ID != exceptID && t.Name == name {
			return true
		}
	}
	return false
}

// Create implements store.TagStore.
func (s *MemoryTagStore) Create(_ context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.nameTaken(tag.Name, 0) {
		return store.ErrTagNameExists
	}
	tag.ID = s.m.id()
	s.m.tags[tag.ID] = cloneTag(tag)
	return nil
}

// GetByID implements store.TagStore.
func (s *MemoryTagStore) GetByID(_ context.Context, id int64) (*domain.Tag, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if t, ok := s.m.tags[id]; ok {
		return cloneTag(t), nil
	}
	return nil, store.ErrTagNotFound
}

// GetByName implements store.TagStore.
func (s *MemoryTagStore) GetByName(_ context.Context, name string) (*domain.Tag, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	name = strings.TrimSpace(name)
	for _, t := range s.m.tags {
		if t.Name == name {
			return cloneTag(t), nil
		}
	}
	return nil, store.ErrTagNotFound
}

// List implements store.TagStore.
func (s *MemoryTagStore) List(_ context.Context, query string) ([]*domain.Tag, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	q := strings.TrimSpace(query)
	out := []*domain.Tag{}
	for _, t := range s.m.tags {
		if q == "" || containsFold(t.Name, q) || containsFold(t.Description, q) {
			out = append(out, cloneTag(t))
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

// Update implements store.TagStore.
func (s *MemoryTagStore) Update(_ context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.tags[tag.ID]; !ok {
		return store.ErrTagNotFound
	}
	if s.nameTaken(tag.Name, tag.ID) {
		return store.ErrTagNameExists
	}
	tag.UpdatedAt = s.m.now()
	s.m.tags[tag.ID] = cloneTag(tag)
	return nil
}

// Delete implements store.TagStore.
func (s *MemoryTagStore) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.tags[id]; !ok {
		return store.ErrTagNotFound
	}
	if s.references(id) > 0 {
		return store.ErrReferenced
	}
	delete(s.m.tags, id)
	return nil
}

// UpsertByName implements store.TagStore.
func (s *MemoryTagStore) UpsertByName(_ context.Context, name string) (*domain.Tag, error) {
	tag, err := domain.NewTag(name, "", "")
	if err != nil {
		return nil, err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, t := range s.m.tags {
		if t.Name == tag.Name {
			return cloneTag(t), nil
		}
	}
	tag.ID = s.m.id()
	s.m.tags[tag.ID] = cloneTag(tag)
	return tag, nil
}

// CountTaskReferences implements store.TagStore.
func (s *MemoryTagStore) CountTaskReferences(_ context.Context, id int64) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.references(id), nil
}

func (s *MemoryTagStore) references(id int64) int {
	n := 0
	for _, ids := range s.m.taskTags {
		for _, tagID := range ids {
			if tagID == id {
				n++
			}
		}
	}
	return n
}

func sortTags(tags []domain.Tag) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Name != tags[j].Name {
			return tags[i].Name < tags[j].Name
		}
		return tags[i].ID < tags[j].ID
	})
}
