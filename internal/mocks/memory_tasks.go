package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// MemoryTaskStore implements store.TaskStore over a Memory.
type MemoryTaskStore struct {
	m *Memory

	// ListCalls records the predicates of every List call.
	ListCalls [][]filter.Predicate
}

var _ store.TaskStore = (*MemoryTaskStore)(nil)

// WithTx implements store.TaskStore.
func (s *MemoryTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

// checkRefs mirrors the foreign keys of the tasks and task_tags tables.
func (s *MemoryTaskStore) checkRefs(task *domain.Task) error {
	if _, ok := s.m.users[task.CreatorID]; !ok {
		return fmt.Errorf("%w: unknown creator %d", store.ErrInvalidEntity, task.CreatorID)
	}
	if !s.m.userExists(task.AssigneeID) {
		return fmt.Errorf("%w: unknown assignee %d", store.ErrInvalidEntity, *task.AssigneeID)
	}
	for _, id := range task.TagIDs() {
		if _, ok := s.m.tags[id]; !ok {
			return fmt.Errorf("%w: unknown tag %d", store.ErrInvalidEntity, id)
		}
	}
	return nil
}

func (s *MemoryTaskStore) save(task *domain.Task) {
	c := *task
	c.AssigneeID = copyInt64(task.AssigneeID)
	c.Deadline = copyTime(task.Deadline)
	c.Tags = nil
	s.m.tasks[task.ID] = &c

	seen := map[int64]bool{}
	ids := []int64{}
	for _, id := range task.TagIDs() {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	s.m.taskTags[task.ID] = ids
}

// Create implements store.TaskStore.
func (s *MemoryTaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if err := s.checkRefs(task); err != nil {
		return err
	}
	task.ID = s.m.id()
	s.save(task)
	return nil
}

// GetByID implements store.TaskStore.
func (s *MemoryTaskStore) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return s.m.hydrateTask(t), nil
}

// List implements store.TaskStore.
func (s *MemoryTaskStore) List(_ context.Context, preds []filter.Predicate) ([]*domain.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.ListCalls = append(s.ListCalls, preds)

	out := []*domain.Task{}
	for _, t := range s.m.tasks {
		h := s.m.hydrateTask(t)
		if filter.MatchAll(preds, h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update implements store.TaskStore.
func (s *MemoryTaskStore) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	old, ok := s.m.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if err := s.checkRefs(task); err != nil {
		return err
	}
	task.CreatorID = old.CreatorID
	task.CreatedAt = old.CreatedAt
	task.UpdatedAt = s.m.now()
	s.save(task)
	return nil
}

// Delete implements store.TaskStore. Children and tag links are removed.
func (s *MemoryTaskStore) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.m.tasks, id)
	delete(s.m.taskTags, id)
	for k, st := range s.m.subtasks {
		if st.TaskID == id {
			delete(s.m.subtasks, k)
		}
	}
	for k, c := range s.m.comments {
		if c.TaskID == id {
			delete(s.m.comments, k)
		}
	}
	for k, a := range s.m.attachments {
		if a.TaskID == id {
			delete(s.m.attachments, k)
		}
	}
	return nil
}

// Stats implements store.TaskStore.
func (s *MemoryTaskStore) Stats(_ context.Context, assigneeID *int64, now time.Time) (domain.TaskStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var st domain.TaskStats
	for _, t := range s.m.tasks {
		if assigneeID != nil && !t.IsAssignedTo(*assigneeID) {
			continue
		}
		st.Add(t, now)
	}
	return st, nil
}

// Count implements store.TaskStore.
func (s *MemoryTaskStore) Count(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.tasks), nil
}
