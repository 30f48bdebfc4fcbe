package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// MemorySubtaskStore implements store.SubtaskStore over a Memory.
type MemorySubtaskStore struct {
	m *Memory
}

var _ store.SubtaskStore = (*MemorySubtaskStore)(nil)

// WithTx implements store.SubtaskStore.
func (s *MemorySubtaskStore) WithTx(*sql.Tx) store.SubtaskStore { return s }

func (s *MemorySubtaskStore) hydrate(st *domain.Subtask) *domain.Subtask {
	c := *st
	c.AssigneeID = copyInt64(st.AssigneeID)
	c.AssigneeName = ""
	if c.AssigneeID != nil {
		c.AssigneeName = s.m.userName(*c.AssigneeID)
	}
	return &c
}

func (s *MemorySubtaskStore) checkRefs(st *domain.Subtask) error {
	if _, ok := s.m.tasks[st.TaskID]; !ok {
		return fmt.Errorf("%w: unknown task %d", store.ErrInvalidEntity, st.TaskID)
	}
	if !s.m.userExists(st.AssigneeID) {
		return fmt.Errorf("%w: unknown assignee %d", store.ErrInvalidEntity, *st.AssigneeID)
	}
	return nil
}

// Create implements store.SubtaskStore.
func (s *MemorySubtaskStore) Create(_ context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.checkRefs(subtask); err != nil {
		return err
	}
	subtask.ID = s.m.id()
	c := *subtask
	c.AssigneeID = copyInt64(subtask.AssigneeID)
	s.m.subtasks[subtask.ID] = &c
	return nil
}

// GetByID implements store.SubtaskStore.
func (s *MemorySubtaskStore) GetByID(_ context.Context, id int64) (*domain.Subtask, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st, ok := s.m.subtasks[id]
	if !ok {
		return nil, store.ErrSubtaskNotFound
	}
	return s.hydrate(st), nil
}

// ListByTask implements store.SubtaskStore.
func (s *MemorySubtaskStore) ListByTask(_ context.Context, taskID int64) ([]*domain.Subtask, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []*domain.Subtask{}
	for _, st := range s.m.subtasks {
		if st.TaskID == taskID {
			out = append(out, s.hydrate(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update implements store.SubtaskStore.
func (s *MemorySubtaskStore) Update(_ context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	old, ok := s.m.subtasks[subtask.ID]
	if !ok {
		return store.ErrSubtaskNotFound
	}
	if err := s.checkRefs(subtask); err != nil {
		return err
	}
	subtask.TaskID = old.TaskID
	subtask.UpdatedAt = s.m.now()
	c := *subtask
	c.AssigneeID = copyInt64(subtask.AssigneeID)
	s.m.subtasks[subtask.ID] = &c
	return nil
}

// Delete implements store.SubtaskStore.
func (s *MemorySubtaskStore) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.subtasks[id]; !ok {
		return store.ErrSubtaskNotFound
	}
	delete(s.m.subtasks, id)
	return nil
}

// MemoryCommentStore implements store.CommentStore over a Memory.
type MemoryCommentStore struct {
	m *Memory
}

var _ store.CommentStore = (*MemoryCommentStore)(nil)

// WithTx implements store.CommentStore.
func (s *MemoryCommentStore) WithTx(*sql.Tx) store.CommentStore { return s }

func (s *MemoryCommentStore) hydrate(c *domain.Comment) *domain.Comment {
	out := *c
	out.AuthorName = s.m.userName(c.AuthorID)
	return &out
}

// Create implements store.CommentStore.
func (s *MemoryCommentStore) Create(_ context.Context, comment *domain.Comment) error {
	if err := comment.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.tasks[comment.TaskID]; !ok {
		return fmt.Errorf("%w: unknown task %d", store.ErrInvalidEntity, comment.TaskID)
	}
	if _, ok := s.m.users[comment.AuthorID]; !ok {
		return fmt.Errorf("%w: unknown author %d", store.ErrInvalidEntity, comment.AuthorID)
	}
	comment.ID = s.m.id()
	c := *comment
	s.m.comments[comment.ID] = &c
	return nil
}

// GetByID implements store.CommentStore.
func (s *MemoryCommentStore) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.comments[id]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	return s.hydrate(c), nil
}

// ListByTask implements store.CommentStore, newest first.
func (s *MemoryCommentStore) ListByTask(_ context.Context, taskID int64) ([]*domain.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []*domain.Comment{}
	for _, c := range s.m.comments {
		if c.TaskID == taskID {
			out = append(out, s.hydrate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Delete implements store.CommentStore.
func (s *MemoryCommentStore) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.comments[id]; !ok {
		return store.ErrCommentNotFound
	}
	delete(s.m.comments, id)
	return nil
}

// MemoryAttachmentStore implements store.AttachmentStore over a Memory.
type MemoryAttachmentStore struct {
	m *Memory

	// CreateFn overrides Create when set.
	CreateFn func(ctx context.Context, a *domain.Attachment) error
}

var _ store.AttachmentStore = (*MemoryAttachmentStore)(nil)

// WithTx implements store.AttachmentStore.
func (s *MemoryAttachmentStore) WithTx(*sql.Tx) store.AttachmentStore { return s }

func (s *MemoryAttachmentStore) hydrate(a *domain.Attachment) *domain.Attachment {
	out := *a
	out.UploaderName = s.m.userName(a.UploaderID)
	return &out
}

// Create implements store.AttachmentStore.
func (s *MemoryAttachmentStore) Create(ctx context.Context, a *domain.Attachment) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, a)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.tasks[a.TaskID]; !ok {
		return fmt.Errorf("%w: unknown task %d", store.ErrInvalidEntity, a.TaskID)
	}
	if _, ok := s.m.users[a.UploaderID]; !ok {
		return fmt.Errorf("%w: unknown uploader %d", store.ErrInvalidEntity, a.UploaderID)
	}
	a.ID = s.m.id()
	c := *a
	s.m.attachments[a.ID] = &c
	return nil
}

// GetByID implements store.AttachmentStore.
func (s *MemoryAttachmentStore) GetByID(_ context.Context, id int64) (*domain.Attachment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.attachments[id]
	if !ok {
		return nil, store.ErrAttachmentNotFound
	}
	return s.hydrate(a), nil
}

// ListByTask implements store.AttachmentStore.
func (s *MemoryAttachmentStore) ListByTask(_ context.Context, taskID int64) ([]*domain.Attachment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []*domain.Attachment{}
	for _, a := range s.m.attachments {
		if a.TaskID == taskID {
			out = append(out, s.hydrate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete implements store.AttachmentStore.
func (s *MemoryAttachmentStore) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.attachments[id]; !ok {
		return store.ErrAttachmentNotFound
	}
	delete(s.m.attachments, id)
	return nil
}
