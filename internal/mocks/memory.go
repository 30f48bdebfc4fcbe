package mocks

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// Memory is an in-memory database shared by the stores it hands out.
// Rows are copied on the way in and out, so callers never alias stored state.
type Memory struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*domain.User
	tags        map[int64]*domain.Tag
	tasks       map[int64]*domain.Task
	taskTags    map[int64][]int64
	subtasks    map[int64]*domain.Subtask
	comments    map[int64]*domain.Comment
	attachments map[int64]*domain.Attachment
	now         func() time.Time
}

// NewMemory creates an empty database.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[int64]*domain.User),
		tags:        make(map[int64]*domain.Tag),
		tasks:       make(map[int64]*domain.Task),
		taskTags:    make(map[int64][]int64),
		subtasks:    make(map[int64]*domain.Subtask),
		comments:    make(map[int64]*domain.Comment),
		attachments: make(map[int64]*domain.Attachment),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// Users returns the user store.
func (m *Memory) Users() *MemoryUserStore { return &MemoryUserStore{m: m} }

// Tags returns the tag store.
func (m *Memory) Tags() *MemoryTagStore { return &MemoryTagStore{m: m} }

// Tasks returns the task store.
func (m *Memory) Tasks() *MemoryTaskStore { return &MemoryTaskStore{m: m} }

// Subtasks returns the subtask store.
func (m *Memory) Subtasks() *MemorySubtaskStore { return &MemorySubtaskStore{m: m} }

// Comments returns the comment store.
func (m *Memory) Comments() *MemoryCommentStore { return &MemoryCommentStore{m: m} }

// Attachments returns the attachment store.
func (m *Memory) Attachments() *MemoryAttachmentStore { return &MemoryAttachmentStore{m: m} }

// MustAddUser stores u, hashing its plaintext password at the minimum bcrypt
// cost, and returns the stored copy. It panics on error.
func (m *Memory) MustAddUser(u *domain.User) *domain.User {
	if err := m.Users().Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// Transactor runs unit-of-work functions without a database; fn receives a
// nil transaction and stores ignore WithTx. Writes are not rolled back.
type Transactor struct {
	// RunInTxFn overrides the default behavior when set.
	RunInTxFn func(ctx context.Context, fn store.TxFn) error
	Calls     int
}

var _ store.Transactor = (*Transactor)(nil)

// RunInTx implements store.Transactor.
func (t *Transactor) RunInTx(ctx context.Context, fn store.TxFn) error {
	t.Calls++
	if t.RunInTxFn != nil {
		return t.RunInTxFn(ctx, fn)
	}
	return fn(ctx, nil)
}

func hashPassword(u *domain.User) error {
	if u.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(hash)
	u.Password = ""
	return nil
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneTag(t *domain.Tag) *domain.Tag {
	c := *t
	return &c
}

// hydrateTask copies a stored task and fills names and tags. Callers hold m.mu.
func (m *Memory) hydrateTask(t *domain.Task) *domain.Task {
	c := *t
	c.AssigneeID = copyInt64(t.AssigneeID)
	c.Deadline = copyTime(t.Deadline)
	c.CreatorName = m.userName(t.CreatorID)
	c.AssigneeName = ""
	if c.AssigneeID != nil {
		c.AssigneeName = m.userName(*c.AssigneeID)
	}
	c.Tags = []domain.Tag{}
	for _, id := range m.taskTags[t.ID] {
		if tag, ok := m.tags[id]; ok {
			c.Tags = append(c.Tags, *tag)
		}
	}
	sortTags(c.Tags)
	return &c
}

func (m *Memory) userName(id int64) string {
	if u, ok := m.users[id]; ok {
		return u.Name
	}
	return ""
}

func (m *Memory) userExists(id *int64) bool {
	if id == nil {
		return true
	}
	_, ok := m.users[*id]
	return ok
}
