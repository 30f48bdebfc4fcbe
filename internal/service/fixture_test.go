package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/events"
	"github.com/phrazzld/takeatask-api/internal/mocks"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

type fixture struct {
	mem     *mocks.Memory
	tx      *mocks.Transactor
	blobs   *mocks.MemoryBlobStore
	emitter *recordingEmitter
	logs    *logger.TestLogBuffer

	users       service.UserService
	tags        service.TagService
	tasks       service.TaskService
	subtasks    service.SubtaskService
	comments    service.CommentService
	attachments service.AttachmentService

	attachmentStore *mocks.MemoryAttachmentStore

	admin *domain.User
	alice *domain.User
	bob   *domain.User
	carol *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log, buf := logger.NewTestLogger()
	f := &fixture{
		mem:     mocks.NewMemory(),
		tx:      &mocks.Transactor{},
		blobs:   mocks.NewMemoryBlobStore(),
		emitter: &recordingEmitter{},
		logs:    buf,
	}
	f.attachmentStore = f.mem.Attachments()

	f.users = service.NewUserService(f.mem.Users(), f.tx, log)
	f.tags = service.NewTagService(f.mem.Tags(), f.tx, log)
	f.tasks = service.NewTaskService(service.TaskStores{
		Tasks:       f.mem.Tasks(),
		Tags:        f.mem.Tags(),
		Users:       f.mem.Users(),
		Subtasks:    f.mem.Subtasks(),
		Comments:    f.mem.Comments(),
		Attachments: f.attachmentStore,
	}, f.blobs, f.emitter, f.tx, log)
	f.subtasks = service.NewSubtaskService(f.mem.Tasks(), f.mem.Subtasks(), f.mem.Users(), f.tx, log)
	f.comments = service.NewCommentService(f.mem.Tasks(), f.mem.Comments(), f.tx, log)
	f.attachments = service.NewAttachmentService(f.mem.Tasks(), f.attachmentStore, f.blobs, f.tx, log)

	f.admin = f.addUser(t, "Ada Admin", "admin", "admin@example.com", domain.RoleAdministratorManager)
	f.alice = f.addUser(t, "Alice", "alice", "alice@example.com", domain.RoleStandardUser)
	f.bob = f.addUser(t, "Bob Builder", "bob@example.com", "bob@example.com", domain.RoleStandardUser)
	f.carol = f.addUser(t, "Carol", "carol", "carol@example.com", domain.RoleStandardUser)
	return f
}

func (f *fixture) addUser(t *testing.T, name, login, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name, login, email, "secret123", role)
	require.NoError(t, err)
	return f.mem.MustAddUser(u)
}

// createTask creates a task through the service and fails the test on error.
func (f *fixture) createTask(t *testing.T, caller *domain.User, in service.TaskInput) *domain.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), caller, in)
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }

func taskIDs(tasks []*domain.Task) []int64 {
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func tagNames(tags []domain.Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

var errBoom = errors.New("boom")
