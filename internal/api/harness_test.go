package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/api/middleware"
	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/mocks"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/service/auth"
)

const testPassword = "secret123"

// harness serves the full API over in-memory stores. Access tokens are
// "user-<id>".
type harness struct {
	t      *testing.T
	mem    *mocks.Memory
	blobs  *mocks.MemoryBlobStore
	jwt    *mocks.MockJWTService
	router http.Handler

	admin *domain.User
	alice *domain.User
	bob   *domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log, _ := logger.NewTestLogger()
	mem := mocks.NewMemory()
	tx := &mocks.Transactor{}
	blobs := mocks.NewMemoryBlobStore()
	attachments := mem.Attachments()

	jwt := &mocks.MockJWTService{
		Token:        "access-token",
		RefreshToken: "refresh-token",
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			id, err := strconv.ParseInt(strings.TrimPrefix(token, "user-"), 10, 64)
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id, TokenType: "access"}, nil
		},
	}

	users := service.NewUserService(mem.Users(), tx, log)
	tags := service.NewTagService(mem.Tags(), tx, log)
	tasks := service.NewTaskService(service.TaskStores{
		Tasks:       mem.Tasks(),
		Tags:        mem.Tags(),
		Users:       mem.Users(),
		Subtasks:    mem.Subtasks(),
		Comments:    mem.Comments(),
		Attachments: attachments,
	}, blobs, nil, tx, log)

	h := Handlers{
		Auth:     NewAuthHandler(mem.Users(), users, jwt, auth.NewBcryptVerifier(), log),
		Users:    NewUserHandler(users, log),
		Tags:     NewTagHandler(tags, log),
		Tasks:    NewTaskHandler(tasks, log),
		Subtasks: NewSubtaskHandler(service.NewSubtaskService(mem.Tasks(), mem.Subtasks(), mem.Users(), tx, log), log),
		Comments: NewCommentHandler(service.NewCommentService(mem.Tasks(), mem.Comments(), tx, log), log),
		Attachments: NewAttachmentHandler(
			service.NewAttachmentService(mem.Tasks(), attachments, blobs, tx, log), 1<<20, log),
	}

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	RegisterRoutes(r, h, middleware.NewAuthMiddleware(jwt, mem.Users()).Authenticate)

	hs := &harness{t: t, mem: mem, blobs: blobs, jwt: jwt, router: r}
	hs.admin = hs.addUser("Ada Admin", "admin", domain.RoleAdministratorManager, true)
	hs.alice = hs.addUser("Alice Smith", "alice", domain.RoleStandardUser, true)
	hs.bob = hs.addUser("Bob Builder", "bob", domain.RoleStandardUser, true)
	return hs
}

func (h *harness) addUser(name, login string, role domain.Role, active bool) *domain.User {
	h.t.Helper()
	u, err := domain.NewUser(name, login, login+"@example.com", testPassword, role)
	require.NoError(h.t, err)
	u.Active = active
	return h.mem.MustAddUser(u)
}

// do sends a request as caller; a nil caller sends no Authorization header.
// body is sent verbatim when it is a string and JSON-encoded otherwise.
func (h *harness) do(method, path string, caller *domain.User, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(h.t, err)
		rd = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer user-%d", caller.ID))
	}
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorded JSON body into a T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// requireError asserts the status code and error message of a response.
func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	resp := decode[shared.ErrorResponse](t, rec)
	require.Equal(t, message, resp.Error)
	require.NotEmpty(t, resp.TraceID)
}
