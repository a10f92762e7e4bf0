package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/handler"
	"github.com/samims/birthday/internal/kafka"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/internal/service"
	"github.com/samims/birthday/internal/storage"
	"github.com/samims/birthday/pkg/tracing"
)

type nopSender struct{}

func (nopSender) Send(context.Context, model.User) model.Outcome {
	return model.Outcome{Kind: model.OutcomeDelivered}
}

func newTestRouter(t *testing.T, store storage.UserStorage) http.Handler {
	t.Helper()
	n := service.NewBirthdayNotifier(nopSender{}, kafka.NoopPublisher{}, zap.NewNop())
	users := handler.NewUserHandler(service.NewUserService(store, n, zap.NewNop()), zap.NewNop(), tracing.GetTracer("test"))
	health := handler.NewHealthHandler(service.NewHealthService(store, zap.NewNop()))
	return NewRouter(users, health)
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// memoryStorage keeps users in a map keyed by full name.
type memoryStorage struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{users: map[string]model.User{}}
}

func (m *memoryStorage) Ping(context.Context) error { return nil }

func (m *memoryStorage) Insert(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.FullName] = user
	return nil
}

func (m *memoryStorage) DeleteByFullName(_ context.Context, fullName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[fullName]; !ok {
		return 0, nil
	}
	delete(m.users, fullName)
	return 1, nil
}

func (m *memoryStorage) UpdateByFullName(_ context.Context, upd model.UserUpdate) (model.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.users[upd.FullName]
	if !ok {
		return model.UpdateResult{}, nil
	}
	cur := prev
	cur.Birthday, cur.Location, cur.Email = upd.Birthday, upd.Location, upd.Email
	m.users[upd.FullName] = cur
	return model.UpdateResult{Affected: 1, Previous: prev, Current: cur}, nil
}

func (m *memoryStorage) FindAll(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func TestRouter_CreateThenDeleteTwice(t *testing.T) {
	store := newMemoryStorage()
	r := newTestRouter(t, store)

	create := serve(r, http.MethodPost, "/user",
		`{"fullName":"Ann Lee","customMessage":"Hi","birthday":"1990-03-01","location":"Sydney","email":"ann@example.com"}`)
	require.Equal(t, http.StatusCreated, create.Code)
	require.Contains(t, store.users, "Ann Lee")

	first := serve(r, http.MethodDelete, "/user", `{"fullName":"Ann Lee"}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.NotContains(t, store.users, "Ann Lee")

	second := serve(r, http.MethodDelete, "/user", `{"fullName":"Ann Lee"}`)
	assert.Equal(t, http.StatusNotFound, second.Code)
}

func TestRouter_DeleteWithoutCreate(t *testing.T) {
	r := newTestRouter(t, newMemoryStorage())

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/user", `{"fullName":"Ann Lee"}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/user", "").Code)
}

func TestRouter_EditStoredUser(t *testing.T) {
	store := newMemoryStorage()
	r := newTestRouter(t, store)

	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/user",
		`{"fullName":"Ann Lee","customMessage":"Hi","birthday":"1990-03-01","location":"Sydney","email":"ann@example.com"}`).Code)

	rec := serve(r, http.MethodPut, "/user",
		`{"fullName":"Ann Lee","newBirthday":"1990-03-02","location":"Perth","newEmail":"ann@new.example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Perth", store.users["Ann Lee"].Location)

	missing := serve(r, http.MethodPut, "/user",
		`{"fullName":"Bo Chen","newBirthday":"1990-03-02","location":"Perth","newEmail":"bo@example.com"}`)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	store := storage.NewMockUserStorage(t)
	store.On("Ping", mock.Anything).Return(nil)
	r := newTestRouter(t, store)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)
}

func TestRouter_UnknownMethod(t *testing.T) {
	r := newTestRouter(t, storage.NewMockUserStorage(t))

	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodGet, "/user", "").Code)
}
