package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/todoask/internal/apiclient"
	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
	"github.com/felixgeelhaar/todoask/internal/log"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := recordedRequest{Method: r.Method, Path: r.URL.Path}
	_ = json.NewDecoder(r.Body).Decode(&req.Body)

	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	_, _ = w.Write([]byte(b.reply))
}

func (b *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.requests)
	return b.requests[len(b.requests)-1]
}

func newService(t *testing.T, backend *fakeBackend) *Service {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	client := apiclient.New(apiclient.AnonymousResolver{}, apiclient.WithLogger(log.Nop()))
	return NewService(client, srv.URL+"/")
}

func TestService_List(t *testing.T) {
	backend := &fakeBackend{reply: `[{"_id":"1","task":"buy milk","completed":false},{"_id":"2","task":"walk dog","completed":true}]`}
	svc := newService(t, backend)

	tasks, res, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []Task{
		{ID: "1", Task: "buy milk"},
		{ID: "2", Task: "walk dog", Completed: true},
	}, tasks)
	assert.Equal(t, recordedRequest{Method: http.MethodGet, Path: "/tasks"}, backend.last(t))
}

func TestService_ListUnauthorized(t *testing.T) {
	backend := &fakeBackend{status: http.StatusUnauthorized, reply: `{"detail":"Invalid token"}`}
	svc := newService(t, backend)

	tasks, res, err := svc.List(context.Background())
	assert.Nil(t, tasks)
	assert.True(t, res.Unauthorized())
	assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.CodeOf(err))
}

func TestService_Create(t *testing.T) {
	backend := &fakeBackend{status: http.StatusCreated, reply: `{"_id":"abc","task":"buy milk","completed":false}`}
	svc := newService(t, backend)

	task, _, err := svc.Create(context.Background(), "  buy milk ")
	require.NoError(t, err)
	assert.Equal(t, &Task{ID: "abc", Task: "buy milk"}, task)

	req := backend.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	assert.Equal(t, map[string]any{"task": "buy milk", "completed": false}, req.Body)
}

func TestService_CreateRejectsEmptyText(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend)

	_, _, err := svc.Create(context.Background(), "   ")
	assert.Equal(t, apperrors.ErrCodeInputRequired, apperrors.CodeOf(err))
	assert.Empty(t, backend.requests)
}

func TestService_SetCompleted(t *testing.T) {
	backend := &fakeBackend{reply: `{"message":"updated"}`}
	svc := newService(t, backend)

	updated, _, err := svc.SetCompleted(context.Background(), Task{ID: "a/b", Task: "buy milk"}, true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "a/b", updated.ID)

	req := backend.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tasks/a/b", req.Path)
	assert.Equal(t, true, req.Body["completed"])
	assert.Equal(t, "buy milk", req.Body["task"])
}

func TestService_Delete(t *testing.T) {
	backend := &fakeBackend{status: http.StatusNoContent}
	svc := newService(t, backend)

	res, err := svc.Delete(context.Background(), "42")
	require.NoError(t, err)
	assert.Nil(t, res.Data)
	assert.Equal(t, http.MethodDelete, backend.last(t).Method)
	assert.Equal(t, "/tasks/42", backend.last(t).Path)
}

func TestService_DeleteServerError(t *testing.T) {
	backend := &fakeBackend{status: http.StatusNotFound, reply: `{"detail":"Task not found"}`}
	svc := newService(t, backend)

	res, err := svc.Delete(context.Background(), "42")
	assert.Equal(t, apiclient.OutcomeServerError, res.Outcome)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Task not found"))
}

func TestService_NetworkError(t *testing.T) {
	client := apiclient.New(nil, apiclient.WithLogger(log.Nop()))
	svc := NewService(client, "http://127.0.0.1:1")

	_, res, err := svc.List(context.Background())
	assert.Equal(t, apiclient.NetworkErrorMessage, res.Error)
	assert.Equal(t, apperrors.ErrCodeAPINetwork, apperrors.CodeOf(err))
}

func TestFind(t *testing.T) {
	list := []Task{{ID: "abc123"}, {ID: "abd456"}, {ID: "x"}}

	got, err := Find(list, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.ID)

	got, err = Find(list, "abd")
	require.NoError(t, err)
	assert.Equal(t, "abd456", got.ID)

	_, err = Find(list, "ab")
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = Find(list, "zzz")
	assert.Equal(t, apperrors.ErrCodeInputInvalid, apperrors.CodeOf(err))
}
