package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
	"github.com/felixgeelhaar/todoask/internal/log"
	"github.com/felixgeelhaar/todoask/internal/metrics"
)

type stubResolver struct {
	identityErr error
	session     *Session
	sessionErr  error
}

func (s stubResolver) CurrentIdentity(context.Context) (*Identity, error) {
	if s.identityErr != nil {
		return nil, s.identityErr
	}
	return &Identity{Username: "alice"}, nil
}

func (s stubResolver) CurrentSession(context.Context) (*Session, error) {
	return s.session, s.sessionErr
}

func signedIn(token string) stubResolver {
	return stubResolver{session: &Session{IDToken: token}}
}

type countingNotifier struct {
	mu      sync.Mutex
	results []Result
}

func (n *countingNotifier) Unauthorized(_ context.Context, r Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

type failingDoer struct{ err error }

func (d failingDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (brokenBody) Close() error             { return nil }

type brokenBodyDoer struct{}

func (brokenBodyDoer) Do(*http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusOK, Body: brokenBody{}}, nil
}

type verb struct {
	name string
	call func(c *Client, ctx context.Context, url string) Result
}

var verbs = []verb{
	{"GET", func(c *Client, ctx context.Context, url string) Result { return c.Get(ctx, url) }},
	{"POST", func(c *Client, ctx context.Context, url string) Result {
		return c.Post(ctx, url, map[string]any{"task": "x"})
	}},
	{"PUT", func(c *Client, ctx context.Context, url string) Result {
		return c.Put(ctx, url, map[string]any{"completed": true})
	}},
	{"DELETE", func(c *Client, ctx context.Context, url string) Result { return c.Delete(ctx, url) }},
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(resolver SessionResolver, opts ...Option) (*Client, *countingNotifier) {
	n := &countingNotifier{}
	opts = append([]Option{WithNotifier(n), WithLogger(log.Nop())}, opts...)
	return New(resolver, opts...), n
}

func TestClient_SuccessReturnsPayloadUnchanged(t *testing.T) {
	for _, v := range verbs {
		t.Run(v.name, func(t *testing.T) {
			var gotMethod string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				respond(http.StatusOK, `{"ok":true,"n":3}`)(w, r)
			}))
			defer srv.Close()

			c, n := newTestClient(signedIn("tok"))
			res := v.call(c, context.Background(), srv.URL+"/tasks")

			assert.Equal(t, v.name, gotMethod)
			assert.Equal(t, OutcomeSuccess, res.Outcome)
			assert.Equal(t, map[string]any{"ok": true, "n": float64(3)}, res.Data)
			assert.Nil(t, res.Error)
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Zero(t, n.count())
		})
	}
}

func TestClient_UnauthorizedNotifiesOnce(t *testing.T) {
	for _, v := range verbs {
		t.Run(v.name, func(t *testing.T) {
			srv := httptest.NewServer(respond(http.StatusUnauthorized, `{"detail":"Invalid token"}`))
			defer srv.Close()

			c, n := newTestClient(signedIn("expired"))
			res := v.call(c, context.Background(), srv.URL+"/tasks")

			assert.True(t, res.Unauthorized())
			assert.Equal(t, map[string]any{"detail": "Invalid token"}, res.Error)
			assert.Nil(t, res.Data)
			require.Equal(t, 1, n.count())
			assert.Equal(t, res, n.results[0])
		})
	}
}

func TestClient_ServerErrorDoesNotNotify(t *testing.T) {
	for _, v := range verbs {
		t.Run(v.name, func(t *testing.T) {
			srv := httptest.NewServer(respond(http.StatusInternalServerError, `{"detail":"boom"}`))
			defer srv.Close()

			c, n := newTestClient(signedIn("tok"))
			res := v.call(c, context.Background(), srv.URL+"/tasks")

			assert.Equal(t, OutcomeServerError, res.Outcome)
			assert.Equal(t, map[string]any{"detail": "boom"}, res.Error)
			assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
			assert.Zero(t, n.count())
		})
	}
}

func TestClient_TransportFailureReturnsNetworkError(t *testing.T) {
	for _, v := range verbs {
		t.Run(v.name, func(t *testing.T) {
			c, n := newTestClient(signedIn("tok"), WithDoer(failingDoer{err: errors.New("dial tcp: connection refused")}))
			res := v.call(c, context.Background(), "http://localhost:8000/tasks")

			assert.Equal(t, OutcomeNetworkError, res.Outcome)
			assert.Equal(t, NetworkErrorMessage, res.Error)
			assert.Zero(t, res.StatusCode)
			assert.Zero(t, n.count())
		})
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		respond(http.StatusOK, `[]`)(w, r)
	}))
	defer srv.Close()

	c, _ := newTestClient(signedIn("id-token-123"))
	res := c.Get(context.Background(), srv.URL+"/tasks")

	require.True(t, res.OK())
	assert.Equal(t, "Bearer id-token-123", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.NotEmpty(t, headers.Get(RequestIDHeader))
}

func TestClient_NoCredentialStillSendsRequest(t *testing.T) {
	tests := []struct {
		name     string
		resolver SessionResolver
	}{
		{"not signed in", stubResolver{identityErr: ErrNoIdentity}},
		{"session failure", stubResolver{sessionErr: errors.New("refresh failed")}},
		{"nil session", stubResolver{}},
		{"empty id token", signedIn("")},
		{"nil resolver", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				auth = r.Header.Get("Authorization")
				respond(http.StatusOK, `{}`)(w, r)
			}))
			defer srv.Close()

			c, _ := newTestClient(tt.resolver)
			res := c.Get(context.Background(), srv.URL)

			assert.True(t, res.OK())
			assert.Equal(t, 1, calls)
			assert.Empty(t, auth)
		})
	}
}

func TestClient_GetTasksReturnsArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		respond(http.StatusOK, `[{"_id":"1","task":"buy milk","completed":false}]`)(w, r)
	}))
	defer srv.Close()

	c, _ := newTestClient(signedIn("tok"))
	res := c.Get(context.Background(), srv.URL+"/tasks")

	require.True(t, res.OK())
	assert.Equal(t, []any{
		map[string]any{"_id": "1", "task": "buy milk", "completed": false},
	}, res.Data)
}

func TestClient_PostAskNetworkFailure(t *testing.T) {
	c, n := newTestClient(signedIn("tok"), WithDoer(failingDoer{err: errors.New("no such host")}))
	res := c.Post(context.Background(), "http://localhost:8000/ask", map[string]any{"prompt": "x", "model": "gpt-4"})

	assert.Equal(t, Result{Outcome: OutcomeNetworkError, Error: "Network Error. Please try again later."}, res)
	assert.Zero(t, n.count())
}

func TestClient_SendsJSONBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(http.StatusCreated, `{"_id":"9"}`)(w, r)
	}))
	defer srv.Close()

	c, _ := newTestClient(signedIn("tok"))
	res := c.Post(context.Background(), srv.URL+"/tasks", map[string]any{"task": "walk dog", "completed": false})

	require.True(t, res.OK())
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, map[string]any{"task": "walk dog", "completed": false}, got)
}

func TestClient_BodyDecoding(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   any
	}{
		{"empty body", http.StatusNoContent, "", nil},
		{"plain text", http.StatusOK, "deleted", "deleted"},
		{"json string", http.StatusOK, `"done"`, "done"},
		{"html error", http.StatusBadGateway, "<html>bad gateway</html>", "<html>bad gateway</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(respond(tt.status, tt.body))
			defer srv.Close()

			c, _ := newTestClient(signedIn("tok"))
			res := c.Get(context.Background(), srv.URL)

			if res.OK() {
				assert.Equal(t, tt.want, res.Data)
			} else {
				assert.Equal(t, tt.want, res.Error)
			}
		})
	}
}

func TestClient_BodyReadFailureIsNetworkError(t *testing.T) {
	c, _ := newTestClient(signedIn("tok"), WithDoer(brokenBodyDoer{}))
	res := c.Get(context.Background(), "http://localhost:8000/tasks")

	assert.Equal(t, OutcomeNetworkError, res.Outcome)
	assert.Equal(t, NetworkErrorMessage, res.Error)
}

func TestClient_UnencodableBodyIsNetworkError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c, _ := newTestClient(signedIn("tok"))
	res := c.Post(context.Background(), srv.URL, map[string]any{"bad": make(chan int)})

	assert.Equal(t, OutcomeNetworkError, res.Outcome)
	assert.Zero(t, calls)
}

func TestClient_CustomHeaders(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
	}))
	defer srv.Close()

	c, _ := newTestClient(signedIn("tok"))
	res := c.Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: srv.URL,
		Headers:  http.Header{"Accept-Language": {"en"}, "Authorization": {"Basic nope"}},
	})

	require.True(t, res.OK())
	assert.Equal(t, "en", headers.Get("Accept-Language"))
	assert.Equal(t, "Bearer tok", headers.Get("Authorization"))
}

func TestClient_RecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusUnauthorized, `{"detail":"Invalid token"}`))
	defer srv.Close()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	c, _ := newTestClient(signedIn("tok"), WithMetrics(m))
	c.Get(context.Background(), srv.URL)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", metrics.OutcomeUnauthorized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnauthorizedNotifications))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CredentialLookups.WithLabelValues("attached")))
}

func TestClient_ConcurrentCalls(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{"ok":true}`))
	defer srv.Close()

	c, _ := newTestClient(signedIn("tok"))

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get(context.Background(), srv.URL)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.OK())
	}
}

func TestResult_Decode(t *testing.T) {
	res := Result{Outcome: OutcomeSuccess, Data: []any{map[string]any{"_id": "1", "task": "buy milk"}}}

	var out []struct {
		ID   string `json:"_id"`
		Task string `json:"task"`
	}
	require.NoError(t, res.Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "buy milk", out[0].Task)

	failed := Result{Outcome: OutcomeServerError, Error: map[string]any{"detail": "nope"}, StatusCode: 500}
	err := failed.Decode(&out)
	assert.Equal(t, apperrors.ErrCodeAPIServer, apperrors.CodeOf(err))
}

func TestResult_ErrorMessage(t *testing.T) {
	tests := []struct {
		name  string
		error any
		want  string
	}{
		{"nil", nil, ""},
		{"string", NetworkErrorMessage, NetworkErrorMessage},
		{"detail", map[string]any{"detail": "Invalid token"}, "Invalid token"},
		{"error", map[string]any{"error": "bad"}, "bad"},
		{"message", map[string]any{"message": "msg"}, "msg"},
		{"other object", map[string]any{"code": float64(7)}, `{"code":7}`},
		{"array", []any{"a"}, `["a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result{Error: tt.error}.ErrorMessage())
		})
	}
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Result{Outcome: OutcomeSuccess}.Err())
	assert.Equal(t, apperrors.ErrCodeUnauthorized,
		apperrors.CodeOf(Result{Outcome: OutcomeUnauthorized, Error: map[string]any{"detail": "x"}}.Err()))
	assert.Equal(t, apperrors.ErrCodeAPINetwork,
		apperrors.CodeOf(Result{Outcome: OutcomeNetworkError, Error: NetworkErrorMessage}.Err()))

	err := Result{Outcome: OutcomeServerError, Error: "teapot", StatusCode: 418}.Err()
	assert.Equal(t, apperrors.ErrCodeAPIServer, apperrors.CodeOf(err))
	assert.True(t, strings.Contains(err.Error(), "teapot"))
}

type panickingResolver struct{}

func (panickingResolver) CurrentIdentity(context.Context) (*Identity, error) {
	panic("identity backend exploded")
}

func (panickingResolver) CurrentSession(context.Context) (*Session, error) {
	return nil, nil
}

func TestClient_ResolverPanicSendsAnonymousRequest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		respond(http.StatusOK, `[]`)(w, r)
	}))
	defer srv.Close()

	c, _ := newTestClient(panickingResolver{})
	var res Result
	require.NotPanics(t, func() { res = c.Get(context.Background(), srv.URL+"/tasks") })

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, []any{}, res.Data)
	assert.Empty(t, gotAuth)
}

func TestClient_NotifierPanicKeepsResult(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusUnauthorized, `{"detail":"Invalid token"}`))
	defer srv.Close()

	calls := 0
	c := New(signedIn("tok"),
		WithLogger(log.Nop()),
		WithNotifier(NotifierFunc(func(context.Context, Result) {
			calls++
			panic("alert failed")
		})),
	)

	var res Result
	require.NotPanics(t, func() { res = c.Delete(context.Background(), srv.URL+"/tasks/1") })

	assert.Equal(t, 1, calls)
	assert.True(t, res.Unauthorized())
	assert.Equal(t, map[string]any{"detail": "Invalid token"}, res.Error)
}

func TestNotifierFunc(t *testing.T) {
	var got Result
	n := NotifierFunc(func(_ context.Context, r Result) { got = r })
	n.Unauthorized(context.Background(), Result{Outcome: OutcomeUnauthorized})
	assert.True(t, got.Unauthorized())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "server_error", OutcomeServerError.String())
	assert.Equal(t, "unauthorized", OutcomeUnauthorized.String())
	assert.Equal(t, "network_error", OutcomeNetworkError.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
