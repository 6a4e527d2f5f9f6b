package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/todoask/internal/identity"
)

func sleepy(name string, delay time.Duration, result *Result) Checker {
	return CheckFunc(name, func(ctx context.Context) *Result {
		select {
		case <-time.After(delay):
			return result
		case <-ctx.Done():
			return Unhealthy("check cancelled").With("error", ctx.Err().Error())
		}
	})
}

func fixed(name string, result *Result) Checker {
	return CheckFunc(name, func(context.Context) *Result { return result })
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "degraded", StatusDegraded.String())
	assert.Equal(t, StatusUnhealthy, StatusDegraded.Worse(StatusUnhealthy))
	assert.Equal(t, StatusDegraded, StatusDegraded.Worse(StatusHealthy))
}

func TestManagerRun(t *testing.T) {
	m := NewManager(fixed("a", Healthy("ok")), fixed("b", Degraded("meh")))
	m.Register(fixed("c", nil))

	report := m.Run(context.Background())
	require.Len(t, report.Checks, 3)
	assert.Equal(t, []string{"a", "b", "c"}, report.Names)
	assert.Equal(t, StatusHealthy, report.Checks["a"].Status)
	assert.Equal(t, StatusDegraded, report.Checks["b"].Status)
	assert.Equal(t, StatusUnhealthy, report.Checks["c"].Status, "nil result is unhealthy")
	assert.Equal(t, StatusUnhealthy, report.Status)
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager(sleepy("slow", time.Second, Healthy("ok")))
	m.Timeout = 20 * time.Millisecond

	start := time.Now()
	report := m.Run(context.Background())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StatusUnhealthy, report.Checks["slow"].Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Checks["slow"].Details["error"])
	assert.NotZero(t, report.Checks["slow"].Latency)
}

func TestReportStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []*Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []*Result{Healthy(""), Healthy("")}, StatusHealthy},
		{"one degraded", []*Result{Healthy(""), Degraded("")}, StatusDegraded},
		{"unhealthy wins", []*Result{Unhealthy(""), Degraded("")}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for i, r := range tt.results {
				m.Register(fixed(string(rune('a'+i)), r))
			}
			assert.Equal(t, tt.want, m.Run(context.Background()).Status)
		})
	}
}

func TestProbes(t *testing.T) {
	p := NewProbes("1.2.3")
	p.Register(fixed("store", Healthy("ok")))

	live := p.Liveness(context.Background())
	assert.Equal(t, StatusHealthy, live.Status)
	assert.Equal(t, "1.2.3", live.Version)
	assert.Empty(t, live.Checks)

	ready := p.Readiness(context.Background())
	assert.Equal(t, StatusHealthy, ready.Status)
	assert.Contains(t, ready.Checks, "store")

	p.Drain()
	assert.True(t, p.Draining())
	assert.Equal(t, StatusDegraded, p.Liveness(context.Background()).Status)
	ready = p.Readiness(context.Background())
	assert.Equal(t, StatusUnhealthy, ready.Status)
	assert.Empty(t, ready.Checks)
}

func TestHTTPChecker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/protected":
			w.WriteHeader(http.StatusUnauthorized)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer ts.Close()

	tests := []struct {
		name string
		url  string
		want Status
	}{
		{"ok", ts.URL + "/", StatusHealthy},
		{"unauthorized is reachable", ts.URL + "/protected", StatusHealthy},
		{"server error", ts.URL + "/broken", StatusUnhealthy},
		{"unreachable", "http://127.0.0.1:1/", StatusUnhealthy},
		{"invalid url", "://nope", StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewHTTPChecker("svc", tt.url, nil)
			assert.Equal(t, "svc", c.Name())
			result := c.Check(context.Background())
			assert.Equal(t, tt.want, result.Status, result.Message)
		})
	}
}

func TestSessionChecker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		creds *identity.Credentials
		want  Status
	}{
		{"not signed in", nil, StatusUnhealthy},
		{"valid", &identity.Credentials{IDToken: "t", Username: "alice", ExpiresAt: now.Add(time.Hour)}, StatusHealthy},
		{"no expiry", &identity.Credentials{IDToken: "t", Username: "alice"}, StatusHealthy},
		{"expired with refresh", &identity.Credentials{IDToken: "t", RefreshToken: "r", ExpiresAt: now.Add(-time.Minute)}, StatusDegraded},
		{"expired", &identity.Credentials{IDToken: "t", ExpiresAt: now.Add(-time.Minute)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := identity.NewStore(filepath.Join(t.TempDir(), "session.json"))
			if tt.creds != nil {
				require.NoError(t, store.Save(tt.creds))
			}

			c := NewSessionChecker(store)
			c.now = func() time.Time { return now }
			assert.Equal(t, "session", c.Name())
			assert.Equal(t, tt.want, c.Check(context.Background()).Status)
		})
	}
}
