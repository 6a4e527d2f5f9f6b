package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/todoask/internal/identity"
)

// HTTPChecker reports whether an HTTP endpoint answers. Any response below
// 500 counts as reachable, so a 401 from a protected route is healthy.
type HTTPChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPChecker probes url with GET. A nil client uses http.DefaultClient.
func NewHTTPChecker(name, url string, client *http.Client) *HTTPChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPChecker{name: name, url: url, client: client}
}

// Name returns the name of this health check.
func (c *HTTPChecker) Name() string {
	return c.name
}

// Check issues the probe request.
func (c *HTTPChecker) Check(ctx context.Context) *Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Unhealthy("invalid URL").With("url", c.url).With("error", err.Error())
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	var result *Result
	switch {
	case err != nil:
		result = Unhealthy("unreachable").With("error", err.Error())
	case resp.StatusCode >= http.StatusInternalServerError:
		result = Unhealthy(fmt.Sprintf("server error (HTTP %d)", resp.StatusCode))
	default:
		result = Healthy(fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode))
	}
	result.Latency = time.Since(start)
	result.With("url", c.url)
	if resp != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		result.With("status_code", resp.StatusCode)
	}
	return result
}

// SessionChecker inspects the stored sign-in session without contacting the
// identity provider.
type SessionChecker struct {
	store *identity.Store
	now   func() time.Time
}

// NewSessionChecker checks the session in store.
func NewSessionChecker(store *identity.Store) *SessionChecker {
	return &SessionChecker{store: store, now: time.Now}
}

// Name returns the name of this health check.
func (c *SessionChecker) Name() string {
	return "session"
}

// Check loads the session. An expired ID token with a refresh token is
// degraded since the next request refreshes it.
func (c *SessionChecker) Check(_ context.Context) *Result {
	creds, err := c.store.Load()
	switch {
	case errors.Is(err, identity.ErrNotSignedIn):
		return Unhealthy("not signed in").
			With("suggestion", "Run 'todoask auth login' to sign in")
	case err != nil:
		return Unhealthy("session file unreadable").
			With("path", c.store.Path()).
			With("error", err.Error())
	}

	now := c.now()
	if !creds.Expired(now) {
		result := Healthy("signed in as " + creds.Username)
		if !creds.ExpiresAt.IsZero() {
			result.With("expires_in", creds.ExpiresAt.Sub(now).Round(time.Second).String())
		}
		return result
	}
	if creds.RefreshToken != "" {
		return Degraded("ID token expired, it will be refreshed on the next request").
			With("username", creds.Username)
	}
	return Unhealthy("session expired").
		With("username", creds.Username).
		With("suggestion", "Run 'todoask auth login' to sign in")
}
