// Package apiclient performs authenticated JSON calls against the todoask
// backends and folds every outcome into a Result.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/todoask/internal/log"
	"github.com/felixgeelhaar/todoask/internal/metrics"
	"github.com/felixgeelhaar/todoask/internal/telemetry"
	"github.com/felixgeelhaar/todoask/internal/version"
)

// ErrNoIdentity is returned by resolvers when nobody is signed in.
var ErrNoIdentity = errors.New("no signed-in identity")

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one call. It is built per call and discarded after the
// response.
type Request struct {
	Method   string
	Endpoint string
	Body     any
	Headers  http.Header
}

// Client attaches the caller's ID token to outgoing requests and normalizes
// responses. It holds no state beyond its configuration and is safe for
// concurrent use.
type Client struct {
	resolver SessionResolver
	notifier Notifier
	doer     Doer
	logger   *log.Logger
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the transport used to send requests.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithNotifier sets the 401 side effect.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records per-call metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client. A nil resolver sends every request anonymously.
func New(resolver SessionResolver, opts ...Option) *Client {
	if resolver == nil {
		resolver = AnonymousResolver{}
	}
	c := &Client{
		resolver: resolver,
		notifier: nopNotifier{},
		doer:     NewTransport(0),
		logger:   log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("apiclient")
	return c
}

// Get performs a GET against endpoint.
func (c *Client) Get(ctx context.Context, endpoint string) Result {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint})
}

// Post performs a POST of body against endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, body any) Result {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Body: body})
}

// Put performs a PUT of body against endpoint.
func (c *Client) Put(ctx context.Context, endpoint string, body any) Result {
	return c.Do(ctx, Request{Method: http.MethodPut, Endpoint: endpoint, Body: body})
}

// Delete performs a DELETE against endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string) Result {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: endpoint})
}

// Do sends req and classifies the outcome. It never returns an error; every
// failure is folded into the Result.
func (c *Client) Do(ctx context.Context, req Request) Result {
	start := time.Now()
	ctx, span := telemetry.StartRequestSpan(ctx, req.Method, req.Endpoint)
	defer span.End()

	token := c.safeResolveToken(ctx)
	result := c.send(ctx, req, token)

	telemetry.RecordOutcome(span, result.Outcome.String(), result.StatusCode, token != "")
	c.metrics.RecordAPIRequest(req.Method, result.Outcome.String(), time.Since(start))

	if result.Unauthorized() {
		c.metrics.RecordUnauthorizedNotification()
		c.notify(ctx, result)
	}
	return result
}

// safeResolveToken treats a panicking resolver like a failed one.
func (c *Client) safeResolveToken(ctx context.Context) (token string) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.ErrorContext(ctx, "session resolver panicked, sending request without credential", "panic", p)
			c.metrics.RecordCredentialLookup(false)
			token = ""
		}
	}()
	return c.resolveToken(ctx)
}

// notify calls the notifier. A panic in it is logged and does not change
// the result.
func (c *Client) notify(ctx context.Context, result Result) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.ErrorContext(ctx, "unauthorized notifier panicked", "panic", p)
		}
	}()
	c.notifier.Unauthorized(ctx, result)
}

// resolveToken returns the ID token of the signed-in user, or "" when none
// can be obtained. Resolver failures are logged and never surfaced.
func (c *Client) resolveToken(ctx context.Context) string {
	if _, err := c.resolver.CurrentIdentity(ctx); err != nil {
		c.logger.DebugContext(ctx, "no signed-in identity, sending request without credential", "error", err)
		c.metrics.RecordCredentialLookup(false)
		return ""
	}
	session, err := c.resolver.CurrentSession(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to resolve session, sending request without credential", "error", err)
		c.metrics.RecordCredentialLookup(false)
		return ""
	}
	if session == nil || session.IDToken == "" {
		c.metrics.RecordCredentialLookup(false)
		return ""
	}
	c.metrics.RecordCredentialLookup(true)
	return session.IDToken
}

func (c *Client) send(ctx context.Context, req Request, token string) Result {
	httpReq, err := c.buildRequest(ctx, req, token)
	if err != nil {
		c.logger.ErrorContext(ctx, "network error", "method", req.Method, "endpoint", req.Endpoint, "error", err)
		return networkResult()
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		c.logger.ErrorContext(ctx, "network error", "method", req.Method, "endpoint", req.Endpoint, "error", err)
		return networkResult()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "network error", "method", req.Method, "endpoint", req.Endpoint,
			"status", resp.StatusCode, "error", fmt.Errorf("failed to read response body: %w", err))
		return networkResult()
	}
	payload := decodePayload(body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return successResult(resp.StatusCode, payload)
	}

	c.logger.ErrorContext(ctx, "API error", "method", req.Method, "endpoint", req.Endpoint,
		"status", resp.StatusCode, "payload", payload)
	return errorResult(resp.StatusCode, payload)
}

func (c *Client) buildRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	var reqBody io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", version.UserAgent())
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

// decodePayload decodes a response body. Empty bodies are nil and bodies
// that are not JSON are returned verbatim as a string.
func decodePayload(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}
