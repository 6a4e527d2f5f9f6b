// Package identity keeps the signed-in session of the CLI user and hands
// its ID token to the API client.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/todoask/internal/apiclient"
	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
	"github.com/felixgeelhaar/todoask/internal/log"
	"github.com/felixgeelhaar/todoask/internal/metrics"
)

var (
	// ErrNotSignedIn is returned when no session is stored.
	ErrNotSignedIn = apperrors.NewNotSignedInError()

	// ErrSessionExpired is returned when the ID token expired and cannot be
	// refreshed.
	ErrSessionExpired = apperrors.NewSessionExpiredError("")
)

// Config describes the identity provider.
type Config struct {
	// Issuer is an OIDC issuer URL used to discover the token endpoint.
	Issuer string

	// TokenURL is the OAuth2 token endpoint. It takes precedence over Issuer.
	TokenURL string

	ClientID     string
	ClientSecret string

	// Scopes requested at sign-in. Default: openid, profile, email.
	Scopes []string
}

// Configured reports whether a token endpoint can be determined.
func (c Config) Configured() bool {
	return c.TokenURL != "" || c.Issuer != ""
}

// Provider implements apiclient.SessionResolver on top of a Store. It signs
// users in with the OAuth2 password grant and refreshes expired ID tokens.
//
// Thread-safe: Safe for concurrent use.
type Provider struct {
	cfg        Config
	store      *Store
	httpClient *http.Client
	logger     *log.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	mu       sync.Mutex
	endpoint *oauth2.Endpoint
}

var _ apiclient.SessionResolver = (*Provider)(nil)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets the client used for token and discovery requests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records refresh metrics.
func WithMetrics(m *metrics.Metrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

// NewProvider creates a provider. Discovery against cfg.Issuer happens on
// first use.
func NewProvider(cfg Config, store *Store, opts ...ProviderOption) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	p := &Provider{
		cfg:    cfg,
		store:  store,
		logger: log.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("identity")
	return p
}

// Store returns the backing session store.
func (p *Provider) Store() *Store {
	return p.store
}

// CurrentIdentity returns the signed-in user or ErrNotSignedIn.
func (p *Provider) CurrentIdentity(ctx context.Context) (*apiclient.Identity, error) {
	creds, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	id := &apiclient.Identity{Username: creds.Username}
	if claims, err := ParseClaims(creds.IDToken); err == nil {
		id.Subject = claims.Subject
		id.Email = claims.Email
		if id.Username == "" {
			id.Username = claims.Username
		}
	}
	return id, nil
}

// CurrentSession returns the stored tokens, refreshing them first when the
// ID token has expired and a refresh token is available.
func (p *Provider) CurrentSession(ctx context.Context) (*apiclient.Session, error) {
	creds, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	if creds.Expired(p.now()) || creds.IDToken == "" {
		if creds.RefreshToken == "" || !p.cfg.Configured() {
			return nil, apperrors.NewSessionExpiredError(creds.Username)
		}
		creds, err = p.refresh(ctx, creds)
		if err != nil {
			return nil, err
		}
	}

	return &apiclient.Session{
		IDToken:     creds.IDToken,
		AccessToken: creds.AccessToken,
		ExpiresAt:   creds.ExpiresAt,
	}, nil
}

// Login signs a user in with the resource owner password grant and stores
// the resulting session.
func (p *Provider) Login(ctx context.Context, username, password string) (*Credentials, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperrors.NewInputRequiredError("username")
	}
	if password == "" {
		return nil, apperrors.NewInputRequiredError("password")
	}

	conf, err := p.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}

	token, err := conf.PasswordCredentialsToken(p.clientContext(ctx), username, password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeLoginFailed, "sign-in failed: "+oauthErrorMessage(err), err).
			WithSuggestion("Check your username and password")
	}

	creds, err := p.credentialsFromToken(token, "", username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeLoginFailed, "sign-in failed", err)
	}

	if err := p.store.Save(creds); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "signed in", "username", creds.Username)
	return creds, nil
}

// Logout forgets the stored session.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.store.Clear(); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "signed out")
	return nil
}

func (p *Provider) refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	conf, err := p.oauthConfig(ctx)
	if err != nil {
		p.metrics.RecordSessionRefresh(false)
		return nil, err
	}

	// A token without an access token is never valid, which forces the
	// source to hit the token endpoint.
	src := conf.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: creds.RefreshToken})
	token, err := src.Token()
	if err != nil {
		p.metrics.RecordSessionRefresh(false)
		return nil, apperrors.Wrap(apperrors.ErrCodeRefreshFailed, "failed to refresh session: "+oauthErrorMessage(err), err).
			WithSuggestion("Run 'todoask auth login' to sign in again")
	}

	refreshed, err := p.credentialsFromToken(token, creds.RefreshToken, creds.Username)
	if err != nil {
		p.metrics.RecordSessionRefresh(false)
		return nil, err
	}

	if err := p.store.Save(refreshed); err != nil {
		p.metrics.RecordSessionRefresh(false)
		return nil, err
	}

	p.metrics.RecordSessionRefresh(true)
	p.logger.DebugContext(ctx, "session refreshed", "username", refreshed.Username, "expires_at", refreshed.ExpiresAt)
	return refreshed, nil
}

func (p *Provider) credentialsFromToken(token *oauth2.Token, refreshToken, username string) (*Credentials, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, apperrors.New(apperrors.ErrCodeRefreshFailed, "no id_token in token response")
	}

	claims, err := ParseClaims(rawIDToken)
	if err != nil {
		return nil, err
	}

	creds := &Credentials{
		IDToken:      rawIDToken,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Username:     username,
		ExpiresAt:    claims.ExpiresAt,
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = refreshToken
	}
	if creds.Username == "" {
		creds.Username = claims.Username
	}
	if creds.ExpiresAt.IsZero() {
		creds.ExpiresAt = token.Expiry
	}
	return creds, nil
}

func (p *Provider) oauthConfig(ctx context.Context) (*oauth2.Config, error) {
	endpoint, err := p.resolveEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint:     *endpoint,
		Scopes:       p.cfg.Scopes,
	}, nil
}

// resolveEndpoint returns the token endpoint, discovering it from the issuer
// once per Provider.
func (p *Provider) resolveEndpoint(ctx context.Context) (*oauth2.Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.endpoint != nil {
		return p.endpoint, nil
	}

	switch {
	case p.cfg.TokenURL != "":
		p.endpoint = &oauth2.Endpoint{TokenURL: p.cfg.TokenURL}
	case p.cfg.Issuer != "":
		provider, err := oidc.NewProvider(p.clientContext(ctx), p.cfg.Issuer)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIssuerDiscovery, "failed to discover identity provider", err).
				WithSuggestion("Check identity.issuer in 'todoask config view'")
		}
		endpoint := provider.Endpoint()
		p.endpoint = &endpoint
	default:
		return nil, apperrors.New(apperrors.ErrCodeIdentityMisconfig, "no identity provider configured").
			WithSuggestion("Set identity.token_url or identity.issuer in ~/.todoask/config.yaml")
	}

	return p.endpoint, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func oauthErrorMessage(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorDescription != "" {
			return re.ErrorDescription
		}
		if re.ErrorCode != "" {
			return re.ErrorCode
		}
		if re.Response != nil {
			return re.Response.Status
		}
	}
	return err.Error()
}
