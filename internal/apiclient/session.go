package apiclient

import (
	"context"
	"time"
)

// Identity describes the signed-in user.
type Identity struct {
	Username string
	Subject  string
	Email    string
}

// Session holds the tokens of the current sign-in. IDToken may be empty.
type Session struct {
	IDToken     string
	AccessToken string
	ExpiresAt   time.Time
}

// SessionResolver is the identity provider capability the client consumes.
// CurrentIdentity fails when nobody is signed in.
type SessionResolver interface {
	CurrentIdentity(ctx context.Context) (*Identity, error)
	CurrentSession(ctx context.Context) (*Session, error)
}

// AnonymousResolver never yields a credential. Requests go out without an
// Authorization header.
type AnonymousResolver struct{}

// CurrentIdentity implements SessionResolver.
func (AnonymousResolver) CurrentIdentity(context.Context) (*Identity, error) {
	return nil, ErrNoIdentity
}

// CurrentSession implements SessionResolver.
func (AnonymousResolver) CurrentSession(context.Context) (*Session, error) {
	return nil, ErrNoIdentity
}
