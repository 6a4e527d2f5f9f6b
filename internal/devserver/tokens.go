package devserver

import (
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer is a development OAuth2 token endpoint. It checks passwords
// with an Authenticator and issues HS256 ID tokens.
type TokenIssuer struct {
	key          []byte
	ttl          time.Duration
	issuer       string
	now          func() time.Time
	authenticate Authenticator

	mu      sync.Mutex
	refresh map[string]string
}

// NewTokenIssuer creates an issuer with a random signing key. A nil
// Authenticator accepts any user.
func NewTokenIssuer(issuer string, ttl time.Duration, now func() time.Time, auth Authenticator) *TokenIssuer {
	if auth == nil {
		auth = AnyUser
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return &TokenIssuer{
		key:          key,
		ttl:          ttl,
		issuer:       issuer,
		now:          now,
		authenticate: auth,
		refresh:      make(map[string]string),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
}

type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ServeHTTP handles the password and refresh_token grants.
func (ti *TokenIssuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, oauthError{Error: "invalid_request"})
		return
	}

	var username string
	switch r.PostForm.Get("grant_type") {
	case "password":
		username = r.PostForm.Get("username")
		if !ti.authenticate(username, r.PostForm.Get("password")) {
			writeJSON(w, http.StatusBadRequest, oauthError{
				Error:            "invalid_grant",
				ErrorDescription: "Invalid username or password",
			})
			return
		}
	case "refresh_token":
		ti.mu.Lock()
		username = ti.refresh[r.PostForm.Get("refresh_token")]
		ti.mu.Unlock()
		if username == "" {
			writeJSON(w, http.StatusBadRequest, oauthError{Error: "invalid_grant"})
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, oauthError{Error: "unsupported_grant_type"})
		return
	}

	resp, err := ti.issue(username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, oauthError{Error: "server_error", ErrorDescription: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (ti *TokenIssuer) issue(username string) (*tokenResponse, error) {
	now := ti.now()
	claims := jwt.MapClaims{
		"iss":              ti.issuer,
		"sub":              uuid.NewSHA1(uuid.NameSpaceURL, []byte(username)).String(),
		"cognito:username": username,
		"iat":              now.Unix(),
		"exp":              now.Add(ti.ttl).Unix(),
	}

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	ti.mu.Lock()
	ti.refresh[refresh] = username
	ti.mu.Unlock()

	return &tokenResponse{
		AccessToken:  uuid.NewString(),
		TokenType:    "Bearer",
		ExpiresIn:    int(ti.ttl.Seconds()),
		RefreshToken: refresh,
		IDToken:      idToken,
	}, nil
}
