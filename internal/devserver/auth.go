package devserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/todoask/internal/identity"
)

type contextKey string

const usernameKey contextKey = "username"

// InvalidTokenDetail is the detail of every 401 response.
const InvalidTokenDetail = "Invalid token"

// requireBearer rejects requests without an unexpired bearer JWT. The
// signature is not checked.
func requireBearer(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeDetail(w, http.StatusUnauthorized, InvalidTokenDetail)
				return
			}

			claims, err := identity.ParseClaims(token)
			if err != nil || claims.ExpiresAt.IsZero() || !now().Before(claims.ExpiresAt) {
				writeDetail(w, http.StatusUnauthorized, InvalidTokenDetail)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Username returns the caller set by the bearer middleware.
func Username(ctx context.Context) string {
	s, _ := ctx.Value(usernameKey).(string)
	return s
}
