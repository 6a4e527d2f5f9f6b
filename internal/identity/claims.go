package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// Claims are the ID token fields todoask cares about.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	ExpiresAt time.Time
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email             string `json:"email,omitempty"`
	CognitoUsername   string `json:"cognito:username,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// ParseClaims decodes an ID token without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	var tc idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeTokenMalformed, "malformed ID token", err)
	}

	claims := &Claims{
		Subject: tc.Subject,
		Email:   tc.Email,
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	switch {
	case tc.CognitoUsername != "":
		claims.Username = tc.CognitoUsername
	case tc.PreferredUsername != "":
		claims.Username = tc.PreferredUsername
	case tc.Email != "":
		claims.Username = tc.Email
	default:
		claims.Username = tc.Subject
	}

	return claims, nil
}
