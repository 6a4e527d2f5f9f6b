package devserver

import (
	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks a username and password for the password grant.
type Authenticator func(username, password string) bool

// AnyUser accepts any non-empty username and password.
func AnyUser(username, password string) bool {
	return username != "" && password != ""
}

// BcryptUsers accepts only the listed users. Values are bcrypt hashes as
// produced by HashPassword.
func BcryptUsers(users map[string]string) Authenticator {
	hashes := make(map[string][]byte, len(users))
	for name, hash := range users {
		hashes[name] = []byte(hash)
	}
	return func(username, password string) bool {
		hash, ok := hashes[username]
		if !ok {
			return false
		}
		return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	}
}

// HashPassword returns a bcrypt hash suitable for devserver.users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
