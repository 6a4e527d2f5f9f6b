// Package exitcode maps command errors to process exit statuses.
package exitcode

import (
	"os"
	"strings"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

const (
	Success      = 0
	GeneralError = 1
	// UsageError covers bad flags, missing arguments and rejected input.
	UsageError   = 2
	ConfigError  = 3
	// ServerError means the backend answered with an error payload.
	ServerError  = 4
	AuthError    = 5
	NetworkError = 6
	// Interrupted follows the shell convention for SIGINT.
	Interrupted  = 130
)

// Exit terminates the process with code.
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with the code DetermineExitCode picks for err.
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// messageRules classify errors that carry no application code. Every
// fragment of a rule must appear in the lowercased message.
var messageRules = []struct {
	fragments []string
	code      int
}{
	{[]string{"unauthorized"}, AuthError},
	{[]string{"not signed in"}, AuthError},
	{[]string{"session", "expired"}, AuthError},
	{[]string{"network"}, NetworkError},
	{[]string{"connection"}, NetworkError},
	{[]string{"timeout"}, NetworkError},
	{[]string{"unreachable"}, NetworkError},
	{[]string{"invalid flag"}, UsageError},
	{[]string{"unknown command"}, UsageError},
	{[]string{"required flag"}, UsageError},
	{[]string{"accepts"}, UsageError},
}

// DetermineExitCode prefers the application error code carried by err and
// falls back to inspecting the message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}
	if code := apperrors.CodeOf(err); code != "" {
		return fromErrorCode(code)
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if containsAll(msg, rule.fragments) {
			return rule.code
		}
	}
	return GeneralError
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}

func fromErrorCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeAPINetwork:
		return NetworkError
	case apperrors.ErrCodeAPIServer, apperrors.ErrCodeAPIDecode:
		return ServerError
	}

	switch area, _, _ := strings.Cut(string(code), "-"); area {
	case "AUTH":
		return AuthError
	case "INPUT":
		return UsageError
	case "CONFIG":
		return ConfigError
	}
	return GeneralError
}
