package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotSignedIn, "test error message")

	if err.Code != ErrCodeNotSignedIn {
		t.Errorf("expected code %s, got %s", ErrCodeNotSignedIn, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeConfigInvalid, "invalid config"),
			wantCode: "CONFIG-001",
			wantMsg:  "invalid config",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeInputInvalid, "bad input").
		WithSuggestions("Suggestion 1", "Suggestion 2").
		WithDocs("https://example.com/docs")

	if len(err.Suggestions) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section")
	}
	for _, suggestion := range err.Suggestions {
		if !strings.Contains(errStr, suggestion) {
			t.Errorf("error string should contain suggestion: %s", suggestion)
		}
	}
	if !strings.Contains(errStr, "Documentation: https://example.com/docs") {
		t.Errorf("error string should contain docs URL")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("load session: %w", NewSessionExpiredError("alice"))

	if !errors.Is(err, New(ErrCodeSessionExpired, "")) {
		t.Errorf("expected errors.Is to match on code")
	}
	if errors.Is(err, New(ErrCodeNotSignedIn, "")) {
		t.Errorf("expected different codes not to match")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("wrapped: %w", NewNotSignedInError())); got != ErrCodeNotSignedIn {
		t.Errorf("expected %s, got %s", ErrCodeNotSignedIn, got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %s", got)
	}
}

func TestNewSessionExpiredError(t *testing.T) {
	err := NewSessionExpiredError("alice")
	if !strings.Contains(err.Message, "alice") {
		t.Errorf("message should mention the user, got %q", err.Message)
	}

	anon := NewSessionExpiredError("")
	if anon.Message != "session has expired" {
		t.Errorf("unexpected message %q", anon.Message)
	}
	if !strings.Contains(anon.Error(), "todoask auth login") {
		t.Errorf("suggestion should point at the login command")
	}
}

func TestNewUnauthorizedError(t *testing.T) {
	err := NewUnauthorizedError("Invalid token")
	if err.Code != ErrCodeUnauthorized {
		t.Errorf("expected code %s, got %s", ErrCodeUnauthorized, err.Code)
	}
	if !strings.Contains(err.Message, "Invalid token") {
		t.Errorf("message should carry the server detail")
	}
}

func TestNewFileUnmarshalError(t *testing.T) {
	cause := fmt.Errorf("invalid JSON at offset 5")
	err := NewFileUnmarshalError("/tmp/session.json", "JSON", cause)

	if err.Code != ErrCodeFileUnmarshal {
		t.Errorf("expected code %s, got %s", ErrCodeFileUnmarshal, err.Code)
	}
	if err.Cause != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !strings.Contains(err.Message, "/tmp/session.json") {
		t.Errorf("error message should contain file path")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "read failed", cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap should return the cause")
	}
}
