package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Identity errors (AUTH-001 to AUTH-099)
	ErrCodeNotSignedIn       ErrorCode = "AUTH-001"
	ErrCodeSessionExpired    ErrorCode = "AUTH-002"
	ErrCodeLoginFailed       ErrorCode = "AUTH-003"
	ErrCodeTokenMalformed    ErrorCode = "AUTH-004"
	ErrCodeRefreshFailed     ErrorCode = "AUTH-005"
	ErrCodeUnauthorized      ErrorCode = "AUTH-006"
	ErrCodeIssuerDiscovery   ErrorCode = "AUTH-007"
	ErrCodeIdentityMisconfig ErrorCode = "AUTH-008"

	// API errors (API-001 to API-099)
	ErrCodeAPIServer  ErrorCode = "API-001"
	ErrCodeAPINetwork ErrorCode = "API-002"
	ErrCodeAPIDecode  ErrorCode = "API-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigLoad    ErrorCode = "CONFIG-002"

	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeInputRequired ErrorCode = "INPUT-001"
	ErrCodeInputInvalid  ErrorCode = "INPUT-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"

	// Diagnostics errors (HEALTH-001 to HEALTH-099)
	ErrCodeHealthCheck ErrorCode = "HEALTH-001"
)

// AppError represents an enhanced error with code, suggestions, and documentation
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppError) WithDocs(url string) *AppError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Common error constructors for frequently used errors

// NewNotSignedInError reports that no identity is stored locally
func NewNotSignedInError() *AppError {
	return New(ErrCodeNotSignedIn, "not signed in").
		WithSuggestion("Run 'todoask auth login' to sign in")
}

// NewSessionExpiredError reports an expired ID token that could not be refreshed
func NewSessionExpiredError(username string) *AppError {
	msg := "session has expired"
	if username != "" {
		msg = fmt.Sprintf("session for %s has expired", username)
	}
	return New(ErrCodeSessionExpired, msg).
		WithSuggestion("Run 'todoask auth login' to sign in again")
}

// NewUnauthorizedError is returned by commands whose API call was rejected with 401
func NewUnauthorizedError(detail string) *AppError {
	msg := "unauthorized"
	if detail != "" {
		msg = fmt.Sprintf("unauthorized: %s", detail)
	}
	return New(ErrCodeUnauthorized, msg).
		WithSuggestion("Run 'todoask auth login' to sign in again")
}

// NewAPIServerError describes an error payload returned by a backend
func NewAPIServerError(status int, detail string) *AppError {
	return New(ErrCodeAPIServer, fmt.Sprintf("server returned status %d: %s", status, detail))
}

// NewAPINetworkError carries the fixed network failure message shown to users
func NewAPINetworkError(message string) *AppError {
	return New(ErrCodeAPINetwork, message).
		WithSuggestion("Check that the service URLs in 'todoask config view' are reachable")
}

// NewInputRequiredError creates a required input error
func NewInputRequiredError(field string) *AppError {
	return New(ErrCodeInputRequired, fmt.Sprintf("%s is required", field))
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *AppError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *AppError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
