package apiclient

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// NetworkErrorMessage is the Error value of every OutcomeNetworkError result.
const NetworkErrorMessage = "Network Error. Please try again later."

// Outcome classifies how a call ended.
type Outcome int

const (
	// OutcomeSuccess means a 2xx response was received.
	OutcomeSuccess Outcome = iota
	// OutcomeServerError means a non-2xx, non-401 response was received.
	OutcomeServerError
	// OutcomeUnauthorized means the server answered 401.
	OutcomeUnauthorized
	// OutcomeNetworkError means no response was received.
	OutcomeNetworkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeServerError:
		return "server_error"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the normalized outcome of a call. Exactly one of Data or Error
// is meaningful, chosen by Outcome.
type Result struct {
	Outcome Outcome

	// Data is the decoded success payload. JSON objects decode to
	// map[string]any, arrays to []any. An empty body is nil.
	Data any

	// Error is the decoded server payload, or NetworkErrorMessage.
	Error any

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Unauthorized reports whether the server rejected the credential.
func (r Result) Unauthorized() bool {
	return r.Outcome == OutcomeUnauthorized
}

// Decode re-encodes Data into v. It fails on non-success results.
func (r Result) Decode(v any) error {
	if !r.OK() {
		return r.Err()
	}
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAPIDecode, "failed to re-encode response payload", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAPIDecode, "unexpected response payload", err)
	}
	return nil
}

// ErrorMessage renders the Error payload for humans. Objects are searched
// for a "detail", "error" or "message" field before falling back to JSON.
func (r Result) ErrorMessage() string {
	switch v := r.Error.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"detail", "error", "message"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	raw, err := json.Marshal(r.Error)
	if err != nil {
		return fmt.Sprint(r.Error)
	}
	return string(raw)
}

// Err converts a failed result into an AppError. Success yields nil.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeUnauthorized:
		return apperrors.NewUnauthorizedError(r.ErrorMessage())
	case OutcomeNetworkError:
		return apperrors.NewAPINetworkError(r.ErrorMessage())
	default:
		return apperrors.NewAPIServerError(r.StatusCode, r.ErrorMessage())
	}
}

func successResult(status int, data any) Result {
	return Result{Outcome: OutcomeSuccess, Data: data, StatusCode: status}
}

func errorResult(status int, payload any) Result {
	outcome := OutcomeServerError
	if status == 401 {
		outcome = OutcomeUnauthorized
	}
	return Result{Outcome: outcome, Error: payload, StatusCode: status}
}

func networkResult() Result {
	return Result{Outcome: OutcomeNetworkError, Error: NetworkErrorMessage}
}
