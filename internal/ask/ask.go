// Package ask is the client of the AI prompt service.
package ask

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/todoask/internal/apiclient"
	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// DefaultModel is used when no model is given.
const DefaultModel = "gpt-4"

// FetchErrorMessage is shown when no answer could be obtained.
const FetchErrorMessage = "Error fetching response"

// Request is the body of POST /ask.
type Request struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// Answer is the success payload of POST /ask.
type Answer struct {
	Response string `json:"response" yaml:"response"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Poster is the subset of apiclient.Client the service needs.
type Poster interface {
	Post(ctx context.Context, endpoint string, body any) apiclient.Result
}

// Service sends prompts to the ask service at baseURL.
type Service struct {
	api     Poster
	baseURL string
}

// NewService creates an ask service client.
func NewService(api Poster, baseURL string) *Service {
	return &Service{api: api, baseURL: strings.TrimRight(baseURL, "/")}
}

// Ask posts prompt and returns the trimmed answer. Any failed result, or a
// success without a response field, is reported as FetchErrorMessage with
// the underlying error as cause.
func (s *Service) Ask(ctx context.Context, prompt, model string) (*Answer, apiclient.Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apiclient.Result{}, apperrors.NewInputRequiredError("prompt")
	}
	if model == "" {
		model = DefaultModel
	}

	res := s.api.Post(ctx, s.baseURL+"/ask", Request{Prompt: prompt, Model: model})
	if !res.OK() {
		return nil, res, fetchError(res.Err())
	}

	var answer Answer
	if err := res.Decode(&answer); err != nil || answer.Response == "" {
		return nil, res, fetchError(err)
	}
	answer.Response = strings.TrimSpace(answer.Response)
	answer.Model = model
	return &answer, res, nil
}

func fetchError(cause error) error {
	code := apperrors.ErrCodeAPIDecode
	if c := apperrors.CodeOf(cause); c != "" {
		code = c
	}
	return apperrors.Wrap(code, FetchErrorMessage, cause)
}
