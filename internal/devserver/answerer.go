package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Answerer produces a reply to a prompt.
type Answerer interface {
	Answer(ctx context.Context, prompt, model string) (string, error)
}

// EchoAnswerer answers without any model. It lets the ask flow run offline.
type EchoAnswerer struct{}

// Answer implements Answerer.
func (EchoAnswerer) Answer(_ context.Context, prompt, model string) (string, error) {
	return fmt.Sprintf("[%s] You asked: %s", model, prompt), nil
}

// OpenAIAnswerer calls an OpenAI-compatible chat completions endpoint.
type OpenAIAnswerer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIAnswerer creates an answerer. An empty baseURL uses the public
// OpenAI API.
func NewOpenAIAnswerer(apiKey, baseURL string) *OpenAIAnswerer {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIAnswerer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Answer implements Answerer.
func (a *OpenAIAnswerer) Answer(ctx context.Context, prompt, model string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp chatResponse
	if httpResp.StatusCode != http.StatusOK {
		if err := json.Unmarshal(respBody, &resp); err == nil && resp.Error != nil {
			return "", fmt.Errorf("openai error: %s", resp.Error.Message)
		}
		return "", fmt.Errorf("http error %d: %s", httpResp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
