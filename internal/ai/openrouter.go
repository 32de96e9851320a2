package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenRouterClient talks to an OpenAI-compatible chat completions API
// (OpenRouter by default) and exposes the streamed response body raw so
// callers can pipe it through unbuffered.
type OpenRouterClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type chatCompletionsReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// UpstreamError is a non-success response from the provider before any
// streaming began.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream: status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream: status %d: %s", e.StatusCode, e.Body)
}

func NewOpenRouterClient(baseURL, apiKey, model string) *OpenRouterClient {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		// No client timeout; streams can outlive any fixed budget and the
		// request context controls cancellation.
		Client: &http.Client{},
	}
}

// Stream issues a streaming completion request and returns the upstream
// response with its body still open. The caller owns the body and must
// close it. A non-2xx status is consumed and returned as *UpstreamError.
func (c *OpenRouterClient) Stream(ctx context.Context, messages []Message, temperature float64, maxTokens int) (*http.Response, error) {
	if c.Client == nil {
		return nil, errors.New("openrouter: http client is nil")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		return nil, errors.New("openrouter: model is required")
	}

	reqBody := chatCompletionsReq{
		Model:       model,
		Stream:      true,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages:    messages,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		_ = resp.Body.Close()
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return resp, nil
}
