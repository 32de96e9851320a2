package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mindwellcare/chat-relay/internal/ai"
)

func TestEstimateTokens(t *testing.T) {
	prompt := strings.Repeat("p", 400)
	msgs := []ai.Message{{Role: ai.RoleUser, Content: strings.Repeat("m", 40)}}

	if got := EstimateTokens(prompt, msgs); got != 110 {
		t.Fatalf("expected 110 tokens, got %d", got)
	}
}

func TestEstimateTokensRoundsUp(t *testing.T) {
	if got := EstimateTokens("abcde", nil); got != 2 {
		t.Fatalf("expected ceil(5/4)=2, got %d", got)
	}
	if got := EstimateTokensFromChars(0); got != 0 {
		t.Fatalf("expected 0 for empty output, got %d", got)
	}
	if got := EstimateTokensFromChars(9); got != 3 {
		t.Fatalf("expected ceil(9/4)=3, got %d", got)
	}
}

func TestStreamMissingCredential(t *testing.T) {
	svc := NewService(ai.NewOpenRouterClient("http://unused", "", "model"), nil, 0.7, 600)

	_, err := svc.Stream(context.Background(), Request{Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}}})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestStreamPrependsSystemPrompt(t *testing.T) {
	var captured struct {
		Model       string       `json:"model"`
		Messages    []ai.Message `json:"messages"`
		Stream      bool         `json:"stream"`
		Temperature float64      `json:"temperature"`
		MaxTokens   int          `json:"max_tokens"`
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("unmarshal upstream request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer upstream.Close()

	svc := NewService(ai.NewOpenRouterClient(upstream.URL, "test-key", "test-model"), nil, 0.4, 321)

	resp, err := svc.Stream(context.Background(), Request{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "I feel anxious"}},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()

	if !captured.Stream {
		t.Fatalf("expected stream=true")
	}
	if captured.Temperature != 0.4 || captured.MaxTokens != 321 {
		t.Fatalf("sampling config not forwarded: temp=%v max=%d", captured.Temperature, captured.MaxTokens)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system prompt + 1 message, got %d messages", len(captured.Messages))
	}
	if captured.Messages[0].Role != ai.RoleSystem || captured.Messages[0].Content == "" {
		t.Fatalf("first message is not the system prompt: %+v", captured.Messages[0])
	}
	if !strings.Contains(captured.Messages[0].Content, "988") {
		t.Fatalf("system prompt lost the crisis-redirect instruction")
	}
	if captured.Messages[1].Role != ai.RoleUser || captured.Messages[1].Content != "I feel anxious" {
		t.Fatalf("caller message not forwarded: %+v", captured.Messages[1])
	}
}

func TestStreamUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	svc := NewService(ai.NewOpenRouterClient(upstream.URL, "test-key", "test-model"), nil, 0.7, 600)

	_, err := svc.Stream(context.Background(), Request{Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}}})
	var upstreamErr *ai.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", upstreamErr.StatusCode)
	}
	if !strings.Contains(upstreamErr.Body, "rate limited") {
		t.Fatalf("expected error body to carry upstream detail, got %q", upstreamErr.Body)
	}
}

func TestInputTokensIncludesSystemPrompt(t *testing.T) {
	svc := NewService(ai.NewOpenRouterClient("http://unused", "k", "m"), nil, 0.7, 600)

	req := Request{Messages: []ai.Message{{Role: ai.RoleUser, Content: "hello"}}}
	bare := EstimateTokens("", req.Messages)
	if got := svc.InputTokens(req); got <= bare {
		t.Fatalf("expected estimate above %d (bare messages), got %d", bare, got)
	}
}
