// Package relay forwards chat conversations to the upstream completion
// provider and records best-effort usage estimates.
package relay

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mindwellcare/chat-relay/internal/ai"
	"github.com/mindwellcare/chat-relay/internal/chat"
)

// systemPrompt is fixed and not configurable. It defines the assistant
// persona, its domain boundaries, and the crisis-redirect instruction.
const systemPrompt = `You are Mira, a warm and supportive assistant for MindWell Care, a mental-health services organization. You help visitors learn about MindWell's counseling, therapy, and wellness programs, and you listen with empathy when they share how they are feeling.

Stay within these boundaries:
- You are not a therapist and you never diagnose, prescribe, or give medical advice. Encourage visitors to book a session with a licensed MindWell counselor for anything clinical.
- Keep answers brief, plain, and kind. One or two short paragraphs at most.
- If a visitor mentions self-harm, suicide, or harming others, gently and immediately encourage them to contact local emergency services or a crisis line such as 988 (US), and remind them they deserve immediate support from a real person. Do not continue the ordinary conversation until you have done this.
- If asked about topics unrelated to mental health or MindWell Care, politely steer the conversation back.`

// ErrNotConfigured means the upstream credential is absent from the
// environment. Terminal for the request; never retried.
var ErrNotConfigured = errors.New("relay: upstream api key is not configured")

// Request is one relay invocation: the caller's conversation history plus
// optional session context.
type Request struct {
	Messages  []ai.Message
	SessionID string
}

// UsageRecorder accepts one usage record per relay invocation. Failures
// must be swallowed by the implementation; they never affect the response.
type UsageRecorder interface {
	Record(ctx context.Context, rec chat.UsageRecord) error
}

type Service struct {
	upstream    *ai.OpenRouterClient
	recorder    UsageRecorder
	temperature float64
	maxTokens   int
}

func NewService(upstream *ai.OpenRouterClient, recorder UsageRecorder, temperature float64, maxTokens int) *Service {
	if maxTokens <= 0 {
		maxTokens = 600
	}
	return &Service{
		upstream:    upstream,
		recorder:    recorder,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// EstimateTokens approximates the token count of a prompt plus messages as
// ceil(chars/4). This is a deliberately crude heuristic, not tokenization;
// usage records built from it are estimates only.
func EstimateTokens(prompt string, msgs []ai.Message) int {
	chars := len(prompt)
	for _, m := range msgs {
		chars += len(m.Content)
	}
	return (chars + 3) / 4
}

// EstimateTokensFromChars converts a measured character count to the same
// ceil(chars/4) scale as EstimateTokens.
func EstimateTokensFromChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}

// InputTokens returns the input-side estimate for req including the fixed
// system prompt.
func (s *Service) InputTokens(req Request) int {
	return EstimateTokens(systemPrompt, req.Messages)
}

// Stream opens the upstream completion stream for req. The returned
// response body is the provider's native event stream, untouched; the
// caller pipes it through and must close it.
//
// Fail fast: a missing credential or a non-2xx upstream status is terminal
// for this request. A single chat turn is not worth masking provider
// outages with retries that would double-bill tokens.
func (s *Service) Stream(ctx context.Context, req Request) (*http.Response, error) {
	if strings.TrimSpace(s.upstream.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	msgs := make([]ai.Message, 0, len(req.Messages)+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, req.Messages...)

	return s.upstream.Stream(ctx, msgs, s.temperature, s.maxTokens)
}

// RecordUsage writes one usage record in the background. outputChars is the
// measured streamed content length; it is converted with the same chars/4
// heuristic as the input estimate. Errors are logged and swallowed.
func (s *Service) RecordUsage(sessionID string, inputTokens, outputChars int) {
	if s.recorder == nil {
		return
	}
	rec := chat.UsageRecord{
		InputTokens:  inputTokens,
		OutputTokens: EstimateTokensFromChars(outputChars),
		Model:        s.upstream.Model,
	}
	if id := strings.TrimSpace(sessionID); id != "" {
		rec.SessionID = &id
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.recorder.Record(ctx, rec); err != nil {
			log.Printf("[relay] usage record failed session=%q err=%v", sessionID, err)
		}
	}()
}
