package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mindwellcare/chat-relay/internal/chat"
)

// HTTPSessionStore persists sessions through the server's session
// endpoints.
type HTTPSessionStore struct {
	baseURL string
	httpc   *http.Client
}

func NewHTTPSessionStore(baseURL string) *HTTPSessionStore {
	return &HTTPSessionStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *HTTPSessionStore) do(ctx context.Context, method, url string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("store: status %d: unparseable response", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Code != 0 {
		return nil, fmt.Errorf("store: status %d code %d: %s", resp.StatusCode, env.Code, env.Message)
	}
	return env.Data, nil
}

func (s *HTTPSessionStore) CreateSession(ctx context.Context, identity Identity, msgs []chat.Message) (string, error) {
	data, err := s.do(ctx, http.MethodPost, s.baseURL+"/api/sessions", map[string]any{
		"participant_name":  identity.Name,
		"participant_email": identity.Email,
		"messages":          msgs,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("store: create returned no session id")
	}
	return out.SessionID, nil
}

func (s *HTTPSessionStore) UpdateMessages(ctx context.Context, id string, msgs []chat.Message) error {
	url := fmt.Sprintf("%s/api/sessions/%s/messages", s.baseURL, id)
	_, err := s.do(ctx, http.MethodPut, url, map[string]any{"messages": msgs})
	return err
}
