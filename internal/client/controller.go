// Package client implements the conversation controller embedded by chat
// front ends: it owns the visible message list, talks to the relay
// endpoint, reassembles the event stream into assistant replies, and keeps
// a remote copy of the session in sync.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/mindwellcare/chat-relay/internal/chat"
	"github.com/mindwellcare/chat-relay/internal/sse"
)

// ErrBusy rejects a Send issued while a previous one is still in flight.
// The second call is rejected, not queued.
var ErrBusy = errors.New("client: a send is already in flight")

const apologyMessage = "I'm sorry, I'm having trouble responding right now. " +
	"Please try again in a moment, or reach us directly at hello@mindwellcare.com."

// Identity is the participant's name/email capture.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionStore is the remote persistence consumed by the controller.
// Failures are logged and swallowed at this boundary; the conversation
// never degrades because a background write failed.
type SessionStore interface {
	CreateSession(ctx context.Context, identity Identity, msgs []chat.Message) (string, error)
	UpdateMessages(ctx context.Context, id string, msgs []chat.Message) error
}

// Controller drives one conversation. Exactly one exchange may be in
// flight at a time; Send serializes on the busy flag.
type Controller struct {
	relayURL string
	httpc    *http.Client
	store    SessionStore

	// OnError, when set, receives a short display-ready description of a
	// failed exchange (for a toast or alert). The apology message is
	// appended to the conversation either way.
	OnError func(status int, detail string)

	mu        sync.Mutex
	messages  []chat.Message
	identity  *Identity
	sessionID string
	busy      bool

	// serializes remote writes so two quick persists hit one record in order
	persistMu sync.Mutex
}

func New(relayURL string, store SessionStore) *Controller {
	return &Controller{
		relayURL: relayURL,
		httpc:    &http.Client{},
		store:    store,
	}
}

// Messages returns a snapshot of the conversation.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.messages...)
}

// SessionID returns the remote session id, or "" before the first persist.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// SetIdentity starts a fresh session for the participant: any previous
// remote session id is discarded, the conversation is replaced with one
// welcome message, and the session is persisted fire-and-forget so it is
// visible to operators before the participant sends anything.
func (c *Controller) SetIdentity(name, email string) {
	welcome := chat.Message{
		Role: chat.RoleAssistant,
		Content: fmt.Sprintf("Hi %s, I'm Mira from MindWell Care. "+
			"I'm here to listen and to help you find the right support. How are you feeling today?", name),
	}

	c.mu.Lock()
	c.identity = &Identity{Name: name, Email: email}
	c.sessionID = ""
	c.messages = []chat.Message{welcome}
	snapshot := append([]chat.Message(nil), c.messages...)
	c.mu.Unlock()

	go c.persist(context.Background(), snapshot)
}

// Reset clears messages, identity, and the remote session id.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.identity = nil
	c.sessionID = ""
}

type relayRequest struct {
	Messages    []chat.Message `json:"messages"`
	UserContext *Identity      `json:"userContext,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
}

type relayErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Send appends the user's text, streams the assistant reply into the
// conversation, and persists the final sequence. Whitespace-only input is
// a silent no-op. Cancelling ctx aborts the stream; the busy flag is
// cleared on every path.
func (c *Controller) Send(ctx context.Context, userText string) error {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, Content: userText})
	req := relayRequest{
		Messages:    append([]chat.Message(nil), c.messages...),
		UserContext: c.identity,
		SessionID:   c.sessionID,
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	c.exchange(ctx, req)

	c.persist(ctx, c.Messages())
	return nil
}

// exchange runs one relay round trip. All failures degrade into the
// apology path; nothing propagates to the caller.
func (c *Controller) exchange(ctx context.Context, req relayRequest) {
	body, err := json.Marshal(req)
	if err != nil {
		log.Printf("[client] marshal request: %v", err)
		c.apologize()
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("[client] build request: %v", err)
		c.apologize()
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		log.Printf("[client] relay request failed: %v", err)
		c.apologize()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2*1024))
		var decoded relayErrorBody
		_ = json.Unmarshal(raw, &decoded)
		detail := decoded.Error
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		if len(detail) > 200 {
			detail = detail[:200]
		}
		log.Printf("[client] relay status=%d error=%q", resp.StatusCode, detail)
		if c.OnError != nil {
			c.OnError(resp.StatusCode, detail)
		}
		c.apologize()
		return
	}

	var parser sse.Parser
	var reply strings.Builder
	buf := make([]byte, 4*1024)
	for !parser.Done() {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range parser.Feed(buf[:n]) {
				delta := sse.Delta(f)
				if delta == "" {
					continue
				}
				reply.WriteString(delta)
				c.applyAssistant(reply.String())
			}
		}
		if readErr != nil {
			// A cut-off stream stops updating; whatever arrived stands.
			if readErr != io.EOF && ctx.Err() == nil {
				log.Printf("[client] stream read: %v", readErr)
			}
			return
		}
	}
}

// applyAssistant folds the accumulated reply into the message list: while
// the current turn is still completing (last entry assistant, the one
// before it user) the last entry is replaced in place, so re-parsing
// fragments can never produce duplicate assistant turns.
func (c *Controller) applyAssistant(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.messages)
	if n >= 2 && c.messages[n-1].Role == chat.RoleAssistant && c.messages[n-2].Role == chat.RoleUser {
		c.messages[n-1].Content = content
		return
	}
	c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: content})
}

// apologize appends the single user-facing failure message for this turn.
func (c *Controller) apologize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: apologyMessage})
}

// persist pushes the full message sequence to the remote store: first call
// for an identity creates the record and keeps its id, later calls update
// it in place. No identity, no write. Errors are logged and swallowed.
func (c *Controller) persist(ctx context.Context, msgs []chat.Message) {
	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()
	if identity == nil {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	// re-read under the persist lock: a concurrent first persist may have
	// just assigned the id, and a reset or identity change makes this
	// write stale
	c.mu.Lock()
	if c.identity != identity {
		c.mu.Unlock()
		return
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID == "" {
		id, err := c.store.CreateSession(ctx, *identity, msgs)
		if err != nil {
			log.Printf("[client] session create failed: %v", err)
			return
		}
		c.mu.Lock()
		// identity may have been reset while we wrote; keep the id only if
		// this is still the same conversation
		if c.identity == identity {
			c.sessionID = id
		}
		c.mu.Unlock()
		return
	}

	if err := c.store.UpdateMessages(ctx, sessionID, msgs); err != nil {
		log.Printf("[client] session update failed id=%s: %v", sessionID, err)
	}
}
