package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindwellcare/chat-relay/internal/ai"
	"github.com/mindwellcare/chat-relay/internal/relay"
	"github.com/mindwellcare/chat-relay/internal/sse"
)

// The relay endpoint speaks the error shape the chat widget parses:
// { "error": string, "details"?: string }. The envelope the rest of the
// API uses would be opaque to it.
func relayError(c *gin.Context, status int, msg, details string) {
	body := gin.H{"error": msg}
	if details != "" {
		body["details"] = details
	}
	c.JSON(status, body)
}

type chatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type chatUserContext struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type chatRequest struct {
	Messages    []chatMessage    `json:"messages" binding:"required,min=1,dive"`
	UserContext *chatUserContext `json:"userContext"`
	SessionID   string           `json:"sessionId"`
}

const turnLockTTL = 2 * time.Minute

// RelayChat forwards the conversation to the completion provider and pipes
// the event stream back byte-for-byte, unbuffered. One usage record is
// written per invocation regardless of how the stream ends.
func (h *Handler) RelayChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		relayError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	// Server-side guard matching the widget's busy gate: one exchange in
	// flight per session. Best effort; absent redis the client gate stands
	// alone.
	if h.Redis != nil && req.SessionID != "" {
		acquired, err := h.Redis.AcquireTurn(c.Request.Context(), req.SessionID, turnLockTTL)
		if err != nil {
			log.Printf("[chat] turn lock error session=%s err=%v", req.SessionID, err)
		} else if !acquired {
			relayError(c, http.StatusTooManyRequests, "a reply is already in progress", "")
			return
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := h.Redis.ReleaseTurn(ctx, req.SessionID); err != nil {
					log.Printf("[chat] turn unlock error session=%s err=%v", req.SessionID, err)
				}
			}()
		}
	}

	relayReq := relay.Request{
		SessionID: req.SessionID,
		Messages:  make([]ai.Message, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		relayReq.Messages = append(relayReq.Messages, ai.Message{Role: m.Role, Content: m.Content})
	}

	inputTokens := h.RelaySvc.InputTokens(relayReq)

	resp, err := h.RelaySvc.Stream(c.Request.Context(), relayReq)
	if err != nil {
		var upstream *ai.UpstreamError
		switch {
		case errors.Is(err, relay.ErrNotConfigured):
			log.Printf("[chat] %v", err)
			relayError(c, http.StatusInternalServerError, "chat is not configured", "")
		case errors.As(err, &upstream):
			log.Printf("[chat] upstream status=%d body=%q", upstream.StatusCode, upstream.Body)
			relayError(c, http.StatusBadGateway, "upstream request failed", truncate(upstream.Body, 500))
		default:
			log.Printf("[chat] upstream error: %v", err)
			relayError(c, http.StatusBadGateway, "upstream request failed", "")
		}
		return
	}
	defer resp.Body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		log.Printf("[chat] response writer does not support flushing")
		return
	}

	// Pipe upstream to the client while counting streamed content for the
	// output-token estimate. The parser sees the same bytes the client does;
	// it never alters them.
	var parser sse.Parser
	outputChars := 0
	buf := make([]byte, 4*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range parser.Feed(buf[:n]) {
				outputChars += len(sse.Delta(f))
			}
			if _, writeErr := c.Writer.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if readErr != nil {
			// io.EOF is the normal end; anything else is a mid-stream cut
			// the client's parser tolerates.
			if readErr != io.EOF {
				log.Printf("[chat] upstream read: %v", readErr)
			}
			break
		}
	}

	h.RelaySvc.RecordUsage(req.SessionID, inputTokens, outputChars)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
