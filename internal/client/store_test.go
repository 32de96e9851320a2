package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/mindwellcare/chat-relay/internal/ai"
	"github.com/mindwellcare/chat-relay/internal/chat"
	"github.com/mindwellcare/chat-relay/internal/client"
	"github.com/mindwellcare/chat-relay/internal/config"
	"github.com/mindwellcare/chat-relay/internal/httpapi"
	"github.com/mindwellcare/chat-relay/internal/relay"
)

// Exercises the HTTP store against the real session endpoints.
func TestHTTPSessionStoreRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&chat.Session{}, &chat.UsageRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	relaySvc := relay.NewService(ai.NewOpenRouterClient("http://unused", "k", "m"), nil, 0.7, 600)
	router := httpapi.NewRouter(db, config.Config{JWTSecret: "test"}, nil, relaySvc)
	srv := httptest.NewServer(router)
	defer srv.Close()

	store := client.NewHTTPSessionStore(srv.URL)

	id, err := store.CreateSession(context.Background(), client.Identity{Name: "Ada", Email: "ada@example.com"}, []chat.Message{
		{Role: chat.RoleAssistant, Content: "Hi Ada"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatalf("empty session id")
	}

	msgs := []chat.Message{
		{Role: chat.RoleAssistant, Content: "Hi Ada"},
		{Role: chat.RoleUser, Content: "I feel anxious"},
	}
	if err := store.UpdateMessages(context.Background(), id, msgs); err != nil {
		t.Fatalf("update: %v", err)
	}

	var sess chat.Session
	if err := db.First(&sess, "id = ?", id).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if len(sess.Messages) != 2 || sess.Messages[1].Content != "I feel anxious" {
		t.Fatalf("persisted messages wrong: %+v", sess.Messages)
	}

	if err := store.UpdateMessages(context.Background(), "01MISSINGSESSIONID00000000", msgs); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}
