package chat

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one stored conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageList is the full ordered message sequence of a session, stored as
// one JSON column. Each persist rewrites the whole sequence (last write
// wins per session; there is a single writer per conversation).
type MessageList []Message

func (m MessageList) Value() (driver.Value, error) {
	if m == nil {
		m = MessageList{}
	}
	return json.Marshal(m)
}

func (m *MessageList) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("chat: cannot scan %T into MessageList", src)
	}
	if len(b) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, m)
}

// Session ties an identified participant to their conversation history.
type Session struct {
	ID               string      `gorm:"primaryKey;size:26" json:"id"` // ULID
	ParticipantName  string      `gorm:"type:varchar(128);not null" json:"participant_name"`
	ParticipantEmail string      `gorm:"type:varchar(255);index;not null" json:"participant_email"`
	Messages         MessageList `gorm:"type:json" json:"messages"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (Session) TableName() string { return "chat_sessions" }

// UsageRecord is a best-effort estimate of token consumption for one relay
// invocation. Token counts are a chars/4 heuristic, not real tokenization;
// do not bill from them without reconciling against provider reports.
type UsageRecord struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID    *string   `gorm:"size:26;index" json:"session_id"`
	InputTokens  int       `gorm:"not null" json:"input_tokens"`
	OutputTokens int       `gorm:"not null" json:"output_tokens"`
	Model        string    `gorm:"type:varchar(64);not null" json:"model"`
	CreatedAt    time.Time `json:"created_at"`
}

func (UsageRecord) TableName() string { return "usage_records" }

var ErrNotFound = errors.New("chat: not found")
