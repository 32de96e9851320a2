package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/mindwellcare/chat-relay/internal/common"
)

var ErrInvalidIdentity = errors.New("chat: participant name and email are required")

// Service owns session lifecycle on the server side. Persistence is
// whole-sequence: each write carries the full message list, so concurrent
// writes from one conversation degrade to last-write-wins rather than
// interleaving.
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateSession(ctx context.Context, name, email string, msgs MessageList) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, ErrInvalidIdentity
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:               id,
		ParticipantName:  name,
		ParticipantEmail: email,
		Messages:         msgs,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) UpdateMessages(ctx context.Context, id string, msgs MessageList) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return s.repo.UpdateMessages(ctx, id, msgs)
}

func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, limit int, beforeID string) ([]Session, error) {
	return s.repo.ListSessions(ctx, limit, beforeID)
}

func (s *Service) ListUsage(ctx context.Context, limit int, beforeID uint64) ([]UsageRecord, error) {
	return s.repo.ListUsage(ctx, limit, beforeID)
}
