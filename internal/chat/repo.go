package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateMessages replaces the session's whole message sequence.
func (r *Repo) UpdateMessages(ctx context.Context, id string, msgs MessageList) error {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("id = ?", id).
		Update("messages", msgs)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSessions returns sessions newest-first. A non-empty beforeID pages
// past sessions with ids >= beforeID (ULIDs sort by creation time).
func (r *Repo) ListSessions(ctx context.Context, limit int, beforeID string) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if beforeID != "" {
		q = q.Where("id < ?", beforeID)
	}
	var sessions []Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *Repo) InsertUsage(ctx context.Context, rec *UsageRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListUsage returns usage records newest-first.
func (r *Repo) ListUsage(ctx context.Context, limit int, beforeID uint64) ([]UsageRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var recs []UsageRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
