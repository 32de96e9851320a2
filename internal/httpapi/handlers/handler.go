package handlers

import (
	"gorm.io/gorm"

	"github.com/mindwellcare/chat-relay/internal/chat"
	"github.com/mindwellcare/chat-relay/internal/config"
	"github.com/mindwellcare/chat-relay/internal/relay"
	"github.com/mindwellcare/chat-relay/internal/store/redisstore"
)

type Handler struct {
	DB       *gorm.DB
	Cfg      config.Config
	Redis    *redisstore.Store // nil when REDIS_ADDR is unset
	ChatSvc  *chat.Service
	RelaySvc *relay.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, relaySvc *relay.Service) *Handler {
	repo := chat.NewRepo(db)
	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Redis:    rds,
		ChatSvc:  chat.NewService(repo),
		RelaySvc: relaySvc,
	}
}
