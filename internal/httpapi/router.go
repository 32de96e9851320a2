package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindwellcare/chat-relay/internal/common"
	"github.com/mindwellcare/chat-relay/internal/config"
	"github.com/mindwellcare/chat-relay/internal/httpapi/handlers"
	"github.com/mindwellcare/chat-relay/internal/httpapi/middleware"
	"github.com/mindwellcare/chat-relay/internal/relay"
	"github.com/mindwellcare/chat-relay/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, relaySvc *relay.Service) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	corsCfg := cors.DefaultConfig()
	if cfg.FrontendOrigin != "" {
		corsCfg.AllowOrigins = []string{cfg.FrontendOrigin}
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, rds, relaySvc)

	r.GET("/ping", h.Ping)

	// Chat widget surface: relay + session persistence. Open by design;
	// the public site embeds the widget unauthenticated.
	r.POST("/api/chat", h.RelayChat)
	r.POST("/api/sessions", h.CreateSession)
	r.PUT("/api/sessions/:session_id/messages", h.UpdateSessionMessages)

	// Operator console (JWT required)
	r.POST("/auth/login", h.Login)
	opGroup := r.Group("/")
	opGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	opGroup.GET("/api/sessions", h.ListSessions)
	opGroup.GET("/api/sessions/:session_id", h.GetSession)
	opGroup.GET("/api/usage", h.ListUsage)

	return r
}
