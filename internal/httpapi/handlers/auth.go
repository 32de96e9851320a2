package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindwellcare/chat-relay/internal/auth"
	"github.com/mindwellcare/chat-relay/internal/common"
)

type loginReq struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges the operator password for a JWT used by the console's
// read endpoints.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if h.Cfg.OperatorPasswordHash == "" {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "operator login not configured")
		return
	}

	if !auth.CheckPassword(h.Cfg.OperatorPasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
		return
	}

	token, err := auth.SignJWT("operator", h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to sign token")
		return
	}

	common.OK(c, gin.H{"token": token})
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
