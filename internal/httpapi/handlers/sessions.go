package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mindwellcare/chat-relay/internal/chat"
	"github.com/mindwellcare/chat-relay/internal/common"
)

type createSessionReq struct {
	ParticipantName  string         `json:"participant_name" binding:"required"`
	ParticipantEmail string         `json:"participant_email" binding:"required,email"`
	Messages         []chat.Message `json:"messages"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, err := h.ChatSvc.CreateSession(c.Request.Context(), req.ParticipantName, req.ParticipantEmail, req.Messages)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidIdentity) {
			common.Fail(c, http.StatusBadRequest, 10002, "participant name and email required")
			return
		}
		log.Printf("[sessions] create failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create session")
		return
	}

	common.OK(c, gin.H{"session_id": sess.ID})
}

type updateMessagesReq struct {
	Messages []chat.Message `json:"messages" binding:"required"`
}

func (h *Handler) UpdateSessionMessages(c *gin.Context) {
	id := c.Param("session_id")

	var req updateMessagesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if err := h.ChatSvc.UpdateMessages(c.Request.Context(), id, req.Messages); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		log.Printf("[sessions] update failed id=%s: %v", id, err)
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to update session")
		return
	}

	common.OK(c, nil)
}

// Operator views below.

func (h *Handler) ListSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	beforeID := c.Query("before_id")

	sessions, err := h.ChatSvc.ListSessions(c.Request.Context(), limit, beforeID)
	if err != nil {
		log.Printf("[sessions] list failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to list sessions")
		return
	}

	var nextBeforeID string
	if len(sessions) > 0 {
		nextBeforeID = sessions[len(sessions)-1].ID
	}

	common.OK(c, gin.H{
		"sessions":       sessions,
		"next_before_id": nextBeforeID,
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("session_id")

	sess, err := h.ChatSvc.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		log.Printf("[sessions] get failed id=%s: %v", id, err)
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to load session")
		return
	}

	common.OK(c, gin.H{"session": sess})
}

func (h *Handler) ListUsage(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	var beforeID uint64
	if v := c.Query("before_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			beforeID = n
		}
	}

	recs, err := h.ChatSvc.ListUsage(c.Request.Context(), limit, beforeID)
	if err != nil {
		log.Printf("[usage] list failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to list usage")
		return
	}

	var nextBeforeID uint64
	if len(recs) > 0 {
		nextBeforeID = recs[len(recs)-1].ID
	}

	common.OK(c, gin.H{
		"records":        recs,
		"next_before_id": nextBeforeID,
	})
}
