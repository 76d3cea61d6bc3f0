package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/service"
)

type SessionHandler interface {
	CreateSession(c *gin.Context)
}

type sessionHandler struct {
	sessions service.SessionService
	logger   *zap.Logger
}

// NewSessionHandler creates the handler for session issuance. The connect
// flow that obtains the platform access token lives outside this service;
// this endpoint only wraps an already-acquired credential in a session JWT.
func NewSessionHandler(sessions service.SessionService, logger *zap.Logger) SessionHandler {
	return &sessionHandler{sessions: sessions, logger: logger}
}

type createSessionRequest struct {
	UserID      string `json:"userId" binding:"required"`
	AccessToken string `json:"accessToken" binding:"required"`
}

// CreateSession handles POST /api/auth/session.
func (h *sessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	token, expiresAt, err := h.sessions.Issue(req.UserID, req.AccessToken)
	if err != nil {
		if errors.Is(err, service.ErrMissingCredential) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to issue session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
	})
}
