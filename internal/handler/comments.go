package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/graph"
	"github.com/gerry004/fendrapp/internal/middleware"
	"github.com/gerry004/fendrapp/internal/models"
	"github.com/gerry004/fendrapp/internal/moderation"
	"github.com/gerry004/fendrapp/internal/reconcile"
	"github.com/gerry004/fendrapp/internal/repository"
)

type CommentsHandler interface {
	SyncComments(c *gin.Context)
	GetAnalyzedComments(c *gin.Context)
	HideComment(c *gin.Context)
	UnhideComment(c *gin.Context)
	DeleteComment(c *gin.Context)
}

type commentsHandler struct {
	coordinator *reconcile.Coordinator
	actuator    *moderation.Actuator
	ledger      repository.AnalyzedCommentRepository
	logger      *zap.Logger
}

// NewCommentsHandler creates the handler group for comment sync and
// moderation endpoints.
func NewCommentsHandler(
	coordinator *reconcile.Coordinator,
	actuator *moderation.Actuator,
	ledger repository.AnalyzedCommentRepository,
	logger *zap.Logger,
) CommentsHandler {
	return &commentsHandler{
		coordinator: coordinator,
		actuator:    actuator,
		ledger:      ledger,
		logger:      logger,
	}
}

func sessionCredentials(c *gin.Context) (userID, token string) {
	return c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextAccessToken)
}

// SyncComments handles GET /api/data/comments: one full reconciliation
// pass returning the merged comment view.
func (h *commentsHandler) SyncComments(c *gin.Context) {
	userID, token := sessionCredentials(c)

	result, err := h.coordinator.Sync(c.Request.Context(), userID, token)
	if err != nil {
		if errors.Is(err, graph.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Platform access token rejected"})
			return
		}
		if errors.Is(err, reconcile.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Sync failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":      result.Comments,
		"totalComments": len(result.Comments),
		"newlyAnalyzed": result.NewlyAnalyzed,
		"message":       result.Message,
	})
}

// GetAnalyzedComments handles GET /api/data/analyzed-comments: the ledger's
// per-comment status map for the session user.
func (h *commentsHandler) GetAnalyzedComments(c *gin.Context) {
	userID, _ := sessionCredentials(c)

	rows, err := h.ledger.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list analyzed comments", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analyzed comments"})
		return
	}

	statuses := make(map[string]models.CommentStatus, len(rows))
	for _, row := range rows {
		statuses[row.CommentID] = models.CommentStatus{
			IsHarmful: row.IsHarmful,
			IsHidden:  row.IsHidden,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"analyzedComments": statuses,
		"count":            len(rows),
	})
}

type moderateRequest struct {
	CommentID string `json:"commentId" binding:"required"`
}

// HideComment handles POST /api/comments/hide.
func (h *commentsHandler) HideComment(c *gin.Context) {
	h.applyHidden(c, models.ActionHide)
}

// UnhideComment handles POST /api/comments/unhide.
func (h *commentsHandler) UnhideComment(c *gin.Context) {
	h.applyHidden(c, models.ActionUnhide)
}

func (h *commentsHandler) applyHidden(c *gin.Context, action models.ModerationAction) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	h.moderate(c, action, req.CommentID)
}

// DeleteComment handles DELETE /api/comments/delete?commentId=...
func (h *commentsHandler) DeleteComment(c *gin.Context) {
	commentID := c.Query("commentId")
	if commentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	h.moderate(c, models.ActionDelete, commentID)
}

func (h *commentsHandler) moderate(c *gin.Context, action models.ModerationAction, commentID string) {
	userID, token := sessionCredentials(c)

	err := h.actuator.Apply(c.Request.Context(), action, commentID, token, userID)
	if err != nil {
		if errors.Is(err, graph.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Platform access token rejected"})
			return
		}
		if errors.Is(err, moderation.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.logger.Error("Moderation action failed",
			zap.String("action", string(action)),
			zap.String("comment_id", commentID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Platform did not confirm the action"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
