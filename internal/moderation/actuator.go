package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/models"
	"github.com/gerry004/fendrapp/internal/repository"
)

// ErrInvalidInput is returned when a moderation request is missing required
// identifiers; it is rejected before any remote call.
var ErrInvalidInput = errors.New("missing comment id, user id, or access token")

// PlatformWriter is the mutating half of the remote platform.
type PlatformWriter interface {
	SetCommentHidden(ctx context.Context, commentID string, hidden bool, token string) error
	DeleteComment(ctx context.Context, commentID, token string) error
}

// Actuator executes a moderation action against the platform and then
// mirrors the confirmed outcome into the ledger. The remote mutation always
// goes first: the ledger only ever records what the platform has already
// accepted, so a remote failure leaves the ledger untouched.
type Actuator struct {
	platform PlatformWriter
	ledger   repository.AnalyzedCommentRepository
	logger   *zap.Logger
}

// NewActuator creates a moderation actuator.
func NewActuator(platform PlatformWriter, ledger repository.AnalyzedCommentRepository, logger *zap.Logger) *Actuator {
	return &Actuator{
		platform: platform,
		ledger:   ledger,
		logger:   logger,
	}
}

// Apply performs one moderation action for one comment.
//
// For hide/unhide, a ledger write failure after the platform confirmed the
// mutation is logged as an inconsistency but the action still succeeds:
// the platform's state is the binding contract, and the mismatch is left
// for a later reconciliation rather than retried here. For delete, the
// ledger removal is best-effort for the same reason; the remote deletion
// is irreversible either way. State-changing platform calls are never
// retried, since the API has no idempotency keys for them.
func (a *Actuator) Apply(ctx context.Context, action models.ModerationAction, commentID, token, userID string) error {
	if commentID == "" || token == "" || userID == "" {
		return ErrInvalidInput
	}
	if !action.Valid() {
		return fmt.Errorf("unknown moderation action: %q", action)
	}

	switch action {
	case models.ActionHide, models.ActionUnhide:
		hidden := action == models.ActionHide
		if err := a.platform.SetCommentHidden(ctx, commentID, hidden, token); err != nil {
			return fmt.Errorf("platform refused to set hidden=%t for comment %s: %w", hidden, commentID, err)
		}
		if err := a.ledger.SetHidden(ctx, userID, commentID, hidden); err != nil {
			a.logger.Error("Ledger out of step with platform after hide/unhide, needs reconciliation",
				zap.String("user_id", userID),
				zap.String("comment_id", commentID),
				zap.Bool("hidden", hidden),
				zap.Error(err))
		}
		return nil

	case models.ActionDelete:
		if err := a.platform.DeleteComment(ctx, commentID, token); err != nil {
			return fmt.Errorf("platform refused to delete comment %s: %w", commentID, err)
		}
		if err := a.ledger.Remove(ctx, userID, commentID); err != nil {
			a.logger.Error("Failed to remove ledger row after remote delete",
				zap.String("user_id", userID),
				zap.String("comment_id", commentID),
				zap.Error(err))
		}
		return nil
	}

	return fmt.Errorf("unknown moderation action: %q", action)
}
