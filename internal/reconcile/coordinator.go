package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gerry004/fendrapp/internal/models"
	"github.com/gerry004/fendrapp/internal/repository"
)

// ErrInvalidInput is returned when a sync request is missing required
// identifiers; it is rejected before any remote call.
var ErrInvalidInput = errors.New("missing user id or access token")

// PlatformClient is the read half of the remote platform used by a sync.
type PlatformClient interface {
	ListContentAccounts(ctx context.Context, token string) ([]string, error)
	ListMediaComments(ctx context.Context, accountID, token string) ([]models.Comment, error)
}

// Classifier judges one comment's text as harmful or not.
type Classifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

// SyncResult is what one reconciliation pass produces: the merged remote
// and ledger view, plus how many comments were classified for the first
// time during this pass.
type SyncResult struct {
	Comments      []models.MergedComment `json:"comments"`
	NewlyAnalyzed int                    `json:"newlyAnalyzed"`
	Message       string                 `json:"message,omitempty"`
}

// Coordinator drives one sync: fetch remote comments, diff them against the
// ledger, classify the unseen subset, and merge both sides into a single
// view. The ledger wins over the platform for hidden state because it
// records actions this system itself performed; the platform is the
// fallback for comments the ledger has never observed.
type Coordinator struct {
	platform        PlatformClient
	classifier      Classifier
	ledger          repository.AnalyzedCommentRepository
	logger          *zap.Logger
	fetchWorkers    int
	classifyWorkers int
	classifyTimeout time.Duration
}

// NewCoordinator creates a reconciliation coordinator. Worker counts bound
// the fan-out against the platform's and the classifier's rate limits.
func NewCoordinator(
	platform PlatformClient,
	classifier Classifier,
	ledger repository.AnalyzedCommentRepository,
	logger *zap.Logger,
	fetchWorkers int,
	classifyWorkers int,
	classifyTimeout time.Duration,
) *Coordinator {
	if fetchWorkers <= 0 {
		fetchWorkers = 1
	}
	if classifyWorkers <= 0 {
		classifyWorkers = 1
	}
	return &Coordinator{
		platform:        platform,
		classifier:      classifier,
		ledger:          ledger,
		logger:          logger,
		fetchWorkers:    fetchWorkers,
		classifyWorkers: classifyWorkers,
		classifyTimeout: classifyTimeout,
	}
}

// Sync runs one full reconciliation pass for a user.
//
// Comments in the ledger that the remote fetch no longer returns are left
// alone: the platform is authoritative for existence, and guessing remote
// intent here would purge rows during transient fetch degradation. Stale
// rows age out through the retention sweep instead.
func (c *Coordinator) Sync(ctx context.Context, userID, token string) (*SyncResult, error) {
	if userID == "" || token == "" {
		return nil, ErrInvalidInput
	}

	accounts, err := c.platform.ListContentAccounts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content accounts: %w", err)
	}
	if len(accounts) == 0 {
		return &SyncResult{
			Comments: []models.MergedComment{},
			Message:  "no linked content accounts found",
		}, nil
	}

	allComments := c.fetchAll(ctx, accounts, token)

	commentIDs := make([]string, 0, len(allComments))
	for _, cm := range allComments {
		commentIDs = append(commentIDs, cm.ID)
	}

	known, err := c.ledger.GetByCommentIDs(ctx, userID, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger rows: %w", err)
	}

	unknown := make([]models.Comment, 0)
	seen := make(map[string]bool, len(allComments))
	for _, cm := range allComments {
		if _, ok := known[cm.ID]; ok {
			continue
		}
		if seen[cm.ID] {
			continue
		}
		seen[cm.ID] = true
		unknown = append(unknown, cm)
	}

	newlyAnalyzed := c.classifyAndPersist(ctx, userID, unknown)

	// Re-read the rows the classification step just wrote so the merge
	// reflects the ledger's actual state, including rows a concurrent
	// sync won the insert race for.
	if len(unknown) > 0 {
		unknownIDs := make([]string, 0, len(unknown))
		for _, cm := range unknown {
			unknownIDs = append(unknownIDs, cm.ID)
		}
		fresh, err := c.ledger.GetByCommentIDs(ctx, userID, unknownIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to reload ledger rows: %w", err)
		}
		for id, row := range fresh {
			known[id] = row
		}
	}

	merged := make([]models.MergedComment, 0, len(allComments))
	for _, cm := range allComments {
		mc := models.MergedComment{
			ID:             cm.ID,
			MediaID:        cm.MediaID,
			MediaTimestamp: cm.MediaTimestamp,
			Text:           cm.Text,
			Username:       cm.Username,
			Hidden:         cm.Hidden,
		}
		if row, ok := known[cm.ID]; ok {
			harmful := row.IsHarmful
			mc.IsHarmful = &harmful
			mc.Hidden = row.IsHidden
		}
		merged = append(merged, mc)
	}

	return &SyncResult{
		Comments:      merged,
		NewlyAnalyzed: newlyAnalyzed,
	}, nil
}

// fetchAll pulls comments for every account in parallel and flattens the
// results. One account failing degrades to an empty slice for that account
// only; the sync proceeds with partial results.
func (c *Coordinator) fetchAll(ctx context.Context, accounts []string, token string) []models.Comment {
	perAccount := make([][]models.Comment, len(accounts))

	var g errgroup.Group
	g.SetLimit(c.fetchWorkers)
	for i, accountID := range accounts {
		i, accountID := i, accountID
		g.Go(func() error {
			comments, err := c.platform.ListMediaComments(ctx, accountID, token)
			if err != nil {
				c.logger.Error("Failed to fetch comments for account, continuing with partial results",
					zap.String("account_id", accountID),
					zap.Error(err))
				return nil
			}
			perAccount[i] = comments
			return nil
		})
	}
	_ = g.Wait()

	var all []models.Comment
	for _, comments := range perAccount {
		all = append(all, comments...)
	}
	return all
}

// classifyAndPersist classifies each unseen comment under a bounded worker
// pool and writes a ledger row per success. A classification failure leaves
// the comment out of the ledger entirely so the next sync retries it; a
// failure is never recorded as a safe verdict. Returns how many rows this
// call actually inserted.
//
// The pool runs on a context detached from the request's cancellation: a
// classification already dispatched is allowed to finish and persist, so a
// client disconnect does not cost a repeat classifier call on the next
// sync. The detached context still carries its own deadline.
func (c *Coordinator) classifyAndPersist(ctx context.Context, userID string, unknown []models.Comment) int {
	if len(unknown) == 0 {
		return 0
	}

	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.classifyTimeout)
	defer cancel()

	inserted := make([]bool, len(unknown))

	var g errgroup.Group
	g.SetLimit(c.classifyWorkers)
	for i, cm := range unknown {
		i, cm := i, cm
		g.Go(func() error {
			harmful, err := c.classifier.Classify(workCtx, cm.Text)
			if err != nil {
				c.logger.Warn("Classification failed, leaving comment unanalyzed for the next sync",
					zap.String("comment_id", cm.ID),
					zap.Error(err))
				return nil
			}

			rec := &models.AnalyzedComment{
				UserID:    userID,
				CommentID: cm.ID,
				MediaID:   cm.MediaID,
				Text:      cm.Text,
				Username:  cm.Username,
				IsHarmful: harmful,
				IsHidden:  cm.Hidden,
			}
			ok, err := c.ledger.InsertAnalysis(workCtx, rec)
			if err != nil {
				c.logger.Error("Failed to persist analysis, comment will be re-classified next sync",
					zap.String("comment_id", cm.ID),
					zap.Error(err))
				return nil
			}
			if !ok {
				// A concurrent sync inserted the row first; its verdict
				// stands and this one is discarded.
				c.logger.Debug("Analysis already present, skipping insert",
					zap.String("comment_id", cm.ID))
				return nil
			}
			inserted[i] = true
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range inserted {
		if ok {
			count++
		}
	}
	return count
}
