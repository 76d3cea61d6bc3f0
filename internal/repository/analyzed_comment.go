package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/models"
)

// ErrNotFound is returned when a ledger row does not exist for the
// requested (user, comment) pair.
var ErrNotFound = errors.New("analyzed comment not found")

// AnalyzedCommentRepository is the persisted moderation ledger: one row per
// (user, comment) holding the classification verdict and the last hidden
// state this system wrote. The compound primary key enforces uniqueness;
// the repository never relies on application-level locking.
type AnalyzedCommentRepository interface {
	GetByCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]models.AnalyzedComment, error)
	ListForUser(ctx context.Context, userID string) ([]models.AnalyzedComment, error)
	InsertAnalysis(ctx context.Context, rec *models.AnalyzedComment) (bool, error)
	SetHidden(ctx context.Context, userID, commentID string, hidden bool) error
	Remove(ctx context.Context, userID, commentID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type analyzedCommentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAnalyzedCommentRepository creates a ledger repository backed by
// Postgres.
func NewAnalyzedCommentRepository(db *sqlx.DB, logger *zap.Logger) AnalyzedCommentRepository {
	return &analyzedCommentRepository{db: db, logger: logger}
}

// GetByCommentIDs loads the ledger rows for the given comment ids in one
// batched query, keyed by comment id. Ids without a row are simply absent
// from the map.
func (r *analyzedCommentRepository) GetByCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]models.AnalyzedComment, error) {
	result := make(map[string]models.AnalyzedComment, len(commentIDs))
	if len(commentIDs) == 0 {
		return result, nil
	}

	var rows []models.AnalyzedComment
	query := `SELECT user_id, comment_id, media_id, text, username, is_harmful, is_hidden, analyzed_at, updated_at
	          FROM analyzed_comments WHERE user_id = $1 AND comment_id = ANY($2)`
	if err := r.db.SelectContext(ctx, &rows, query, userID, pq.Array(commentIDs)); err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.CommentID] = row
	}
	return result, nil
}

// ListForUser returns every ledger row for one user.
func (r *analyzedCommentRepository) ListForUser(ctx context.Context, userID string) ([]models.AnalyzedComment, error) {
	var rows []models.AnalyzedComment
	query := `SELECT user_id, comment_id, media_id, text, username, is_harmful, is_hidden, analyzed_at, updated_at
	          FROM analyzed_comments WHERE user_id = $1 ORDER BY analyzed_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertAnalysis writes a freshly classified comment to the ledger. The
// verdict is immutable once written: a conflicting insert for the same
// (user, comment) pair is skipped, not overwritten, so a concurrent sync
// that lost the race cannot clobber an earlier verdict or a hidden state
// the actuator set in the meantime. Returns whether a row was written.
func (r *analyzedCommentRepository) InsertAnalysis(ctx context.Context, rec *models.AnalyzedComment) (bool, error) {
	query := `INSERT INTO analyzed_comments (user_id, comment_id, media_id, text, username, is_harmful, is_hidden)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (user_id, comment_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.CommentID, rec.MediaID, rec.Text, rec.Username, rec.IsHarmful, rec.IsHidden)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetHidden updates the hidden state of an existing ledger row, refreshing
// updated_at. Returns ErrNotFound when the row does not exist.
func (r *analyzedCommentRepository) SetHidden(ctx context.Context, userID, commentID string, hidden bool) error {
	query := `UPDATE analyzed_comments SET is_hidden = $1, updated_at = NOW()
	          WHERE user_id = $2 AND comment_id = $3`
	res, err := r.db.ExecContext(ctx, query, hidden, userID, commentID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the ledger row for a comment. Removing a row that is
// already gone is not an error.
func (r *analyzedCommentRepository) Remove(ctx context.Context, userID, commentID string) error {
	query := `DELETE FROM analyzed_comments WHERE user_id = $1 AND comment_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, commentID)
	return err
}

// PurgeOlderThan deletes ledger rows not touched since the cutoff. Rows for
// comments that stopped appearing in remote fetches are never updated, so
// they age out through this sweep instead of being guessed at during sync.
func (r *analyzedCommentRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM analyzed_comments WHERE updated_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// getOne loads a single ledger row.
func (r *analyzedCommentRepository) getOne(ctx context.Context, userID, commentID string) (*models.AnalyzedComment, error) {
	var row models.AnalyzedComment
	query := `SELECT user_id, comment_id, media_id, text, username, is_harmful, is_hidden, analyzed_at, updated_at
	          FROM analyzed_comments WHERE user_id = $1 AND comment_id = $2`
	err := r.db.GetContext(ctx, &row, query, userID, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}
