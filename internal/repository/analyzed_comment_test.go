package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/models"
)

func newMockRepo(t *testing.T) (AnalyzedCommentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewAnalyzedCommentRepository(sqlxDB, zap.NewNop()), mock
}

var ledgerColumns = []string{
	"user_id", "comment_id", "media_id", "text", "username",
	"is_harmful", "is_hidden", "analyzed_at", "updated_at",
}

func TestInsertAnalysis_WritesNewRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO analyzed_comments").
		WithArgs("u1", "c1", "m1", "nasty text", "troll", true, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertAnalysis(context.Background(), &models.AnalyzedComment{
		UserID: "u1", CommentID: "c1", MediaID: "m1",
		Text: "nasty text", Username: "troll", IsHarmful: true, IsHidden: false,
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestInsertAnalysis_ConflictIsSkippedNotOverwritten(t *testing.T) {
	repo, mock := newMockRepo(t)

	// ON CONFLICT DO NOTHING reports zero affected rows when another
	// writer got there first; the caller must treat that as "skipped".
	mock.ExpectExec("INSERT INTO analyzed_comments").
		WithArgs("u1", "c1", "m1", "text", "a", false, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertAnalysis(context.Background(), &models.AnalyzedComment{
		UserID: "u1", CommentID: "c1", MediaID: "m1", Text: "text", Username: "a",
	})
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestGetByCommentIDs_BatchedLookup(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows(ledgerColumns).
		AddRow("u1", "c1", "m1", "hello", "a", false, false, now, now).
		AddRow("u1", "c3", "m2", "spam", "b", true, true, now, now)

	mock.ExpectQuery("SELECT .+ FROM analyzed_comments WHERE user_id = \\$1 AND comment_id = ANY\\(\\$2\\)").
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	result, err := repo.GetByCommentIDs(context.Background(), "u1", []string{"c1", "c2", "c3"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.False(t, result["c1"].IsHarmful)
	require.True(t, result["c3"].IsHarmful)
	require.True(t, result["c3"].IsHidden)
	_, ok := result["c2"]
	require.False(t, ok, "ids without a ledger row are simply absent")
}

func TestGetByCommentIDs_EmptyInputSkipsQuery(t *testing.T) {
	repo, _ := newMockRepo(t)

	result, err := repo.GetByCommentIDs(context.Background(), "u1", nil)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestSetHidden_UpdatesExistingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE analyzed_comments SET is_hidden").
		WithArgs(true, "u1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetHidden(context.Background(), "u1", "c1", true))
}

func TestSetHidden_MissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE analyzed_comments SET is_hidden").
		WithArgs(false, "u1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetHidden(context.Background(), "u1", "ghost", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemove_MissingRowIsNotAnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM analyzed_comments WHERE user_id = \\$1 AND comment_id = \\$2").
		WithArgs("u1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Remove(context.Background(), "u1", "gone"))
}

func TestPurgeOlderThan(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Now().AddDate(0, 0, -90)

	mock.ExpectExec("DELETE FROM analyzed_comments WHERE updated_at < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := repo.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 3, purged)
}

func TestListForUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows(ledgerColumns).
		AddRow("u1", "c1", "m1", "hello", "a", false, false, now, now)

	mock.ExpectQuery("SELECT .+ FROM analyzed_comments WHERE user_id = \\$1 ORDER BY analyzed_at DESC").
		WithArgs("u1").
		WillReturnRows(rows)

	result, err := repo.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "c1", result[0].CommentID)
}

func TestGetOne_MissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM analyzed_comments WHERE user_id = \\$1 AND comment_id = \\$2").
		WithArgs("u1", "nope").
		WillReturnRows(sqlmock.NewRows(ledgerColumns))

	r := repo.(*analyzedCommentRepository)
	_, err := r.getOne(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}
