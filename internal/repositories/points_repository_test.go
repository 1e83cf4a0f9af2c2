// file: internal/repositories/points_repository_test.go
package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skillforge/internal/database"
	"skillforge/internal/gamification"
	"skillforge/internal/models"
)

func newMockRepo(t *testing.T) (PointsRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	manager := database.NewManagerFromDB(db, zap.NewNop())
	return NewPointsRepository(manager, zap.NewNop()), mock
}

func TestRecordAwardInsertsAndIncrements(t *testing.T) {
	repo, mock := newMockRepo(t)

	dedup := "first_enrollment"
	tx := &models.PointTransaction{
		UserID:    1,
		EventType: "first_enrollment",
		Points:    25,
		DedupKey:  &dedup,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO point_transactions`).
		WithArgs(tx.UserID, tx.EventType, tx.Points, nil, nil, nil, dedup).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))
	mock.ExpectQuery(`INSERT INTO user_points_summaries`).
		WithArgs(tx.UserID, tx.Points).
		WillReturnRows(sqlmock.NewRows([]string{"total_points"}).AddRow(int64(25)))
	mock.ExpectCommit()

	inserted, newTotal, err := repo.RecordAward(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, int64(25), newTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAwardDeduplicated(t *testing.T) {
	repo, mock := newMockRepo(t)

	dedup := "first_enrollment"
	tx := &models.PointTransaction{
		UserID:    1,
		EventType: "first_enrollment",
		Points:    25,
		DedupKey:  &dedup,
	}

	// ON CONFLICT DO NOTHING yields an empty result set; the summary is
	// never touched.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO point_transactions`).
		WithArgs(tx.UserID, tx.EventType, tx.Points, nil, nil, nil, dedup).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectCommit()

	inserted, newTotal, err := repo.RecordAward(context.Background(), tx)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, int64(0), newTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAwardRollsBackWhenIncrementFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	tx := &models.PointTransaction{
		UserID:    1,
		EventType: "comment_added",
		Points:    2,
	}

	// A failed increment must take the ledger insert down with it.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO point_transactions`).
		WithArgs(tx.UserID, tx.EventType, tx.Points, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), time.Now()))
	mock.ExpectQuery(`INSERT INTO user_points_summaries`).
		WithArgs(tx.UserID, tx.Points).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := repo.RecordAward(context.Background(), tx)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSummaryMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT user_id, total_points, level, updated_at`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_points", "level", "updated_at"}))

	summary, err := repo.GetSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEvents(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM point_transactions`).
		WithArgs(int64(1), "comment_added").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.CountEvents(context.Background(), 1, gamification.EventCommentAdded)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLeaderboardScansEntries(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"user_id", "username", "display_name", "avatar_url", "total_points", "level", "updated_at",
	}).
		AddRow(int64(2), "ada", nil, nil, int64(500), 3, now).
		AddRow(int64(1), "grace", nil, nil, int64(120), 2, now)

	mock.ExpectQuery(`FROM user_points_summaries s`).
		WithArgs(100).
		WillReturnRows(rows)

	entries, err := repo.GetLeaderboard(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "ada", entries[0].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}
