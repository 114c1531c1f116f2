package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/services"
)

func newMockRepo(t *testing.T) (*FeedbackRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	return &FeedbackRepository{db: db, logger: zap.NewNop()}, mock
}

func TestFeedbackRepository_Insert(t *testing.T) {
	repo, mock := newMockRepo(t)

	feedback := models.NewFeedback("T-1001", 4, "helpful diagnosis", "include part numbers")

	mock.ExpectExec(`INSERT INTO feedback`).
		WithArgs(
			feedback.ID,
			feedback.TicketID,
			feedback.Score,
			feedback.Text,
			feedback.SuggestedImprovements,
			feedback.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), feedback)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	createdAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "ticket_id", "feedback_score", "feedback_text", "suggested_improvements", "created_at",
	}).AddRow(id, "T-1001", 4, "helpful", "", createdAt)

	mock.ExpectQuery(`SELECT .+ FROM feedback`).
		WithArgs(id).
		WillReturnRows(rows)

	feedback, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, feedback.ID)
	assert.Equal(t, "T-1001", feedback.TicketID)
	assert.Equal(t, 4, feedback.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM feedback`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "ticket_id", "feedback_score", "feedback_text", "suggested_improvements", "created_at",
		}))

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, services.IsNotFoundError(err))
}

func TestFeedbackRepository_ListByTicket(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "ticket_id", "feedback_score", "feedback_text", "suggested_improvements", "created_at",
	}).
		AddRow(uuid.New(), "T-1001", 5, "great", "", time.Now().UTC()).
		AddRow(uuid.New(), "T-1001", 2, "off target", "check root cause", time.Now().UTC().Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM feedback WHERE ticket_id`).
		WithArgs("T-1001").
		WillReturnRows(rows)

	items, err := repo.ListByTicket(context.Background(), "T-1001")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
