package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
)

type stubFeedbackRepo struct {
	inserted []*models.Feedback
	items    []*models.Feedback
	err      error
}

func (s *stubFeedbackRepo) Insert(ctx context.Context, feedback *models.Feedback) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, feedback)
	return nil
}

func (s *stubFeedbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	return nil, s.err
}

func (s *stubFeedbackRepo) ListByTicket(ctx context.Context, ticketID string) ([]*models.Feedback, error) {
	return s.items, s.err
}

func TestFeedbackHandler_Submit(t *testing.T) {
	repo := &stubFeedbackRepo{}
	handler := NewFeedbackHandler(repo, zap.NewNop())

	rec := postJSON(t, handler.HandleSubmit, "/api/v1/feedback",
		`{"ticket_id": "T-1001", "feedback_score": 4, "feedback_text": "helpful"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "T-1001", repo.inserted[0].TicketID)
	assert.Equal(t, 4, repo.inserted[0].Score)
	assert.NotEqual(t, uuid.Nil, repo.inserted[0].ID)
}

func TestFeedbackHandler_SubmitWithoutRepo(t *testing.T) {
	handler := NewFeedbackHandler(nil, zap.NewNop())

	rec := postJSON(t, handler.HandleSubmit, "/api/v1/feedback",
		`{"ticket_id": "T-1001", "feedback_score": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data    models.Feedback `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Feedback received", resp.Message)
	assert.Equal(t, "T-1001", resp.Data.TicketID)
}

func TestFeedbackHandler_ScoreOutOfRange(t *testing.T) {
	handler := NewFeedbackHandler(&stubFeedbackRepo{}, zap.NewNop())

	rec := postJSON(t, handler.HandleSubmit, "/api/v1/feedback",
		`{"ticket_id": "T-1001", "feedback_score": 11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackHandler_MissingTicketID(t *testing.T) {
	handler := NewFeedbackHandler(&stubFeedbackRepo{}, zap.NewNop())

	rec := postJSON(t, handler.HandleSubmit, "/api/v1/feedback", `{"feedback_score": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
