package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/repositories"
	"github.com/diengg/diengg/utils"
)

// FeedbackRequest is the request body for POST /api/v1/feedback
type FeedbackRequest struct {
	TicketID              string `json:"ticket_id" validate:"required"`
	Score                 int    `json:"feedback_score" validate:"gte=1,lte=5"`
	Text                  string `json:"feedback_text"`
	SuggestedImprovements string `json:"suggested_improvements"`
}

// FeedbackHandler handles feedback HTTP requests. The repository is
// optional: without a configured feedback database the submission is
// acknowledged but not persisted.
type FeedbackHandler struct {
	repo   repositories.FeedbackRepository
	logger *zap.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(repo repositories.FeedbackRepository, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		repo:   repo,
		logger: logger,
	}
}

// HandleSubmit handles POST /api/v1/feedback
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	feedback := models.NewFeedback(req.TicketID, req.Score, req.Text, req.SuggestedImprovements)

	if h.repo == nil {
		h.logger.Info("feedback received without persistence",
			zap.String("ticket_id", feedback.TicketID),
			zap.Int("score", feedback.Score))
		respondJSON(w, http.StatusOK, utils.SuccessResponse{
			Data:    feedback,
			Message: "Feedback received",
		})
		return
	}

	if err := h.repo.Insert(r.Context(), feedback); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("feedback stored",
		zap.String("id", feedback.ID.String()),
		zap.String("ticket_id", feedback.TicketID))
	_ = utils.WriteCreated(w, feedback)
}

// HandleListByTicket handles GET /api/v1/feedback?ticket_id=...
func (h *FeedbackHandler) HandleListByTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := r.URL.Query().Get("ticket_id")
	if ticketID == "" {
		_ = utils.WriteBadRequest(w, "ticket_id parameter is required", nil)
		return
	}

	if h.repo == nil {
		respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: []*models.Feedback{}})
		return
	}

	items, err := h.repo.ListByTicket(r.Context(), ticketID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if items == nil {
		items = []*models.Feedback{}
	}
	respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: items})
}
