package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/diengg/diengg/services/assistant"
	"github.com/diengg/diengg/services/completion"
	"github.com/diengg/diengg/utils"
)

// ChatMessage is a single message in the assistant conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// AssistantChatRequest is the request body for POST /api/v1/assistant/chat
type AssistantChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// Assistant drives an assistant conversation turn
type Assistant interface {
	Chat(ctx context.Context, messages []completion.Message) (*assistant.ChatOutcome, error)
}

// AssistantHandler handles assistant chat HTTP requests
type AssistantHandler struct {
	service Assistant
	logger  *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(service Assistant, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /api/v1/assistant/chat
func (h *AssistantHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req AssistantChatRequest
	if err := decodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	messages := make([]completion.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = completion.Message{Role: m.Role, Content: m.Content}
	}

	outcome, err := h.service.Chat(r.Context(), messages)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: outcome})
}
