package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/diengg/diengg/services/rag"
	"github.com/diengg/diengg/utils"
)

// DiagnoseRequest is the request body for POST /api/v1/diagnose
type DiagnoseRequest struct {
	TicketText string `json:"ticket_text" validate:"required"`
}

// RelatedTicket is a retrieved reference case in the diagnosis response
type RelatedTicket struct {
	TicketID           string  `json:"ticket_id"`
	MachineModel       string  `json:"machine_model,omitempty"`
	IssueDescription   string  `json:"issue_description"`
	ResolutionSolution string  `json:"resolution_solution,omitempty"`
	Distance           float32 `json:"distance"`
}

// DiagnoseResponse is the response body for POST /api/v1/diagnose
type DiagnoseResponse struct {
	Diagnosis      rag.Diagnosis   `json:"diagnosis"`
	RelatedTickets []RelatedTicket `json:"related_tickets"`
}

// Diagnoser runs retrieval-augmented diagnosis
type Diagnoser interface {
	Diagnose(ctx context.Context, ticketText string) (*rag.Result, error)
}

// DiagnoseHandler handles diagnosis HTTP requests
type DiagnoseHandler struct {
	engine Diagnoser
	logger *zap.Logger
}

// NewDiagnoseHandler creates a new DiagnoseHandler
func NewDiagnoseHandler(engine Diagnoser, logger *zap.Logger) *DiagnoseHandler {
	return &DiagnoseHandler{
		engine: engine,
		logger: logger,
	}
}

// HandleDiagnose handles POST /api/v1/diagnose
func (h *DiagnoseHandler) HandleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnoseRequest
	if err := decodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.engine.Diagnose(r.Context(), req.TicketText)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	related := make([]RelatedTicket, 0, len(result.RelatedTickets))
	for _, hit := range result.RelatedTickets {
		related = append(related, RelatedTicket{
			TicketID:           hit.Ticket.TicketID,
			MachineModel:       hit.Ticket.MachineModel,
			IssueDescription:   hit.Ticket.IssueDescription,
			ResolutionSolution: hit.Ticket.ResolutionSolution,
			Distance:           hit.Distance,
		})
	}

	respondJSON(w, http.StatusOK, utils.SuccessResponse{
		Data: DiagnoseResponse{
			Diagnosis:      result.Diagnosis,
			RelatedTickets: related,
		},
	})
}
