package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/diengg/diengg/services/ingest"
	"github.com/diengg/diengg/services/vectorstore"
	"github.com/diengg/diengg/utils"
)

// Ingestor loads knowledge export documents into the vector store
type Ingestor interface {
	IngestTickets(ctx context.Context, data []byte) (*ingest.Report, error)
	IngestTeamMembers(ctx context.Context, data []byte) (*ingest.Report, error)
}

// KnowledgeSearcher retrieves similar records for a free-text query
type KnowledgeSearcher interface {
	SearchTickets(ctx context.Context, vector []float32, topK int) ([]vectorstore.TicketHit, error)
	SearchTeamMembers(ctx context.Context, vector []float32, topK int) ([]vectorstore.TeamMemberHit, error)
}

// QueryEmbedder produces an embedding vector for a query text
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// KBHandler handles knowledge base HTTP requests
type KBHandler struct {
	ingestor    Ingestor
	embedder    QueryEmbedder
	searcher    KnowledgeSearcher
	defaultTopK int
	logger      *zap.Logger
}

// NewKBHandler creates a new KBHandler
func NewKBHandler(ingestor Ingestor, embedder QueryEmbedder, searcher KnowledgeSearcher, defaultTopK int, logger *zap.Logger) *KBHandler {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &KBHandler{
		ingestor:    ingestor,
		embedder:    embedder,
		searcher:    searcher,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// HandleUpload handles POST /api/v1/kb/upload. The body is a knowledge
// export document; ?type=tickets (default) or ?type=team selects the
// collection.
func (h *KBHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Failed to read request body", nil)
		return
	}
	if len(data) == 0 {
		_ = utils.WriteBadRequest(w, "Request body is empty", nil)
		return
	}

	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "tickets"
	}

	var report *ingest.Report
	switch kind {
	case "tickets":
		report, err = h.ingestor.IngestTickets(r.Context(), data)
	case "team":
		report, err = h.ingestor.IngestTeamMembers(r.Context(), data)
	default:
		_ = utils.WriteBadRequest(w, "Unknown upload type", map[string]interface{}{"type": kind})
		return
	}
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("knowledge upload complete",
		zap.String("type", kind),
		zap.Int("inserted", report.Inserted))
	respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: report})
}

// TicketSearchResult is one hit in the ticket search response
type TicketSearchResult struct {
	TicketID           string  `json:"ticket_id"`
	MachineModel       string  `json:"machine_model,omitempty"`
	IssueDescription   string  `json:"issue_description"`
	ResolutionSolution string  `json:"resolution_solution,omitempty"`
	RootCause          string  `json:"root_cause,omitempty"`
	Distance           float32 `json:"distance"`
}

// HandleSearchTickets handles GET /api/v1/kb/search?query=...&k=...
func (h *KBHandler) HandleSearchTickets(w http.ResponseWriter, r *http.Request) {
	query, topK, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	vector, err := h.embedder.Embed(r.Context(), query)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	hits, err := h.searcher.SearchTickets(r.Context(), vector, topK)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	results := make([]TicketSearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, TicketSearchResult{
			TicketID:           hit.Ticket.TicketID,
			MachineModel:       hit.Ticket.MachineModel,
			IssueDescription:   hit.Ticket.IssueDescription,
			ResolutionSolution: hit.Ticket.ResolutionSolution,
			RootCause:          hit.Ticket.RootCause,
			Distance:           hit.Distance,
		})
	}
	respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: results})
}

// TeamSearchResult is one hit in the team search response
type TeamSearchResult struct {
	EmployeeID      string   `json:"employee_id"`
	Name            string   `json:"name"`
	Role            string   `json:"role,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears int64    `json:"experience_years"`
	Region          string   `json:"region,omitempty"`
	Distance        float32  `json:"distance"`
}

// HandleSearchTeam handles GET /api/v1/kb/search/team?query=...&k=...
func (h *KBHandler) HandleSearchTeam(w http.ResponseWriter, r *http.Request) {
	query, topK, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	vector, err := h.embedder.Embed(r.Context(), query)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	hits, err := h.searcher.SearchTeamMembers(r.Context(), vector, topK)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	results := make([]TeamSearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, TeamSearchResult{
			EmployeeID:      hit.Member.EmployeeID,
			Name:            hit.Member.Name,
			Role:            hit.Member.Role,
			Skills:          hit.Member.Skills,
			ExperienceYears: hit.Member.ExperienceYears,
			Region:          hit.Member.Region,
			Distance:        hit.Distance,
		})
	}
	respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: results})
}

func (h *KBHandler) searchParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	query := r.URL.Query().Get("query")
	if query == "" {
		_ = utils.WriteBadRequest(w, "query parameter is required", nil)
		return "", 0, false
	}

	topK := h.defaultTopK
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k <= 0 {
			_ = utils.WriteBadRequest(w, "k must be a positive integer", map[string]interface{}{"k": raw})
			return "", 0, false
		}
		topK = k
	}
	return query, topK, true
}
