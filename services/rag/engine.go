package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/diengg/diengg/services"
	"github.com/diengg/diengg/services/completion"
	"github.com/diengg/diengg/services/vectorstore"
)

// Embedder produces an embedding vector for a query text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TicketSearcher retrieves similar historical tickets
type TicketSearcher interface {
	SearchTickets(ctx context.Context, vector []float32, topK int) ([]vectorstore.TicketHit, error)
}

// Completer runs chat completions
type Completer interface {
	ChatCompletion(ctx context.Context, req completion.ChatRequest) (*completion.ChatResult, error)
}

// Diagnosis is the structured outcome of a diagnosis run
type Diagnosis struct {
	Summary      string  `json:"summary"`
	SuggestedFix string  `json:"suggested_fix"`
	Confidence   float64 `json:"confidence"`
	SourceCase   string  `json:"source_case,omitempty"`
}

// Result bundles the diagnosis with the tickets it was grounded on
type Result struct {
	Diagnosis      Diagnosis
	RelatedTickets []vectorstore.TicketHit
}

// Engine implements retrieval-augmented diagnosis: embed the incoming issue,
// retrieve similar resolved tickets and ask the model for a structured
// diagnosis grounded on them.
type Engine struct {
	embedder  Embedder
	searcher  TicketSearcher
	completer Completer
	topK      int
	logger    *zap.Logger
}

// NewEngine creates a new diagnosis engine
func NewEngine(embedder Embedder, searcher TicketSearcher, completer Completer, topK int, logger *zap.Logger) *Engine {
	if topK <= 0 {
		topK = 3
	}
	return &Engine{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		topK:      topK,
		logger:    logger,
	}
}

const diagnosisSystemPrompt = `You are a technical support expert for industrial equipment.
You diagnose new issues using similar historical repair tickets as reference.
Respond with a single JSON object with exactly these keys:
"summary" (string, probable root cause), "suggested_fix" (string, recommended action),
"confidence" (number between 0 and 1), "source_case" (string, ticket ID of the most relevant
historical case, or empty if none applies). Do not include any other text.`

// Diagnose runs the full retrieval-augmented pipeline for a new issue report
func (e *Engine) Diagnose(ctx context.Context, ticketText string) (*Result, error) {
	if strings.TrimSpace(ticketText) == "" {
		return nil, services.WrapError(services.ErrorTypeValidation, "ticket text cannot be empty", nil)
	}

	vector, err := e.embedder.Embed(ctx, ticketText)
	if err != nil {
		return nil, err
	}

	hits, err := e.searcher.SearchTickets(ctx, vector, e.topK)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("retrieved similar tickets", zap.Int("count", len(hits)))

	prompt := buildPrompt(ticketText, hits)
	result, err := e.completer.ChatCompletion(ctx, completion.ChatRequest{
		Messages: []completion.Message{
			{Role: "system", Content: diagnosisSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	var reply string
	if result.Kind == completion.KindReply {
		reply = result.Reply
	}

	diagnosis := parseDiagnosis(reply)
	return &Result{
		Diagnosis:      diagnosis,
		RelatedTickets: hits,
	}, nil
}

// buildPrompt renders the retrieved tickets as a reference block. With no
// hits the model is still asked, with an explicit empty-context note.
func buildPrompt(ticketText string, hits []vectorstore.TicketHit) string {
	var b strings.Builder
	b.WriteString("New issue report:\n")
	b.WriteString(ticketText)
	b.WriteString("\n\n")

	if len(hits) == 0 {
		b.WriteString("No similar historical tickets were found. Diagnose from the issue report alone.\n")
		return b.String()
	}

	b.WriteString("Similar historical tickets:\n")
	for i, hit := range hits {
		t := hit.Ticket
		fmt.Fprintf(&b, "\nCase %d:\n", i+1)
		fmt.Fprintf(&b, "Ticket ID: %s\n", t.TicketID)
		fmt.Fprintf(&b, "Machine Model: %s\n", t.MachineModel)
		fmt.Fprintf(&b, "Issue: %s\n", t.IssueDescription)
		if t.RootCause != "" {
			fmt.Fprintf(&b, "Root Cause: %s\n", t.RootCause)
		}
		if t.ResolutionSolution != "" {
			fmt.Fprintf(&b, "Resolution: %s\n", t.ResolutionSolution)
		}
	}
	return b.String()
}
