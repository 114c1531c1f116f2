package assistant

import (
	"context"
	"encoding/json"
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

// TicketSummary is the trimmed ticket view returned from a tool lookup
type TicketSummary struct {
	TicketID           string `json:"ticket_id"`
	MachineModel       string `json:"machine_model"`
	IssueDescription   string `json:"issue_description"`
	ResolutionSolution string `json:"resolution_solution,omitempty"`
	RootCause          string `json:"root_cause,omitempty"`
}

// OutcomeKind discriminates the variants of a ChatOutcome
type OutcomeKind string

const (
	// OutcomeReply is a plain assistant text reply
	OutcomeReply OutcomeKind = "reply"
	// OutcomeTickets carries the results of a ticket lookup the model requested
	OutcomeTickets OutcomeKind = "tickets"
)

// ChatOutcome is a tagged variant: either a text reply or the tickets
// retrieved for a model-requested search.
type ChatOutcome struct {
	Kind    OutcomeKind     `json:"kind"`
	Reply   string          `json:"reply,omitempty"`
	Tickets []TicketSummary `json:"tickets,omitempty"`
}

const systemPrompt = `You are a support assistant for industrial equipment service teams.
Answer questions about equipment issues, maintenance and repairs.
When the user describes a concrete equipment problem, call the search_tickets
tool to look up similar historical tickets instead of answering from memory.`

// searchTicketsTool is the single capability exposed to the model
var searchTicketsTool = completion.Tool{
	Name:        "search_tickets",
	Description: "Search historical repair tickets similar to an issue description.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"issue_description": {
				"type": "string",
				"description": "Description of the equipment issue to search for"
			},
			"serial_number": {
				"type": "string",
				"description": "Serial number of the affected machine, if known"
			}
		},
		"required": ["issue_description"]
	}`),
}

// Service drives the assistant conversation. The model gets one tool
// round-trip per turn: when it requests a ticket search, the results go
// straight back to the caller rather than through another completion.
type Service struct {
	embedder  Embedder
	searcher  TicketSearcher
	completer Completer
	topK      int
	logger    *zap.Logger
}

// NewService creates a new assistant service
func NewService(embedder Embedder, searcher TicketSearcher, completer Completer, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		topK:      topK,
		logger:    logger,
	}
}

// Chat runs one assistant turn over the supplied conversation history
func (s *Service) Chat(ctx context.Context, messages []completion.Message) (*ChatOutcome, error) {
	if len(messages) == 0 {
		return nil, services.WrapError(services.ErrorTypeValidation, "conversation cannot be empty", nil)
	}

	full := make([]completion.Message, 0, len(messages)+1)
	full = append(full, completion.Message{Role: "system", Content: systemPrompt})
	full = append(full, messages...)

	result, err := s.completer.ChatCompletion(ctx, completion.ChatRequest{
		Messages: full,
		Tools:    []completion.Tool{searchTicketsTool},
	})
	if err != nil {
		return nil, err
	}

	if result.Kind == completion.KindReply {
		return &ChatOutcome{Kind: OutcomeReply, Reply: result.Reply}, nil
	}
	return s.runToolCall(ctx, result.ToolCall)
}

func (s *Service) runToolCall(ctx context.Context, call *completion.ToolInvocation) (*ChatOutcome, error) {
	if call == nil || call.Name != searchTicketsTool.Name {
		name := ""
		if call != nil {
			name = call.Name
		}
		return nil, services.NewDomainError(services.ErrorTypeInternal,
			"model requested an unknown tool", nil).WithDetail("tool", name)
	}

	var args struct {
		IssueDescription string `json:"issue_description"`
		SerialNumber     string `json:"serial_number"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return nil, services.WrapInternal("tool arguments could not be decoded", err)
	}
	if strings.TrimSpace(args.IssueDescription) == "" {
		return nil, services.WrapInternal("tool call is missing issue_description", nil)
	}

	query := args.IssueDescription
	if args.SerialNumber != "" {
		query += " Serial Number: " + args.SerialNumber
	}
	s.logger.Debug("running ticket search for assistant", zap.String("query", query))

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.searcher.SearchTickets(ctx, vector, s.topK)
	if err != nil {
		return nil, err
	}

	summaries := make([]TicketSummary, 0, len(hits))
	for _, hit := range hits {
		summaries = append(summaries, TicketSummary{
			TicketID:           hit.Ticket.TicketID,
			MachineModel:       hit.Ticket.MachineModel,
			IssueDescription:   hit.Ticket.IssueDescription,
			ResolutionSolution: hit.Ticket.ResolutionSolution,
			RootCause:          hit.Ticket.RootCause,
		})
	}
	return &ChatOutcome{Kind: OutcomeTickets, Tickets: summaries}, nil
}
