package ingest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/services"
)

// Embedder produces embedding vectors for text batches
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Writer stores embedded records in the vector store
type Writer interface {
	InsertTicket(ctx context.Context, t *models.Ticket, vector []float32) error
	InsertTeamMember(ctx context.Context, m *models.TeamMember, vector []float32) error
}

// Report summarizes an ingestion run
type Report struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
}

// Service validates knowledge export documents, embeds them in batches and
// writes them to the vector store. Every record is validated before any
// embedding call is made, so a schema failure never leaves a partial batch.
type Service struct {
	writer    Writer
	embedder  Embedder
	batchSize int
	logger    *zap.Logger
}

// NewService creates a new ingestion service
func NewService(writer Writer, embedder Embedder, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		writer:    writer,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IngestTickets parses, validates and stores a ticket export document
func (s *Service) IngestTickets(ctx context.Context, data []byte) (*Report, error) {
	tickets, err := ParseTickets(data)
	if err != nil {
		return nil, err
	}

	for i := range tickets {
		if err := tickets[i].Validate(); err != nil {
			return nil, services.NewDomainError(services.ErrorTypeSchema,
				"ticket record failed validation", err).
				WithDetail("index", i).
				WithDetail("ticket_id", tickets[i].TicketID).
				WithDetail("inserted", 0)
		}
		tickets[i].ID = uuid.New().String()
	}

	report := &Report{Total: len(tickets)}
	for start := 0; start < len(tickets); start += s.batchSize {
		end := start + s.batchSize
		if end > len(tickets) {
			end = len(tickets)
		}
		batch := tickets[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].EmbeddingText()
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return report, attachInserted(err, report.Inserted)
		}

		for i := range batch {
			if err := s.writer.InsertTicket(ctx, &batch[i], vectors[i]); err != nil {
				return report, attachInserted(err, report.Inserted)
			}
			report.Inserted++
		}
		s.logger.Info("ingested ticket batch",
			zap.Int("batch_size", len(batch)),
			zap.Int("inserted", report.Inserted),
			zap.Int("total", report.Total))
	}
	return report, nil
}

// IngestTeamMembers parses, validates and stores a team knowledge export document
func (s *Service) IngestTeamMembers(ctx context.Context, data []byte) (*Report, error) {
	members, err := ParseTeamMembers(data)
	if err != nil {
		return nil, err
	}

	for i := range members {
		if err := members[i].Validate(); err != nil {
			return nil, services.NewDomainError(services.ErrorTypeSchema,
				"team member record failed validation", err).
				WithDetail("index", i).
				WithDetail("employee_id", members[i].EmployeeID).
				WithDetail("inserted", 0)
		}
		members[i].ID = uuid.New().String()
	}

	report := &Report{Total: len(members)}
	for start := 0; start < len(members); start += s.batchSize {
		end := start + s.batchSize
		if end > len(members) {
			end = len(members)
		}
		batch := members[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].EmbeddingText()
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return report, attachInserted(err, report.Inserted)
		}

		for i := range batch {
			if err := s.writer.InsertTeamMember(ctx, &batch[i], vectors[i]); err != nil {
				return report, attachInserted(err, report.Inserted)
			}
			report.Inserted++
		}
		s.logger.Info("ingested team batch",
			zap.Int("batch_size", len(batch)),
			zap.Int("inserted", report.Inserted),
			zap.Int("total", report.Total))
	}
	return report, nil
}

// attachInserted records how many rows made it in before the failure
func attachInserted(err error, inserted int) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.WithDetail("inserted", inserted)
	}
	return services.WrapInternal("ingestion failed", err)
}
