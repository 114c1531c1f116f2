package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/diengg/diengg/models"
)

// FeedbackRepository persists user feedback on AI-suggested diagnoses
type FeedbackRepository interface {
	// Insert stores a new feedback record
	Insert(ctx context.Context, feedback *models.Feedback) error

	// GetByID retrieves a feedback record by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)

	// ListByTicket retrieves all feedback submitted for a ticket,
	// newest first
	ListByTicket(ctx context.Context, ticketID string) ([]*models.Feedback, error)
}
