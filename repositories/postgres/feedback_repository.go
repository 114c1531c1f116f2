package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/repositories"
	"github.com/diengg/diengg/services"
)

// FeedbackRepository implements the repositories.FeedbackRepository interface
type FeedbackRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB, logger *zap.Logger) repositories.FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a new feedback record
func (r *FeedbackRepository) Insert(ctx context.Context, feedback *models.Feedback) error {
	query := `
		INSERT INTO feedback (
			id, ticket_id, feedback_score, feedback_text, suggested_improvements, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		feedback.ID,
		feedback.TicketID,
		feedback.Score,
		feedback.Text,
		feedback.SuggestedImprovements,
		feedback.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	r.logger.Debug("feedback inserted",
		zap.String("id", feedback.ID.String()),
		zap.String("ticket_id", feedback.TicketID))
	return nil
}

// GetByID retrieves a feedback record by ID
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	query := `
		SELECT id, ticket_id, feedback_score, feedback_text, suggested_improvements, created_at
		FROM feedback
		WHERE id = $1
	`

	feedback := &models.Feedback{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&feedback.ID,
		&feedback.TicketID,
		&feedback.Score,
		&feedback.Text,
		&feedback.SuggestedImprovements,
		&feedback.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return feedback, nil
}

// ListByTicket retrieves all feedback submitted for a ticket, newest first
func (r *FeedbackRepository) ListByTicket(ctx context.Context, ticketID string) ([]*models.Feedback, error) {
	query := `
		SELECT id, ticket_id, feedback_score, feedback_text, suggested_improvements, created_at
		FROM feedback
		WHERE ticket_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var items []*models.Feedback
	for rows.Next() {
		feedback := &models.Feedback{}
		err := rows.Scan(
			&feedback.ID,
			&feedback.TicketID,
			&feedback.Score,
			&feedback.Text,
			&feedback.SuggestedImprovements,
			&feedback.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, feedback)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback rows: %w", err)
	}

	return items, nil
}
