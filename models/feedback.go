package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback captures a user's rating of an AI-suggested diagnosis.
type Feedback struct {
	ID                    uuid.UUID `json:"id"`
	TicketID              string    `json:"ticket_id"`
	Score                 int       `json:"feedback_score"`
	Text                  string    `json:"feedback_text,omitempty"`
	SuggestedImprovements string    `json:"suggested_improvements,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewFeedback creates a feedback record with a fresh id and timestamp.
func NewFeedback(ticketID string, score int, text, improvements string) *Feedback {
	return &Feedback{
		ID:                    uuid.New(),
		TicketID:              ticketID,
		Score:                 score,
		Text:                  text,
		SuggestedImprovements: improvements,
		CreatedAt:             time.Now().UTC(),
	}
}
