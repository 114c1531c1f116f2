package models

import (
	"fmt"
	"strings"
	"time"
)

// Ticket represents a historical equipment-repair ticket in canonical form.
// Tickets are immutable once stored; the embedding is derived at ingestion
// time and never recomputed unless the record is re-ingested.
type Ticket struct {
	ID                 string     `json:"id"`
	TicketID           string     `json:"ticket_id"`
	MachineModel       string     `json:"machine_model"`
	SerialNumber       string     `json:"serial_number"`
	IssueDescription   string     `json:"issue_description"`
	AffectedComponents []string   `json:"affected_components"`
	Customer           string     `json:"customer"`
	ReportedDate       time.Time  `json:"reported_date"`
	Priority           string     `json:"priority"`
	Status             string     `json:"status"`
	ResolutionSolution string     `json:"resolution_solution,omitempty"`
	RootCause          string     `json:"root_cause,omitempty"`
	ResolutionDate     *time.Time `json:"resolution_date,omitempty"`
	Technician         string     `json:"technician,omitempty"`
}

// Validate checks that the fields required for ingestion are present.
func (t *Ticket) Validate() error {
	if t.TicketID == "" {
		return fmt.Errorf("ticket_id is required")
	}
	if t.IssueDescription == "" {
		return fmt.Errorf("issue_description is required")
	}
	if t.ResolutionDate != nil && t.ResolutionDate.Before(t.ReportedDate) {
		return fmt.Errorf("resolution_date precedes reported_date")
	}
	return nil
}

// EmbeddingText returns the text chunk the ticket embedding is derived from.
// Resolutions are included so that retrieval surfaces how an issue was fixed,
// not just that a similar issue occurred.
func (t *Ticket) EmbeddingText() string {
	var b strings.Builder
	b.WriteString("Issue: ")
	b.WriteString(t.IssueDescription)
	b.WriteString("\nResolution: ")
	b.WriteString(t.ResolutionSolution)
	return b.String()
}

// ResolutionDateString renders the resolution date for storage.
// Unresolved tickets store an empty string.
func (t *Ticket) ResolutionDateString() string {
	if t.ResolutionDate == nil {
		return ""
	}
	return t.ResolutionDate.Format(time.RFC3339)
}
