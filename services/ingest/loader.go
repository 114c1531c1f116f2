package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/services"
)

// Ticket export files use a "YYYY-MM-DD HH:MM" timestamp format
const exportDateLayout = "2006-01-02 15:04"

// ticketRecord is the wire form of a ticket in knowledge export files.
// Keys are camelCase in the export format.
type ticketRecord struct {
	TicketID           string   `json:"ticketID"`
	MachineModel       string   `json:"machineModel"`
	SerialNumber       string   `json:"serialNumber"`
	IssueDescription   string   `json:"issueDescription"`
	AffectedComponents []string `json:"affectedComponents"`
	Customer           string   `json:"customer"`
	ReportedDate       string   `json:"reportedDate"`
	Priority           string   `json:"priority"`
	Status             string   `json:"status"`
	ResolutionSolution string   `json:"resolutionSolution"`
	RootCause          string   `json:"rootCause"`
	ResolutionDate     string   `json:"resolutionDate"`
	Technician         string   `json:"technician"`
}

// teamRecord is the wire form of a team member profile. Team export files
// already use snake_case keys.
type teamRecord struct {
	EmployeeID      string   `json:"employee_id"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Skills          []string `json:"skills"`
	Certifications  []string `json:"certifications"`
	ResolvedIssues  []string `json:"resolved_issues"`
	ExperienceYears int64    `json:"experience_years"`
	Region          string   `json:"region"`
}

// ParseTickets decodes a ticket export document. Both a bare array and an
// object wrapping the array under "tickets" are accepted.
func ParseTickets(data []byte) ([]models.Ticket, error) {
	var records []ticketRecord
	if err := decodeRecords(data, "tickets", &records); err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(records))
	for i, rec := range records {
		ticket, err := toTicket(rec)
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeSchema,
				"ticket record is malformed", err).WithDetail("index", i)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// ParseTeamMembers decodes a team knowledge export document. Both a bare
// array and an object wrapping the array under "team_members" are accepted.
func ParseTeamMembers(data []byte) ([]models.TeamMember, error) {
	var records []teamRecord
	if err := decodeRecords(data, "team_members", &records); err != nil {
		return nil, err
	}

	members := make([]models.TeamMember, 0, len(records))
	for _, rec := range records {
		members = append(members, models.TeamMember{
			EmployeeID:      rec.EmployeeID,
			Name:            rec.Name,
			Role:            rec.Role,
			Skills:          rec.Skills,
			Certifications:  rec.Certifications,
			ResolvedIssues:  rec.ResolvedIssues,
			ExperienceYears: rec.ExperienceYears,
			Region:          rec.Region,
		})
	}
	return members, nil
}

func decodeRecords(data []byte, wrapperKey string, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return services.NewDomainError(services.ErrorTypeSchema, "document is empty", nil)
	}

	if trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return services.NewDomainError(services.ErrorTypeSchema, "document is not valid JSON", err)
		}
		inner, ok := wrapper[wrapperKey]
		if !ok {
			return services.NewDomainError(services.ErrorTypeSchema,
				"document is missing the expected array", nil).WithDetail("key", wrapperKey)
		}
		trimmed = inner
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return services.NewDomainError(services.ErrorTypeSchema, "document does not match the expected schema", err)
	}
	return nil
}

func toTicket(rec ticketRecord) (models.Ticket, error) {
	ticket := models.Ticket{
		TicketID:           rec.TicketID,
		MachineModel:       rec.MachineModel,
		SerialNumber:       rec.SerialNumber,
		IssueDescription:   rec.IssueDescription,
		AffectedComponents: rec.AffectedComponents,
		Customer:           rec.Customer,
		Priority:           rec.Priority,
		Status:             rec.Status,
		ResolutionSolution: rec.ResolutionSolution,
		RootCause:          rec.RootCause,
		Technician:         rec.Technician,
	}

	if rec.ReportedDate != "" {
		reported, err := parseExportDate(rec.ReportedDate)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("invalid reportedDate %q: %w", rec.ReportedDate, err)
		}
		ticket.ReportedDate = reported
	}
	if rec.ResolutionDate != "" {
		resolved, err := parseExportDate(rec.ResolutionDate)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("invalid resolutionDate %q: %w", rec.ResolutionDate, err)
		}
		ticket.ResolutionDate = &resolved
	}
	return ticket, nil
}

func parseExportDate(value string) (time.Time, error) {
	if t, err := time.Parse(exportDateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
