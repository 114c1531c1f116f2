package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicket_Validate(t *testing.T) {
	reported := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	resolvedEarly := reported.Add(-time.Hour)
	resolved := reported.Add(48 * time.Hour)

	tests := []struct {
		name    string
		ticket  Ticket
		wantErr string
	}{
		{
			name: "valid resolved ticket",
			ticket: Ticket{
				TicketID:         "T1",
				IssueDescription: "motor overheating",
				ReportedDate:     reported,
				ResolutionDate:   &resolved,
			},
		},
		{
			name:    "missing ticket id",
			ticket:  Ticket{IssueDescription: "motor overheating"},
			wantErr: "ticket_id",
		},
		{
			name:    "missing issue description",
			ticket:  Ticket{TicketID: "T1"},
			wantErr: "issue_description",
		},
		{
			name: "resolution before report",
			ticket: Ticket{
				TicketID:         "T1",
				IssueDescription: "motor overheating",
				ReportedDate:     reported,
				ResolutionDate:   &resolvedEarly,
			},
			wantErr: "resolution_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ticket.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTicket_EmbeddingText(t *testing.T) {
	ticket := Ticket{
		TicketID:           "T1",
		IssueDescription:   "motor overheating",
		ResolutionSolution: "replaced bearing",
	}
	text := ticket.EmbeddingText()
	assert.Equal(t, "Issue: motor overheating\nResolution: replaced bearing", text)
}

func TestTicket_ResolutionDateString(t *testing.T) {
	ticket := Ticket{TicketID: "T1", IssueDescription: "x"}
	assert.Equal(t, "", ticket.ResolutionDateString())

	resolved := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	ticket.ResolutionDate = &resolved
	assert.Equal(t, "2024-03-03T10:00:00Z", ticket.ResolutionDateString())
}

func TestTeamMember_Validate(t *testing.T) {
	member := TeamMember{EmployeeID: "E1", Name: "Dana", ExperienceYears: 4}
	require.NoError(t, member.Validate())

	member.ExperienceYears = -1
	require.Error(t, member.Validate())

	member = TeamMember{Name: "Dana"}
	require.Error(t, member.Validate())
}

func TestTeamMember_EmbeddingText(t *testing.T) {
	member := TeamMember{
		EmployeeID:     "E1",
		Name:           "Dana",
		Role:           "Field Engineer",
		Skills:         []string{"hydraulics", "PLC"},
		Certifications: []string{"cert-a"},
		ResolvedIssues: []string{"T1", "T2"},
	}
	text := member.EmbeddingText()
	assert.Contains(t, text, "Dana - Field Engineer")
	assert.Contains(t, text, "Skills: hydraulics, PLC")
	assert.Contains(t, text, "Certifications: cert-a")
	assert.Contains(t, text, "Resolved Issues: T1, T2")
}

func TestNewFeedback(t *testing.T) {
	fb := NewFeedback("T1", 4, "helpful", "")
	assert.Equal(t, "T1", fb.TicketID)
	assert.Equal(t, 4, fb.Score)
	assert.NotEqual(t, "", fb.ID.String())
	assert.False(t, fb.CreatedAt.IsZero())
}
