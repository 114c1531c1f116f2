package models

import (
	"fmt"
	"strings"
)

// TeamMember represents a team-member skill profile. Profiles share the
// embedding vector space with tickets.
type TeamMember struct {
	ID              string   `json:"id"`
	EmployeeID      string   `json:"employee_id"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Skills          []string `json:"skills"`
	Certifications  []string `json:"certifications"`
	ResolvedIssues  []string `json:"resolved_issues"`
	ExperienceYears int64    `json:"experience_years"`
	Region          string   `json:"region"`
}

// Validate checks that the fields required for ingestion are present.
func (m *TeamMember) Validate() error {
	if m.EmployeeID == "" {
		return fmt.Errorf("employee_id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.ExperienceYears < 0 {
		return fmt.Errorf("experience_years must be non-negative")
	}
	return nil
}

// EmbeddingText returns the profile text the member embedding is derived from.
func (m *TeamMember) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteString(" - ")
	b.WriteString(m.Role)
	b.WriteString("\nSkills: ")
	b.WriteString(strings.Join(m.Skills, ", "))
	b.WriteString("\nCertifications: ")
	b.WriteString(strings.Join(m.Certifications, ", "))
	b.WriteString("\nResolved Issues: ")
	b.WriteString(strings.Join(m.ResolvedIssues, ", "))
	return b.String()
}
