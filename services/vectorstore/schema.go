package vectorstore

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// TicketsCollection holds historical repair tickets
	TicketsCollection = "tickets"
	// TeamCollection holds team-member skill profiles
	TeamCollection = "team_knowledge"

	embeddingField = "embedding"

	// IVF_FLAT partition count; nprobe is the per-query probe count.
	indexNlist  = 128
	searchProbe = 10
)

var ticketOutputFields = []string{
	"id", "ticket_id", "machine_model", "serial_number", "issue_description",
	"affected_components", "customer", "reported_date", "priority", "status",
	"resolution_solution", "root_cause", "resolution_date", "technician",
}

var teamOutputFields = []string{
	"id", "employee_id", "name", "role", "skills", "certifications",
	"resolved_issues", "experience_years", "region",
}

// ticketSchema builds the tickets collection schema. List-valued fields are
// stored JSON-encoded in varchar columns.
func ticketSchema(dim int) *entity.Schema {
	return entity.NewSchema().
		WithName(TicketsCollection).
		WithDescription("Tickets collection").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("ticket_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("machine_model").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("serial_number").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("issue_description").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1000)).
		WithField(entity.NewField().WithName("affected_components").WithDataType(entity.FieldTypeVarChar).WithMaxLength(2000)).
		WithField(entity.NewField().WithName("customer").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("reported_date").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("priority").WithDataType(entity.FieldTypeVarChar).WithMaxLength(50)).
		WithField(entity.NewField().WithName("status").WithDataType(entity.FieldTypeVarChar).WithMaxLength(50)).
		WithField(entity.NewField().WithName("resolution_solution").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1000)).
		WithField(entity.NewField().WithName("root_cause").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1000)).
		WithField(entity.NewField().WithName("resolution_date").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("technician").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName(embeddingField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))
}

// teamSchema builds the team knowledge collection schema.
func teamSchema(dim int) *entity.Schema {
	return entity.NewSchema().
		WithName(TeamCollection).
		WithDescription("Team knowledge collection").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("employee_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("name").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("role").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName("skills").WithDataType(entity.FieldTypeVarChar).WithMaxLength(2000)).
		WithField(entity.NewField().WithName("certifications").WithDataType(entity.FieldTypeVarChar).WithMaxLength(2000)).
		WithField(entity.NewField().WithName("resolved_issues").WithDataType(entity.FieldTypeVarChar).WithMaxLength(2000)).
		WithField(entity.NewField().WithName("experience_years").WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName("region").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100)).
		WithField(entity.NewField().WithName(embeddingField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))
}
