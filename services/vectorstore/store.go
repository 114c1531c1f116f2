package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/diengg/diengg/config"
	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/services"
)

// milvusAPI is the subset of the Milvus client the store uses
type milvusAPI interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	DescribeIndex(ctx context.Context, collName string, fieldName string, opts ...client.IndexOption) ([]entity.Index, error)
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Insert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// TicketHit is a retrieved ticket with its L2 distance to the query vector
type TicketHit struct {
	Ticket   models.Ticket
	Distance float32
}

// TeamMemberHit is a retrieved team member with its L2 distance to the query vector
type TeamMemberHit struct {
	Member   models.TeamMember
	Distance float32
}

// Store wraps a Milvus connection and exposes typed insert/search operations
// over the tickets and team_knowledge collections. Search and insert refuse
// to run until EnsureReady has loaded the collections.
type Store struct {
	c      milvusAPI
	dim    int
	logger *zap.Logger

	maxRetries int
	retryDelay time.Duration

	mu    sync.RWMutex
	ready map[string]bool
}

// NewStore connects to Milvus and returns a store. Connection failure is
// reported immediately rather than on first use.
func NewStore(ctx context.Context, cfg config.MilvusConfig, dim int, logger *zap.Logger) (*Store, error) {
	dialCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	c, err := client.NewClient(dialCtx, client.Config{
		Address:  cfg.Address(),
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, services.WrapConnection(
			fmt.Sprintf("failed to connect to vector store at %s", cfg.Address()), err)
	}

	logger.Info("connected to vector store", zap.String("milvus", cfg.LogString()))
	return newStoreWithClient(c, dim, logger), nil
}

func newStoreWithClient(c milvusAPI, dim int, logger *zap.Logger) *Store {
	return &Store{
		c:          c,
		dim:        dim,
		logger:     logger,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		ready:      make(map[string]bool),
	}
}

// Close releases the Milvus connection
func (s *Store) Close() error {
	return s.c.Close()
}

// EnsureReady creates the collections and indexes if missing and loads them
// into memory. It is idempotent and safe to call on every startup.
func (s *Store) EnsureReady(ctx context.Context) error {
	collections := []struct {
		name   string
		schema *entity.Schema
	}{
		{TicketsCollection, ticketSchema(s.dim)},
		{TeamCollection, teamSchema(s.dim)},
	}

	for _, coll := range collections {
		if err := s.prepareCollection(ctx, coll.name, coll.schema); err != nil {
			return err
		}
		s.mu.Lock()
		s.ready[coll.name] = true
		s.mu.Unlock()
		s.logger.Info("collection ready", zap.String("collection", coll.name))
	}
	return nil
}

func (s *Store) prepareCollection(ctx context.Context, name string, schema *entity.Schema) error {
	exists, err := s.c.HasCollection(ctx, name)
	if err != nil {
		return services.WrapConnection("failed to check collection "+name, err)
	}

	if !exists {
		if err := s.c.CreateCollection(ctx, schema, 1); err != nil {
			return services.WrapConnection("failed to create collection "+name, err)
		}
		s.logger.Info("created collection", zap.String("collection", name))
	}

	// DescribeIndex fails when no index exists yet; treat that as absent.
	indexes, err := s.c.DescribeIndex(ctx, name, embeddingField)
	if err != nil || len(indexes) == 0 {
		idx, err := entity.NewIndexIvfFlat(entity.L2, indexNlist)
		if err != nil {
			return services.WrapInternal("failed to build index definition", err)
		}
		if err := s.c.CreateIndex(ctx, name, embeddingField, idx, false); err != nil {
			return services.WrapConnection("failed to create index on "+name, err)
		}
		s.logger.Info("created index", zap.String("collection", name))
	}

	if err := s.c.LoadCollection(ctx, name, false); err != nil {
		return services.WrapConnection("failed to load collection "+name, err)
	}
	return nil
}

// Ready reports whether both collections are loaded and searchable
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready[TicketsCollection] && s.ready[TeamCollection]
}

func (s *Store) requireReady(collection string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready[collection] {
		return services.NewDomainError(services.ErrorTypeNotReady,
			"collection is not loaded", nil).WithDetail("collection", collection)
	}
	return nil
}

func (s *Store) checkDimension(vector []float32) error {
	if len(vector) != s.dim {
		return services.NewDomainError(services.ErrorTypeEmbedding,
			"embedding dimension mismatch", nil).
			WithDetail("want", s.dim).
			WithDetail("got", len(vector))
	}
	return nil
}

// InsertTicket stores a single ticket and its embedding
func (s *Store) InsertTicket(ctx context.Context, t *models.Ticket, vector []float32) error {
	if err := s.requireReady(TicketsCollection); err != nil {
		return err
	}
	if err := s.checkDimension(vector); err != nil {
		return err
	}

	components, err := json.Marshal(t.AffectedComponents)
	if err != nil {
		return services.WrapInternal("failed to encode affected components", err)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("id", []string{t.ID}),
		entity.NewColumnVarChar("ticket_id", []string{t.TicketID}),
		entity.NewColumnVarChar("machine_model", []string{t.MachineModel}),
		entity.NewColumnVarChar("serial_number", []string{t.SerialNumber}),
		entity.NewColumnVarChar("issue_description", []string{t.IssueDescription}),
		entity.NewColumnVarChar("affected_components", []string{string(components)}),
		entity.NewColumnVarChar("customer", []string{t.Customer}),
		entity.NewColumnVarChar("reported_date", []string{t.ReportedDate.Format(time.RFC3339)}),
		entity.NewColumnVarChar("priority", []string{t.Priority}),
		entity.NewColumnVarChar("status", []string{t.Status}),
		entity.NewColumnVarChar("resolution_solution", []string{t.ResolutionSolution}),
		entity.NewColumnVarChar("root_cause", []string{t.RootCause}),
		entity.NewColumnVarChar("resolution_date", []string{t.ResolutionDateString()}),
		entity.NewColumnVarChar("technician", []string{t.Technician}),
		entity.NewColumnFloatVector(embeddingField, s.dim, [][]float32{vector}),
	}

	if _, err := s.c.Insert(ctx, TicketsCollection, "", columns...); err != nil {
		return services.WrapConnection("failed to insert ticket", err)
	}
	return nil
}

// InsertTeamMember stores a single team member profile and its embedding
func (s *Store) InsertTeamMember(ctx context.Context, m *models.TeamMember, vector []float32) error {
	if err := s.requireReady(TeamCollection); err != nil {
		return err
	}
	if err := s.checkDimension(vector); err != nil {
		return err
	}

	skills, err := json.Marshal(m.Skills)
	if err != nil {
		return services.WrapInternal("failed to encode skills", err)
	}
	certifications, err := json.Marshal(m.Certifications)
	if err != nil {
		return services.WrapInternal("failed to encode certifications", err)
	}
	resolved, err := json.Marshal(m.ResolvedIssues)
	if err != nil {
		return services.WrapInternal("failed to encode resolved issues", err)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("id", []string{m.ID}),
		entity.NewColumnVarChar("employee_id", []string{m.EmployeeID}),
		entity.NewColumnVarChar("name", []string{m.Name}),
		entity.NewColumnVarChar("role", []string{m.Role}),
		entity.NewColumnVarChar("skills", []string{string(skills)}),
		entity.NewColumnVarChar("certifications", []string{string(certifications)}),
		entity.NewColumnVarChar("resolved_issues", []string{string(resolved)}),
		entity.NewColumnInt64("experience_years", []int64{m.ExperienceYears}),
		entity.NewColumnVarChar("region", []string{m.Region}),
		entity.NewColumnFloatVector(embeddingField, s.dim, [][]float32{vector}),
	}

	if _, err := s.c.Insert(ctx, TeamCollection, "", columns...); err != nil {
		return services.WrapConnection("failed to insert team member", err)
	}
	return nil
}

// SearchTickets returns the topK most similar tickets, ordered by ascending
// L2 distance
func (s *Store) SearchTickets(ctx context.Context, vector []float32, topK int) ([]TicketHit, error) {
	results, err := s.search(ctx, TicketsCollection, vector, topK, ticketOutputFields)
	if err != nil {
		return nil, err
	}

	var hits []TicketHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hits = append(hits, TicketHit{
				Ticket:   ticketFromResult(result.Fields, i),
				Distance: result.Scores[i],
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits, nil
}

// SearchTeamMembers returns the topK most similar team member profiles,
// ordered by ascending L2 distance
func (s *Store) SearchTeamMembers(ctx context.Context, vector []float32, topK int) ([]TeamMemberHit, error) {
	results, err := s.search(ctx, TeamCollection, vector, topK, teamOutputFields)
	if err != nil {
		return nil, err
	}

	var hits []TeamMemberHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hits = append(hits, TeamMemberHit{
				Member:   memberFromResult(result.Fields, i),
				Distance: result.Scores[i],
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits, nil
}

func (s *Store) search(ctx context.Context, collection string, vector []float32, topK int, outputFields []string) ([]client.SearchResult, error) {
	if err := s.requireReady(collection); err != nil {
		return nil, err
	}
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, services.WrapError(services.ErrorTypeValidation, "search limit must be positive", nil)
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(searchProbe)
	if err != nil {
		return nil, services.WrapInternal("failed to build search params", err)
	}
	vectors := []entity.Vector{entity.FloatVector(vector)}

	var results []client.SearchResult
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		results, lastErr = s.c.Search(ctx, collection, nil, "", outputFields,
			vectors, embeddingField, entity.L2, topK, sp)
		if lastErr == nil {
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, wrapContextErr(ctx.Err())
		}
		s.logger.Warn("vector search failed",
			zap.String("collection", collection),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < s.maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * s.retryDelay):
			case <-ctx.Done():
				return nil, wrapContextErr(ctx.Err())
			}
		}
	}
	return nil, services.WrapConnection("vector search failed after retries", lastErr)
}

// wrapContextErr keeps timeouts and caller cancellations distinct: only an
// expired deadline is a timeout, a cancelled request is not.
func wrapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.WrapError(services.ErrorTypeTimeout, "search timed out", err)
	}
	return services.WrapInternal("search cancelled", err)
}

// Result parsing

func stringField(fields client.ResultSet, name string, idx int) string {
	col := fields.GetColumn(name)
	if col == nil {
		return ""
	}
	v, err := col.GetAsString(idx)
	if err != nil {
		return ""
	}
	return v
}

func int64Field(fields client.ResultSet, name string, idx int) int64 {
	col := fields.GetColumn(name)
	if col == nil {
		return 0
	}
	v, err := col.GetAsInt64(idx)
	if err != nil {
		return 0
	}
	return v
}

func listField(fields client.ResultSet, name string, idx int) []string {
	raw := stringField(fields, name, idx)
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func ticketFromResult(fields client.ResultSet, idx int) models.Ticket {
	t := models.Ticket{
		ID:                 stringField(fields, "id", idx),
		TicketID:           stringField(fields, "ticket_id", idx),
		MachineModel:       stringField(fields, "machine_model", idx),
		SerialNumber:       stringField(fields, "serial_number", idx),
		IssueDescription:   stringField(fields, "issue_description", idx),
		AffectedComponents: listField(fields, "affected_components", idx),
		Customer:           stringField(fields, "customer", idx),
		Priority:           stringField(fields, "priority", idx),
		Status:             stringField(fields, "status", idx),
		ResolutionSolution: stringField(fields, "resolution_solution", idx),
		RootCause:          stringField(fields, "root_cause", idx),
		Technician:         stringField(fields, "technician", idx),
	}
	if reported, err := time.Parse(time.RFC3339, stringField(fields, "reported_date", idx)); err == nil {
		t.ReportedDate = reported
	}
	if raw := stringField(fields, "resolution_date", idx); raw != "" {
		if resolved, err := time.Parse(time.RFC3339, raw); err == nil {
			t.ResolutionDate = &resolved
		}
	}
	return t
}

func memberFromResult(fields client.ResultSet, idx int) models.TeamMember {
	return models.TeamMember{
		ID:              stringField(fields, "id", idx),
		EmployeeID:      stringField(fields, "employee_id", idx),
		Name:            stringField(fields, "name", idx),
		Role:            stringField(fields, "role", idx),
		Skills:          listField(fields, "skills", idx),
		Certifications:  listField(fields, "certifications", idx),
		ResolvedIssues:  listField(fields, "resolved_issues", idx),
		ExperienceYears: int64Field(fields, "experience_years", idx),
		Region:          stringField(fields, "region", idx),
	}
}
