package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/services"
	"github.com/diengg/diengg/services/ingest"
)

type fakeMilvus struct {
	collections map[string]bool
	indexes     map[string]bool
	loaded      map[string]bool

	inserted map[string][]entity.Column
	rows     map[string][][]entity.Column

	searchErrs    []error
	searchResults []client.SearchResult
	searchCalls   int

	createCollectionCalls int
	createIndexCalls      int
}

func newFakeMilvus() *fakeMilvus {
	return &fakeMilvus{
		collections: make(map[string]bool),
		indexes:     make(map[string]bool),
		loaded:      make(map[string]bool),
		inserted:    make(map[string][]entity.Column),
		rows:        make(map[string][][]entity.Column),
	}
}

func (f *fakeMilvus) HasCollection(ctx context.Context, collName string) (bool, error) {
	return f.collections[collName], nil
}

func (f *fakeMilvus) CreateCollection(ctx context.Context, schema *entity.Schema, shardNum int32, opts ...client.CreateCollectionOption) error {
	f.createCollectionCalls++
	f.collections[schema.CollectionName] = true
	return nil
}

func (f *fakeMilvus) CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error {
	f.createIndexCalls++
	f.indexes[collName] = true
	return nil
}

func (f *fakeMilvus) DescribeIndex(ctx context.Context, collName string, fieldName string, opts ...client.IndexOption) ([]entity.Index, error) {
	if !f.indexes[collName] {
		return nil, errors.New("index not found")
	}
	return []entity.Index{entity.NewGenericIndex(fieldName, entity.IvfFlat, nil)}, nil
}

func (f *fakeMilvus) LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error {
	f.loaded[collName] = true
	return nil
}

func (f *fakeMilvus) Insert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error) {
	f.inserted[collName] = columns
	f.rows[collName] = append(f.rows[collName], columns)
	return nil, nil
}

// Search replays canned results when set; otherwise it ranks the inserted
// rows by squared L2 distance to the query vector, like the real index.
func (f *fakeMilvus) Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	call := f.searchCalls
	f.searchCalls++
	if call < len(f.searchErrs) && f.searchErrs[call] != nil {
		return nil, f.searchErrs[call]
	}
	if f.searchResults != nil {
		return f.searchResults, nil
	}
	return f.rankRows(collName, []float32(vectors[0].(entity.FloatVector)), vectorField, topK), nil
}

func (f *fakeMilvus) rankRows(collName string, query []float32, vectorField string, topK int) []client.SearchResult {
	type scoredRow struct {
		row  []entity.Column
		dist float32
	}

	var ranked []scoredRow
	for _, row := range f.rows[collName] {
		var dist float32
		for _, col := range row {
			fv, ok := col.(*entity.ColumnFloatVector)
			if !ok || col.Name() != vectorField {
				continue
			}
			for i, v := range fv.Data()[0] {
				diff := v - query[i]
				dist += diff * diff
			}
		}
		ranked = append(ranked, scoredRow{row: row, dist: dist})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })
	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	if len(ranked) == 0 {
		return []client.SearchResult{{}}
	}

	var fields client.ResultSet
	for _, col := range ranked[0].row {
		if col.Name() == vectorField {
			continue
		}
		if _, ok := col.(*entity.ColumnInt64); ok {
			values := make([]int64, len(ranked))
			for i, r := range ranked {
				values[i] = rowInt64(r.row, col.Name())
			}
			fields = append(fields, entity.NewColumnInt64(col.Name(), values))
			continue
		}
		values := make([]string, len(ranked))
		for i, r := range ranked {
			values[i] = rowString(r.row, col.Name())
		}
		fields = append(fields, entity.NewColumnVarChar(col.Name(), values))
	}

	scores := make([]float32, len(ranked))
	for i, r := range ranked {
		scores[i] = r.dist
	}
	return []client.SearchResult{{
		ResultCount: len(ranked),
		Fields:      fields,
		Scores:      scores,
	}}
}

func rowString(row []entity.Column, name string) string {
	for _, col := range row {
		if col.Name() == name {
			v, _ := col.GetAsString(0)
			return v
		}
	}
	return ""
}

func rowInt64(row []entity.Column, name string) int64 {
	for _, col := range row {
		if col.Name() == name {
			v, _ := col.GetAsInt64(0)
			return v
		}
	}
	return 0
}

func (f *fakeMilvus) Close() error { return nil }

func testStore(t *testing.T) (*Store, *fakeMilvus) {
	t.Helper()
	fake := newFakeMilvus()
	store := newStoreWithClient(fake, 4, zap.NewNop())
	store.retryDelay = time.Millisecond
	return store, fake
}

func readyStore(t *testing.T) (*Store, *fakeMilvus) {
	t.Helper()
	store, fake := testStore(t)
	require.NoError(t, store.EnsureReady(context.Background()))
	return store, fake
}

func ticketResults(ids []string, scores []float32) []client.SearchResult {
	n := len(ids)
	fill := func(v string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	fields := client.ResultSet{
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("ticket_id", ids),
		entity.NewColumnVarChar("machine_model", fill("CNC-500")),
		entity.NewColumnVarChar("serial_number", fill("SN-1")),
		entity.NewColumnVarChar("issue_description", fill("spindle vibration")),
		entity.NewColumnVarChar("affected_components", fill(`["spindle","bearing"]`)),
		entity.NewColumnVarChar("customer", fill("Acme")),
		entity.NewColumnVarChar("reported_date", fill("2024-03-01T10:00:00Z")),
		entity.NewColumnVarChar("priority", fill("high")),
		entity.NewColumnVarChar("status", fill("resolved")),
		entity.NewColumnVarChar("resolution_solution", fill("replaced bearing")),
		entity.NewColumnVarChar("root_cause", fill("worn bearing")),
		entity.NewColumnVarChar("resolution_date", fill("2024-03-02T15:00:00Z")),
		entity.NewColumnVarChar("technician", fill("J. Doe")),
	}
	return []client.SearchResult{{
		ResultCount: n,
		Fields:      fields,
		Scores:      scores,
	}}
}

func TestStore_EnsureReady_Idempotent(t *testing.T) {
	store, fake := testStore(t)

	require.NoError(t, store.EnsureReady(context.Background()))
	assert.Equal(t, 2, fake.createCollectionCalls)
	assert.Equal(t, 2, fake.createIndexCalls)
	assert.True(t, store.Ready())

	require.NoError(t, store.EnsureReady(context.Background()))
	assert.Equal(t, 2, fake.createCollectionCalls)
	assert.Equal(t, 2, fake.createIndexCalls)
}

func TestStore_SearchBeforeReady(t *testing.T) {
	store, _ := testStore(t)

	_, err := store.SearchTickets(context.Background(), []float32{1, 2, 3, 4}, 3)
	require.Error(t, err)
	assert.True(t, services.IsNotReadyError(err))
	assert.Equal(t, TicketsCollection, services.GetErrorDetails(err)["collection"])
}

func TestStore_InsertBeforeReady(t *testing.T) {
	store, _ := testStore(t)

	err := store.InsertTicket(context.Background(), &models.Ticket{TicketID: "T-1"}, []float32{1, 2, 3, 4})
	require.Error(t, err)
	assert.True(t, services.IsNotReadyError(err))
}

func TestStore_InsertTicket_EncodesFields(t *testing.T) {
	store, fake := readyStore(t)

	reported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := &models.Ticket{
		ID:                 "row-1",
		TicketID:           "T-1001",
		IssueDescription:   "spindle vibration",
		AffectedComponents: []string{"spindle", "bearing"},
		ReportedDate:       reported,
	}
	require.NoError(t, store.InsertTicket(context.Background(), ticket, []float32{1, 2, 3, 4}))

	columns := fake.inserted[TicketsCollection]
	require.NotEmpty(t, columns)

	byName := make(map[string]entity.Column)
	for _, col := range columns {
		byName[col.Name()] = col
	}

	components, err := byName["affected_components"].GetAsString(0)
	require.NoError(t, err)
	assert.JSONEq(t, `["spindle","bearing"]`, components)

	reportedStr, err := byName["reported_date"].GetAsString(0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00Z", reportedStr)

	// Unresolved ticket stores an empty resolution date
	resolutionStr, err := byName["resolution_date"].GetAsString(0)
	require.NoError(t, err)
	assert.Equal(t, "", resolutionStr)
}

func TestStore_InsertTicket_DimensionMismatch(t *testing.T) {
	store, _ := readyStore(t)

	err := store.InsertTicket(context.Background(), &models.Ticket{TicketID: "T-1"}, []float32{1, 2})
	require.Error(t, err)
	assert.True(t, services.IsEmbeddingError(err))
	assert.Equal(t, 4, services.GetErrorDetails(err)["want"])
	assert.Equal(t, 2, services.GetErrorDetails(err)["got"])
}

func TestStore_SearchTickets_MapsAndSorts(t *testing.T) {
	store, fake := readyStore(t)
	fake.searchResults = ticketResults([]string{"T-2", "T-1"}, []float32{0.8, 0.2})

	hits, err := store.SearchTickets(context.Background(), []float32{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "T-1", hits[0].Ticket.TicketID)
	assert.Equal(t, float32(0.2), hits[0].Distance)
	assert.Equal(t, "T-2", hits[1].Ticket.TicketID)
	assert.Equal(t, float32(0.8), hits[1].Distance)

	first := hits[0].Ticket
	assert.Equal(t, []string{"spindle", "bearing"}, first.AffectedComponents)
	assert.Equal(t, "replaced bearing", first.ResolutionSolution)
	assert.Equal(t, 2024, first.ReportedDate.Year())
	require.NotNil(t, first.ResolutionDate)
	assert.Equal(t, 2, int(first.ResolutionDate.Day()))
}

func TestStore_SearchTickets_RetriesTransientFailure(t *testing.T) {
	store, fake := readyStore(t)
	fake.searchErrs = []error{errors.New("rpc unavailable")}
	fake.searchResults = ticketResults([]string{"T-1"}, []float32{0.1})

	hits, err := store.SearchTickets(context.Background(), []float32{1, 2, 3, 4}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, fake.searchCalls)
}

func TestStore_SearchTickets_ExhaustsRetries(t *testing.T) {
	store, fake := readyStore(t)
	fake.searchErrs = []error{
		errors.New("rpc unavailable"),
		errors.New("rpc unavailable"),
		errors.New("rpc unavailable"),
	}

	_, err := store.SearchTickets(context.Background(), []float32{1, 2, 3, 4}, 1)
	require.Error(t, err)
	assert.True(t, services.IsConnectionError(err))
	assert.Equal(t, 3, fake.searchCalls)
}

func TestStore_SearchTickets_CancelledContextIsNotTimeout(t *testing.T) {
	store, fake := readyStore(t)
	fake.searchErrs = []error{errors.New("rpc unavailable")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.SearchTickets(ctx, []float32{1, 2, 3, 4}, 1)
	require.Error(t, err)
	assert.True(t, services.IsInternalError(err))
	assert.False(t, services.IsTimeoutError(err))
}

func TestStore_SearchTickets_ExpiredDeadlineIsTimeout(t *testing.T) {
	store, fake := readyStore(t)
	fake.searchErrs = []error{errors.New("rpc unavailable")}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := store.SearchTickets(ctx, []float32{1, 2, 3, 4}, 1)
	require.Error(t, err)
	assert.True(t, services.IsTimeoutError(err))
}

func TestStore_SearchTickets_OwnEmbeddingAtDistanceZero(t *testing.T) {
	store, _ := readyStore(t)
	ctx := context.Background()

	target := []float32{0.1, 0.7, 0.2, 0.4}
	require.NoError(t, store.InsertTicket(ctx, &models.Ticket{
		ID:               "row-1",
		TicketID:         "T-1001",
		IssueDescription: "spindle vibration",
	}, target))
	require.NoError(t, store.InsertTicket(ctx, &models.Ticket{
		ID:               "row-2",
		TicketID:         "T-1002",
		IssueDescription: "coolant leak",
	}, []float32{0.9, 0.1, 0.8, 0.3}))

	hits, err := store.SearchTickets(ctx, target, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "T-1001", hits[0].Ticket.TicketID)
	assert.Equal(t, float32(0), hits[0].Distance)
	assert.Greater(t, hits[1].Distance, float32(0))
}

// vocabEmbedder maps text onto fixed keyword dimensions so retrieval tests
// are fully deterministic. Shared keywords pull vectors together.
var embedVocab = []string{
	"hydraulic", "pump", "pressure",
	"conveyor", "belt", "misalignment",
	"spindle", "overheating", "vibration",
	"coolant", "leak", "filter",
}

type vocabEmbedder struct{}

func (vocabEmbedder) embed(text string) []float32 {
	vec := make([]float32, len(embedVocab))
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,:")
		for i, key := range embedVocab {
			if word == key {
				vec[i]++
			}
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= scale
		}
	}
	return vec
}

func (e vocabEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func TestStore_IngestThenSearch_SimilarIssueRanksFirst(t *testing.T) {
	fake := newFakeMilvus()
	store := newStoreWithClient(fake, len(embedVocab), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, store.EnsureReady(ctx))

	embedder := vocabEmbedder{}
	svc := ingest.NewService(store, embedder, 2, zap.NewNop())

	doc := `{"tickets": [
		{"ticketID": "T-2001", "issueDescription": "hydraulic pump pressure loss under load",
		 "resolutionSolution": "replaced pump seal", "reportedDate": "2024-03-01 10:00"},
		{"ticketID": "T-2002", "issueDescription": "conveyor belt misalignment at loading station",
		 "resolutionSolution": "realigned belt rollers", "reportedDate": "2024-03-02 11:00"},
		{"ticketID": "T-2003", "issueDescription": "spindle motor overheating with heavy vibration",
		 "resolutionSolution": "replaced spindle bearing", "reportedDate": "2024-03-03 12:00"},
		{"ticketID": "T-2004", "issueDescription": "coolant leak near filter housing",
		 "resolutionSolution": "tightened filter housing", "reportedDate": "2024-03-04 13:00"}
	]}`
	report, err := svc.IngestTickets(ctx, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Inserted)

	query := embedder.embed("spindle overheating and vibration")
	hits, err := store.SearchTickets(ctx, query, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "T-2003", hits[0].Ticket.TicketID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i].Distance, hits[i-1].Distance)
	}
}

func TestStore_SearchTeamMembers(t *testing.T) {
	store, fake := readyStore(t)
	fields := client.ResultSet{
		entity.NewColumnVarChar("id", []string{"row-1"}),
		entity.NewColumnVarChar("employee_id", []string{"E-7"}),
		entity.NewColumnVarChar("name", []string{"Sam Rivera"}),
		entity.NewColumnVarChar("role", []string{"Field Technician"}),
		entity.NewColumnVarChar("skills", []string{`["hydraulics","plc"]`}),
		entity.NewColumnVarChar("certifications", []string{`["OSHA-10"]`}),
		entity.NewColumnVarChar("resolved_issues", []string{`["pump failure"]`}),
		entity.NewColumnInt64("experience_years", []int64{8}),
		entity.NewColumnVarChar("region", []string{"EMEA"}),
	}
	fake.searchResults = []client.SearchResult{{
		ResultCount: 1,
		Fields:      fields,
		Scores:      []float32{0.3},
	}}

	hits, err := store.SearchTeamMembers(context.Background(), []float32{1, 2, 3, 4}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	member := hits[0].Member
	assert.Equal(t, "E-7", member.EmployeeID)
	assert.Equal(t, []string{"hydraulics", "plc"}, member.Skills)
	assert.Equal(t, int64(8), member.ExperienceYears)
}
