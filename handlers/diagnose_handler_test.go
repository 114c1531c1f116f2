package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diengg/diengg/models"
	"github.com/diengg/diengg/services"
	"github.com/diengg/diengg/services/rag"
	"github.com/diengg/diengg/services/vectorstore"
)

type stubDiagnoser struct {
	result   *rag.Result
	err      error
	lastText string
}

func (s *stubDiagnoser) Diagnose(ctx context.Context, ticketText string) (*rag.Result, error) {
	s.lastText = ticketText
	return s.result, s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestDiagnoseHandler(t *testing.T) {
	diagnoser := &stubDiagnoser{result: &rag.Result{
		Diagnosis: rag.Diagnosis{
			Summary:      "worn spindle bearing",
			SuggestedFix: "replace the bearing",
			Confidence:   0.85,
			SourceCase:   "T-1001",
		},
		RelatedTickets: []vectorstore.TicketHit{
			{Ticket: models.Ticket{TicketID: "T-1001", IssueDescription: "spindle vibration"}, Distance: 0.2},
		},
	}}
	handler := NewDiagnoseHandler(diagnoser, zap.NewNop())

	rec := postJSON(t, handler.HandleDiagnose, "/api/v1/diagnose", `{"ticket_text": "loud vibration"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "loud vibration", diagnoser.lastText)

	var resp struct {
		Data DiagnoseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "worn spindle bearing", resp.Data.Diagnosis.Summary)
	require.Len(t, resp.Data.RelatedTickets, 1)
	assert.Equal(t, "T-1001", resp.Data.RelatedTickets[0].TicketID)
}

func TestDiagnoseHandler_MissingText(t *testing.T) {
	handler := NewDiagnoseHandler(&stubDiagnoser{}, zap.NewNop())

	rec := postJSON(t, handler.HandleDiagnose, "/api/v1/diagnose", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnoseHandler_InvalidBody(t *testing.T) {
	handler := NewDiagnoseHandler(&stubDiagnoser{}, zap.NewNop())

	rec := postJSON(t, handler.HandleDiagnose, "/api/v1/diagnose", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnoseHandler_NotReady(t *testing.T) {
	diagnoser := &stubDiagnoser{err: services.NewDomainError(services.ErrorTypeNotReady, "collection is not loaded", nil)}
	handler := NewDiagnoseHandler(diagnoser, zap.NewNop())

	rec := postJSON(t, handler.HandleDiagnose, "/api/v1/diagnose", `{"ticket_text": "leak"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDiagnoseHandler_UpstreamError(t *testing.T) {
	diagnoser := &stubDiagnoser{err: services.WrapEmbedding("embedding service down", nil)}
	handler := NewDiagnoseHandler(diagnoser, zap.NewNop())

	rec := postJSON(t, handler.HandleDiagnose, "/api/v1/diagnose", `{"ticket_text": "leak"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDiagnoseHandler_Timeout(t *testing.T) {
	diagnoser := &stubDiagnoser{err: services.WrapError(services.ErrorTypeTimeout, "completion timed out", nil)}
	handler := NewDiagnoseHandler(diagnoser, zap.NewNop())

	rec := postJSON(t, handler.HandleDiagnose, "/api/v1/diagnose", `{"ticket_text": "leak"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
