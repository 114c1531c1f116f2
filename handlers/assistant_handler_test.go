package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diengg/diengg/services/assistant"
	"github.com/diengg/diengg/services/completion"
)

type stubAssistant struct {
	outcome  *assistant.ChatOutcome
	err      error
	lastMsgs []completion.Message
}

func (s *stubAssistant) Chat(ctx context.Context, messages []completion.Message) (*assistant.ChatOutcome, error) {
	s.lastMsgs = messages
	return s.outcome, s.err
}

func TestAssistantHandler_Reply(t *testing.T) {
	svc := &stubAssistant{outcome: &assistant.ChatOutcome{Kind: assistant.OutcomeReply, Reply: "grease every 200 hours"}}
	handler := NewAssistantHandler(svc, zap.NewNop())

	rec := postJSON(t, handler.HandleChat, "/api/v1/assistant/chat",
		`{"messages": [{"role": "user", "content": "how often to grease?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data assistant.ChatOutcome `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, assistant.OutcomeReply, resp.Data.Kind)
	assert.Equal(t, "grease every 200 hours", resp.Data.Reply)

	require.Len(t, svc.lastMsgs, 1)
	assert.Equal(t, "user", svc.lastMsgs[0].Role)
}

func TestAssistantHandler_Tickets(t *testing.T) {
	svc := &stubAssistant{outcome: &assistant.ChatOutcome{
		Kind: assistant.OutcomeTickets,
		Tickets: []assistant.TicketSummary{
			{TicketID: "T-1001", IssueDescription: "spindle vibration"},
		},
	}}
	handler := NewAssistantHandler(svc, zap.NewNop())

	rec := postJSON(t, handler.HandleChat, "/api/v1/assistant/chat",
		`{"messages": [{"role": "user", "content": "my machine vibrates"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data assistant.ChatOutcome `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, assistant.OutcomeTickets, resp.Data.Kind)
	require.Len(t, resp.Data.Tickets, 1)
	assert.Equal(t, "T-1001", resp.Data.Tickets[0].TicketID)
}

func TestAssistantHandler_EmptyMessages(t *testing.T) {
	handler := NewAssistantHandler(&stubAssistant{}, zap.NewNop())

	rec := postJSON(t, handler.HandleChat, "/api/v1/assistant/chat", `{"messages": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantHandler_BadRole(t *testing.T) {
	handler := NewAssistantHandler(&stubAssistant{}, zap.NewNop())

	rec := postJSON(t, handler.HandleChat, "/api/v1/assistant/chat",
		`{"messages": [{"role": "robot", "content": "hi"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
