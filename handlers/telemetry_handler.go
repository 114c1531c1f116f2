package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diengg/diengg/services/telemetry"
	"github.com/diengg/diengg/utils"
)

// MachineSummary is the per-machine portion of the telemetry summary response
type MachineSummary struct {
	Machine  string                             `json:"machine"`
	Readings int                                `json:"readings"`
	Sensors  map[string]telemetry.SensorSummary `json:"sensors"`
}

// TelemetryHandler handles telemetry HTTP requests
type TelemetryHandler struct {
	logger *zap.Logger
}

// NewTelemetryHandler creates a new TelemetryHandler
func NewTelemetryHandler(logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{logger: logger}
}

// HandleSummary handles POST /api/v1/telemetry/summary. The body is a raw
// telemetry document keyed by machine identifier.
func (h *TelemetryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Failed to read request body", nil)
		return
	}

	series, err := telemetry.Parse(data)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	summaries := make([]MachineSummary, 0, len(series))
	for _, s := range series {
		summaries = append(summaries, MachineSummary{
			Machine:  s.Machine,
			Readings: len(s.Readings),
			Sensors:  telemetry.Summarize(s),
		})
	}
	respondJSON(w, http.StatusOK, utils.SuccessResponse{Data: summaries})
}
