package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/diengg/diengg/app"
	"github.com/diengg/diengg/config"
)

func testDependencies() *app.Dependencies {
	return &app.Dependencies{
		Config: &config.Config{
			Server:    config.ServerConfig{WriteTimeout: 2 * time.Second},
			Retrieval: config.RetrievalConfig{TopK: 3},
		},
		Logger: zap.NewNop(),
	}
}

func TestSetupRoutes_Health(t *testing.T) {
	handler := SetupRoutes(testDependencies())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSetupRoutes_NotFound(t *testing.T) {
	handler := SetupRoutes(testDependencies())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"endpoint not found"}`, rec.Body.String())
}

func TestSetupRoutes_ZeroTimeoutFallsBack(t *testing.T) {
	deps := testDependencies()
	deps.Config.Server.WriteTimeout = 0
	handler := SetupRoutes(deps)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
