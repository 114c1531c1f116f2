package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/diengg/diengg/app"
	"github.com/diengg/diengg/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	requestTimeout := deps.Config.Server.WriteTimeout
	if requestTimeout <= 0 {
		requestTimeout = 120 * time.Second
	}

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var feedbackDB *sql.DB
	if deps.DB != nil {
		feedbackDB = deps.DB.DB
	}

	healthHandler := handlers.NewHealthHandler(deps.Store, feedbackDB, deps.Logger)
	diagnoseHandler := handlers.NewDiagnoseHandler(deps.Engine, deps.Logger)
	kbHandler := handlers.NewKBHandler(deps.Ingestor, deps.Embedding, deps.Store, deps.Config.Retrieval.TopK, deps.Logger)
	assistantHandler := handlers.NewAssistantHandler(deps.Assistant, deps.Logger)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback, deps.Logger)
	telemetryHandler := handlers.NewTelemetryHandler(deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/diagnose", diagnoseHandler.HandleDiagnose)

		r.Route("/kb", func(r chi.Router) {
			r.Post("/upload", kbHandler.HandleUpload)
			r.Get("/search", kbHandler.HandleSearchTickets)
			r.Get("/search/team", kbHandler.HandleSearchTeam)
		})

		r.Post("/assistant/chat", assistantHandler.HandleChat)

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/", feedbackHandler.HandleSubmit)
			r.Get("/", feedbackHandler.HandleListByTicket)
		})

		r.Post("/telemetry/summary", telemetryHandler.HandleSummary)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
