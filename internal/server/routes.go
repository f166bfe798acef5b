package server

import (
	"net/http"

	"github.com/josephgoksu/ReqWing/internal/metrics"
)

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/session", s.handleNewSession)
	mux.HandleFunc("DELETE /api/session", s.handleEndSession)

	// Project history
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleNewProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("POST /api/projects/{id}/load", s.handleLoadProject)
	mux.HandleFunc("GET /api/active", s.handleActive)

	// Workflow actions
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/answer", s.handleAnswer)
	mux.HandleFunc("POST /api/prioritize", s.handlePrioritize)
	mux.HandleFunc("POST /api/update", s.handleUpdate)

	mux.HandleFunc("GET /api/document", s.handleDocument)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	if s.metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	return s.metricsMiddleware(s.corsMiddleware(mux))
}
