package server

import "net/http"

func (s *Server) buildRouter() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/entities", s.handleUpsertEntity)
	mux.HandleFunc("/api/entities/", s.handleUpsertStatements) // /api/entities/{id}/statements
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/feedback", s.handleSubmitFeedback)
	mux.HandleFunc("/api/graph/stats", s.handleGraphStats)
	mux.HandleFunc("/api/graph/page", s.handleGraphPage)
	mux.HandleFunc("/ws/query", s.handleQueryStream)
	mux.HandleFunc("/mcp/tools", s.handleMCPTools)

	return mux
}

// wrapWithMiddleware applies the cross-cutting concerns every route
// shares: outermost runs first. CORS is permissive by default since the
// frontend adapter this serves is itself out of scope (spec.md §1) and
// there is no session/cookie state to protect.
func (s *Server) wrapWithMiddleware(next http.Handler) http.Handler {
	handler := s.corsMiddleware(next)
	handler = s.metricsMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}
