package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/charlenopires/codegraph/pkg/cgerr"
	"github.com/charlenopires/codegraph/pkg/feedback"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/mcp"
	"github.com/charlenopires/codegraph/pkg/statement"
	"github.com/charlenopires/codegraph/pkg/translator"
	"github.com/charlenopires/codegraph/pkg/truth"
)

// handleMCPTools lists the MCP tool definitions an LLM agent can call
// against this server, mirroring the operations /api/* already serves
// over plain JSON.
func (s *Server) handleMCPTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"tools": mcp.GetToolDefinitions()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

// entityRequest is the wire shape for upsert_entity (spec.md §6).
type entityRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	DesignSystem string   `json:"design_system"`
	Tags         []string `json:"tags"`
	TruthF       float64  `json:"truth_f"`
	TruthC       float64  `json:"truth_c"`
}

func (s *Server) handleUpsertEntity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req entityRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	tv := truth.Value{F: req.TruthF, C: req.TruthC}
	if tv == (truth.Value{}) {
		tv = truth.Value{F: 0.5, C: 0.5}
	}
	if err := tv.Validate(); err != nil {
		s.writeDomainError(w, err)
		return
	}

	now := time.Now()
	e := &graph.Entity{
		ID:           graph.EntityID(req.ID),
		Name:         req.Name,
		Category:     graph.Category(req.Category),
		DesignSystem: graph.DesignSystem(req.DesignSystem),
		Tags:         req.Tags,
		Truth:        tv,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.deps.GraphRepo.Upsert(r.Context(), e); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": e.ID})
}

type upsertStatementsRequest struct {
	Statements []string `json:"statements"`
}

// handleUpsertStatements implements upsert_statements(entity_id,
// statements[]), served at /api/entities/{id}/statements.
func (s *Server) handleUpsertStatements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	id, ok := entityIDFromStatementsPath(r.URL.Path)
	if !ok {
		s.writeError(w, http.StatusNotFound, "expected /api/entities/{id}/statements")
		return
	}

	var req upsertStatementsRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	e, err := s.deps.GraphRepo.Get(r.Context(), graph.EntityID(id))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	validated := make([]string, 0, len(req.Statements))
	parsed := make([]*statement.Statement, 0, len(req.Statements))
	for _, src := range req.Statements {
		stmt, err := statement.Parse(src)
		if err != nil {
			s.writeDomainError(w, cgerr.Wrap(cgerr.ErrMalformedStatement, "%q: %v", src, err))
			return
		}
		validated = append(validated, src)
		parsed = append(parsed, stmt)
	}

	e.NarseseStatements = append(e.NarseseStatements, validated...)
	e.UpdatedAt = time.Now()
	if err := s.deps.GraphRepo.Upsert(r.Context(), e); err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.deps.Reasoner != nil {
		s.deps.Reasoner.Assert(parsed)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "statement_count": len(e.NarseseStatements)})
}

func entityIDFromStatementsPath(path string) (string, bool) {
	path = strings.TrimPrefix(path, "/api/entities/")
	path = strings.TrimSuffix(path, "/")
	id, suffix, found := strings.Cut(path, "/statements")
	if !found || suffix != "" || id == "" {
		return "", false
	}
	return id, true
}

type queryRequest struct {
	NLText           string `json:"nl_text"`
	DesignSystem     string `json:"design_system"`
	Limit            int    `json:"limit"`
	IncludeReasoning bool   `json:"include_reasoning"`
	InferenceCycles  int    `json:"inference_cycles"`
}

type candidateResponse struct {
	EntityID     graph.EntityID `json:"entity_id"`
	VectorScore  float64        `json:"vector_score"`
	GraphScore   float64        `json:"graph_score"`
	NarsScore    float64        `json:"nars_score"`
	FusedScore   float64        `json:"fused_score"`
	MatchReasons []string       `json:"match_reasons"`
	Confidence   float64        `json:"confidence"`
}

type queryResponse struct {
	Elements             []candidateResponse `json:"elements"`
	NarseseQueries       []string            `json:"narsese_queries"`
	ReasoningExplanation string              `json:"reasoning_explanation,omitempty"`
	ProcessingTimeMs      int64              `json:"processing_time_ms"`
	Degraded             bool                `json:"degraded"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req queryRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.NLText == "" {
		s.writeError(w, http.StatusBadRequest, "nl_text is required")
		return
	}

	start := time.Now()
	plan := s.deps.Translator.Translate(r.Context(), req.NLText, translator.Options{
		IncludeReasoning: req.IncludeReasoning,
		InferenceCycles:  req.InferenceCycles,
	})
	if req.DesignSystem != "" {
		ds := graph.DesignSystem(req.DesignSystem)
		plan.Constraints.DesignSystem = &ds
	}

	result, err := s.deps.Retriever.Retrieve(r.Context(), plan, req.Limit, req.IncludeReasoning)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := queryResponse{
		NarseseQueries:       result.NarseseQueries,
		ReasoningExplanation: result.ReasoningExplanation,
		ProcessingTimeMs:     time.Since(start).Milliseconds(),
		Degraded:             result.Degraded,
	}
	for _, c := range result.Elements {
		resp.Elements = append(resp.Elements, candidateResponse{
			EntityID:     c.EntityID,
			VectorScore:  c.VectorScore,
			GraphScore:   c.GraphScore,
			NarsScore:    c.NarsScore,
			FusedScore:   c.FusedScore,
			MatchReasons: c.MatchReasons,
			Confidence:   c.Truth.C,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type feedbackRequest struct {
	ElementID    string  `json:"element_id"`
	FeedbackType string  `json:"feedback_type"`
	QueryContext *string `json:"query_context,omitempty"`
	Comment      *string `json:"comment,omitempty"`
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req feedbackRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var kind feedback.Kind
	switch req.FeedbackType {
	case "positive":
		kind = feedback.KindPositive
	case "negative":
		kind = feedback.KindNegative
	default:
		s.writeError(w, http.StatusBadRequest, "feedback_type must be positive or negative")
		return
	}

	ev := feedback.Event{
		ID:           uuid.NewString(),
		ElementID:    graph.EntityID(req.ElementID),
		Kind:         kind,
		QueryContext: req.QueryContext,
		Comment:      req.Comment,
		CreatedAt:    time.Now(),
	}

	update, err := s.deps.Feedback.Submit(r.Context(), ev)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"event_id":       ev.ID,
		"element_id":     update.ElementID,
		"new_confidence": update.NewConfidence,
	})
}

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.GraphRepo.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGraphPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q, "page", 1)
	perPage := queryInt(q, "per_page", 20)

	var category *graph.Category
	if v := q.Get("category"); v != "" {
		c := graph.Category(v)
		category = &c
	}
	var designSystem *graph.DesignSystem
	if v := q.Get("design_system"); v != "" {
		ds := graph.DesignSystem(v)
		designSystem = &ds
	}

	result, err := s.deps.GraphRepo.Page(r.Context(), page, perPage, category, designSystem)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func queryInt(q map[string][]string, key string, defaultVal int) int {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return defaultVal
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

// handleQueryStream upgrades to a WebSocket connection and streams a single
// query's lifecycle: an "accepted" frame, then the same payload handleQuery
// returns once retrieval completes, letting the frontend adapter show query
// progress instead of blocking on one long request/response round trip.
func (s *Server) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req queryRequest
	if err := conn.ReadJSON(&req); err != nil {
		return
	}
	if req.NLText == "" {
		_ = conn.WriteJSON(map[string]any{"error": true, "message": "nl_text is required"})
		return
	}

	_ = conn.WriteJSON(map[string]any{"status": "accepted"})

	start := time.Now()
	plan := s.deps.Translator.Translate(r.Context(), req.NLText, translator.Options{
		IncludeReasoning: req.IncludeReasoning,
		InferenceCycles:  req.InferenceCycles,
	})
	if req.DesignSystem != "" {
		ds := graph.DesignSystem(req.DesignSystem)
		plan.Constraints.DesignSystem = &ds
	}

	result, err := s.deps.Retriever.Retrieve(r.Context(), plan, req.Limit, req.IncludeReasoning)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"error": true, "message": err.Error()})
		return
	}

	resp := queryResponse{
		NarseseQueries:       result.NarseseQueries,
		ReasoningExplanation: result.ReasoningExplanation,
		ProcessingTimeMs:     time.Since(start).Milliseconds(),
		Degraded:             result.Degraded,
	}
	for _, c := range result.Elements {
		resp.Elements = append(resp.Elements, candidateResponse{
			EntityID:     c.EntityID,
			VectorScore:  c.VectorScore,
			GraphScore:   c.GraphScore,
			NarsScore:    c.NarsScore,
			FusedScore:   c.FusedScore,
			MatchReasons: c.MatchReasons,
			Confidence:   c.Truth.C,
		})
	}
	_ = conn.WriteJSON(resp)
}
