package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlenopires/codegraph/pkg/feedback"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/reasoner"
	"github.com/charlenopires/codegraph/pkg/retrieval"
	"github.com/charlenopires/codegraph/pkg/translator"
	"github.com/charlenopires/codegraph/pkg/vectorstore"
)

// newTestServer wires every Deps field to a small real (not mocked)
// in-memory stack, the way the teacher's own server e2e tests stood up a
// full in-process dependency graph rather than stubbing it.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	graphRepo := graph.NewMemoryRepository()
	vectorRepo, err := vectorstore.NewStore(8)
	require.NoError(t, err)

	embedder := translator.NewOfflineEmbedder(8)
	tl := translator.New(translator.Config{Mode: translator.ModeOffline}, embedder, nil)

	reasonerClient := reasoner.New(reasoner.DefaultConfig(), nil)
	retriever := retrieval.New(
		retrieval.DefaultConfig(),
		graphRepo,
		retrieval.NewVectorChannel(vectorRepo, 4),
		retrieval.NewGraphChannel(graphRepo),
		retrieval.NewSymbolicChannel(reasonerClient, graphRepo),
	)

	propagator := feedback.New(feedback.DefaultConfig(), graphRepo, feedback.NewMemoryAuditLog())

	srv, err := New(Deps{
		GraphRepo:  graphRepo,
		VectorRepo: vectorRepo,
		Translator: tl,
		Retriever:  retriever,
		Feedback:   propagator,
		Reasoner:   reasonerClient,
	}, nil)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestHealthzReportsOK(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpsertEntityThenQuerySucceeds(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/entities", entityRequest{
		Name:         "primary-button",
		Category:     "button",
		DesignSystem: "material",
		Tags:         []string{"primary"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created["id"])

	// A freshly upserted entity has no HAS_CATEGORY relation or vector
	// embedding yet (ingestion is a separate, external concern per
	// spec.md §1), so the query legitimately returns zero matches here;
	// this exercises the success path end to end regardless.
	rec = doJSON(t, srv, http.MethodPost, "/api/query", queryRequest{NLText: "button", Limit: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Degraded)
}

func TestUpsertStatementsRejectsMalformedStatement(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/entities", entityRequest{Name: "card"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"]

	rec = doJSON(t, srv, http.MethodPost, "/api/entities/"+id+"/statements", upsertStatementsRequest{
		Statements: []string{"not a valid narsese statement ((("},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitFeedbackUnknownElementReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/feedback", feedbackRequest{
		ElementID:    "missing",
		FeedbackType: "positive",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraphStatsAndPageOnEmptyGraph(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/graph/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/graph/page?page=1&per_page=10", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMCPToolsListed(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/mcp/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["tools"])
}
