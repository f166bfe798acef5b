package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/docload"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/metrics"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSteps struct {
	extractErr error
}

func (s *stubSteps) Extract(_ context.Context, text string) (elicit.Extraction, error) {
	if s.extractErr != nil {
		return elicit.Extraction{}, s.extractErr
	}
	return elicit.Extraction{
		InitialRequirements: []string{"Track expenses", "Export reports"},
		ClarifyingQuestions: []string{"Which currencies?"},
	}, nil
}

func (s *stubSteps) Refine(_ context.Context, reqs []string, _, answer string) (elicit.Refinement, error) {
	return elicit.Refinement{UpdatedRequirements: append(append([]string(nil), reqs...), "Support "+answer)}, nil
}

func (s *stubSteps) Finalize(_ context.Context, reqs []string, scores map[string]int) (string, error) {
	var b strings.Builder
	b.WriteString("# Software Requirements Specification\n")
	for _, r := range reqs {
		b.WriteString("- " + r + " (" + strconv.Itoa(scores[r]) + ")\n")
	}
	return b.String(), nil
}

type testEnv struct {
	srv      *Server
	sessions *session.Manager
	steps    *stubSteps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	steps := &stubSteps{}
	sessions := session.NewManager(time.Hour)
	engine := elicit.New(steps, elicit.WithDocumentReader(docload.NewLoader(afero.NewMemMapFs(), 0)))
	srv := New(Config{
		Engine:   engine,
		Sessions: sessions,
		Metrics:  metrics.NewMetrics(),
		Origins:  []string{"http://localhost:5173"},
	})
	return &testEnv{srv: srv, sessions: sessions, steps: steps}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[SessionResponse](t, rec)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, rec.Header().Get(SessionHeader))
	_, ok := env.sessions.Lookup(resp.SessionID)
	assert.True(t, ok)
}

func TestEndSession(t *testing.T) {
	env := newTestEnv(t)
	id := decode[SessionResponse](t, env.do(t, http.MethodPost, "/api/session", "", nil)).SessionID

	rec := env.do(t, http.MethodDelete, "/api/session", id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := env.sessions.Lookup(id)
	assert.False(t, ok)

	rec = env.do(t, http.MethodDelete, "/api/session", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingSessionHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, SessionHeader)
}

func TestFullWorkflow(t *testing.T) {
	env := newTestEnv(t)
	const sid = "sess-1"

	rec := env.do(t, http.MethodPost, "/api/submit", sid, SubmitRequest{Text: "An expense tracker"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[ActionResponse](t, rec)
	assert.Equal(t, project.StageInitial, out.From)
	assert.Equal(t, project.StageClarification, out.Stage)
	assert.Contains(t, out.Reply, "Which currencies?")
	require.NotNil(t, out.Project)
	assert.Equal(t, []string{"Track expenses", "Export reports"}, out.Project.Requirements)

	rec = env.do(t, http.MethodPost, "/api/answer", sid, AnswerRequest{Answer: "EUR"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode[ActionResponse](t, rec)
	assert.Equal(t, project.StagePrioritization, out.Stage)
	assert.Contains(t, out.Project.Requirements, "Support EUR")

	rec = env.do(t, http.MethodPost, "/api/prioritize", sid, PrioritizeRequest{Scores: map[string]int{"Track expenses": 9}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode[ActionResponse](t, rec)
	assert.Equal(t, project.StageFinalDocument, out.Stage)
	assert.Contains(t, out.Project.FinalDocument, "Track expenses (9)")
	assert.Contains(t, out.Project.FinalDocument, "Export reports (5)")

	rec = env.do(t, http.MethodGet, "/api/document", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "requirements.md")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Software Requirements Specification"))

	rec = env.do(t, http.MethodGet, "/api/dashboard", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[dashboard.Stats](t, rec)
	assert.Equal(t, 1, stats.TotalProjects)
	assert.Equal(t, 3, stats.TotalRequirements)
	assert.Equal(t, 1, stats.Count(dashboard.PriorityCritical))
	assert.Equal(t, 2, stats.Count(dashboard.PriorityHigh))

	rec = env.do(t, http.MethodPost, "/api/update", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[ActionResponse](t, rec)
	assert.Equal(t, project.StageInitial, out.Stage)
	assert.Equal(t, elicit.MsgUpdateRequested, out.Reply)
	assert.Empty(t, out.Project.FinalDocument)
}

func TestSubmit_EmptyInputIsWarning(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/submit", "s", SubmitRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.True(t, resp.Warning)
	assert.Equal(t, "input", resp.Kind)

	sess, _ := env.sessions.Lookup("s")
	require.NotNil(t, sess)
	assert.Nil(t, sess.Active())
	assert.Equal(t, 0, sess.Projects().Len())
}

func TestSubmit_StepFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t)
	env.steps.extractErr = errors.New("upstream unavailable")

	rec := env.do(t, http.MethodPost, "/api/submit", "s", SubmitRequest{Text: "idea"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "step", decode[ErrorResponse](t, rec).Kind)

	sess, _ := env.sessions.Lookup("s")
	assert.Equal(t, 0, sess.Projects().Len())
}

func TestSubmit_Multipart(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "Budget app"))
	fw, err := mw.CreateFormFile("document", "notes.md")
	require.NoError(t, err)
	_, err = fw.Write([]byte("# Notes\nMust sync with banks."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/submit", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(SessionHeader, "m")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, project.StageClarification, decode[ActionResponse](t, rec).Stage)
}

func TestSubmit_UndecodableDocument(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/submit", "d", SubmitRequest{
		DocumentName: "scan.png",
		Document:     []byte{0x89, 'P', 'N', 'G'},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "document", decode[ErrorResponse](t, rec).Kind)
}

func TestActionInWrongStage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/answer", "w", AnswerRequest{Answer: "yes"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "stage", decode[ErrorResponse](t, rec).Kind)
}

func TestDocumentNotReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/document", "n", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHistory(t *testing.T) {
	env := newTestEnv(t)
	const sid = "h"

	rec := env.do(t, http.MethodPost, "/api/submit", sid, SubmitRequest{Text: "First idea"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[ActionResponse](t, rec).Project

	rec = env.do(t, http.MethodPost, "/api/projects", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/active", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"project":null`)

	rec = env.do(t, http.MethodPost, "/api/submit", sid, SubmitRequest{Text: "Second idea"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]ProjectListItem](t, rec)
	require.Len(t, items, 2)
	active := 0
	for _, it := range items {
		if it.Active {
			active++
			assert.NotEqual(t, first.ID, it.ID)
		}
	}
	assert.Equal(t, 1, active)

	id := strconv.FormatInt(first.ID, 10)
	rec = env.do(t, http.MethodGet, "/api/projects/"+id, sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[project.Record](t, rec).ID)

	rec = env.do(t, http.MethodPost, "/api/projects/"+id+"/load", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/active", sid, nil)
	assert.Contains(t, rec.Body.String(), `"id":`+id)

	rec = env.do(t, http.MethodPost, "/api/projects/42/load", sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/projects/abc", sid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/submit", "a", SubmitRequest{Text: "idea"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects", "b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]ProjectListItem](t, rec))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/submit", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader)

	req = httptest.NewRequest(http.MethodOptions, "/api/submit", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/session", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reqwing_http_requests_total")
}
