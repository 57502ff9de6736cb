package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirage-project/mirage/pkg/humanloop"
	"github.com/mirage-project/mirage/pkg/models"
	"github.com/mirage-project/mirage/pkg/orchestrator"
)

// stubService records calls and returns scripted results.
type stubService struct {
	lastQuery    models.Query
	queryResp    *models.FinalResponse
	queryErr     error
	decision     models.Decision
	decisionErr  error
	validation   *models.ValidationRequest
	getErr       error
	queue        []models.ValidationRequest
	result       *models.FinalResponse
	resultErr    error
	cacheCleared bool
}

func (s *stubService) ProcessQuery(_ context.Context, q models.Query) (*models.FinalResponse, error) {
	s.lastQuery = q
	return s.queryResp, s.queryErr
}

func (s *stubService) SubmitHumanDecision(id string, d models.Decision, modifiedText, notes string) (*models.ValidationRequest, error) {
	s.decision = d
	return s.validation, s.decisionErr
}

func (s *stubService) GetValidation(id string) (*models.ValidationRequest, error) {
	return s.validation, s.getErr
}

func (s *stubService) GetValidationQueue() []models.ValidationRequest { return s.queue }

func (s *stubService) GetValidationStatistics() humanloop.Statistics {
	return humanloop.Statistics{Pending: 2, Approved: 1}
}

func (s *stubService) ValidationResult(id string) (*models.FinalResponse, error) {
	return s.result, s.resultErr
}

func (s *stubService) GetStatistics() orchestrator.Statistics {
	return orchestrator.Statistics{CacheEntries: 3}
}

func (s *stubService) Health() orchestrator.Health {
	return orchestrator.Health{
		Status: "ok",
		Components: map[string]orchestrator.ComponentHealth{
			"orchestrator": {Status: "ok"},
			"cache":        {Status: "ok", Detail: "3 entries"},
			"human_loop":   {Status: "ok", Detail: "2 pending"},
			"llm":          {Status: "ok"},
			"retrieval":    {Status: "ok"},
		},
	}
}

func (s *stubService) ClearCache() { s.cacheCleared = true }

func newTestServer(svc Service) *Server {
	return NewServer(svc, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleQuery(t *testing.T) {
	svc := &stubService{queryResp: &models.FinalResponse{
		Success:   true,
		Answer:    "• 💊 Answer.",
		Consensus: models.ConsensusApproved,
	}}
	s := newTestServer(svc)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/query", map[string]any{
		"query":           "What is the mechanism of action of paracetamol?",
		"target_language": "fr",
		"request_id":      "req-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What is the mechanism of action of paracetamol?", svc.lastQuery.Text)
	assert.Equal(t, models.LanguageFR, svc.lastQuery.TargetLanguage)
	assert.True(t, svc.lastQuery.EnableHumanLoop, "human loop defaults to enabled")
	assert.Equal(t, "req-1", svc.lastQuery.RequestID)

	var resp models.FinalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "• 💊 Answer.", resp.Answer)
}

func TestHandleQuery_HumanLoopOptOut(t *testing.T) {
	svc := &stubService{queryResp: &models.FinalResponse{Success: true}}
	s := newTestServer(svc)

	enable := false
	rec := doRequest(t, s, http.MethodPost, "/api/v1/query", map[string]any{
		"query":             "What is the mechanism of action of paracetamol?",
		"enable_human_loop": enable,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.lastQuery.EnableHumanLoop)
}

func TestHandleQuery_ValidationErrorIs400(t *testing.T) {
	svc := &stubService{queryErr: &models.ValidationError{Field: "query", Reason: "too short"}}
	s := newTestServer(svc)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/query", map[string]any{"query": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too short")
}

func TestHandleQuery_MalformedBody(t *testing.T) {
	s := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitDecision(t *testing.T) {
	svc := &stubService{validation: &models.ValidationRequest{
		ID: "val-1", Status: models.ValidationApproved,
	}}
	s := newTestServer(svc)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/validations/val-1/decision", map[string]any{
		"decision":       "APPROVED",
		"reviewer_notes": "checked",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DecisionApproved, svc.decision)
}

func TestHandleSubmitDecision_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", humanloop.ErrNotFound, http.StatusNotFound},
		{"conflict", humanloop.ErrConflict, http.StatusConflict},
		{"invalid decision", humanloop.ErrInvalidDecision, http.StatusBadRequest},
		{"missing modified text", humanloop.ErrMissingModifiedText, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&stubService{decisionErr: tt.err})
			rec := doRequest(t, s, http.MethodPost, "/api/v1/validations/val-1/decision",
				map[string]any{"decision": "APPROVED"})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleValidationQueue(t *testing.T) {
	svc := &stubService{queue: []models.ValidationRequest{
		{ID: "val-1", Priority: 5, CreatedAt: time.Now()},
		{ID: "val-2", Priority: 3, CreatedAt: time.Now()},
	}}
	s := newTestServer(svc)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/validations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Pending []models.ValidationRequest `json:"pending"`
		Count   int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "val-1", body.Pending[0].ID)
}

func TestHandleValidationResult(t *testing.T) {
	svc := &stubService{result: &models.FinalResponse{
		Success:   true,
		Consensus: models.ConsensusPendingValidation,
	}}
	s := newTestServer(svc)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/validations/val-1/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PENDING_VALIDATION")
}

func TestHandleStatsAndHealth(t *testing.T) {
	svc := &stubService{}
	s := newTestServer(svc)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/validations/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":2`)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache_entries":3`)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health orchestrator.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	for _, name := range []string{"orchestrator", "cache", "human_loop", "llm", "retrieval"} {
		assert.Contains(t, health.Components, name)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/cache", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cacheCleared)
}
