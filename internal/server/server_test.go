package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/planner"
)

const resolvedData = `[
	{"resolved": 10, "date": "2024-01-01"},
	{"resolved": 20, "date": "2024-02-01"},
	{"resolved": 30, "date": "2024-03-01"}
]`

type stubPlanner struct {
	plan analysis.Plan
	got  planner.Request
}

func (s *stubPlanner) Plan(_ context.Context, req planner.Request) (analysis.Plan, error) {
	s.got = req
	return s.plan, nil
}

func newTestServer(p planner.Planner) *Server {
	return New(Options{Planner: p, Log: zerolog.Nop()})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestAnalyze_WithExplicitPlan(t *testing.T) {
	body := `{"name":"tickets","data":` + resolvedData + `,
		"plan":{"trend":{"metrics":["time_series"],"dateField":"date"}},
		"targetFields":["resolved"]}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := rec.Body.String()
	assert.NotEmpty(t, gjson.Get(out, "analysisId").String())
	assert.Equal(t, gjson.Get(out, "analysisId").String(), rec.Header().Get("X-Analysis-Id"))
	assert.Equal(t, "tickets", gjson.Get(out, "findings.name").String())
	assert.Equal(t, int64(3), gjson.Get(out, "findings.recordCount").Int())

	series := gjson.Get(out, "findings.metrics.fields.resolved.focus.trend.time_series").Array()
	require.Len(t, series, 3)
	assert.Equal(t, 10.0, series[0].Get("value").Float())
	assert.Equal(t, "increasing", gjson.Get(out, "findings.patterns.0.direction").String())
	assert.Equal(t, "incident_management", gjson.Get(out, "findings.businessContext.domain").String())
}

func TestAnalyze_UsesPlannerWhenNoPlanGiven(t *testing.T) {
	p := &stubPlanner{plan: analysis.Plan{"volume": {Metrics: []string{"sum"}}}}
	body := `{"data":` + resolvedData + `,"focusAreas":["volume"],"prompt":"how many"}`
	rec := do(t, newTestServer(p), http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"volume"}, p.got.FocusAreas)
	assert.Equal(t, "how many", p.got.Prompt)
	require.Len(t, p.got.Fields, 2)
	assert.Equal(t, "resolved", p.got.Fields[0].Name)
	assert.Equal(t, 60.0, gjson.Get(rec.Body.String(), "findings.metrics.fields.resolved.focus.volume.sum").Float())
}

func TestAnalyze_NoPlannerFallsBack(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/analyze", `{"data":`+resolvedData+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unsupported focus areas", gjson.Get(rec.Body.String(), "findings.metrics.fields.resolved.error").String())
}

func TestAnalyze_Formats(t *testing.T) {
	s := newTestServer(nil)
	rec := do(t, s, http.MethodPost, "/api/analyze", `{"data":`+resolvedData+`,"format":"markdown"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "[DATASET SUMMARY]")

	rec = do(t, s, http.MethodPost, "/api/analyze", `{"data":`+resolvedData+`,"format":"html"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<html")
}

func TestAnalyze_Errors(t *testing.T) {
	s := newTestServer(nil)
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed body", `{`, http.StatusBadRequest, "invalid request body"},
		{"unknown field", `{"rows":[]}`, http.StatusBadRequest, "invalid request body"},
		{"missing data", `{}`, http.StatusBadRequest, "data is required"},
		{"non-array data", `{"data":{"a":1}}`, http.StatusBadRequest, "array of objects"},
		{"bad depth", `{"data":` + resolvedData + `,"depth":"deep"}`, http.StatusBadRequest, "unknown depth"},
		{"bad format", `{"data":` + resolvedData + `,"format":"pdf"}`, http.StatusBadRequest, "unsupported format"},
		{"empty data", `{"data":[]}`, http.StatusUnprocessableEntity, "Invalid or empty data source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, gjson.Get(rec.Body.String(), "error").String(), tt.msg)
		})
	}
}

func TestFields(t *testing.T) {
	body := `{"data":[{"ticketId":"T-1","errorCount":3},{"ticketId":"T-2","errorCount":5}]}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/fields", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := rec.Body.String()
	assert.Equal(t, "ticketId", gjson.Get(out, "columns.0").String())
	assert.Equal(t, "identifier", gjson.Get(out, "fieldMeanings.ticketId.inferredPurpose").String())
	assert.Equal(t, "error_metric", gjson.Get(out, "fieldMeanings.errorCount.inferredPurpose").String())
	assert.Equal(t, "numeric", gjson.Get(out, "fieldTypes.errorCount.type").String())
}

func TestFields_NoColumns(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/api/fields", `{"data":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "No fields provided", gjson.Get(rec.Body.String(), "error").String())
}

func TestCORSPreflight(t *testing.T) {
	s := New(Options{CORSOrigins: []string{"http://app.test"}, Log: zerolog.Nop()})
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
