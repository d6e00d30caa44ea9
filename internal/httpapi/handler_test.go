package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

const analyzeBody = `{
  "params": {"recencyWindowMonths": 6, "minimumPRThreshold": 1, "activeOnlyMode": true},
  "records": [
    {"repository": "api", "number": 1, "author": {"login": "alice"}, "createdAt": "2025-09-01T10:00:00Z", "mergedAt": "2025-09-02T10:00:00Z"},
    {"repository": "api", "number": 2, "author": {"login": "alice"}, "createdAt": "2025-10-01T10:00:00Z", "mergedAt": "2025-10-01T12:00:00Z"},
    {"repository": "web", "number": 3, "author": {"login": "bob"}, "createdAt": "2024-01-10T10:00:00Z", "mergedAt": "2024-01-12T10:00:00Z"},
    {"repository": "web", "number": 4, "author": {"login": "renovate[bot]"}, "createdAt": "2025-10-05T10:00:00Z", "mergedAt": "2025-10-05T11:00:00Z"},
    {"repository": "web", "number": 5, "author": {"login": "carol"}, "createdAt": "2025-10-07T10:00:00Z", "mergedAt": null}
  ]
}`

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &contract.Config{
		WindowMonths:  contract.DefaultWindowMonths,
		MinPRs:        contract.DefaultMinPRs,
		ActiveOnly:    true,
		ResultLimit:   contract.DefaultResultLimit,
		InactiveLimit: contract.DefaultInactiveLimit,
		InactiveFloor: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Workers:       2,
	}
	h := &handler{
		baseCfg: cfg,
		logger:  zaptest.NewLogger(t).Sugar(),
		clock:   func() time.Time { return fixedNow },
	}
	r := newRouter(h)
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	r := setupTestRouter(t)
	w := doRequest(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAnalyze(t *testing.T) {
	r := setupTestRouter(t)
	w := doRequest(r, http.MethodPost, "/v1/analyze", analyzeBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report schema.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Equal(t, 6, report.Params.RecencyWindowMonths)
	assert.Equal(t, 5, report.DataQuality.TotalRecords)
	assert.Equal(t, 1, report.DataQuality.AutomatedRecords)
	assert.Equal(t, 1, report.DataQuality.UnmergedRecords)
	assert.Equal(t, 3, report.DataQuality.EligibleRecords)

	require.Len(t, report.Contributors, 2)
	names := []string{report.Contributors[0].Profile.Name, report.Contributors[1].Profile.Name}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)

	assert.Equal(t, 1, report.Cohort.BusFactor)
	require.Len(t, report.Cohort.Ranked, 1)
	assert.Equal(t, "alice", report.Cohort.Ranked[0].Name)
	assert.Len(t, report.Repositories, 2)
}

func TestAnalyzeUsesServerDefaults(t *testing.T) {
	r := setupTestRouter(t)
	body := `{"records": [{"repository": "api", "author": {"login": "alice"}, "createdAt": "2025-10-01T10:00:00Z", "mergedAt": "2025-10-02T10:00:00Z"}]}`
	w := doRequest(r, http.MethodPost, "/v1/analyze", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report schema.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, contract.DefaultWindowMonths, report.Params.RecencyWindowMonths)
	assert.True(t, report.Params.ActiveOnlyMode)
	assert.Equal(t, fixedNow, report.Params.Now)
}

func TestAnalyzeHistoricalNowClampsDefaultFloor(t *testing.T) {
	r := setupTestRouter(t)
	body := `{"params": {"now": "2022-06-01T00:00:00Z"}, "records": [{"repository": "api", "author": {"login": "alice"}, "createdAt": "2022-05-01T10:00:00Z", "mergedAt": "2022-05-02T10:00:00Z"}]}`
	w := doRequest(r, http.MethodPost, "/v1/analyze", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report schema.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	want := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, report.Params.Now)
	assert.Equal(t, want, report.Params.InactiveFloor)
	require.Len(t, report.Contributors, 1)
}

func TestAnalyzeEmptyRecords(t *testing.T) {
	r := setupTestRouter(t)
	w := doRequest(r, http.MethodPost, "/v1/analyze", `{"records": []}`)
	require.Equal(t, http.StatusOK, w.Code)

	var report schema.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Empty(t, report.Contributors)
	assert.Equal(t, 0, report.Cohort.BusFactor)
}

func TestAnalyzeInvalidRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"malformed json", `{"records": [`, "invalid request body"},
		{"wrong type", `{"records": "nope"}`, "invalid request body"},
		{"window too large", `{"params": {"recencyWindowMonths": 500}, "records": []}`, "recencyWindowMonths"},
		{"negative window", `{"params": {"recencyWindowMonths": -1}, "records": []}`, "recencyWindowMonths"},
		{"negative min prs", `{"params": {"minimumPRThreshold": -2}, "records": []}`, "minimumPRThreshold"},
		{"negative top n", `{"params": {"cohortTopN": -2}, "records": []}`, "cohortTopN"},
		{"floor after now", `{"params": {"now": "2022-01-01T00:00:00Z", "inactiveFloor": "2022-06-01T00:00:00Z"}, "records": []}`, "inactiveFloor"},
		{"missing repository", `{"records": [{"author": {"login": "alice"}}]}`, "records[0]: repository is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestRouter(t)
			w := doRequest(r, http.MethodPost, "/v1/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.contains)
		})
	}
}

func TestNoRoute(t *testing.T) {
	r := setupTestRouter(t)
	w := doRequest(r, http.MethodGet, "/v2/unknown", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Error.Code)
}

func TestRecovery(t *testing.T) {
	r := setupTestRouter(t)
	w := doRequest(r, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, "internal server error", resp.Error.Message)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectError bool
	}{
		{"defaults", "", "", false},
		{"console debug", "debug", "console", false},
		{"json warn", "warn", "json", false},
		{"bad level", "loud", "json", true},
		{"bad format", "info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
