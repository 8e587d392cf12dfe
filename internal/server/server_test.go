// ABOUTME: HTTP handler tests for the analysis API.
// ABOUTME: Exercises submission, job polling, report lookup, and error status mapping through httptest.

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/engine"
	"github.com/tbraun92/contract-sentinel/internal/jobs"
	"github.com/tbraun92/contract-sentinel/internal/metrics"
	"github.com/tbraun92/contract-sentinel/internal/providers/mock"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	e := engine.NewEngine(
		mock.NewSimulator(logger),
		mock.NewRetriever(logger),
		mock.NewGenerator(logger),
		mock.NewMetadataSource(logger),
		jobs.NewRegistry(logger),
		nil,
		metrics.New(),
		&engine.Config{CacheTTL: time.Hour, RunnerTimeout: 5 * time.Second},
		logger,
	)

	return NewRouter(e, logger)
}

func submitBody(t *testing.T, request types.AnalysisRequest) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(request)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return decoded
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSubmitAccepted(t *testing.T) {
	handler := newTestServer(t)

	request := types.AnalysisRequest{
		ContractAddress: "0xabcdef1234abcdef1234abcdef1234abcdef1234",
		Network:         types.NetworkEthereum,
		Kinds:           []types.AnalysisKind{types.KindStatic},
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyses", submitBody(t, request)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	decoded := decodeMap(t, rec)
	jobID, ok := decoded["job_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, jobID)
}

func TestSubmitValidationErrors(t *testing.T) {
	handler := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "malformed json",
			body:    "{not json",
			message: "invalid request body",
		},
		{
			name:    "bad address",
			body:    `{"contract_address": "0x123", "network": "ethereum", "analysis_kinds": ["static"]}`,
			message: "invalid contract address",
		},
		{
			name:    "unsupported network",
			body:    `{"contract_address": "0xabcdef1234abcdef1234abcdef1234abcdef1234", "network": "dogechain", "analysis_kinds": ["static"]}`,
			message: "unsupported network",
		},
		{
			name:    "missing kinds",
			body:    `{"contract_address": "0xabcdef1234abcdef1234abcdef1234abcdef1234", "network": "ethereum"}`,
			message: "analysis_kinds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/analyses", bytes.NewBufferString(tt.body))
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			decoded := decodeMap(t, rec)
			assert.Contains(t, decoded["error"], tt.message)
		})
	}
}

func TestGetJobLifecycle(t *testing.T) {
	handler := newTestServer(t)

	request := types.AnalysisRequest{
		ContractAddress: "0xabcdef1234abcdef1234abcdef1234abcdef1234",
		Network:         types.NetworkEthereum,
		Kinds:           []types.AnalysisKind{types.KindStatic},
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyses", submitBody(t, request)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decodeMap(t, rec)["job_id"].(string)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/"+jobID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		return decodeMap(t, rec)["state"] == string(types.JobCompleted)
	}, 5*time.Second, 10*time.Millisecond)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	decoded := decodeMap(t, rec)
	report, ok := decoded["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, request.ContractAddress, report["contract_address"])
}

func TestGetJobNotFound(t *testing.T) {
	handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/unknown-id", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "job not found", decodeMap(t, rec)["error"])
}

func TestGetReportNotFound(t *testing.T) {
	handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/deadbeef", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "no cached report")
}

func TestSecurityHeadersApplied(t *testing.T) {
	handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
