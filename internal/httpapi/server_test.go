package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/chartmerge/internal/extract"
	"github.com/hurttlocker/chartmerge/internal/metrics"
	"github.com/hurttlocker/chartmerge/internal/normalize"
	"github.com/hurttlocker/chartmerge/internal/notes"
	"github.com/hurttlocker/chartmerge/internal/registry"
)

const chart = "LOCAL TITLE: UROLOGY OUTPATIENT NOTE\n" +
	"DATE OF NOTE: JAN 15, 2024@09:30\n" +
	"CHIEF COMPLAINT: elevated PSA\n" +
	"PLAN: MRI prostate\n"

func newTestServer(t *testing.T, maxBytes int64) (*Server, *prometheus.Registry) {
	t.Helper()
	promReg := prometheus.NewRegistry()
	p, err := normalize.New(registry.Default(), normalize.WithMetrics(metrics.New(promReg)))
	require.NoError(t, err)
	s, err := NewServer(p, Config{MaxBodyBytes: maxBytes, Gatherer: promReg, Logger: zerolog.Nop(), Version: "test"})
	require.NoError(t, err)
	return s, promReg
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresPipeline(t *testing.T) {
	_, err := NewServer(nil, Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, registry.Default().Version(), resp.Registry)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestNormalizeJSON(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodPost, "/v1/normalize", TextRequest{Text: chart})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res normalize.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, normalize.ModeNotes, res.Report.Mode)
	assert.Contains(t, res.Document.Text, "CHIEF COMPLAINT:\nelevated PSA\n")
	assert.Contains(t, res.Document.Text, "PLAN:\nMRI prostate\n")
}

func TestNormalizePlainText(t *testing.T) {
	s, _ := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodPost, "/v1/normalize?format=text", strings.NewReader(chart))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "UROLOGY CHART SUMMARY"), rec.Body.String())
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t, 0)

	tests := []struct {
		name string
		body any
	}{
		{"empty text", TextRequest{Text: "   "}},
		{"bad mode", TextRequest{Text: chart, Mode: "fast"}},
		{"wrong type", map[string]int{"text": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/v1/normalize", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, 64)
	rec := doJSON(t, s, http.MethodPost, "/v1/normalize", TextRequest{Text: strings.Repeat("x", 200)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSections(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodPost, "/v1/sections", TextRequest{Text: "CHIEF COMPLAINT: gross hematuria for two weeks\n"})
	require.Equal(t, http.StatusOK, rec.Code)

	var rep extract.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.NotEmpty(t, rep.Sections)
	assert.Equal(t, registry.ChiefComplaint, rep.Sections[0].BaseType)
	assert.Greater(t, rep.Coverage, 0.0)
}

func TestClassify(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodPost, "/v1/classify", TextRequest{Text: chart})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Counts[notes.KindPrimary])
	require.Len(t, resp.Notes, 1)
	assert.Equal(t, "UROLOGY OUTPATIENT NOTE", resp.Notes[0].Title)
}

func TestRegistry(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodGet, "/v1/registry", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RegistryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, registry.Default().Len(), len(resp.Entries))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodPost, "/v1/normalize", TextRequest{Text: chart})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chartmerge_runs_total")
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	e.Use(Recovery(zerolog.Nop()))
	e.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggerWritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(Logger(zerolog.New(&buf)))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/ping", line["path"])
	assert.EqualValues(t, 200, line["status"])
}
