package valuation

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intrinsic_valuation/pkg/core/logging"
	"intrinsic_valuation/pkg/core/sensitivity"
)

const referenceBody = `{
	"currentRevenue": 1000, "growthRate": 10, "ebitdaMargin": 20, "taxRate": 25,
	"capexRate": 5, "dA_Rate": 5, "nwcRate": 10, "wacc": 10, "terminalGrowthRate": 3,
	"sharesOutstanding": 100, "cash": 50, "debt": 20
}`

type dcfResponse struct {
	IntrinsicValue      float64 `json:"intrinsicValue"`
	SensitivityAnalysis struct {
		WACCHeaders   []string    `json:"wacc_headers"`
		GrowthHeaders []string    `json:"growth_headers"`
		Table         [][]float64 `json:"table"`
	} `json:"sensitivityAnalysis"`
}

func newTestRouter() http.Handler {
	analyzer := sensitivity.NewAnalyzer(sensitivity.Options{Parallelism: 4}, logging.Nop())
	return NewRouter(NewHandler(analyzer, logging.Nop(), 1<<16), "*")
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleDCF_ReferenceCase(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodPost, "/api/dcf", referenceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp dcfResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 20.69, resp.IntrinsicValue, 0.01)
	assert.Equal(t, []string{"9.00%", "9.50%", "10.00%", "10.50%", "11.00%"}, resp.SensitivityAnalysis.WACCHeaders)
	assert.Equal(t, []string{"2.50%", "2.75%", "3.00%", "3.25%", "3.50%"}, resp.SensitivityAnalysis.GrowthHeaders)
	require.Len(t, resp.SensitivityAnalysis.Table, 5)
	for _, row := range resp.SensitivityAnalysis.Table {
		require.Len(t, row, 5)
	}
	assert.Equal(t, resp.IntrinsicValue, resp.SensitivityAnalysis.Table[2][2])
}

func TestHandleDCF_RequestID(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodPost, "/api/dcf", referenceBody)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/dcf", strings.NewReader(referenceBody))
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestHandleDCF_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{"Malformed JSON", `{"wacc": 10,`, http.StatusBadRequest, "invalid_json", ""},
		{"Array body", `[1,2,3]`, http.StatusBadRequest, "invalid_json", ""},
		{"Non-numeric field", `{"wacc": 10, "terminalGrowthRate": 3, "taxRate": "abc"}`, http.StatusBadRequest, "invalid_input", "taxRate"},
		{"Missing wacc", `{"terminalGrowthRate": 3}`, http.StatusBadRequest, "invalid_input", "wacc"},
		{"Zero shares", `{"wacc": 10, "terminalGrowthRate": 3, "sharesOutstanding": 0}`, http.StatusBadRequest, "invalid_input", "sharesOutstanding"},
		{"WACC at -100%", `{"wacc": -100, "terminalGrowthRate": 3, "currentRevenue": 1000}`, http.StatusUnprocessableEntity, "non_finite_result", ""},
		{"Grid row at -100%", `{"wacc": -99, "terminalGrowthRate": 3, "currentRevenue": 1000}`, http.StatusUnprocessableEntity, "non_finite_result", ""},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/dcf", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.field, resp.Error.Field)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestHandleDCF_BodyTooLarge(t *testing.T) {
	analyzer := sensitivity.NewAnalyzer(sensitivity.Options{}, nil)
	router := NewRouter(NewHandler(analyzer, nil, 16), "*")

	rec := do(t, router, http.MethodPost, "/api/dcf", referenceBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset by peer") }

func TestHandleDCF_UnreadableBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/dcf", failingReader{})
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unreadable_body", resp.Error.Code)
}

func TestHandleReport(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodPost, "/api/dcf/report", referenceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")
	assert.Contains(t, rec.Body.String(), "$20.69")
}

func TestHealthcheck(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodGet, "/api/healthcheck", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Backend is running!", resp.Message)
}

func TestCORSPreflight(t *testing.T) {
	analyzer := sensitivity.NewAnalyzer(sensitivity.Options{}, nil)
	router := NewRouter(NewHandler(analyzer, nil, 0), "https://app.example")

	rec := do(t, router, http.MethodOptions, "/api/dcf", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodGet, "/api/dcf", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
