package valuation

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"intrinsic_valuation/pkg/core/report"
	"intrinsic_valuation/pkg/core/sensitivity"
	"intrinsic_valuation/pkg/core/utils"
	coreValuation "intrinsic_valuation/pkg/core/valuation"
)

// Handler holds dependencies for valuation endpoints
type Handler struct {
	analyzer     *sensitivity.Analyzer
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewHandler creates a new valuation handler
func NewHandler(analyzer *sensitivity.Analyzer, logger *zap.Logger, maxBodyBytes int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{
		analyzer:     analyzer,
		logger:       logger.Named("valuation"),
		maxBodyBytes: maxBodyBytes,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleHealthcheck reports liveness.
func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Message: "Backend is running!"})
}

// HandleDCF returns the intrinsic value and sensitivity table as JSON.
func (h *Handler) HandleDCF(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// HandleReport returns the same analysis rendered as an HTML fragment.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analyze(w, r)
	if !ok {
		return
	}
	html, err := report.HTML(analysis)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) (*sensitivity.Analysis, bool) {
	logger := h.logger.With(zap.String("request_id", requestIDFromContext(r.Context())))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", err.Error(), "")
			return nil, false
		}
		logger.Debug("failed to read request body", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "unreadable_body", err.Error(), "")
		return nil, false
	}
	fields, err := utils.DecodeJSONFields(body)
	if err != nil {
		logger.Debug("rejecting malformed body", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error(), "")
		return nil, false
	}

	analysis, err := h.analyzer.Analyze(r.Context(), fields)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}

	logger.Info("valuation computed",
		zap.Float64("intrinsic_value", analysis.IntrinsicValue),
		zap.Float64("enterprise_value", analysis.Base.EnterpriseValue),
	)
	return analysis, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)

	var vErr *coreValuation.ValidationError
	field := ""
	if errors.As(err, &vErr) {
		field = vErr.Field
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("valuation failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, r, status, code, err.Error(), field)
}
