package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	coreValuation "intrinsic_valuation/pkg/core/valuation"
)

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message, field string) {
	writeJSON(w, status, ErrorResponse{
		Status: "error",
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			Field:     field,
			RequestID: requestIDFromContext(r.Context()),
		},
	})
}

func mapDomainError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, coreValuation.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, coreValuation.ErrNonFiniteResult):
		return http.StatusUnprocessableEntity, "non_finite_result"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
