package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the service's error kinds onto HTTP statuses.
func statusFor(err error) int {
	var (
		verr    *assessment.ValidationError
		unknown *scoring.UnknownConditionError
		cu      *assessment.CatalogUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &unknown), errors.Is(err, assessment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, assessment.ErrAlreadyExists):
		return http.StatusConflict
	case errors.As(err, &cu):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
