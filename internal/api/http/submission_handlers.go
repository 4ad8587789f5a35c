package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/neurocare/internal/assessment"
)

// POST /api/submit
func SubmitHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assessment.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		sub, err := svc.Submit(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Assessment saved successfully",
			"results": sub.Results,
		})
	}
}

// POST /api/responses
func RecordResponsesHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assessment.ResponsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		sub, err := svc.RecordResponses(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Responses saved successfully",
			"id":      sub.ID,
			"results": sub.Results,
		})
	}
}

// GET /api/user/{email}
func GetUserHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		sub, err := svc.GetUser(r.Context(), email)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// GET /api/submissions?condition=...&limit=50&offset=0
func ListSubmissionsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.ListSubmissions(r.Context(), assessment.ListOpts{
			Condition: strings.TrimSpace(q.Get("condition")),
			Limit:     parseIntDefault(q.Get("limit"), 50),
			Offset:    parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
