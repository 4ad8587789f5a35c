package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/storage"
)

// withImageURLs returns a copy of qs with ImageURL filled from the blob store.
func withImageURLs(qs []assessment.Question, bs storage.BlobStore) []assessment.Question {
	out := make([]assessment.Question, len(qs))
	copy(out, qs)
	if bs == nil {
		return out
	}
	for i := range out {
		if out[i].ImageKey != "" {
			out[i].ImageURL = bs.URL(out[i].ImageKey)
		}
	}
	return out
}

// GET /api/questions/{condition}
func QuestionsHandler(svc *assessment.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.Questions(r.Context(), chi.URLParam(r, "condition"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, withImageURLs(qs, bs))
	}
}

// GET /api/questions
func QuestionGroupsHandler(svc *assessment.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.QuestionGroups(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		for g, qs := range groups {
			groups[g] = withImageURLs(qs, bs)
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
	}
}

// GET /api/conditions
func ListConditionsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Conditions(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
