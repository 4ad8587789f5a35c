package http

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/neurocare/internal/syncx"
)

// GET /api/events?since=0&limit=100
func ListEventsHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		since, err := strconv.ParseInt(q.Get("since"), 10, 64)
		if q.Get("since") != "" && err != nil {
			writeError(w, http.StatusBadRequest, "since must be an integer")
			return
		}
		events, err := repo.Since(r.Context(), since, parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
