package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lessonlab/practice-engine/internal/progress"
)

// ListEventsHandler pages the progress event log for reporting
// consumers. Cursor is the last offset seen; 0 starts from the top.
func ListEventsHandler(repo *progress.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		events, err := repo.List(r.Context(), after, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		next := after
		if len(events) > 0 {
			next = events[len(events)-1].Offset
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"events": events,
			"next":   next,
		})
	}
}
