package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/lessonlab/practice-engine/internal/auth/middleware"
	"github.com/lessonlab/practice-engine/internal/progress"
)

// LessonProgressHandler reports the learner's whole-lesson view: which
// section is open, which are completed, and per-section scores.
func LessonProgressHandler(store progress.Store) http.HandlerFunc {
	type sectionOverview struct {
		Completed  bool `json:"completed"`
		SkillScore int  `json:"skill_score"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		learner := authmw.SubjectFromContext(r.Context())
		if learner == "" {
			http.Error(w, "no learner identity", http.StatusUnauthorized)
			return
		}
		rec, err := store.Load(r.Context(), chi.URLParam(r, "lessonID"), learner)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		sections := map[string]sectionOverview{}
		open := ""
		if rec != nil {
			open = rec.Open
			for id, sp := range rec.Sections {
				sections[id] = sectionOverview{
					Completed:  rec.Completed[id],
					SkillScore: sp.Score.SkillScore,
				}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"open":     open,
			"sections": sections,
		})
	}
}
