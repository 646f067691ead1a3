package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/lessonlab/practice-engine/internal/auth/middleware"
	"github.com/lessonlab/practice-engine/internal/content"
	"github.com/lessonlab/practice-engine/internal/practice"
)

// ItemView is the learner-facing projection of an exercise item:
// prompts and options, never canonical answers.
type ItemView struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	PromptRef string     `json:"prompt_ref,omitempty"`
	Options   []string   `json:"options,omitempty"`
	Steps     []StepView `json:"steps,omitempty"`
}

type StepView struct {
	Kind      string   `json:"kind"`
	PromptRef string   `json:"prompt_ref,omitempty"`
	Options   []string `json:"options,omitempty"`
}

type stateView struct {
	Cursor   int                    `json:"cursor"`
	MaxIndex int                    `json:"max_index"`
	Statuses []practice.ItemStatus  `json:"statuses"`
	Guides   []practice.GuideState  `json:"guides"`
	Score    practice.ScoreSnapshot `json:"score"`
	Items    []ItemView             `json:"items"`
	Answers  []string               `json:"fib_answers"`
	Selected []string               `json:"mcq_selections"`
}

func itemView(it content.ExerciseItem) ItemView {
	v := ItemView{
		ID:        it.ID,
		Kind:      string(it.Kind),
		PromptRef: it.PromptRef,
		Options:   it.Options,
	}
	for _, st := range it.Steps {
		v.Steps = append(v.Steps, StepView{
			Kind:      string(st.Kind),
			PromptRef: st.PromptRef,
			Options:   st.Options,
		})
	}
	return v
}

func stateOf(sess *practice.Session) stateView {
	snap := sess.Snapshot()
	view := stateView{
		Cursor:   snap.ExerciseIndex,
		MaxIndex: snap.MaxExerciseIndex,
		Statuses: snap.Statuses,
		Guides:   snap.Guides,
		Score:    snap.Score,
		Answers:  snap.FibAnswers,
		Selected: snap.McqSelections,
	}
	for i := range snap.Order {
		if it, err := sess.ItemAt(i); err == nil {
			view.Items = append(view.Items, itemView(it))
		}
	}
	return view
}

// openSession resolves the request's learner and path params to the
// live session.
func (h *Hub) openSession(w http.ResponseWriter, r *http.Request) (*practice.Session, bool) {
	learner := authmw.SubjectFromContext(r.Context())
	if learner == "" {
		http.Error(w, "no learner identity", http.StatusUnauthorized)
		return nil, false
	}
	lessonID := chi.URLParam(r, "lessonID")
	sectionID := chi.URLParam(r, "sectionID")
	sess, err := h.Open(r.Context(), learner, lessonID, sectionID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return nil, false
	}
	return sess, true
}

func practiceErrStatus(err error) int {
	switch {
	case errors.Is(err, practice.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, practice.ErrOutOfRange),
		errors.Is(err, practice.ErrEmptySubmission),
		errors.Is(err, practice.ErrNothingToAnswer),
		errors.Is(err, practice.ErrStepNotActive),
		errors.Is(err, practice.ErrNothingToRetry),
		errors.Is(err, practice.ErrUnknownOption):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func OpenSectionHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func SubmitMainHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int    `json:"index"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		if err := sess.SubmitMain(req.Index, req.Value); err != nil {
			http.Error(w, err.Error(), practiceErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func SubmitStepHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int    `json:"index"`
			Step  int    `json:"step"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		if err := sess.SubmitStep(req.Index, req.Step, req.Value); err != nil {
			http.Error(w, err.Error(), practiceErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func SelectOptionHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index  int    `json:"index"`
			Option string `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		if err := sess.SelectOption(req.Index, req.Option); err != nil {
			http.Error(w, err.Error(), practiceErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func GoToHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		if err := sess.GoTo(req.Index); err != nil {
			http.Error(w, err.Error(), practiceErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func RestartSectionHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		sess.Restart()
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func RetryWrongHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		if err := sess.RetryWrong(); err != nil {
			http.Error(w, err.Error(), practiceErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(stateOf(sess))
	}
}

func ScoreHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.openSession(w, r)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(sess.Score())
	}
}

// CloseSectionHandler tears the live session down (navigating away in
// the viewer); pending timers are cancelled, progress stays persisted.
func CloseSectionHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learner := authmw.SubjectFromContext(r.Context())
		if learner == "" {
			http.Error(w, "no learner identity", http.StatusUnauthorized)
			return
		}
		h.Close(learner, chi.URLParam(r, "lessonID"), chi.URLParam(r, "sectionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}
