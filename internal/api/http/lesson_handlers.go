package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lessonlab/practice-engine/internal/content"
)

// LessonView strips canonical answers before a lesson reaches a
// learner. Authors fetch the raw lesson through the provider directly.
type LessonView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title,omitempty"`
	Sections []SectionView `json:"sections"`
}

type SectionView struct {
	ID    string     `json:"id"`
	Title string     `json:"title,omitempty"`
	Items []ItemView `json:"items"`
}

func lessonView(l content.Lesson) LessonView {
	v := LessonView{ID: l.ID, Title: l.Title}
	for _, s := range l.Sections {
		sv := SectionView{ID: s.ID, Title: s.Title}
		for _, it := range s.Items {
			sv.Items = append(sv.Items, itemView(it))
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

func ListLessonsHandler(p content.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		out, err := p.ListLessons(r.Context(), content.ListOpts{
			Q:      r.URL.Query().Get("q"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"lessons": out})
	}
}

func GetLessonHandler(p content.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := p.Lesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		_ = json.NewEncoder(w).Encode(lessonView(l))
	}
}

// UploadLessonHandler accepts a lesson pack as YAML (the authoring
// format) or JSON, keyed by Content-Type.
func UploadLessonHandler(p content.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		var l content.Lesson
		if strings.Contains(r.Header.Get("Content-Type"), "json") {
			if err := json.Unmarshal(body, &l); err != nil {
				http.Error(w, "bad json", 400)
				return
			}
			if l.ID == "" {
				http.Error(w, "lesson id required", 400)
				return
			}
		} else {
			l, err = content.ParsePack(body)
			if err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
		}
		l.CreatedAt = time.Now().Unix()
		if err := p.PutLesson(r.Context(), l); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"lesson_id": l.ID})
	}
}
