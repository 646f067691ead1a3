package content

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("lesson not found")

type ListOpts struct {
	Q      string
	Limit  int
	Offset int
}

// LessonSummary is the listing view; items are omitted.
type LessonSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Sections int    `json:"sections"`
}

// Provider serves lesson content to the practice core. The core only
// ever reads; PutLesson exists for the authoring surface.
type Provider interface {
	Lesson(ctx context.Context, lessonID string) (Lesson, error)
	Section(ctx context.Context, lessonID, sectionID string) (Section, error)
	ListLessons(ctx context.Context, opts ListOpts) ([]LessonSummary, error)
	PutLesson(ctx context.Context, l Lesson) error
}

type memoryProvider struct {
	mu      sync.RWMutex
	lessons map[string]Lesson
}

// NewMemoryProvider is used by tests and by the pack loader before a
// DB-backed store is attached.
func NewMemoryProvider() Provider {
	return &memoryProvider{lessons: map[string]Lesson{}}
}

func (m *memoryProvider) Lesson(_ context.Context, id string) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, ErrNotFound
	}
	return l, nil
}

func (m *memoryProvider) Section(ctx context.Context, lessonID, sectionID string) (Section, error) {
	l, err := m.Lesson(ctx, lessonID)
	if err != nil {
		return Section{}, err
	}
	s, ok := l.SectionByID(sectionID)
	if !ok {
		return Section{}, errors.New("section not found")
	}
	return s, nil
}

func (m *memoryProvider) ListLessons(_ context.Context, opts ListOpts) ([]LessonSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]LessonSummary, 0, len(m.lessons))
	for _, l := range m.lessons {
		out = append(out, LessonSummary{ID: l.ID, Title: l.Title, Sections: len(l.Sections)})
	}
	return out, nil
}

func (m *memoryProvider) PutLesson(_ context.Context, l Lesson) error {
	if l.ID == "" {
		return errors.New("lesson id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons[l.ID] = l
	return nil
}
