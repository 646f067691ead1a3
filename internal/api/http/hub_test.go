package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/lessonlab/practice-engine/internal/auth/middleware"
	"github.com/lessonlab/practice-engine/internal/content"
	"github.com/lessonlab/practice-engine/internal/practice"
	"github.com/lessonlab/practice-engine/internal/progress"
)

func testLesson() content.Lesson {
	return content.Lesson{
		ID: "lsn",
		Sections: []content.Section{{
			ID: "sec",
			Items: []content.ExerciseItem{
				{ID: "a", Kind: content.KindFillIn, Answer: "1/2"},
				{ID: "b", Kind: content.KindFillIn, Answer: "7"},
				{ID: "c", Kind: content.KindChoice, Answer: "x", Options: []string{"x", "y"}},
			},
		}},
	}
}

func newTestHub(t *testing.T, store progress.Store) (*Hub, *practice.ManualClock) {
	t.Helper()
	p := content.NewMemoryProvider()
	if err := p.PutLesson(context.Background(), testLesson()); err != nil {
		t.Fatal(err)
	}
	clock := practice.NewManualClock()
	return NewHub(p, store, nil).WithClock(clock), clock
}

func TestHubOpenIsIdempotent(t *testing.T) {
	hub, _ := newTestHub(t, progress.NewMemoryStore())
	ctx := context.Background()

	s1, err := hub.Open(ctx, "learner", "lsn", "sec")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s2, err := hub.Open(ctx, "learner", "lsn", "sec")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s1 != s2 {
		t.Fatal("same key should return the same live session")
	}

	s3, err := hub.Open(ctx, "other", "lsn", "sec")
	if err != nil {
		t.Fatalf("open other learner: %v", err)
	}
	if s3 == s1 {
		t.Fatal("different learners must not share a session")
	}
}

func TestHubOpenUnknownContent(t *testing.T) {
	hub, _ := newTestHub(t, progress.NewMemoryStore())
	if _, err := hub.Open(context.Background(), "l", "missing", "sec"); err == nil {
		t.Fatal("want error for unknown lesson")
	}
	if _, err := hub.Open(context.Background(), "l", "lsn", "missing"); err == nil {
		t.Fatal("want error for unknown section")
	}
}

func TestHubPersistsAcrossReopen(t *testing.T) {
	store := progress.NewMemoryStore()
	hub, clock := newTestHub(t, store)
	ctx := context.Background()

	sess, err := hub.Open(ctx, "learner", "lsn", "sec")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	it, err := sess.ItemAt(sess.Cursor())
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.SubmitMain(sess.Cursor(), it.Answer); err != nil {
		t.Fatalf("submit: %v", err)
	}
	clock.Advance(time.Second)
	hub.Close("learner", "lsn", "sec")

	// a fresh hub on the same store resumes where the learner left off
	hub2, _ := newTestHub(t, store)
	sess2, err := hub2.Open(ctx, "learner", "lsn", "sec")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	st, err := sess2.Status(0)
	if err != nil {
		t.Fatal(err)
	}
	if st != practice.StatusCorrect {
		t.Fatalf("status[0] = %q after reopen, want correct", st)
	}
	if sess2.Cursor() != 1 {
		t.Fatalf("cursor = %d after reopen, want 1", sess2.Cursor())
	}
}

func TestHubAdoptsLegacyRecord(t *testing.T) {
	store := progress.NewMemoryStore()
	items := testLesson().Sections[0].Items

	// a record still keyed under the pre-section sentinel, as the codec
	// produces when upgrading a v0 blob
	sp := practice.NewSectionProgress(items)
	sp.Statuses[0] = practice.StatusCorrect
	sp.Guides[0].Completed = true
	sp.ExerciseIndex, sp.MaxExerciseIndex = 1, 1
	rec := practice.NewProgressRecord()
	rec.Sections[progress.LegacySectionKey] = sp
	if err := store.Save(context.Background(), "lsn", "learner", rec); err != nil {
		t.Fatal(err)
	}

	hub, _ := newTestHub(t, store)
	sess, err := hub.Open(context.Background(), "learner", "lsn", "sec")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st, err := sess.Status(0)
	if err != nil {
		t.Fatal(err)
	}
	if st != practice.StatusCorrect {
		t.Fatalf("legacy progress not adopted, status[0] = %q", st)
	}

	// the re-keyed record is written back on open
	rec2, err := store.Load(context.Background(), "lsn", "learner")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec2.Sections[progress.LegacySectionKey]; ok {
		t.Fatal("legacy key should be gone after adoption")
	}
	if _, ok := rec2.Sections["sec"]; !ok {
		t.Fatal("progress should be stored under the real section id")
	}
}

func TestRetryStartedEdge(t *testing.T) {
	items := testLesson().Sections[0].Items
	prev := practice.NewSectionProgress(items)
	for i := range prev.Statuses {
		prev.Statuses[i] = practice.StatusCorrect
		prev.Guides[i].Completed = true
	}
	prev.Statuses[1] = practice.StatusIncorrect

	cur := prev.Clone()
	cur.Statuses[1] = practice.StatusUnattempted
	cur.Guides[1].Completed = false

	if !retryStarted(prev, cur) {
		t.Fatal("reopening a missed item after full attempt should read as retry start")
	}
	if retryStarted(nil, cur) {
		t.Fatal("no previous snapshot, no edge")
	}
	if retryStarted(prev, prev.Clone()) {
		t.Fatal("unchanged snapshot is not a retry start")
	}
	if retryStarted(prev, practice.NewSectionProgress(items)) {
		t.Fatal("blank restart is not a retry start")
	}
}

func TestOpenSectionHandlerHidesAnswers(t *testing.T) {
	hub, _ := newTestHub(t, progress.NewMemoryStore())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authmw.WithSubject(req.Context(), "learner")))
		})
	})
	r.Get("/lessons/{lessonID}/sections/{sectionID}", OpenSectionHandler(hub))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/lessons/lsn/sections/sec", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var view stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(view.Items))
	}
	for _, needle := range []string{"1/2", `"answer"`} {
		if strings.Contains(rec.Body.String(), needle) {
			t.Fatalf("canonical answer leaked to learner view: %s", needle)
		}
	}
}

func TestOpenSectionHandlerRequiresIdentity(t *testing.T) {
	hub, _ := newTestHub(t, progress.NewMemoryStore())
	r := chi.NewRouter()
	r.Get("/lessons/{lessonID}/sections/{sectionID}", OpenSectionHandler(hub))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/lessons/lsn/sections/sec", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
