package http

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/lessonlab/practice-engine/internal/content"
	"github.com/lessonlab/practice-engine/internal/practice"
	"github.com/lessonlab/practice-engine/internal/progress"
)

// Hub owns the live practice sessions, one per (learner, lesson,
// section). Opening a key twice returns the same session; progress is
// hydrated from the store before the session exists, so no save can
// clobber not-yet-loaded state.
type Hub struct {
	provider content.Provider
	store    progress.Store
	events   *progress.EventRepo // optional
	clock    practice.Clock

	mu       sync.Mutex
	sessions map[string]*hubEntry
}

type hubEntry struct {
	sess  *practice.Session
	saver *hubSaver
}

func NewHub(provider content.Provider, store progress.Store, events *progress.EventRepo) *Hub {
	return &Hub{
		provider: provider,
		store:    store,
		events:   events,
		clock:    practice.RealClock(),
		sessions: map[string]*hubEntry{},
	}
}

// WithClock swaps the timer source; tests drive a manual clock.
func (h *Hub) WithClock(c practice.Clock) *Hub {
	h.clock = c
	return h
}

func sessionKey(learnerID, lessonID, sectionID string) string {
	return learnerID + "|" + lessonID + "|" + sectionID
}

// Open returns the live session for the key, hydrating from storage
// on first open.
func (h *Hub) Open(ctx context.Context, learnerID, lessonID, sectionID string) (*practice.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sessionKey(learnerID, lessonID, sectionID)
	if e, ok := h.sessions[key]; ok {
		return e.sess, nil
	}

	lesson, err := h.provider.Lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	section, ok := lesson.SectionByID(sectionID)
	if !ok {
		return nil, content.ErrNotFound
	}

	rec, err := h.store.Load(ctx, lessonID, learnerID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = practice.NewProgressRecord()
	}
	progress.AdoptLegacySection(rec, lesson.FirstSectionID())

	sp := rec.Sections[sectionID]
	if sp == nil {
		sp = practice.NewSectionProgress(section.Items)
	}
	sp.Reconcile(section.Items)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	sp.EnsureOrder(len(section.Items), rnd)
	rec.Sections[sectionID] = sp

	saver := &hubSaver{hub: h, rec: rec, prev: sp.Clone()}
	sess := practice.NewSession(practice.SessionConfig{
		LessonID:  lessonID,
		SectionID: sectionID,
		LearnerID: learnerID,
		Items:     section.Items,
		Progress:  sp,
		Clock:     h.clock,
		Rand:      rnd,
		Saver:     saver,
	})
	h.sessions[key] = &hubEntry{sess: sess, saver: saver}

	// mirror the hydrated state back immediately so a legacy blob is
	// rewritten in the current shape on first open
	saver.SaveSection(lessonID, learnerID, sectionID, sp.Clone())
	return sess, nil
}

// Close tears the session's view down: pending timers are cancelled
// and the entry is dropped. Progress is already persisted.
func (h *Hub) Close(learnerID, lessonID, sectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := sessionKey(learnerID, lessonID, sectionID)
	if e, ok := h.sessions[key]; ok {
		e.sess.Close()
		delete(h.sessions, key)
	}
}

// hubSaver mirrors every committed snapshot into the progress record
// and writes the whole record through. Called with the session lock
// held: it must not call back into the session.
type hubSaver struct {
	hub  *Hub
	mu   sync.Mutex
	rec  *practice.ProgressRecord
	prev *practice.SectionProgress
}

func (s *hubSaver) SaveSection(lessonID, learnerID, sectionID string, p *practice.SectionProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasComplete := s.rec.Completed[sectionID]
	nowComplete := p.Complete()
	s.rec.Open = sectionID
	s.rec.Completed[sectionID] = nowComplete
	s.rec.Sections[sectionID] = p

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.hub.store.Save(ctx, lessonID, learnerID, s.rec); err != nil {
		log.Printf("progress save failed lesson=%s learner=%s: %v", lessonID, learnerID, err)
	}

	if s.hub.events != nil {
		if nowComplete && !wasComplete {
			s.append(ctx, progress.Event{
				Type: progress.EventSectionCompleted, LessonID: lessonID,
				LearnerID: learnerID, SectionID: sectionID,
				SkillScore: p.Score.SkillScore, CreatedAt: time.Now().Unix(),
			})
		}
		if retryStarted(s.prev, p) {
			s.append(ctx, progress.Event{
				Type: progress.EventRetryStarted, LessonID: lessonID,
				LearnerID: learnerID, SectionID: sectionID,
				SkillScore: p.Score.SkillScore, CreatedAt: time.Now().Unix(),
			})
		}
	}
	s.prev = p
}

func (s *hubSaver) append(ctx context.Context, e progress.Event) {
	if err := s.hub.events.Append(ctx, e); err != nil {
		log.Printf("progress event append failed: %v", err)
	}
}

// retryStarted detects the retry-queue edge: the previous snapshot was
// fully attempted with residual errors, the new one has reopened items
// but is not a blank restart.
func retryStarted(prev, cur *practice.SectionProgress) bool {
	if prev == nil || !prev.FullyAttempted() || cur.FullyAttempted() || cur.FreshRun() {
		return false
	}
	for _, st := range prev.Statuses {
		if st == practice.StatusIncorrect {
			return true
		}
	}
	return false
}
