package practice

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lessonlab/practice-engine/internal/content"
)

var (
	ErrClosed          = errors.New("session closed")
	ErrOutOfRange      = errors.New("index out of range")
	ErrEmptySubmission = errors.New("empty submission")
	ErrNothingToAnswer = errors.New("nothing to answer")
	ErrLocked          = errors.New("input locked while a reset is pending")
	ErrStepNotActive   = errors.New("step is not the active step")
	ErrNothingToRetry  = errors.New("no incorrect items to retry")
	ErrUnknownOption   = errors.New("unknown option")
)

// Saver receives a committed section snapshot after every mutation.
// It is called with the session lock held; implementations must not
// call back into the session.
type Saver interface {
	SaveSection(lessonID, learnerID, sectionID string, p *SectionProgress)
}

type SessionConfig struct {
	LessonID  string
	SectionID string
	LearnerID string
	Items     []content.ExerciseItem
	Progress  *SectionProgress // reconciled; order already ensured
	Clock     Clock            // nil -> RealClock
	Rand      *rand.Rand       // nil -> time-seeded
	Saver     Saver            // nil -> no persistence
}

// Session is the per-section exercise state machine. All mutation is
// serialized on one mutex; deferred transitions fire through the
// scheduler onto the same mutex, and a transition whose slot was
// re-scheduled or cancelled in the meantime never applies.
type Session struct {
	mu        sync.Mutex
	lessonID  string
	sectionID string
	learnerID string
	items     []content.ExerciseItem
	prog      *SectionProgress
	sched     *scheduler
	rnd       *rand.Rand
	saver     Saver
	closed    bool
}

func NewSession(cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock()
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	prog := cfg.Progress
	if prog == nil {
		prog = NewSectionProgress(cfg.Items)
	}
	return &Session{
		lessonID:  cfg.LessonID,
		sectionID: cfg.SectionID,
		learnerID: cfg.LearnerID,
		items:     cfg.Items,
		prog:      prog,
		sched:     newScheduler(clock),
		rnd:       rnd,
		saver:     cfg.Saver,
	}
}

// item resolves a working-order position to its content item.
func (s *Session) item(pos int) content.ExerciseItem {
	return s.items[s.prog.Order[pos]]
}

func (s *Session) saveLocked() {
	if s.saver != nil {
		s.saver.SaveSection(s.lessonID, s.learnerID, s.sectionID, s.prog.Clone())
	}
}

// SubmitMain evaluates a main-question submission at working position
// index.
func (s *Session) SubmitMain(index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if index < 0 || index > s.prog.MaxExerciseIndex || index >= len(s.prog.Statuses) {
		return ErrOutOfRange
	}
	if strings.TrimSpace(value) == "" {
		return ErrEmptySubmission
	}
	it := s.item(index)
	if !it.Answerable() {
		return ErrNothingToAnswer
	}
	g := &s.prog.Guides[index]
	if g.MainPending == PendingIncorrect {
		return ErrLocked
	}

	if it.Kind == content.KindChoice {
		s.prog.McqSelections[index] = value
	} else {
		s.prog.FibAnswers[index] = value
	}

	if Equivalent(value, it.Answer) {
		s.commitCorrectMain(index, g)
	} else {
		s.commitIncorrectMain(index, it, g)
	}
	s.prog.refreshScore()
	s.saveLocked()
	return nil
}

func (s *Session) commitCorrectMain(index int, g *GuideState) {
	// sticky-incorrect: a correct resolution never rewrites an
	// incorrect outcome within the same attempt cycle
	if s.prog.Statuses[index] != StatusIncorrect {
		s.prog.Statuses[index] = StatusCorrect
	}
	g.Completed = true
	g.MainLastIncorrect = false
	g.MainPending = PendingNone
	g.HelpActive = false

	n := len(s.prog.Statuses)
	if unlocked := index + 1; unlocked <= n-1 && unlocked > s.prog.MaxExerciseIndex {
		s.prog.MaxExerciseIndex = unlocked
	}
	s.sched.schedule(mainSlot(index), advanceDelay, func() { s.afterCorrectMain(index) })
}

func (s *Session) commitIncorrectMain(index int, it content.ExerciseItem, g *GuideState) {
	g.MainAttempts++
	if s.prog.Statuses[index] == StatusUnattempted {
		s.prog.Statuses[index] = StatusIncorrect
	}

	if len(it.Steps) == 0 {
		// no remediation: inline "try again", input stays live
		g.MainLastIncorrect = true
		return
	}

	if g.StepIndex == len(g.Steps) && len(g.Steps) > 0 {
		// remediation fully walked and the re-presented main question
		// missed again: lock the input and rebuild fresh steps after
		// the feedback delay
		s.clearBuffers(index, it)
		g.MainPending = PendingIncorrect
		s.sched.schedule(mainSlot(index), stepResetDelay, func() { s.rebuildSteps(index) })
		return
	}

	g.MainLastIncorrect = true
	g.HelpActive = true
	s.clearBuffers(index, it)
}

func (s *Session) clearBuffers(index int, it content.ExerciseItem) {
	if it.Kind == content.KindChoice {
		s.prog.McqSelections[index] = ""
	} else {
		s.prog.FibAnswers[index] = ""
	}
}

// afterCorrectMain fires one advanceDelay after a correct main answer.
// When it lands on a finished set with residual errors it composes the
// retry queue instead of advancing.
func (s *Session) afterCorrectMain(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.allResolved() && s.anyIncorrect() {
		s.enterRetryLocked()
		s.saveLocked()
		return
	}
	if s.prog.ExerciseIndex == index && index+1 < len(s.prog.Statuses) {
		s.prog.ExerciseIndex = index + 1
		s.saveLocked()
	}
}

func (s *Session) allResolved() bool {
	for _, g := range s.prog.Guides {
		if !g.Completed {
			return false
		}
	}
	return len(s.prog.Guides) > 0
}

func (s *Session) anyIncorrect() bool {
	for _, st := range s.prog.Statuses {
		if st == StatusIncorrect {
			return true
		}
	}
	return false
}

// rebuildSteps replaces a walked step list with a fresh all-unanswered
// one and unlocks the main input.
func (s *Session) rebuildSteps(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	it := s.item(index)
	g := &s.prog.Guides[index]
	fresh := defaultGuide(it)
	g.Steps = fresh.Steps
	g.StepIndex = 0
	g.MainPending = PendingNone
	g.HelpActive = true
	s.saveLocked()
}

// SubmitStep evaluates a remediation sub-question. Only the guide's
// active step accepts submissions.
func (s *Session) SubmitStep(itemIdx, stepIdx int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if itemIdx < 0 || itemIdx >= len(s.prog.Statuses) {
		return ErrOutOfRange
	}
	g := &s.prog.Guides[itemIdx]
	if stepIdx < 0 || stepIdx >= len(g.Steps) {
		return ErrOutOfRange
	}
	if !g.HelpActive || stepIdx != g.StepIndex {
		return ErrStepNotActive
	}
	if strings.TrimSpace(value) == "" {
		return ErrEmptySubmission
	}
	it := s.item(itemIdx)
	st := it.Steps[stepIdx]
	if !st.Answerable() {
		return ErrNothingToAnswer
	}
	sp := &g.Steps[stepIdx]
	if sp.Status == StepCorrectPending || sp.Status == StepRevealed {
		return ErrLocked
	}
	sp.Answer = value

	if Equivalent(value, st.Answer) {
		sp.Status = StepCorrectPending
		sp.LastIncorrect = false
		s.sched.schedule(stepSlot(itemIdx, stepIdx), stepAdvanceDelay, func() {
			s.finalizeStep(itemIdx, stepIdx)
		})
		s.saveLocked()
		return nil
	}

	sp.Attempts++
	if sp.Attempts >= 3 {
		// third miss: reveal the canonical value, then advance once the
		// reveal has been on screen through its hold+fade window
		sp.Status = StepRevealed
		sp.Answer = st.Answer
		sp.LastIncorrect = false
		s.sched.schedule(stepSlot(itemIdx, stepIdx), revealHold+revealFade, func() {
			s.advanceStepCursor(itemIdx, stepIdx)
		})
		s.saveLocked()
		return nil
	}

	sp.LastIncorrect = true
	if st.Kind == content.KindChoice {
		// wrong selections flash and then clear so the control becomes
		// interactive again; free-text stays for the learner to edit
		s.sched.schedule(stepSlot(itemIdx, stepIdx), flashShow+flashFade, func() {
			s.clearFlash(itemIdx, stepIdx)
		})
	}
	s.saveLocked()
	return nil
}

func (s *Session) finalizeStep(itemIdx, stepIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	g := &s.prog.Guides[itemIdx]
	if stepIdx >= len(g.Steps) || g.Steps[stepIdx].Status != StepCorrectPending {
		return
	}
	g.Steps[stepIdx].Status = StepCorrect
	s.advanceStepCursorLocked(g, stepIdx)
	s.saveLocked()
}

func (s *Session) advanceStepCursor(itemIdx, stepIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	g := &s.prog.Guides[itemIdx]
	s.advanceStepCursorLocked(g, stepIdx)
	s.saveLocked()
}

func (s *Session) advanceStepCursorLocked(g *GuideState, stepIdx int) {
	if next := stepIdx + 1; next <= len(g.Steps) && g.StepIndex == stepIdx {
		g.StepIndex = next
	}
}

func (s *Session) clearFlash(itemIdx, stepIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	g := &s.prog.Guides[itemIdx]
	if stepIdx >= len(g.Steps) {
		return
	}
	sp := &g.Steps[stepIdx]
	if !sp.LastIncorrect {
		return
	}
	sp.LastIncorrect = false
	sp.Answer = ""
	s.saveLocked()
}

// SelectOption records a choice-question selection without evaluating
// it; the view follows up with SubmitMain when the learner confirms.
func (s *Session) SelectOption(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if index < 0 || index > s.prog.MaxExerciseIndex || index >= len(s.prog.Statuses) {
		return ErrOutOfRange
	}
	it := s.item(index)
	if it.Kind != content.KindChoice || !it.Answerable() {
		return ErrNothingToAnswer
	}
	found := false
	for _, o := range it.Options {
		if o == option {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownOption
	}
	s.prog.McqSelections[index] = option
	s.saveLocked()
	return nil
}

// GoTo moves the cursor to an unlocked item. Leaving an item tears its
// view down: pending transitions for it are flushed (applied eagerly)
// rather than left to fire on a no-longer-visible item.
func (s *Session) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if index < 0 || index > s.prog.MaxExerciseIndex || index >= len(s.prog.Statuses) {
		return ErrOutOfRange
	}
	cur := s.prog.ExerciseIndex
	if index == cur {
		return nil
	}
	s.sched.cancelItem(cur)
	s.flushPendingLocked(cur)
	s.prog.ExerciseIndex = index
	s.saveLocked()
	return nil
}

// flushPendingLocked applies the departed item's in-flight visual
// transitions immediately so no state is stranded mid-animation.
func (s *Session) flushPendingLocked(index int) {
	g := &s.prog.Guides[index]
	if g.MainPending == PendingIncorrect {
		it := s.item(index)
		fresh := defaultGuide(it)
		g.Steps = fresh.Steps
		g.StepIndex = 0
		g.MainPending = PendingNone
		g.HelpActive = true
		return
	}
	for sIdx := range g.Steps {
		sp := &g.Steps[sIdx]
		switch {
		case sp.Status == StepCorrectPending:
			sp.Status = StepCorrect
			s.advanceStepCursorLocked(g, sIdx)
		case sp.Status == StepRevealed && g.StepIndex == sIdx:
			s.advanceStepCursorLocked(g, sIdx)
		case sp.LastIncorrect:
			sp.LastIncorrect = false
			if s.item(index).Steps[sIdx].Kind == content.KindChoice {
				sp.Answer = ""
			}
		}
	}
}

// Restart clears the whole section back to defaults and re-shuffles.
// The surrounding view confirms with the learner before calling.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sched.cancelAll()
	s.prog = NewSectionProgress(s.items)
	s.prog.Order = BuildOrder(len(s.items), s.rnd)
	s.saveLocked()
}

// RetryWrong explicitly composes the retry queue (see BuildRetrySet)
// and re-enters the machine on the reset subset.
func (s *Session) RetryWrong() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.anyIncorrect() {
		return ErrNothingToRetry
	}
	s.enterRetryLocked()
	s.saveLocked()
	return nil
}

func (s *Session) enterRetryLocked() {
	set := BuildRetrySet(s.prog.Statuses, s.rnd)
	if len(set) == 0 {
		return
	}
	for _, i := range set {
		s.sched.cancelItem(i)
		s.prog.Statuses[i] = StatusUnattempted
		s.prog.Guides[i] = defaultGuide(s.item(i))
		s.prog.FibAnswers[i] = ""
		s.prog.McqSelections[i] = ""
	}
	s.prog.ExerciseIndex = set[0]
	s.prog.MaxExerciseIndex = set[0]
	s.prog.refreshScore()
}

// Close cancels every pending timer. A timer that has already fired
// but not yet claimed its slot becomes a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sched.cancelAll()
}

/* ---------------- read-only observers ---------------- */

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prog.ExerciseIndex
}

func (s *Session) MaxIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prog.MaxExerciseIndex
}

func (s *Session) Status(index int) (ItemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.prog.Statuses) {
		return "", ErrOutOfRange
	}
	return s.prog.Statuses[index], nil
}

func (s *Session) Guide(index int) (GuideState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.prog.Guides) {
		return GuideState{}, ErrOutOfRange
	}
	g := s.prog.Guides[index]
	g.Steps = append([]StepProgress(nil), g.Steps...)
	return g, nil
}

func (s *Session) Score() ScoreSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prog.Score
}

// Snapshot returns a deep copy of the full section state.
func (s *Session) Snapshot() *SectionProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prog.Clone()
}

// ItemAt exposes the content item at a working position, for views
// that render prompt and options.
func (s *Session) ItemAt(index int) (content.ExerciseItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.prog.Order) {
		return content.ExerciseItem{}, ErrOutOfRange
	}
	return s.item(index), nil
}
