package practice

import (
	"github.com/lessonlab/practice-engine/internal/content"
)

// ItemStatus is the coarse per-item outcome used for scoring and the
// progress dots. Once incorrect, it stays incorrect until an explicit
// reset (restart or retry-queue re-entry); a later correct resolution
// of the same attempt cycle never flips it back.
type ItemStatus string

const (
	StatusUnattempted ItemStatus = "unattempted"
	StatusCorrect     ItemStatus = "correct"
	StatusIncorrect   ItemStatus = "incorrect"
)

type StepStatus string

const (
	StepUnanswered     StepStatus = "unanswered"
	StepCorrectPending StepStatus = "correct_pending"
	StepCorrect        StepStatus = "correct"
	StepRevealed       StepStatus = "revealed"
)

// MainPending locks the main input while a deferred reset is in flight.
type MainPending string

const (
	PendingNone      MainPending = ""
	PendingIncorrect MainPending = "incorrect_pending"
)

type StepProgress struct {
	Status        StepStatus `json:"status"`
	Attempts      int        `json:"attempts"`
	Answer        string     `json:"answer,omitempty"`
	LastIncorrect bool       `json:"last_incorrect,omitempty"`
}

type GuideState struct {
	HelpActive        bool           `json:"help_active,omitempty"`
	StepIndex         int            `json:"step_index"` // 0..len(Steps); len(Steps) = walked
	Steps             []StepProgress `json:"steps"`
	MainAttempts      int            `json:"main_attempts"`
	MainLastIncorrect bool           `json:"main_last_incorrect,omitempty"`
	MainPending       MainPending    `json:"main_pending,omitempty"`
	Completed         bool           `json:"completed"`
}

// ScoreSnapshot is derived from the status list and never hand-mutated.
type ScoreSnapshot struct {
	AnsweredThisSession int `json:"answered_this_session"`
	AnsweredPrevious    int `json:"answered_previous"`
	SkillScore          int `json:"skill_score"`
	CorrectSoFar        int `json:"correct_so_far"`
}

// SectionProgress is the unit of persistence for one exercise group.
// All slices are index-aligned with the working order: position i of
// every slice refers to the item at Order[i] in the content list.
type SectionProgress struct {
	Order            []int          `json:"order"`
	ExerciseIndex    int            `json:"exercise_index"`
	MaxExerciseIndex int            `json:"max_exercise_index"`
	Statuses         []ItemStatus   `json:"statuses"`
	Guides           []GuideState   `json:"guides"`
	FibAnswers       []string       `json:"fib_answers"`
	McqSelections    []string       `json:"mcq_selections"`
	Score            ScoreSnapshot  `json:"score"`
}

// ProgressRecord is the top-level persisted blob per lesson+learner.
type ProgressRecord struct {
	Open      string                      `json:"open,omitempty"`
	Completed map[string]bool             `json:"completed"`
	Sections  map[string]*SectionProgress `json:"exercise_sections"`
}

func NewProgressRecord() *ProgressRecord {
	return &ProgressRecord{
		Completed: map[string]bool{},
		Sections:  map[string]*SectionProgress{},
	}
}

func defaultGuide(item content.ExerciseItem) GuideState {
	g := GuideState{Steps: make([]StepProgress, len(item.Steps))}
	for i := range g.Steps {
		g.Steps[i].Status = StepUnanswered
	}
	return g
}

// NewSectionProgress builds the all-defaults state for a working set.
// The order is filled in separately (see EnsureOrder).
func NewSectionProgress(items []content.ExerciseItem) *SectionProgress {
	n := len(items)
	p := &SectionProgress{
		Order:         identityOrder(n),
		Statuses:      make([]ItemStatus, n),
		Guides:        make([]GuideState, n),
		FibAnswers:    make([]string, n),
		McqSelections: make([]string, n),
	}
	for i := range p.Statuses {
		p.Statuses[i] = StatusUnattempted
	}
	for i, it := range items {
		p.Guides[i] = defaultGuide(it)
	}
	p.Score = ComputeScore(p.Statuses, 0)
	return p
}

func identityOrder(n int) []int {
	o := make([]int, n)
	for i := range o {
		o[i] = i
	}
	return o
}

// FreshRun reports whether the section carries no learner activity:
// cursor and high-water at 0, every status unattempted, every buffer
// empty, no guide completed. Fresh sections may be re-shuffled.
func (p *SectionProgress) FreshRun() bool {
	if p.ExerciseIndex != 0 || p.MaxExerciseIndex != 0 {
		return false
	}
	for _, st := range p.Statuses {
		if st != StatusUnattempted {
			return false
		}
	}
	for _, a := range p.FibAnswers {
		if a != "" {
			return false
		}
	}
	for _, s := range p.McqSelections {
		if s != "" {
			return false
		}
	}
	for _, g := range p.Guides {
		if g.Completed {
			return false
		}
	}
	return true
}

// FullyAttempted reports whether every item carries an outcome.
func (p *SectionProgress) FullyAttempted() bool {
	for _, st := range p.Statuses {
		if st == StatusUnattempted {
			return false
		}
	}
	return len(p.Statuses) > 0
}

// Complete reports a finished section: everything attempted, nothing
// left incorrect.
func (p *SectionProgress) Complete() bool {
	if !p.FullyAttempted() {
		return false
	}
	for _, st := range p.Statuses {
		if st == StatusIncorrect {
			return false
		}
	}
	return true
}

// Reconcile repairs a rehydrated snapshot against the current item
// list. Reconciliation is field-by-field: a slice of the wrong length,
// a guide with the wrong step count, or an out-of-range cursor is
// rebuilt from defaults on its own; everything else is kept. The score
// is always recomputed rather than trusted.
func (p *SectionProgress) Reconcile(items []content.ExerciseItem) {
	n := len(items)

	if len(p.Statuses) != n {
		p.Statuses = make([]ItemStatus, n)
		for i := range p.Statuses {
			p.Statuses[i] = StatusUnattempted
		}
	} else {
		for i, st := range p.Statuses {
			switch st {
			case StatusUnattempted, StatusCorrect, StatusIncorrect:
			default:
				p.Statuses[i] = StatusUnattempted
			}
		}
	}

	if len(p.Guides) != n {
		p.Guides = make([]GuideState, n)
		for i, it := range items {
			p.Guides[i] = defaultGuide(it)
		}
	} else {
		for i := range p.Guides {
			g := &p.Guides[i]
			if len(g.Steps) != len(items[i].Steps) {
				*g = defaultGuide(items[i])
				continue
			}
			if g.StepIndex < 0 || g.StepIndex > len(g.Steps) {
				g.StepIndex = 0
			}
			// pending flags are transient; a rehydrated session has no
			// timers in flight to finish them
			g.MainPending = PendingNone
			// a completed guide always has a recorded outcome
			if g.Completed && p.Statuses[i] == StatusUnattempted {
				g.Completed = false
			}
			for s := range g.Steps {
				switch g.Steps[s].Status {
				case StepUnanswered, StepCorrect, StepRevealed:
				default:
					// correct_pending (or junk) had a timer in flight
					// that will never fire now
					g.Steps[s].Status = StepUnanswered
					g.Steps[s].Answer = ""
				}
				g.Steps[s].LastIncorrect = false
			}
		}
	}

	if len(p.FibAnswers) != n {
		p.FibAnswers = make([]string, n)
	}
	if len(p.McqSelections) != n {
		p.McqSelections = make([]string, n)
	}

	if n == 0 {
		p.ExerciseIndex, p.MaxExerciseIndex = 0, 0
	} else {
		if p.MaxExerciseIndex < 0 || p.MaxExerciseIndex > n-1 {
			p.MaxExerciseIndex = 0
		}
		if p.ExerciseIndex < 0 || p.ExerciseIndex > n-1 {
			p.ExerciseIndex = 0
		}
		if p.ExerciseIndex > p.MaxExerciseIndex {
			p.ExerciseIndex = p.MaxExerciseIndex
		}
	}

	p.Score = ComputeScore(p.Statuses, p.Score.AnsweredPrevious)
}

// Clone returns a deep copy, safe to hand across the session boundary.
func (p *SectionProgress) Clone() *SectionProgress {
	c := *p
	c.Order = append([]int(nil), p.Order...)
	c.Statuses = append([]ItemStatus(nil), p.Statuses...)
	c.FibAnswers = append([]string(nil), p.FibAnswers...)
	c.McqSelections = append([]string(nil), p.McqSelections...)
	c.Guides = make([]GuideState, len(p.Guides))
	for i, g := range p.Guides {
		g.Steps = append([]StepProgress(nil), g.Steps...)
		c.Guides[i] = g
	}
	return &c
}
