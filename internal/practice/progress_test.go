package practice

import (
	"encoding/json"
	"testing"

	"github.com/lessonlab/practice-engine/internal/content"
)

func TestFreshRun(t *testing.T) {
	items := fillInItems("1", "2", "3")
	p := NewSectionProgress(items)
	if !p.FreshRun() {
		t.Fatal("defaults must read as fresh")
	}

	p.Statuses[1] = StatusIncorrect
	if p.FreshRun() {
		t.Fatal("a recorded status is activity")
	}
	p.Statuses[1] = StatusUnattempted

	p.FibAnswers[0] = "1"
	if p.FreshRun() {
		t.Fatal("a typed answer is activity")
	}
	p.FibAnswers[0] = ""

	p.MaxExerciseIndex = 2
	if p.FreshRun() {
		t.Fatal("an unlocked item is activity")
	}
}

func TestReconcileFieldByField(t *testing.T) {
	items := []content.ExerciseItem{
		{ID: "a", Kind: content.KindFillIn, Answer: "1"},
		{ID: "b", Kind: content.KindFillIn, Answer: "2", Steps: []content.Step{
			{Kind: content.KindFillIn, Answer: "x"},
		}},
		{ID: "c", Kind: content.KindFillIn, Answer: "3"},
	}
	p := NewSectionProgress(items)
	p.Statuses[0] = StatusCorrect
	p.MaxExerciseIndex = 2
	p.ExerciseIndex = 1

	// statuses survive a reconcile against the same item count
	p.Reconcile(items)
	if p.Statuses[0] != StatusCorrect || p.ExerciseIndex != 1 || p.MaxExerciseIndex != 2 {
		t.Fatalf("matching fields must be kept: %+v", p)
	}

	// a too-short status slice is rebuilt alone; the cursor survives
	p.Statuses = p.Statuses[:2]
	p.Reconcile(items)
	if len(p.Statuses) != 3 || p.Statuses[0] != StatusUnattempted {
		t.Fatalf("statuses not rebuilt: %v", p.Statuses)
	}
	if p.MaxExerciseIndex != 2 {
		t.Fatalf("cursor should not be touched by a status rebuild: %d", p.MaxExerciseIndex)
	}

	// out-of-range cursors reset to defaults and stay ordered
	p.ExerciseIndex = 99
	p.MaxExerciseIndex = -1
	p.Reconcile(items)
	if p.ExerciseIndex != 0 || p.MaxExerciseIndex != 0 {
		t.Fatalf("cursors not reset: idx=%d max=%d", p.ExerciseIndex, p.MaxExerciseIndex)
	}

	// a guide whose step count drifted is rebuilt on its own
	p.Guides[1].Steps = nil
	p.Guides[1].Completed = true
	p.Reconcile(items)
	if len(p.Guides[1].Steps) != 1 || p.Guides[1].Completed {
		t.Fatalf("guide not rebuilt: %+v", p.Guides[1])
	}

	// in-flight pending states never survive rehydration
	p.Guides[1].Steps[0].Status = StepCorrectPending
	p.Guides[1].MainPending = PendingIncorrect
	p.Reconcile(items)
	if p.Guides[1].Steps[0].Status != StepUnanswered || p.Guides[1].MainPending != PendingNone {
		t.Fatalf("pending state leaked through: %+v", p.Guides[1])
	}

	// a completed guide over an unattempted status is contradictory;
	// the guide reopens
	p.Guides[2].Completed = true
	p.Statuses[2] = StatusUnattempted
	p.Reconcile(items)
	if p.Guides[2].Completed {
		t.Fatalf("completed guide with no outcome must reopen: %+v", p.Guides[2])
	}
	p.Statuses[0] = StatusCorrect
	p.Guides[0].Completed = true
	p.Reconcile(items)
	if !p.Guides[0].Completed {
		t.Fatal("consistent completed guide must be kept")
	}
}

func TestSectionProgressRoundTrip(t *testing.T) {
	items := []content.ExerciseItem{
		{ID: "a", Kind: content.KindFillIn, Answer: "1"},
		{ID: "b", Kind: content.KindChoice, Answer: "x", Options: []string{"x", "y"}, Steps: []content.Step{
			{Kind: content.KindFillIn, Answer: "s"},
		}},
	}
	p := NewSectionProgress(items)
	p.Statuses[0] = StatusCorrect
	p.Statuses[1] = StatusIncorrect
	p.Guides[1].HelpActive = true
	p.Guides[1].MainAttempts = 2
	p.Guides[1].Steps[0] = StepProgress{Status: StepRevealed, Attempts: 3, Answer: "s"}
	p.Guides[1].StepIndex = 1
	p.ExerciseIndex = 1
	p.MaxExerciseIndex = 1
	p.McqSelections[1] = "y"
	p.refreshScore()

	buf, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back SectionProgress
	if err := json.Unmarshal(buf, &back); err != nil {
		t.Fatal(err)
	}
	back.Reconcile(items)

	if back.ExerciseIndex != 1 || back.MaxExerciseIndex != 1 {
		t.Fatalf("cursor drifted: %+v", back)
	}
	if back.Statuses[0] != StatusCorrect || back.Statuses[1] != StatusIncorrect {
		t.Fatalf("statuses drifted: %v", back.Statuses)
	}
	g := back.Guides[1]
	if !g.HelpActive || g.MainAttempts != 2 || g.StepIndex != 1 ||
		g.Steps[0].Status != StepRevealed || g.Steps[0].Answer != "s" {
		t.Fatalf("guide drifted: %+v", g)
	}
	if back.Score != p.Score {
		t.Fatalf("score must be recomputable: %+v vs %+v", back.Score, p.Score)
	}
}
