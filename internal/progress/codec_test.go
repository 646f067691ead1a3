package progress

import (
	"context"
	"testing"

	"github.com/lessonlab/practice-engine/internal/practice"
)

func TestRecordRoundTrip(t *testing.T) {
	rec := practice.NewProgressRecord()
	rec.Open = "practice"
	rec.Completed["practice"] = true
	sp := &practice.SectionProgress{
		Order:            []int{1, 0},
		ExerciseIndex:    1,
		MaxExerciseIndex: 1,
		Statuses:         []practice.ItemStatus{practice.StatusCorrect, practice.StatusIncorrect},
		Guides:           make([]practice.GuideState, 2),
		FibAnswers:       []string{"42", ""},
		McqSelections:    []string{"", "b"},
	}
	sp.Score = practice.ComputeScore(sp.Statuses, 0)
	rec.Sections["practice"] = sp

	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if back == nil {
		t.Fatal("round trip read as absent")
	}
	if back.Open != "practice" || !back.Completed["practice"] {
		t.Fatalf("top-level fields drifted: %+v", back)
	}
	got := back.Sections["practice"]
	if got == nil || got.ExerciseIndex != 1 || got.Statuses[1] != practice.StatusIncorrect ||
		got.FibAnswers[0] != "42" || got.McqSelections[1] != "b" {
		t.Fatalf("section drifted: %+v", got)
	}
	if got.Score != sp.Score {
		t.Fatalf("score drifted: %+v vs %+v", got.Score, sp.Score)
	}
}

func TestDecodeLegacyFlatBlob(t *testing.T) {
	// v0: single-section fields at the top level, no version, no map
	legacy := []byte(`{
		"exercise_index": 2,
		"max_exercise_index": 3,
		"statuses": ["correct","incorrect","unattempted","unattempted"],
		"fib_answers": ["1","x","",""],
		"mcq_selections": ["","","",""],
		"order": [2,0,3,1],
		"score": {"answered_this_session":2,"answered_previous":0,"skill_score":25,"correct_so_far":1}
	}`)
	rec, err := DecodeRecord(legacy)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("legacy blob read as absent")
	}
	sp, ok := rec.Sections[LegacySectionKey]
	if !ok {
		t.Fatalf("legacy section not lifted: %+v", rec.Sections)
	}
	if sp.ExerciseIndex != 2 || sp.MaxExerciseIndex != 3 || len(sp.Statuses) != 4 {
		t.Fatalf("legacy fields lost: %+v", sp)
	}

	AdoptLegacySection(rec, "intro")
	if _, still := rec.Sections[LegacySectionKey]; still {
		t.Fatal("legacy key must not survive adoption")
	}
	if rec.Sections["intro"] != sp {
		t.Fatal("section not re-keyed under the first section id")
	}

	// write-once: re-encoding emits only the current shape
	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, legacyAgain := back.Sections[LegacySectionKey]; legacyAgain {
		t.Fatal("legacy shape re-emitted")
	}
	if back.Sections["intro"] == nil {
		t.Fatal("migrated section lost on re-encode")
	}
}

func TestDecodeCorruptBlobReadsAsAbsent(t *testing.T) {
	for _, data := range [][]byte{
		[]byte(`{"v":1,"exercise_sections"`), // truncated
		[]byte(`"just a string"`),
		[]byte(`{"unrelated": true}`), // neither versioned nor legacy
		[]byte(`[]`),
	} {
		rec, err := DecodeRecord(data)
		if err != nil {
			t.Fatalf("%s: corrupt data must not error: %v", data, err)
		}
		if rec != nil {
			t.Fatalf("%s: corrupt data must read as absent, got %+v", data, rec)
		}
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	got, err := st.Load(ctx, "l1", "u1")
	if err != nil || got != nil {
		t.Fatalf("empty store: %v %v", got, err)
	}

	rec := practice.NewProgressRecord()
	rec.Open = "s1"
	rec.Sections["s1"] = &practice.SectionProgress{
		Order:    []int{0},
		Statuses: []practice.ItemStatus{practice.StatusCorrect},
	}
	if err := st.Save(ctx, "l1", "u1", rec); err != nil {
		t.Fatal(err)
	}
	got, err = st.Load(ctx, "l1", "u1")
	if err != nil || got == nil {
		t.Fatalf("load: %v %v", got, err)
	}
	if got.Open != "s1" || got.Sections["s1"].Statuses[0] != practice.StatusCorrect {
		t.Fatalf("drifted: %+v", got)
	}
}
