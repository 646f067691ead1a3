package progress

import (
	"encoding/json"

	"github.com/lessonlab/practice-engine/internal/practice"
)

// Wire format. v1 is the sectioned shape; v0 is the historical flat
// single-section blob (no version field, progress fields at top
// level). v0 is recognized on read, upgraded through the chain, and
// never written back.
const currentVersion = 1

// LegacySectionKey marks a v0 section until the caller re-keys it
// under the lesson's first known section id (the codec has no access
// to content).
const LegacySectionKey = "__legacy__"

type wireRecord struct {
	V         int                                  `json:"v"`
	Open      string                               `json:"open,omitempty"`
	Completed map[string]bool                      `json:"completed,omitempty"`
	Sections  map[string]*practice.SectionProgress `json:"exercise_sections,omitempty"`

	// v0 flat fields
	ExerciseIndex    *int                    `json:"exercise_index,omitempty"`
	MaxExerciseIndex int                     `json:"max_exercise_index,omitempty"`
	Statuses         []practice.ItemStatus   `json:"statuses,omitempty"`
	Guides           []practice.GuideState   `json:"guides,omitempty"`
	FibAnswers       []string                `json:"fib_answers,omitempty"`
	McqSelections    []string                `json:"mcq_selections,omitempty"`
	Order            []int                   `json:"order,omitempty"`
	Score            *practice.ScoreSnapshot `json:"score,omitempty"`
}

// EncodeRecord always emits the current version.
func EncodeRecord(rec *practice.ProgressRecord) ([]byte, error) {
	return json.Marshal(wireRecord{
		V:         currentVersion,
		Open:      rec.Open,
		Completed: rec.Completed,
		Sections:  rec.Sections,
	})
}

// DecodeRecord reads a stored blob of any known version. Corrupt or
// unrecognizable data decodes to (nil, nil): malformed persisted state
// is treated as absent, never surfaced (the caller starts fresh).
func DecodeRecord(data []byte) (*practice.ProgressRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, nil
	}
	switch {
	case w.V > currentVersion:
		// a future writer owns this blob; treat as absent rather than
		// misread it
		return nil, nil
	case w.V == currentVersion, w.Sections != nil:
		return upgradeV1(&w), nil
	case w.isLegacy():
		return upgradeV1(upgradeV0(&w)), nil
	default:
		return nil, nil
	}
}

// isLegacy sniffs the v0 flat shape: no sections map, but at least one
// per-section field present at top level.
func (w *wireRecord) isLegacy() bool {
	return w.Sections == nil &&
		(w.ExerciseIndex != nil || w.Statuses != nil || w.Guides != nil || w.Order != nil)
}

// upgradeV0 lifts the flat fields into a one-entry sections map under
// LegacySectionKey.
func upgradeV0(w *wireRecord) *wireRecord {
	sp := &practice.SectionProgress{
		Order:            w.Order,
		MaxExerciseIndex: w.MaxExerciseIndex,
		Statuses:         w.Statuses,
		Guides:           w.Guides,
		FibAnswers:       w.FibAnswers,
		McqSelections:    w.McqSelections,
	}
	if w.ExerciseIndex != nil {
		sp.ExerciseIndex = *w.ExerciseIndex
	}
	if w.Score != nil {
		sp.Score = *w.Score
	}
	return &wireRecord{
		V:        1,
		Open:     LegacySectionKey,
		Sections: map[string]*practice.SectionProgress{LegacySectionKey: sp},
	}
}

func upgradeV1(w *wireRecord) *practice.ProgressRecord {
	rec := practice.NewProgressRecord()
	rec.Open = w.Open
	if w.Completed != nil {
		rec.Completed = w.Completed
	}
	for id, sp := range w.Sections {
		if sp != nil {
			rec.Sections[id] = sp
		}
	}
	return rec
}

// AdoptLegacySection re-keys a migrated v0 section under the first
// known section id of the lesson. Write-once: the legacy key never
// appears in an encoded record again.
func AdoptLegacySection(rec *practice.ProgressRecord, firstSectionID string) {
	sp, ok := rec.Sections[LegacySectionKey]
	if !ok {
		return
	}
	delete(rec.Sections, LegacySectionKey)
	if firstSectionID == "" {
		return
	}
	if _, exists := rec.Sections[firstSectionID]; !exists {
		rec.Sections[firstSectionID] = sp
	}
	if rec.Open == LegacySectionKey {
		rec.Open = firstSectionID
	}
}
