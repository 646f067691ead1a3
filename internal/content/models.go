package content

// Kind is the answer shape of an exercise or remediation step.
type Kind string

const (
	KindChoice Kind = "choice"  // pick one of Options
	KindFillIn Kind = "fill_in" // free-text entry
)

// Step is a remediation sub-question shown after a wrong main answer.
// Same shape as an item, scoped to one parent and one position.
type Step struct {
	Kind      Kind     `json:"kind" yaml:"kind"`
	PromptRef string   `json:"prompt_ref,omitempty" yaml:"prompt_ref"`
	Answer    string   `json:"answer" yaml:"answer"`
	Options   []string `json:"options,omitempty" yaml:"options"`
}

// ExerciseItem is one top-level practice question. Read-only to the
// practice core; owned by the lesson catalog.
type ExerciseItem struct {
	ID        string   `json:"id" yaml:"id"`
	Kind      Kind     `json:"kind" yaml:"kind"`
	PromptRef string   `json:"prompt_ref,omitempty" yaml:"prompt_ref"`
	Answer    string   `json:"answer" yaml:"answer"`
	Options   []string `json:"options,omitempty" yaml:"options"`
	Steps     []Step   `json:"steps,omitempty" yaml:"steps"`
}

// Section is one practice group inside a lesson.
type Section struct {
	ID    string         `json:"id" yaml:"id"`
	Title string         `json:"title,omitempty" yaml:"title"`
	Items []ExerciseItem `json:"items" yaml:"items"`
}

type Lesson struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title,omitempty" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`

	CreatedAt int64 `json:"created_at,omitempty" yaml:"-"`
}

// FirstSectionID returns the key legacy single-section progress blobs
// are migrated under.
func (l Lesson) FirstSectionID() string {
	if len(l.Sections) == 0 {
		return ""
	}
	return l.Sections[0].ID
}

// SectionByID returns the section and true when present.
func (l Lesson) SectionByID(id string) (Section, bool) {
	for _, s := range l.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Answerable reports whether an item can accept a submission at all.
// Items with an empty canonical answer, or choice items with no
// options, render as "nothing to answer" and never reach the evaluator.
func (it ExerciseItem) Answerable() bool {
	if it.Answer == "" {
		return false
	}
	if it.Kind == KindChoice && len(it.Options) == 0 {
		return false
	}
	return true
}

// Answerable mirrors ExerciseItem.Answerable for steps.
func (st Step) Answerable() bool {
	if st.Answer == "" {
		return false
	}
	if st.Kind == KindChoice && len(st.Options) == 0 {
		return false
	}
	return true
}
