package practice

import "testing"

func TestComputeScore(t *testing.T) {
	cases := []struct {
		name     string
		statuses []ItemStatus
		want     ScoreSnapshot
	}{
		{
			name:     "empty set",
			statuses: nil,
			want:     ScoreSnapshot{},
		},
		{
			name:     "half correct",
			statuses: []ItemStatus{StatusCorrect, StatusIncorrect, StatusCorrect, StatusUnattempted},
			want:     ScoreSnapshot{AnsweredThisSession: 3, SkillScore: 50, CorrectSoFar: 2},
		},
		{
			name:     "rounding",
			statuses: []ItemStatus{StatusCorrect, StatusUnattempted, StatusUnattempted},
			want:     ScoreSnapshot{AnsweredThisSession: 1, SkillScore: 33, CorrectSoFar: 1},
		},
		{
			name:     "two thirds rounds up",
			statuses: []ItemStatus{StatusCorrect, StatusCorrect, StatusIncorrect},
			want:     ScoreSnapshot{AnsweredThisSession: 3, SkillScore: 67, CorrectSoFar: 2},
		},
	}
	for _, c := range cases {
		if got := ComputeScore(c.statuses, 0); got != c.want {
			t.Errorf("%s: got %+v want %+v", c.name, got, c.want)
		}
	}
}

func TestRefreshScoreSkipsRedundantSwap(t *testing.T) {
	p := NewSectionProgress(fillInItems("1", "2"))
	if p.refreshScore() {
		t.Fatal("fresh snapshot should already match")
	}
	p.Statuses[0] = StatusCorrect
	if !p.refreshScore() {
		t.Fatal("status change must produce a new snapshot")
	}
	if p.Score.SkillScore != 50 || p.Score.CorrectSoFar != 1 {
		t.Fatalf("unexpected snapshot: %+v", p.Score)
	}
	if p.refreshScore() {
		t.Fatal("no change, no swap")
	}
}
