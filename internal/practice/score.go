package practice

import "math"

// ComputeScore derives a snapshot from the status list. answeredPrev
// is carried from prior persisted sessions (always 0 today, kept in
// the record for forward compatibility).
func ComputeScore(statuses []ItemStatus, answeredPrev int) ScoreSnapshot {
	total := len(statuses)
	answered, correct := 0, 0
	for _, st := range statuses {
		if st != StatusUnattempted {
			answered++
		}
		if st == StatusCorrect {
			correct++
		}
	}
	score := 0
	if total > 0 {
		score = int(math.Round(100 * float64(correct) / float64(total)))
	}
	return ScoreSnapshot{
		AnsweredThisSession: answered,
		AnsweredPrevious:    answeredPrev,
		SkillScore:          score,
		CorrectSoFar:        correct,
	}
}

// refreshScore swaps in a recomputed snapshot only when a field
// actually changed, so unchanged scores don't trigger redundant
// persistence writes.
func (p *SectionProgress) refreshScore() bool {
	next := ComputeScore(p.Statuses, p.Score.AnsweredPrevious)
	if next == p.Score {
		return false
	}
	p.Score = next
	return true
}
