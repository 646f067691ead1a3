package practice

import (
	"math/rand"
	"sort"
)

// BuildRetrySet composes the rebalanced re-attempt subset: every
// incorrect index, plus min(|incorrect|, |correct|) refresher indices
// drawn uniformly without replacement from the correct ones. Retrying
// only the misses would let a learner game completion by failing then
// immediately succeeding; the refreshers force re-demonstration.
// The result is sorted ascending.
func BuildRetrySet(statuses []ItemStatus, rnd *rand.Rand) []int {
	var wrong, right []int
	for i, st := range statuses {
		switch st {
		case StatusIncorrect:
			wrong = append(wrong, i)
		case StatusCorrect:
			right = append(right, i)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	k := len(wrong)
	if len(right) < k {
		k = len(right)
	}
	rnd.Shuffle(len(right), func(i, j int) { right[i], right[j] = right[j], right[i] })
	set := append(append([]int{}, wrong...), right[:k]...)
	sort.Ints(set)
	return set
}
