package practice

import (
	"math/rand"
	"testing"
)

func TestBuildRetrySetBalance(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	statuses := []ItemStatus{
		StatusCorrect, StatusIncorrect, StatusCorrect, StatusIncorrect,
		StatusCorrect, StatusCorrect,
	}
	for i := 0; i < 50; i++ {
		set := BuildRetrySet(statuses, rnd)
		if len(set) != 4 {
			t.Fatalf("want |W|+min(|W|,|C|)=4, got %v", set)
		}
		if !containsAll(set, 1, 3) {
			t.Fatalf("every incorrect index must be included: %v", set)
		}
		refreshers := 0
		for _, idx := range set {
			if statuses[idx] == StatusCorrect {
				refreshers++
			}
		}
		if refreshers != 2 {
			t.Fatalf("want 2 refreshers, got %d in %v", refreshers, set)
		}
		for j := 1; j < len(set); j++ {
			if set[j] <= set[j-1] {
				t.Fatalf("set not sorted/unique: %v", set)
			}
		}
	}
}

func TestBuildRetrySetMoreWrongThanRight(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	statuses := []ItemStatus{StatusIncorrect, StatusIncorrect, StatusIncorrect, StatusCorrect}
	set := BuildRetrySet(statuses, rnd)
	if len(set) != 4 {
		t.Fatalf("want all wrong plus the single correct: %v", set)
	}
}

func TestBuildRetrySetNoWrong(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	if set := BuildRetrySet([]ItemStatus{StatusCorrect, StatusCorrect}, rnd); set != nil {
		t.Fatalf("nothing to retry, got %v", set)
	}
}

func containsAll(set []int, want ...int) bool {
	have := map[int]bool{}
	for _, v := range set {
		have[v] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}
