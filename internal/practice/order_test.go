package practice

import (
	"math/rand"
	"testing"

	"github.com/lessonlab/practice-engine/internal/content"
)

func TestBuildOrderIsPermutation(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 7, 50} {
		o := BuildOrder(n, rnd)
		if len(o) != n {
			t.Fatalf("n=%d: got len %d", n, len(o))
		}
		if !validPermutation(o) {
			t.Fatalf("n=%d: not a permutation: %v", n, o)
		}
	}
}

func TestEnsureOrderReuseAndReshuffle(t *testing.T) {
	items := fillInItems("1", "2", "3", "4", "5")
	rnd := rand.New(rand.NewSource(7))

	p := NewSectionProgress(items)
	p.EnsureOrder(len(items), rnd)
	first := append([]int(nil), p.Order...)

	// fresh run: a second open may re-shuffle
	p.EnsureOrder(len(items), rnd)
	if len(p.Order) != len(items) || !validPermutation(p.Order) {
		t.Fatalf("reshuffle broke the permutation: %v", p.Order)
	}

	// any recorded activity locks the order
	p.Statuses[0] = StatusCorrect
	locked := append([]int(nil), p.Order...)
	p.EnsureOrder(len(items), rnd)
	for i := range locked {
		if p.Order[i] != locked[i] {
			t.Fatalf("order changed on a non-fresh run: %v vs %v", p.Order, locked)
		}
	}

	// length mismatch always rebuilds
	p.Order = first[:3]
	p.EnsureOrder(len(items), rnd)
	if len(p.Order) != len(items) || !validPermutation(p.Order) {
		t.Fatalf("mismatched order not rebuilt: %v", p.Order)
	}
}

// fillInItems builds simple no-step fill-in items with the given
// canonical answers.
func fillInItems(answers ...string) []content.ExerciseItem {
	items := make([]content.ExerciseItem, len(answers))
	for i, a := range answers {
		items[i] = content.ExerciseItem{ID: a, Kind: content.KindFillIn, Answer: a}
	}
	return items
}
