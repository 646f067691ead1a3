package practice

import "math/rand"

// BuildOrder returns a uniform Fisher-Yates permutation of [0..n-1].
func BuildOrder(n int, rnd *rand.Rand) []int {
	o := identityOrder(n)
	for i := n - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		o[i], o[j] = o[j], o[i]
	}
	return o
}

// EnsureOrder makes the stored order usable for n items. A stored
// order is reused as long as its length matches and the run has
// recorded activity; a fresh run re-shuffles even when a stale order
// exists. Returns true when the order changed.
func (p *SectionProgress) EnsureOrder(n int, rnd *rand.Rand) bool {
	if len(p.Order) == n && validPermutation(p.Order) && !p.FreshRun() {
		return false
	}
	p.Order = BuildOrder(n, rnd)
	return true
}

func validPermutation(o []int) bool {
	seen := make([]bool, len(o))
	for _, v := range o {
		if v < 0 || v >= len(o) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
