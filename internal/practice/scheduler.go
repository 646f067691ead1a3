package practice

import (
	"sync"
	"time"
)

// Feedback pacing delays. The state machine never sleeps; these feed
// the scheduler as deferred transitions.
const (
	advanceDelay     = 1000 * time.Millisecond // correct main answer -> next item
	stepAdvanceDelay = 1000 * time.Millisecond // correct step answer -> next step
	stepResetDelay   = 1000 * time.Millisecond // re-failed walked item -> fresh steps
	revealHold       = 2000 * time.Millisecond // auto-revealed step stays on screen
	revealFade       = 1000 * time.Millisecond // then fades before the cursor moves
	flashShow        = 1000 * time.Millisecond // wrong choice-step flash
	flashFade        = 1000 * time.Millisecond
)

// Clock abstracts timer creation so tests can drive a virtual clock
// instead of waiting on the wall clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock schedules on time.AfterFunc.
func RealClock() Clock { return realClock{} }

// slotKey identifies the owner of a pending deferred transition: one
// main-question slot per item (step == -1) and one slot per step.
type slotKey struct {
	item int
	step int
}

func mainSlot(item int) slotKey { return slotKey{item: item, step: -1} }
func stepSlot(i, s int) slotKey { return slotKey{item: i, step: s} }

// scheduler keeps at most one pending transition per slot. Scheduling
// a slot cancels its predecessor, and every pending transition carries
// a generation stamp that is re-checked under the session lock before
// the mutation applies, so a late timer never applies a stale change.
type scheduler struct {
	clock  Clock
	mu     sync.Mutex
	gens   map[slotKey]uint64
	timers map[slotKey]Timer
}

func newScheduler(clock Clock) *scheduler {
	return &scheduler{
		clock:  clock,
		gens:   map[slotKey]uint64{},
		timers: map[slotKey]Timer{},
	}
}

// schedule arms a deferred transition for key. fire runs on the clock's
// goroutine only if the slot has not been re-scheduled or cancelled in
// the meantime; the caller's fn must take the session lock itself.
func (sc *scheduler) schedule(key slotKey, d time.Duration, fn func()) {
	sc.mu.Lock()
	if t, ok := sc.timers[key]; ok {
		t.Stop()
	}
	sc.gens[key]++
	gen := sc.gens[key]
	sc.timers[key] = sc.clock.AfterFunc(d, func() {
		if !sc.claim(key, gen) {
			return
		}
		fn()
	})
	sc.mu.Unlock()
}

// claim consumes the pending slot iff gen is still current.
func (sc *scheduler) claim(key slotKey, gen uint64) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.gens[key] != gen {
		return false
	}
	delete(sc.timers, key)
	sc.gens[key]++
	return true
}

// cancel drops the pending transition for key, if any. A timer that
// already fired but has not claimed its slot becomes a no-op.
func (sc *scheduler) cancel(key slotKey) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.timers[key]; ok {
		t.Stop()
		delete(sc.timers, key)
	}
	sc.gens[key]++
}

// cancelItem drops the main slot and every step slot of one item.
func (sc *scheduler) cancelItem(item int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for key, t := range sc.timers {
		if key.item == item {
			t.Stop()
			delete(sc.timers, key)
			sc.gens[key]++
		}
	}
}

func (sc *scheduler) cancelAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for key, t := range sc.timers {
		t.Stop()
		delete(sc.timers, key)
		sc.gens[key]++
	}
}

// ManualClock is the test clock: timers accumulate and fire in
// deadline order when Advance moves virtual time forward.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// Advance moves virtual time by d, firing due timers in deadline order
// outside the clock lock (fired callbacks take the session lock).
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	deadline := c.now
	c.mu.Unlock()

	for {
		t := c.popDue(deadline)
		if t == nil {
			return
		}
		t.fn()
	}
}

func (c *ManualClock) popDue(deadline time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	best := -1
	for i, t := range c.timers {
		if t.stopped || t.at.After(deadline) {
			continue
		}
		if best == -1 || t.at.Before(c.timers[best].at) ||
			(t.at.Equal(c.timers[best].at) && t.seq < c.timers[best].seq) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	t := c.timers[best]
	t.stopped = true
	c.timers = append(c.timers[:best], c.timers[best+1:]...)
	return t
}
