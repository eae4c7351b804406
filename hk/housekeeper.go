// Package hk provides a mechanism for registering cleanup and maintenance
// callbacks which are invoked at specified intervals. It is the shared
// periodic-task registrar used by the tiered allocator's sweeper
// (connection idle reaping runs on the timing wheel, not here); a single dedicated goroutine
// drives every registered callback so the process has one place to look for
// "what fires periodically", instead of one ad-hoc ticker per subsystem.
package hk

import (
	"container/heap"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Func is a housekeeping callback. Its return value is the duration until
// the next time it should fire.
type Func func() time.Duration

type request struct {
	name    string
	fn      Func
	initial time.Duration
	unreg   bool
}

type timer struct {
	name string
	fn   Func
	at   time.Time
	idx  int
}

type timerHeap []*timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].idx = i; h[j].idx = j }
func (h *timerHeap) Push(x interface{}) {
	t := x.(*timer)
	t.idx = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.idx = -1
	*h = old[:n-1]
	return t
}

type cleaner struct {
	mu      sync.Mutex
	h       timerHeap
	byName  map[string]*timer
	reqCh   chan request
	stopCh  chan struct{}
	running atomic.Bool
}

var gc *cleaner

func init() { initCleaner() }

// initCleaner (re)starts the housekeeper's dispatcher goroutine. Exported
// indirectly via init() for production use; tests call it directly between
// cases to get a clean registry (grounded on housekeeper_test.go's
// BeforeEach(func() { initCleaner() })).
func initCleaner() {
	if gc != nil && gc.running.Load() {
		close(gc.stopCh)
	}
	c := &cleaner{
		byName: make(map[string]*timer, 16),
		reqCh:  make(chan request, 16),
		stopCh: make(chan struct{}),
	}
	heap.Init(&c.h)
	gc = c
	gc.running.Store(true)
	go gc.run()
}

// Reg registers a named callback. If initial is given, the callback's first
// invocation is delayed by that duration; otherwise it fires almost
// immediately (on the dispatcher's next pass). Re-registering an existing
// name replaces it.
func Reg(name string, fn Func, initial ...time.Duration) {
	var in time.Duration
	if len(initial) > 0 {
		in = initial[0]
	}
	gc.reqCh <- request{name: name, fn: fn, initial: in}
}

// Unreg removes a previously registered callback; a no-op if unknown.
func Unreg(name string) {
	gc.reqCh <- request{name: name, unreg: true}
}

func (c *cleaner) run() {
	wake := time.NewTimer(time.Hour)
	defer wake.Stop()
	for {
		c.mu.Lock()
		if len(c.h) > 0 {
			d := time.Until(c.h[0].at)
			if d < 0 {
				d = 0
			}
			resetTimer(wake, d)
		} else {
			resetTimer(wake, time.Hour)
		}
		c.mu.Unlock()

		select {
		case <-c.stopCh:
			return
		case req := <-c.reqCh:
			c.handleRequest(req)
		case <-wake.C:
			c.fireDue()
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (c *cleaner) handleRequest(req request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byName[req.name]; ok {
		c.removeLocked(existing)
	}
	if req.unreg {
		return
	}
	t := &timer{name: req.name, fn: req.fn, at: time.Now().Add(req.initial)}
	c.byName[req.name] = t
	heap.Push(&c.h, t)
}

func (c *cleaner) removeLocked(t *timer) {
	delete(c.byName, t.name)
	if t.idx >= 0 && t.idx < len(c.h) && c.h[t.idx] == t {
		heap.Remove(&c.h, t.idx)
	}
}

func (c *cleaner) fireDue() {
	now := time.Now()
	var due []*timer
	c.mu.Lock()
	for len(c.h) > 0 && !c.h[0].at.After(now) {
		t := heap.Pop(&c.h).(*timer)
		due = append(due, t)
	}
	c.mu.Unlock()

	for _, t := range due {
		next := t.fn()
		c.mu.Lock()
		// the callback may have Unreg'd itself or been replaced while it
		// ran; only reschedule if it is still the registered timer for
		// its name (identity compare, same discard-stale-task discipline
		// the wheel uses for its own bucket entries).
		if cur, ok := c.byName[t.name]; !ok || cur != t {
			c.mu.Unlock()
			continue
		}
		t.at = time.Now().Add(next)
		heap.Push(&c.h, t)
		c.mu.Unlock()
	}
}
