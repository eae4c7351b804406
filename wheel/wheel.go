// Package wheel implements the hashed timing wheel: a single-consumer
// tick loop that force-closes connections idle for longer than
// idle_timeout_ms, the same periodic-idle-detection shape as a duration
// callback driving a dedicated ticking loop, generalized to a bucketed
// wheel instead of one timer per watched entity.
package wheel

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/nalix-go/nalix/cmn"
)

// Entry is the minimal view of a connection the wheel needs: an identity to
// key `active` by, its last-ping timestamp, and a force-close callback.
// hub.Connection implements this.
type Entry interface {
	ID() uint64
	LastPingMs() int64
	ForceClose(reason error)
}

type task struct {
	entry  Entry
	rounds int64
}

type bucket struct {
	mu    sync.Mutex
	tasks []*task
}

func (b *bucket) push(t *task) {
	b.mu.Lock()
	b.tasks = append(b.tasks, t)
	b.mu.Unlock()
}

func (b *bucket) drain() []*task {
	b.mu.Lock()
	tasks := b.tasks
	b.tasks = nil
	b.mu.Unlock()
	return tasks
}

// Wheel is the hashed timing wheel: one task per live connection, bucketed
// by the tick at which its current timeout epoch expires.
type Wheel struct {
	tickMs        int64
	wheelSize     int64
	idleTimeoutMs int64

	buckets     []bucket
	active      sync.Map // id -> *task, authoritative live-task index
	tickCounter atomic.Uint64
	taskPool    sync.Pool

	clock     cmn.Clock
	stopCh    *cmn.StopCh
	running   atomic.Bool
	traceLogs bool
}

// Option configures a Wheel at construction time.
type Option func(*Wheel)

// WithTraceLogs gates the wheel's per-eviction trace logging, wired from
// the ambient EnableTraceLogs configuration knob.
func WithTraceLogs(enabled bool) Option { return func(w *Wheel) { w.traceLogs = enabled } }

// New constructs a Wheel. wheelSize should be a power of two; it's
// accepted as-is and taken mod'd regardless.
func New(tickMs int64, wheelSize int64, idleTimeoutMs int64, clock cmn.Clock, opts ...Option) *Wheel {
	if clock == nil {
		clock = cmn.RealClock
	}
	w := &Wheel{
		tickMs:        tickMs,
		wheelSize:     wheelSize,
		idleTimeoutMs: idleTimeoutMs,
		buckets:       make([]bucket, wheelSize),
		clock:         clock,
	}
	w.taskPool.New = func() interface{} { return &task{} }
	for _, o := range opts {
		o(w)
	}
	return w
}

// Register inserts e into the wheel if it isn't already tracked (a no-op
// otherwise).
func (w *Wheel) Register(e Entry) {
	if _, loaded := w.active.Load(e.ID()); loaded {
		return
	}
	ticks := w.ticksFor(w.idleTimeoutMs)
	cur := w.tickCounter.Load()
	t := w.taskPool.Get().(*task)
	t.entry = e
	t.rounds = ticks / w.wheelSize

	if _, loaded := w.active.LoadOrStore(e.ID(), t); loaded {
		w.taskPool.Put(t)
		return
	}
	bi := (cur + uint64(ticks)) % uint64(w.wheelSize)
	w.buckets[bi].push(t)
}

// Unregister removes e's task from the active index; any copy still
// sitting in a wheel bucket is discarded as stale the next time it's
// dequeued.
func (w *Wheel) Unregister(id uint64) {
	w.active.Delete(id)
}

func (w *Wheel) ticksFor(idleMs int64) int64 {
	t := idleMs / w.tickMs
	if t < 1 {
		t = 1
	}
	return t
}

// Activate starts the tick loop on a dedicated goroutine; idempotent.
func (w *Wheel) Activate() {
	if !w.running.CAS(false, true) {
		return
	}
	w.stopCh = cmn.NewStopCh()
	go w.run()
}

// Deactivate stops the tick loop and drains all buckets back to the task
// pool without closing any connection.
func (w *Wheel) Deactivate() {
	if !w.running.CAS(true, false) {
		return
	}
	w.stopCh.Close()
	for i := range w.buckets {
		for _, t := range w.buckets[i].drain() {
			w.taskPool.Put(t)
		}
	}
}

func (w *Wheel) run() {
	ticker := time.NewTicker(time.Duration(w.tickMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh.Listen():
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Wheel) tick() {
	cur := w.tickCounter.Load()
	b := &w.buckets[cur%uint64(w.wheelSize)]
	for _, t := range b.drain() {
		live, ok := w.active.Load(t.entry.ID())
		if !ok || live.(*task) != t {
			w.taskPool.Put(t)
			continue
		}
		if t.rounds > 0 {
			t.rounds--
			b.push(t)
			continue
		}

		idle := w.clock.NowMs() - t.entry.LastPingMs()
		if idle >= w.idleTimeoutMs {
			w.active.Delete(t.entry.ID())
			if w.traceLogs {
				glog.Infof("wheel: connection %d idle for %dms, force-closing", t.entry.ID(), idle)
			}
			t.entry.ForceClose(cmn.NewErr("wheel.tick", cmn.KindDisposed, "connection idle timeout", nil))
			w.taskPool.Put(t)
			continue
		}

		remaining := w.ticksFor(w.idleTimeoutMs - idle)
		t.rounds = remaining / w.wheelSize
		nb := (cur + uint64(remaining)) % uint64(w.wheelSize)
		w.buckets[nb].push(t)
	}
	w.tickCounter.Add(1)
}
