// Package alloc implements the tiered buffer allocator: size-classed
// ownership of byte payloads with inline, pinned, and pooled tiers, and a
// periodic sweeper that reclaims pooled buffers whose logical owner has
// gone away or gone quiet. Registered with hk the same way
// xaction/demand.XactDemandBase registers its own periodic maintenance.
package alloc

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/hk"
)

// Tier identifies which allocation strategy produced an OwnedBuffer.
type Tier int

const (
	TierEmpty Tier = iota
	TierInline
	TierPinned
	TierPooled
)

const (
	// DefaultCleanupIntervalMs is how often the sweeper walks the pooled
	// buffer tracker looking for reclaimable entries.
	DefaultCleanupIntervalMs = 15_000
	// DefaultUnusedThresholdMs is how long a pooled buffer can sit idle
	// before the sweeper reclaims it even if its owner is still alive.
	DefaultUnusedThresholdMs = 45_000

	chunkSize = 64
)

var emptySentinel = []byte{}

// OwnedBuffer is a tagged union over the three allocation tiers described in
// inline, pinned, and pooled. The zero value is not valid;
// construct one via Allocator.Allocate.
type OwnedBuffer struct {
	tier     Tier
	data     []byte
	released atomic.Bool
	pool     *pool
	entry    *pooledEntry
}

// Bytes returns the owned slice. Valid until Release is called.
func (b *OwnedBuffer) Bytes() []byte { return b.data }

// Tier reports which allocation strategy produced this buffer.
func (b *OwnedBuffer) Tier() Tier { return b.tier }

// Release returns a pooled buffer to its pool, zeroing it first; it is a
// no-op for inline/pinned/empty buffers and a no-op on the second and later
// calls for any buffer (the release handle fires exactly once).
func (b *OwnedBuffer) Release() {
	if b.tier != TierPooled {
		return
	}
	if !b.released.CAS(false, true) {
		return
	}
	b.pool.release(b.entry)
}

// pooledEntry tracks a single rented buffer: its last-access time and a weak
// handle allowing the sweeper to tell whether the logical owner (the
// OwnedBuffer) has been garbage collected.
type pooledEntry struct {
	buf        []byte
	lastAccess atomic.Int64
	owner      *weakRef
	returned   atomic.Bool
}

// weakRef is a tiny substitute for a true weak pointer (Go has none prior to
// runtime/weak): it is set by Allocate and cleared by Release, so the
// sweeper can treat "owner cleared" the same way it would treat a GC'd weak
// reference (endorses an arena/slab/generation-counter
// replacement for this exact pattern).
type weakRef struct {
	mu    sync.Mutex
	alive bool
}

func (w *weakRef) clear() {
	w.mu.Lock()
	w.alive = false
	w.mu.Unlock()
}

func (w *weakRef) isAlive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

type pool struct {
	mu      sync.Mutex
	free    [][]byte
	tracked map[*pooledEntry]struct{}
	clock   cmn.Clock
}

func newPool(clock cmn.Clock) *pool {
	return &pool{tracked: make(map[*pooledEntry]struct{}, 64), clock: clock}
}

func (p *pool) rent(size int) *pooledEntry {
	p.mu.Lock()
	var buf []byte
	for i := len(p.free) - 1; i >= 0; i-- {
		if cap(p.free[i]) >= size {
			buf = p.free[i][:size]
			p.free = append(p.free[:i], p.free[i+1:]...)
			break
		}
	}
	if buf == nil {
		buf = make([]byte, size)
	}
	entry := &pooledEntry{buf: buf, owner: &weakRef{alive: true}}
	entry.lastAccess.Store(p.clock.NowMs())
	p.tracked[entry] = struct{}{}
	p.mu.Unlock()
	return entry
}

func (p *pool) release(e *pooledEntry) {
	if !e.returned.CAS(false, true) {
		return
	}
	cmn.ZeroBytes(e.buf)
	e.owner.clear()
	p.mu.Lock()
	delete(p.tracked, e)
	p.free = append(p.free, e.buf)
	p.mu.Unlock()
}

// sweep reclaims entries whose owner is gone or whose last access predates
// the unused threshold. It never panics outward ("the sweeper
// never throws outward"): a defensive recover keeps a bug in a future
// extension of this loop from taking down the hk dispatcher goroutine.
func (p *pool) sweep(unusedThresholdMs int64) (reclaimed int) {
	defer func() { _ = recover() }()

	now := p.clock.NowMs()
	p.mu.Lock()
	var stale []*pooledEntry
	for e := range p.tracked {
		if !e.owner.isAlive() || now-e.lastAccess.Load() >= unusedThresholdMs {
			stale = append(stale, e)
		}
	}
	p.mu.Unlock()

	for _, e := range stale {
		p.release(e)
		reclaimed++
	}
	return reclaimed
}

// Allocator implements the C4 selection rule: inline for small payloads,
// pinned (chunked copy) for medium payloads, pooled for large ones, with a
// shared empty sentinel for zero-length input.
type Allocator struct {
	StackAllocLimit int
	HeapAllocLimit  int

	pool  *pool
	clock cmn.Clock
	hkOn  atomic.Bool
	hkTag string

	cleanupIntervalMs int64
	unusedThresholdMs int64
	traceLogs         bool
}

// Option configures an Allocator at construction time.
type Option func(*Allocator)

func WithClock(c cmn.Clock) Option { return func(a *Allocator) { a.clock = c } }

// WithTraceLogs gates the sweeper's per-sweep trace logging, wired from
// the ambient EnableTraceLogs configuration knob.
func WithTraceLogs(enabled bool) Option { return func(a *Allocator) { a.traceLogs = enabled } }

// WithSweepIntervals overrides the default sweep cadence and idle threshold,
// letting a caller thread config-loaded values in instead of the
// DefaultCleanupIntervalMs/DefaultUnusedThresholdMs constants.
func WithSweepIntervals(cleanupIntervalMs, unusedThresholdMs int64) Option {
	return func(a *Allocator) {
		a.cleanupIntervalMs = cleanupIntervalMs
		a.unusedThresholdMs = unusedThresholdMs
	}
}

// New builds an Allocator with the given size-class thresholds and starts
// its reclamation sweep registered with the shared housekeeper under a
// unique name so multiple Allocators in one process don't collide.
func New(stackLimit, heapLimit int, opts ...Option) *Allocator {
	a := &Allocator{
		StackAllocLimit:   stackLimit,
		HeapAllocLimit:    heapLimit,
		clock:             cmn.RealClock,
		cleanupIntervalMs: DefaultCleanupIntervalMs,
		unusedThresholdMs: DefaultUnusedThresholdMs,
	}
	for _, o := range opts {
		o(a)
	}
	a.pool = newPool(a.clock)
	a.hkTag = fmt.Sprintf("alloc-sweep-%p", a)
	a.startSweeper(a.cleanupIntervalMs, a.unusedThresholdMs)
	return a
}

func (a *Allocator) startSweeper(intervalMs, unusedThresholdMs int64) {
	if !a.hkOn.CAS(false, true) {
		return
	}
	hk.Reg(a.hkTag, func() time.Duration {
		n := a.pool.sweep(unusedThresholdMs)
		if n > 0 && (a.traceLogs || glog.V(4)) {
			glog.Infof("alloc: swept %d pooled buffer(s)", n)
		}
		return time.Duration(intervalMs) * time.Millisecond
	}, time.Duration(intervalMs)*time.Millisecond)
}

// Stop deregisters the sweeper. Idempotent.
func (a *Allocator) Stop() {
	if a.hkOn.CAS(true, false) {
		hk.Unreg(a.hkTag)
	}
}

// Allocate copies src into a freshly owned buffer, selecting a tier by
// length.
func (a *Allocator) Allocate(src []byte) *OwnedBuffer {
	n := len(src)
	switch {
	case n == 0:
		return &OwnedBuffer{tier: TierEmpty, data: emptySentinel}
	case n <= a.StackAllocLimit:
		buf := make([]byte, n)
		copy(buf, src)
		return &OwnedBuffer{tier: TierInline, data: buf}
	case n <= a.HeapAllocLimit:
		buf := make([]byte, n)
		cmn.CopyChunked(buf, src, chunkSize)
		return &OwnedBuffer{tier: TierPinned, data: buf}
	default:
		entry := a.pool.rent(n)
		copy(entry.buf, src)
		entry.lastAccess.Store(a.clock.NowMs())
		return &OwnedBuffer{tier: TierPooled, data: entry.buf, pool: a.pool, entry: entry}
	}
}

// Touch refreshes a pooled buffer's last-access timestamp so the sweeper's
// unused-threshold check doesn't reclaim a buffer that is still in active
// use without having been explicitly re-allocated.
func (b *OwnedBuffer) Touch(clock cmn.Clock) {
	if b.tier == TierPooled {
		b.entry.lastAccess.Store(clock.NowMs())
	}
}
