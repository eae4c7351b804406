package hub

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.uber.org/atomic"

	"github.com/nalix-go/nalix/cluster"
	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/wheel"
)

// RejectPolicy selects what register does when the hub is at capacity.
type RejectPolicy int

const (
	RejectNew RejectPolicy = iota
	DropOldestAnonymous
)

// Config mirrors the subset of configuration surface the hub
// consumes.
type Config struct {
	MaxConnections            int
	RejectPolicy              RejectPolicy
	MaxUsernameLength         int
	TrimUsernames             bool
	BroadcastBatchSize        int
	ParallelDisconnectDegree  int
	UnregisterDrainMillis     int
	InitialConnectionCapacity int
	InitialUsernameCapacity   int
	EnableTraceLogs           bool
}

const op = "hub"

// Hub is the connection registry. Each internal index has its own lock
// rather than one lock over the whole hub, favoring concurrent map
// primitives over a single global mutex.
type Hub struct {
	cfg   Config
	wheel *wheel.Wheel

	byIDMu sync.RWMutex
	byID   map[uint64]*Connection

	namesMu  sync.Mutex
	nameByID map[uint64]string
	idByName map[string]uint64

	anonMu    sync.Mutex
	anonQueue []uint64

	count    atomic.Int64
	disposed atomic.Bool
}

// New constructs a Hub. w may be nil if idle reaping is handled elsewhere.
func New(cfg Config, w *wheel.Wheel) *Hub {
	connCap := cfg.InitialConnectionCapacity
	if connCap <= 0 {
		connCap = 64
	}
	nameCap := cfg.InitialUsernameCapacity
	if nameCap <= 0 {
		nameCap = 64
	}
	return &Hub{
		cfg:      cfg,
		wheel:    w,
		byID:     make(map[uint64]*Connection, connCap),
		nameByID: make(map[uint64]string, nameCap),
		idByName: make(map[string]uint64, nameCap),
	}
}

// Count returns the current live-connection count.
func (h *Hub) Count() int64 { return h.count.Load() }

// Register admits c into the hub. Returns false if disposed, a duplicate
// ID, or at capacity with no eviction available.
func (h *Hub) Register(c *Connection) bool {
	if h.disposed.Load() {
		return false
	}
	if h.count.Load() >= int64(h.cfg.MaxConnections) {
		if !h.admitByEviction() {
			return false
		}
	}

	h.byIDMu.Lock()
	if _, dup := h.byID[c.ID()]; dup {
		h.byIDMu.Unlock()
		return false
	}
	h.byID[c.ID()] = c
	h.byIDMu.Unlock()

	h.count.Add(1)
	h.anonMu.Lock()
	h.anonQueue = append(h.anonQueue, c.ID())
	h.anonMu.Unlock()

	c.OnClose(func(closed *Connection, _ error) { h.Unregister(closed) })
	if h.wheel != nil {
		h.wheel.Register(c)
	}
	return true
}

// admitByEviction applies RejectPolicy when the hub is at capacity. It
// returns true once a seat has been freed by evicting an anonymous
// connection, and false otherwise.
func (h *Hub) admitByEviction() bool {
	if h.cfg.RejectPolicy != DropOldestAnonymous {
		return false
	}
	for {
		h.anonMu.Lock()
		if len(h.anonQueue) == 0 {
			h.anonMu.Unlock()
			return false
		}
		id := h.anonQueue[0]
		h.anonQueue = h.anonQueue[1:]
		h.anonMu.Unlock()

		h.byIDMu.RLock()
		c, present := h.byID[id]
		h.byIDMu.RUnlock()
		if !present {
			continue // stale: since removed
		}
		h.namesMu.Lock()
		_, named := h.nameByID[id]
		h.namesMu.Unlock()
		if named {
			continue // stale: authenticated since being enqueued
		}

		c.Close(cmn.NewErr(op+".admitByEviction", cmn.KindCapacity, "evicted to make room for new connection", nil)) // fires on_close -> Unregister, freeing a seat
		return true
	}
}

// Unregister removes c from every index. Idempotent and safe to call from
// c's own on_close subscriber.
func (h *Hub) Unregister(c *Connection) {
	h.byIDMu.Lock()
	_, present := h.byID[c.ID()]
	if present {
		delete(h.byID, c.ID())
	}
	h.byIDMu.Unlock()
	if !present {
		return
	}

	h.namesMu.Lock()
	if name, ok := h.nameByID[c.ID()]; ok {
		delete(h.nameByID, c.ID())
		delete(h.idByName, name)
	}
	h.namesMu.Unlock()

	h.count.Add(-1)
	if h.wheel != nil {
		h.wheel.Unregister(c.ID())
	}
	if h.cfg.EnableTraceLogs || glog.V(4) {
		glog.Infof("%s: connection %d unregistered", op, c.ID())
	}
}

// AssociateUsername binds name to c, case-insensitively, evicting any
// prior mapping for either c or name.
func (h *Hub) AssociateUsername(c *Connection, name string) error {
	normalized, err := cluster.NormalizeUsername(name, h.cfg.TrimUsernames, h.cfg.MaxUsernameLength)
	if err != nil {
		return err
	}

	h.namesMu.Lock()
	defer h.namesMu.Unlock()
	if prevID, ok := h.idByName[normalized]; ok && prevID != c.ID() {
		delete(h.nameByID, prevID)
	}
	if oldName, ok := h.nameByID[c.ID()]; ok {
		delete(h.idByName, oldName)
	}
	h.nameByID[c.ID()] = normalized
	h.idByName[normalized] = c.ID()
	return nil
}

func (h *Hub) GetByID(id uint64) (*Connection, bool) {
	h.byIDMu.RLock()
	defer h.byIDMu.RUnlock()
	c, ok := h.byID[id]
	return c, ok
}

func (h *Hub) GetByName(name string) (*Connection, bool) {
	normalized, err := cluster.NormalizeUsername(name, h.cfg.TrimUsernames, h.cfg.MaxUsernameLength)
	if err != nil {
		return nil, false
	}
	h.namesMu.Lock()
	id, ok := h.idByName[normalized]
	h.namesMu.Unlock()
	if !ok {
		return nil, false
	}
	return h.GetByID(id)
}

// List returns a consistent point-in-time snapshot of live connections.
func (h *Hub) List() []*Connection {
	h.byIDMu.RLock()
	defer h.byIDMu.RUnlock()
	out := make([]*Connection, 0, len(h.byID))
	for _, c := range h.byID {
		out = append(out, c)
	}
	return out
}

// SendFunc delivers msg to a single connection.
type SendFunc func(ctx context.Context, c *Connection, msg []byte) error

// Broadcast fans msg out to every live connection, honoring
// BroadcastBatchSize (0 = unbounded). Cancellation short-circuits before
// scheduling new sends; already-scheduled sends are always awaited.
// Per-target failures are logged and do not abort the fan-out.
func (h *Hub) Broadcast(ctx context.Context, msg []byte, send SendFunc) {
	h.broadcastTo(ctx, h.List(), msg, send)
}

// BroadcastWhere is Broadcast restricted to connections matching pred,
// evaluated on the caller's goroutine.
func (h *Hub) BroadcastWhere(ctx context.Context, msg []byte, send SendFunc, pred func(*Connection) bool) {
	all := h.List()
	filtered := all[:0:0]
	for _, c := range all {
		if pred(c) {
			filtered = append(filtered, c)
		}
	}
	h.broadcastTo(ctx, filtered, msg, send)
}

func (h *Hub) broadcastTo(ctx context.Context, targets []*Connection, msg []byte, send SendFunc) {
	batch := h.cfg.BroadcastBatchSize
	if batch <= 0 {
		batch = len(targets)
		if batch == 0 {
			return
		}
	}
	for start := 0; start < len(targets); start += batch {
		if ctx.Err() != nil {
			return
		}
		end := start + batch
		if end > len(targets) {
			end = len(targets)
		}
		var wg sync.WaitGroup
		for _, c := range targets[start:end] {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			go func(c *Connection) {
				defer wg.Done()
				if err := send(ctx, c, msg); err != nil {
					glog.Warningf("%s: broadcast send to %d failed: %v", op, c.ID(), err)
				}
			}(c)
		}
		wg.Wait()
	}
}

// CloseAll disconnects every connection in parallel, capped at
// ParallelDisconnectDegree, waiting up to UnregisterDrainMillis for the
// fan-out to finish before clearing remaining indices regardless.
func (h *Hub) CloseAll(reason error) {
	targets := h.List()
	degree := h.cfg.ParallelDisconnectDegree
	if degree <= 0 {
		degree = len(targets)
	}
	if degree == 0 {
		return
	}
	sem := make(chan struct{}, degree)
	var wg sync.WaitGroup
	for _, c := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *Connection) {
			defer wg.Done()
			defer func() { <-sem }()
			c.Close(reason)
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	if drain := h.cfg.UnregisterDrainMillis; drain > 0 {
		select {
		case <-done:
		case <-time.After(time.Duration(drain) * time.Millisecond):
			glog.Warningf("%s: CloseAll drain of %dms elapsed with connections still closing", op, drain)
		}
	} else {
		<-done
	}

	h.byIDMu.Lock()
	h.byID = make(map[uint64]*Connection, len(h.byID))
	h.byIDMu.Unlock()
	h.namesMu.Lock()
	h.nameByID = make(map[uint64]string)
	h.idByName = make(map[string]uint64)
	h.namesMu.Unlock()
	h.anonMu.Lock()
	h.anonQueue = nil
	h.anonMu.Unlock()
	h.count.Store(0)
}

// Dispose marks the hub as no longer accepting new connections and closes
// everything currently registered.
func (h *Hub) Dispose() {
	h.disposed.Store(true)
	h.CloseAll(nil)
}
