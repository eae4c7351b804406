// Package hub implements the connection hub: a thread-safe registry of
// live connections with username binding, bounded capacity with an
// eviction policy, and fan-out broadcast. The registry-map-plus-
// subscriber-callbacks shape follows fsprungroup's mutex-protected
// name->handle map with Reg/Unreg, generalized to per-structure locks
// instead of one lock over the whole hub, and to a bidirectional
// id<->username index.
package hub

import (
	"net"
	"strconv"
	"sync"

	"go.uber.org/atomic"

	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/envelope"
)

// RemoteEndPoint is an IPv4/IPv6 address plus port.
type RemoteEndPoint struct {
	IP   net.IP
	Port uint16
}

func (r RemoteEndPoint) String() string {
	return net.JoinHostPort(r.IP.String(), strconv.Itoa(int(r.Port)))
}

// Connection is a long-lived accepted connection. Its secret is mutated
// under a dedicated per-connection mutex; everything else that
// changes after construction (last-ping, permission level, close state)
// is a plain atomic.
type Connection struct {
	id              uint64
	remote          RemoteEndPoint
	algorithm       envelope.SuiteID
	permissionLevel atomic.Int32
	lastPingMs      atomic.Int64

	secretMu sync.Mutex
	secret   [32]byte

	closeOnce   sync.Once
	closed      atomic.Bool
	closeSubsMu sync.Mutex
	closeSubs   []func(*Connection, error)
}

// NewConnection constructs a registered-but-not-yet-hub-attached
// connection. secret must be exactly 32 bytes.
func NewConnection(id uint64, remote RemoteEndPoint, algorithm envelope.SuiteID, secret []byte, permissionLevel int32, nowMs int64) (*Connection, error) {
	c := &Connection{id: id, remote: remote, algorithm: algorithm}
	if err := c.SetSecret(secret); err != nil {
		return nil, err
	}
	c.permissionLevel.Store(permissionLevel)
	c.lastPingMs.Store(nowMs)
	return c, nil
}

func (c *Connection) ID() uint64                    { return c.id }
func (c *Connection) RemoteEndPoint() RemoteEndPoint { return c.remote }
func (c *Connection) Algorithm() envelope.SuiteID   { return c.algorithm }
func (c *Connection) PermissionLevel() int32        { return c.permissionLevel.Load() }
func (c *Connection) SetPermissionLevel(v int32)    { c.permissionLevel.Store(v) }
func (c *Connection) LastPingMs() int64             { return c.lastPingMs.Load() }
func (c *Connection) Touch(nowMs int64)             { c.lastPingMs.Store(nowMs) }
func (c *Connection) IsClosed() bool                { return c.closed.Load() }

// SetSecret copies a new 32-byte secret under the connection's dedicated
// mutex, as requires.
func (c *Connection) SetSecret(secret []byte) error {
	if len(secret) != 32 {
		return cmn.NewErr("hub.Connection.SetSecret", cmn.KindValidation, "secret must be exactly 32 bytes", nil)
	}
	c.secretMu.Lock()
	copy(c.secret[:], secret)
	c.secretMu.Unlock()
	return nil
}

// Secret returns a copy of the current secret.
func (c *Connection) Secret() [32]byte {
	c.secretMu.Lock()
	defer c.secretMu.Unlock()
	return c.secret
}

// OnClose registers a close subscriber. Subscribers are invoked, in
// registration order, strictly before Close returns — the hub's own
// unregister subscriber relies on this to observe register -> on_close ->
// unregister atomically per connection.
func (c *Connection) OnClose(fn func(*Connection, error)) {
	c.closeSubsMu.Lock()
	c.closeSubs = append(c.closeSubs, fn)
	c.closeSubsMu.Unlock()
}

// Close is idempotent: only the first call fires subscribers.
func (c *Connection) Close(reason error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeSubsMu.Lock()
		subs := c.closeSubs
		c.closeSubsMu.Unlock()
		for _, fn := range subs {
			fn(c, reason)
		}
	})
}

// ForceClose satisfies wheel.Entry; the timing wheel calls this when a
// connection has been idle past its timeout.
func (c *Connection) ForceClose(reason error) { c.Close(reason) }
