// Package xnet is the framed socket layer: it owns the actual byte-level
// record framing over a net.Conn (a 4-byte little-endian length prefix
// followed by a packet.Codec-encoded record) and the send/receive loops
// that move packet.Packet values on and off the wire. The dedicated
// sender goroutine draining a queued channel, with the caller's Send
// simply enqueuing, follows the same split as Stream's sendLoop/cmplLoop
// pair (one goroutine drains a work queue and writes, a second drains
// completions) generalized here to a single conn-local send queue.
package xnet

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/golang/glog"

	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/packet"
)

const lengthPrefixSize = 4

const op = "xnet"

// Conn wraps a net.Conn with packet framing and an asynchronous send
// queue. ReadPacket is meant to be called from a single reader goroutine;
// Send may be called concurrently from any number of goroutines.
type Conn struct {
	id     uint64
	raw    net.Conn
	codec  *packet.Codec
	sendCh chan *packet.Packet
	stopCh *cmn.StopCh
	wg     sync.WaitGroup
}

// NewConn wraps raw, starting a dedicated send loop with a queue depth of
// sendQueueDepth. Callers must eventually call Close.
func NewConn(id uint64, raw net.Conn, codec *packet.Codec, sendQueueDepth int) *Conn {
	c := &Conn{
		id:     id,
		raw:    raw,
		codec:  codec,
		sendCh: make(chan *packet.Packet, sendQueueDepth),
		stopCh: cmn.NewStopCh(),
	}
	c.wg.Add(1)
	go c.sendLoop()
	return c
}

func (c *Conn) ID() uint64          { return c.id }
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

// Send enqueues p for asynchronous transmission, releasing it once sent
// or dropped. Returns a capacity error without blocking if the send queue
// is full, rather than applying back-pressure to the caller.
func (c *Conn) Send(p *packet.Packet) error {
	if c.stopCh.IsClosed() {
		p.Release()
		return cmn.NewErr(op+".Send", cmn.KindDisposed, "connection closed", nil)
	}
	select {
	case c.sendCh <- p:
		return nil
	case <-c.stopCh.Listen():
		p.Release()
		return cmn.NewErr(op+".Send", cmn.KindDisposed, "connection closed", nil)
	default:
		p.Release()
		return cmn.NewErr(op+".Send", cmn.KindCapacity, "send queue full", nil)
	}
}

func (c *Conn) sendLoop() {
	defer c.wg.Done()
	for {
		select {
		case p := <-c.sendCh:
			c.writeOne(p)
		case <-c.stopCh.Listen():
			for {
				select {
				case p := <-c.sendCh:
					p.Release()
				default:
					return
				}
			}
		}
	}
}

func (c *Conn) writeOne(p *packet.Packet) {
	defer p.Release()
	raw := p.Encode()
	var lenBuf [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
	if _, err := c.raw.Write(lenBuf[:]); err != nil {
		glog.Warningf("%s: write length prefix to conn %d: %v", op, c.id, err)
		return
	}
	if _, err := c.raw.Write(raw); err != nil {
		glog.Warningf("%s: write record to conn %d: %v", op, c.id, err)
	}
}

// ReadPacket blocks for exactly one framed record and decodes it. Callers
// typically loop this from a single per-connection reader goroutine.
func (c *Conn) ReadPacket() (*packet.Packet, error) {
	var lenBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(c.raw, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > uint32(c.codec.PacketSizeLimit()) {
		return nil, cmn.NewErr(op+".ReadPacket", cmn.KindValidation, "record length prefix exceeds packet size limit", nil)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.raw, buf); err != nil {
		return nil, err
	}
	return c.codec.Decode(buf)
}

// Close stops the send loop and closes the underlying socket. Safe to
// call more than once.
func (c *Conn) Close() error {
	c.stopCh.Close()
	err := c.raw.Close()
	c.wg.Wait()
	return err
}
