package xnet

import (
	"context"
	"net"

	"github.com/golang/glog"
	"github.com/rs/xid"

	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/envelope"
	"github.com/nalix-go/nalix/hub"
	"github.com/nalix-go/nalix/packet"
	"github.com/nalix-go/nalix/wheel"
)

// Handler processes one decoded packet arriving on conn, within c's
// registered hub.Connection. Returning an error closes the connection.
type Handler func(ctx context.Context, conn *Conn, hc *hub.Connection, p *packet.Packet) error

// ListenerConfig bundles everything Serve needs to accept, frame, and
// register inbound TCP connections.
type ListenerConfig struct {
	Codec          *packet.Codec
	Hub            *hub.Hub
	Wheel          *wheel.Wheel
	SendQueueDepth int
	Algorithm      envelope.SuiteID
	Handle         Handler
}

// connectionID packs a collision-resistant 64-bit identifier, generated
// via rs/xid. An xid is 12 bytes: a 4-byte timestamp, then an 8-byte
// machine-id/pid/counter tail that is what actually varies between IDs
// minted within the same second; folding that tail in (rather than the
// leading, mostly-constant-within-a-second timestamp bytes) is what
// keeps concurrent accepts from colliding.
func connectionID() uint64 {
	id := xid.New()
	b := id.Bytes()
	var v uint64
	for _, x := range b[4:12] {
		v = v<<8 | uint64(x)
	}
	return v
}

// Serve accepts connections on ln until ctx is canceled, spawning one
// reader goroutine per accepted connection.
func Serve(ctx context.Context, ln net.Listener, cfg ListenerConfig) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go acceptOne(ctx, raw, cfg)
	}
}

func acceptOne(ctx context.Context, raw net.Conn, cfg ListenerConfig) {
	id := connectionID()
	conn := NewConn(id, raw, cfg.Codec, cfg.SendQueueDepth)

	remote := remoteEndPoint(raw)
	var placeholderSecret [32]byte
	hc, err := hub.NewConnection(id, remote, cfg.Algorithm, placeholderSecret[:], 0, cmn.RealClock.NowMs())
	if err != nil {
		glog.Errorf("%s: failed to construct connection state for %s: %v", op, remote, err)
		conn.Close()
		return
	}
	hc.OnClose(func(*hub.Connection, error) { conn.Close() })

	if !cfg.Hub.Register(hc) {
		glog.V(3).Infof("%s: hub rejected connection %d at capacity", op, id)
		conn.Close()
		return
	}
	if cfg.Wheel != nil {
		cfg.Wheel.Register(hc)
	}

	for {
		p, err := conn.ReadPacket()
		if err != nil {
			hc.Close(err)
			return
		}
		hc.Touch(cmn.RealClock.NowMs())
		if cfg.Handle == nil {
			p.Release()
			continue
		}
		if err := cfg.Handle(ctx, conn, hc, p); err != nil {
			hc.Close(err)
			return
		}
	}
}

func remoteEndPoint(raw net.Conn) hub.RemoteEndPoint {
	addr, ok := raw.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return hub.RemoteEndPoint{}
	}
	return hub.RemoteEndPoint{IP: addr.IP, Port: uint16(addr.Port)}
}
