package xnet

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/nalix-go/nalix/alloc"
	"github.com/nalix-go/nalix/packet"
)

func newTestCodec(t *testing.T) *packet.Codec {
	t.Helper()
	a := alloc.New(1<<12, 1<<20)
	t.Cleanup(a.Stop)
	return packet.NewCodec(a, 64*1024, 512)
}

func TestConnSendAndReadPacketRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	codec := newTestCodec(t)

	serverConn := NewConn(1, server, codec, 8)
	clientConn := NewConn(2, client, codec, 8)
	defer serverConn.Close()
	defer clientConn.Close()

	p, err := codec.NewChecksummed(1, 1, 0, 0, packet.Flags(0), 0, []byte("ping"))
	if err != nil {
		t.Fatalf("NewChecksummed: %v", err)
	}

	if err := serverConn.Send(p); err != nil {
		t.Fatalf("Send: %v", err)
	}

	done := make(chan struct{})
	var got *packet.Packet
	var readErr error
	go func() {
		got, readErr = clientConn.ReadPacket()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadPacket")
	}
	if readErr != nil {
		t.Fatalf("ReadPacket: %v", readErr)
	}
	defer got.Release()
	if string(got.Payload()) != "ping" {
		t.Fatalf("Payload() = %q, want %q", got.Payload(), "ping")
	}
}

func TestReadPacketRejectsOversizedLengthPrefixWithoutAllocating(t *testing.T) {
	server, client := net.Pipe()
	codec := newTestCodec(t)

	serverConn := NewConn(1, server, codec, 8)
	defer serverConn.Close()
	defer client.Close()

	var lenBuf [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(codec.PacketSizeLimit())+1)

	writeErrCh := make(chan error, 1)
	go func() {
		_, err := client.Write(lenBuf[:])
		writeErrCh <- err
	}()

	readDone := make(chan struct{})
	var readErr error
	go func() {
		_, readErr = serverConn.ReadPacket()
		close(readDone)
	}()

	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadPacket to reject an oversized length prefix")
	}
	if readErr == nil {
		t.Fatal("expected ReadPacket to reject a length prefix above the packet size limit")
	}
	if err := <-writeErrCh; err != nil {
		t.Fatalf("write length prefix: %v", err)
	}
}

func TestSendAfterCloseReturnsDisposedError(t *testing.T) {
	server, client := net.Pipe()
	codec := newTestCodec(t)
	conn := NewConn(1, server, codec, 1)
	defer client.Close()

	conn.Close()

	p, err := codec.NewChecksummed(1, 1, 0, 0, packet.Flags(0), 0, []byte("x"))
	if err != nil {
		t.Fatalf("NewChecksummed: %v", err)
	}
	if err := conn.Send(p); err == nil {
		t.Fatal("expected Send on a closed connection to error")
	}
}
