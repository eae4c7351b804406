// Package packet implements the packet pipeline: an
// immutable packet value whose payload is owned through alloc.OwnedBuffer,
// with LZ4 compression and C5 envelope encryption applied as ordered,
// value-producing stages rather than in-place mutation.
package packet

import (
	"encoding/binary"

	"github.com/nalix-go/nalix/alloc"
	"github.com/nalix-go/nalix/crc"
)

// Flags is the packet-level bit flag set. COMPRESSED and ENCRYPTED track
// pipeline stage completion; they are never both set before compression
// runs (compression must precede encryption on egress).
type Flags uint8

const (
	FlagCompressed Flags = 1 << 0
	FlagEncrypted  Flags = 1 << 1
)

// Wire header layout: op_code(2) | number(2) | checksum(4) | timestamp(8) |
// type(1) | flags(1) | priority(1), little-endian throughout.
const (
	HeaderSize     = 19
	checksumOffset = 4
)

const op = "packet"

// Packet is an immutable value: every pipeline operation below returns a
// new *Packet and releases the input's OwnedBuffer rather than mutating it.
type Packet struct {
	opCode    uint16
	number    uint16
	checksum  uint32
	timestamp uint64
	typ       byte
	flags     Flags
	priority  byte
	payload   *alloc.OwnedBuffer
}

func (p *Packet) OpCode() uint16    { return p.opCode }
func (p *Packet) Number() uint16    { return p.number }
func (p *Packet) Checksum() uint32  { return p.checksum }
func (p *Packet) Timestamp() uint64 { return p.timestamp }
func (p *Packet) Type() byte        { return p.typ }
func (p *Packet) Flags() Flags      { return p.flags }
func (p *Packet) Priority() byte    { return p.priority }
func (p *Packet) Payload() []byte   { return p.payload.Bytes() }

// IsValidChecksum reports whether the stored checksum matches the CRC-32 of
// the current payload.
func (p *Packet) IsValidChecksum() bool {
	return p.checksum == crc.Checksum32(p.Payload())
}

// Release returns the packet's payload buffer to its owning tier.
func (p *Packet) Release() {
	if p.payload != nil {
		p.payload.Release()
	}
}

// ValidateChecksum checks a raw wire buffer in place: the stored u32 at
// checksumOffset must equal the CRC-32 of the bytes following the header.
func ValidateChecksum(raw []byte) bool {
	if len(raw) < HeaderSize {
		return false
	}
	stored := binary.LittleEndian.Uint32(raw[checksumOffset : checksumOffset+4])
	return stored == crc.Checksum32(raw[HeaderSize:])
}

func clonePacket(p *Packet, payload *alloc.OwnedBuffer, flags Flags) *Packet {
	return &Packet{
		opCode:    p.opCode,
		number:    p.number,
		checksum:  p.checksum,
		timestamp: p.timestamp,
		typ:       p.typ,
		flags:     flags,
		priority:  p.priority,
		payload:   payload,
	}
}
