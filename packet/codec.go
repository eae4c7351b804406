package packet

import (
	"github.com/nalix-go/nalix/alloc"
	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/crc"
)

// Codec binds the stateless pipeline operations to the tiered allocator and
// to the two size knobs from that govern them: PacketSizeLimit
// and CompressMinBytes. It holds no per-packet state and is safe to share
// across goroutines, the same way C4/C5 are stateless collaborators of C1.
type Codec struct {
	allocator        *alloc.Allocator
	packetSizeLimit  int
	compressMinBytes int
}

func NewCodec(allocator *alloc.Allocator, packetSizeLimit, compressMinBytes int) *Codec {
	return &Codec{
		allocator:        allocator,
		packetSizeLimit:  packetSizeLimit,
		compressMinBytes: compressMinBytes,
	}
}

// PacketSizeLimit returns the maximum total wire record size (header plus
// payload) this codec will accept, letting transports bound an
// attacker-controlled length prefix before allocating a read buffer.
func (c *Codec) PacketSizeLimit() int { return c.packetSizeLimit }

// New constructs a packet, copying payloadBytes through the allocator into
// an OwnedBuffer. checksum is stored as given; callers that want it derived
// from the payload should use NewChecksummed.
func (c *Codec) New(opCode, number uint16, checksum uint32, timestamp uint64, typ byte, flags Flags, priority byte, payloadBytes []byte) (*Packet, error) {
	if len(payloadBytes) > c.packetSizeLimit-HeaderSize {
		return nil, cmn.NewErr(op+".New", cmn.KindValidation, "payload exceeds packet size limit", nil)
	}
	return &Packet{
		opCode:    opCode,
		number:    number,
		checksum:  checksum,
		timestamp: timestamp,
		typ:       typ,
		flags:     flags,
		priority:  priority,
		payload:   c.allocator.Allocate(payloadBytes),
	}, nil
}

// NewChecksummed is New with the checksum recomputed from payloadBytes.
func (c *Codec) NewChecksummed(opCode, number uint16, timestamp uint64, typ byte, flags Flags, priority byte, payloadBytes []byte) (*Packet, error) {
	return c.New(opCode, number, crc.Checksum32(payloadBytes), timestamp, typ, flags, priority, payloadBytes)
}

// Clone produces an independent packet with a freshly allocated payload
// copy; the source packet is left untouched.
func (c *Codec) Clone(p *Packet) *Packet {
	return clonePacket(p, c.allocator.Allocate(p.Payload()), p.flags)
}
