package packet

import (
	"encoding/binary"

	"github.com/nalix-go/nalix/cmn"
)

// Encode renders p as its wire form: HeaderSize bytes of header fields
// (little-endian throughout) followed by the payload. The byte-at-a-time
// header layout mirrors the insHeader/insUint64/insInt64 style of building
// a fixed header by field offset rather than struct-casting the buffer.
func (p *Packet) Encode() []byte {
	payload := p.Payload()
	out := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(out[0:2], p.opCode)
	binary.LittleEndian.PutUint16(out[2:4], p.number)
	binary.LittleEndian.PutUint32(out[4:8], p.checksum)
	binary.LittleEndian.PutUint64(out[8:16], p.timestamp)
	out[16] = p.typ
	out[17] = byte(p.flags)
	out[18] = p.priority
	copy(out[HeaderSize:], payload)
	return out
}

// Decode parses a complete wire-form record (header plus payload, exactly
// len(raw) bytes) into a Packet owned by c's allocator.
func (c *Codec) Decode(raw []byte) (*Packet, error) {
	if len(raw) < HeaderSize {
		return nil, cmn.NewErr(op+".Decode", cmn.KindValidation, "record shorter than header size", nil)
	}
	opCode := binary.LittleEndian.Uint16(raw[0:2])
	number := binary.LittleEndian.Uint16(raw[2:4])
	checksum := binary.LittleEndian.Uint32(raw[4:8])
	timestamp := binary.LittleEndian.Uint64(raw[8:16])
	typ := raw[16]
	flags := Flags(raw[17])
	priority := raw[18]
	return c.New(opCode, number, checksum, timestamp, typ, flags, priority, raw[HeaderSize:])
}
