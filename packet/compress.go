package packet

import (
	"encoding/binary"

	"github.com/nalix-go/nalix/cmn"
	"github.com/pierrec/lz4/v3"
)

// lz4HeaderSize is the size of the small embedded header this package
// prefixes to every compressed payload: the original (pre-compression)
// length, little-endian, so Decompress can size its output buffer without
// guessing.
const lz4HeaderSize = 4

// Compress encodes p's payload via LZ4 (github.com/pierrec/lz4/v3, the
// same library object storage transfer paths commonly stream bodies
// through). Preconditions:
// payload non-empty, ENCRYPTED clear, payload length >= CompressMinBytes.
// If the encoded form isn't smaller than the original, fails with
// KindNotBeneficial and leaves p untouched.
func (c *Codec) Compress(p *Packet) (*Packet, error) {
	payload := p.Payload()
	if len(payload) == 0 {
		return nil, cmn.NewErr(op+".Compress", cmn.KindValidation, "empty payload", nil)
	}
	if p.flags&FlagEncrypted != 0 {
		return nil, cmn.NewErr(op+".Compress", cmn.KindValidation, "payload already encrypted", nil)
	}
	if len(payload) < c.compressMinBytes {
		return nil, cmn.NewErr(op+".Compress", cmn.KindNotBeneficial, "payload below compression threshold", nil)
	}

	bound := lz4.CompressBlockBound(len(payload))
	buf := make([]byte, lz4HeaderSize+bound)
	binary.LittleEndian.PutUint32(buf[:lz4HeaderSize], uint32(len(payload)))

	var ht [1 << 16]int
	n, err := lz4.CompressBlock(payload, buf[lz4HeaderSize:], ht[:])
	if err != nil {
		return nil, cmn.NewErr(op+".Compress", cmn.KindValidation, "lz4 encode failed", err)
	}
	if n == 0 {
		return nil, cmn.NewErr(op+".Compress", cmn.KindNotBeneficial, "incompressible input", nil)
	}
	encoded := buf[:lz4HeaderSize+n]
	if len(encoded) >= len(payload) {
		return nil, cmn.NewErr(op+".Compress", cmn.KindNotBeneficial, "compressed form not smaller", nil)
	}

	out := clonePacket(p, c.allocator.Allocate(encoded), p.flags|FlagCompressed)
	p.Release()
	return out, nil
}

// Decompress reverses Compress. Preconditions: payload non-empty,
// COMPRESSED set, payload at least lz4HeaderSize long. The embedded
// original-length header is validated for sanity before the LZ4 body is
// expanded into a buffer of exactly that size.
func (c *Codec) Decompress(p *Packet) (*Packet, error) {
	payload := p.Payload()
	if len(payload) == 0 {
		return nil, cmn.NewErr(op+".Decompress", cmn.KindValidation, "empty payload", nil)
	}
	if p.flags&FlagCompressed == 0 {
		return nil, cmn.NewErr(op+".Decompress", cmn.KindValidation, "packet not marked compressed", nil)
	}
	if len(payload) < lz4HeaderSize {
		return nil, cmn.NewErr(op+".Decompress", cmn.KindValidation, "payload shorter than lz4 header", nil)
	}

	origLen := binary.LittleEndian.Uint32(payload[:lz4HeaderSize])
	if origLen == 0 || int(origLen) > c.packetSizeLimit {
		return nil, cmn.NewErr(op+".Decompress", cmn.KindValidation, "corrupt lz4 header", nil)
	}

	decoded := make([]byte, origLen)
	n, err := lz4.UncompressBlock(payload[lz4HeaderSize:], decoded)
	if err != nil {
		return nil, cmn.NewErr(op+".Decompress", cmn.KindValidation, "lz4 decode failed", err)
	}
	if n != int(origLen) {
		return nil, cmn.NewErr(op+".Decompress", cmn.KindValidation, "decoded length mismatch", nil)
	}

	out := clonePacket(p, c.allocator.Allocate(decoded), p.flags&^FlagCompressed)
	p.Release()
	return out, nil
}
