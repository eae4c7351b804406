package envelope

import (
	"encoding/binary"

	"github.com/nalix-go/nalix/cmn"
)

// HeaderSize is the fixed, little-endian envelope header:
// magic[4] | version:u8 | suite_id:u8 | flags:u8 | nonce_len:u8 | seq:u32.
const HeaderSize = 12

// TagSize is the Poly1305 authentication tag size appended to AEAD
// envelopes.
const TagSize = 16

var magic = [4]byte{'N', 'A', 'L', 'X'}

const version0 = 1

// Flag bits in the header's flags byte.
const (
	FlagAEAD byte = 1 << 0
)

// Header is the parsed form of an envelope's fixed 12-byte prefix.
type Header struct {
	Version  byte
	SuiteID  SuiteID
	Flags    byte
	NonceLen byte
	Seq      uint32
}

// Marshal writes the header's wire form into dst (must be at least
// HeaderSize bytes) and returns the number of bytes written.
func (h Header) Marshal(dst []byte) int {
	cmn.Assert(len(dst) >= HeaderSize)
	copy(dst[0:4], magic[:])
	dst[4] = h.Version
	dst[5] = byte(h.SuiteID)
	dst[6] = h.Flags
	dst[7] = h.NonceLen
	binary.LittleEndian.PutUint32(dst[8:12], h.Seq)
	return HeaderSize
}

// ParseHeader validates and decodes the fixed header prefix of an envelope.
func ParseHeader(b []byte) (Header, error) {
	const op = "envelope.ParseHeader"
	if len(b) < HeaderSize {
		return Header{}, cmn.NewErr(op, cmn.KindValidation, "envelope shorter than header", nil)
	}
	if b[0] != magic[0] || b[1] != magic[1] || b[2] != magic[2] || b[3] != magic[3] {
		return Header{}, cmn.NewErr(op, cmn.KindValidation, "magic mismatch", nil)
	}
	h := Header{
		Version:  b[4],
		SuiteID:  SuiteID(b[5]),
		Flags:    b[6],
		NonceLen: b[7],
		Seq:      binary.LittleEndian.Uint32(b[8:12]),
	}
	if h.Version != version0 {
		return Header{}, cmn.NewErr(op, cmn.KindValidation, "unknown version", nil)
	}
	suite, ok := suites[h.SuiteID]
	if !ok {
		return Header{}, cmn.NewErr(op, cmn.KindUnsupported, "unsupported suite id", nil)
	}
	if int(h.NonceLen) != suite.nonceLen {
		return Header{}, cmn.NewErr(op, cmn.KindValidation, "nonce_len disagrees with suite", nil)
	}
	wantAEAD := suite.aead
	gotAEAD := h.Flags&FlagAEAD != 0
	if wantAEAD != gotAEAD {
		return Header{}, cmn.NewErr(op, cmn.KindValidation, "flags disagree with suite AEAD-ness", nil)
	}
	return h, nil
}
