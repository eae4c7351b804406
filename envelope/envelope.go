// Package envelope implements the unified AEAD/stream-CTR envelope cipher
// dispatcher: `header || nonce || ciphertext [|| tag]`,
// with algorithm dispatch over a tagged suite table and CSPRNG-generated
// nonces. Byte-level primitives are wired to golang.org/x/crypto wherever
// the ecosystem has one (ChaCha20, Salsa20, XTEA, Poly1305); Speck has no
// mainstream Go package, so it is implemented locally in envelope/speck.
package envelope

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/nalix-go/nalix/cmn"
)

const op = "envelope"

// Encrypt produces a self-describing envelope for plaintext under the given
// suite. If seq is omitted a random 32-bit sequence is drawn from the
// CSPRNG (default). The nonce is always freshly randomized.
func Encrypt(key, plaintext []byte, suiteID SuiteID, aad []byte, seq ...uint32) ([]byte, error) {
	desc, ok := suites[suiteID]
	if !ok {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindUnsupported, "unsupported suite", nil)
	}
	if !validKeyLen(desc, len(key)) {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "invalid key length", nil)
	}

	s := randSeq()
	if len(seq) > 0 {
		s = seq[0]
	}

	nonce := make([]byte, desc.nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "nonce generation failed", err)
	}

	flags := byte(0)
	if desc.aead {
		flags |= FlagAEAD
	}
	hdr := Header{Version: version0, SuiteID: suiteID, Flags: flags, NonceLen: byte(desc.nonceLen), Seq: s}

	var hdrBuf [HeaderSize]byte
	hdr.Marshal(hdrBuf[:])

	if desc.aead {
		authAAD := append(append([]byte{}, hdrBuf[:]...), nonce...)
		authAAD = append(authAAD, aad...)
		ct, tag, err := desc.seal(key, nonce, s, plaintext, authAAD)
		if err != nil {
			return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "seal failed", err)
		}
		out := make([]byte, 0, HeaderSize+len(nonce)+len(ct)+TagSize)
		out = append(out, hdrBuf[:]...)
		out = append(out, nonce...)
		out = append(out, ct...)
		out = append(out, tag...)
		return out, nil
	}

	ct := make([]byte, len(plaintext))
	if err := desc.stream(key, nonce, s, ct, plaintext); err != nil {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "stream cipher failed", err)
	}
	out := make([]byte, 0, HeaderSize+len(nonce)+len(ct))
	out = append(out, hdrBuf[:]...)
	out = append(out, nonce...)
	out = append(out, ct...)
	return out, nil
}

// Decrypt parses and opens an envelope. Any parse or authentication failure
// returns ok=false with a nil/zeroed plaintext (failure
// semantics) rather than an error, so callers can't accidentally branch on
// err instead of the explicit ok flag.
func Decrypt(key, env, aad []byte) (ok bool, plaintext []byte) {
	hdr, err := ParseHeader(env)
	if err != nil {
		return false, nil
	}
	desc := suites[hdr.SuiteID]
	if !validKeyLen(desc, len(key)) {
		return false, nil
	}
	if len(env) < HeaderSize+int(hdr.NonceLen) {
		return false, nil
	}
	if desc.aead && len(env) < HeaderSize+int(hdr.NonceLen)+TagSize {
		return false, nil
	}

	nonce := env[HeaderSize : HeaderSize+int(hdr.NonceLen)]
	rest := env[HeaderSize+int(hdr.NonceLen):]

	if desc.aead {
		if len(rest) < TagSize {
			return false, nil
		}
		ct := rest[:len(rest)-TagSize]
		tag := rest[len(rest)-TagSize:]
		authAAD := append(append([]byte{}, env[:HeaderSize+int(hdr.NonceLen)]...), aad...)
		pt, good := desc.open(key, nonce, hdr.Seq, ct, tag, authAAD)
		if !good {
			cmn.ZeroBytes(pt)
			return false, nil
		}
		return true, pt
	}

	pt := make([]byte, len(rest))
	if err := desc.stream(key, nonce, hdr.Seq, pt, rest); err != nil {
		cmn.ZeroBytes(pt)
		return false, nil
	}
	return true, pt
}

func validKeyLen(desc suiteDescriptor, n int) bool {
	for _, l := range desc.keyLens {
		if l == n {
			return true
		}
	}
	return false
}

func randSeq() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}
