package envelope

import (
	"crypto/subtle"
	"encoding/binary"

	"golang.org/x/crypto/poly1305"
)

// constTimeEqual reports whether a and b are equal in constant time,
// returning false (not panicking) on a length mismatch — parse-time length
// checks happen earlier, so a mismatch here just means "not authentic".
func constTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// polyMAC mirrors the RFC 7539-style Poly1305 AEAD construction used by
// golang.org/x/crypto/chacha20poly1305 and the reference tmthrgd
// implementation: aad and ciphertext are each zero-padded out to a multiple
// of 16 bytes before their 8-byte little-endian lengths are appended, so an
// attacker can't trade length for content across the aad/ciphertext
// boundary.
func polyMAC(key *[32]byte, aad, ciphertext []byte) [16]byte {
	var buf []byte
	buf = append(buf, aad...)
	buf = append(buf, make([]byte, pad16(len(aad)))...)
	buf = append(buf, ciphertext...)
	buf = append(buf, make([]byte, pad16(len(ciphertext)))...)

	var lens [16]byte
	binary.LittleEndian.PutUint64(lens[0:8], uint64(len(aad)))
	binary.LittleEndian.PutUint64(lens[8:16], uint64(len(ciphertext)))
	buf = append(buf, lens[:]...)

	var tag [16]byte
	poly1305.Sum(&tag, buf, key)
	return tag
}

func pad16(n int) int {
	if n%16 == 0 {
		return 0
	}
	return 16 - (n % 16)
}
