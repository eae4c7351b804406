package envelope

import (
	"encoding/binary"

	"golang.org/x/crypto/salsa20/salsa"
)

const salsaBlockSize = 64 // Salsa20's internal block size (govpn: S20BS)

// salsaKey256 expands a 16-byte key to the 32-byte form the x/crypto
// salsa20/salsa package expects, by duplicating it (a documented simplification:
// true Salsa20/128 uses a distinct "expand 16-byte k" constant set that
// x/crypto's salsa20 packages do not expose). 32-byte keys pass through
// unchanged.
func salsaKey256(key []byte) *[32]byte {
	var k [32]byte
	if len(key) == 32 {
		copy(k[:], key)
	} else {
		copy(k[:16], key)
		copy(k[16:], key)
	}
	return &k
}

// salsaKeystream produces n bytes of Salsa20 keystream starting at block
// offset `seq` ("initial 64-bit counter = seq zero-extended")
// by loading the Salsa20 input block with the 8-byte nonce followed by seq
// as the little-endian 64-bit block counter.
func salsaKeystream(key []byte, nonce []byte, seq uint32, n int) []byte {
	var counter [16]byte
	copy(counter[:8], nonce)
	binary.LittleEndian.PutUint64(counter[8:], uint64(seq))
	buf := make([]byte, n)
	salsa.XORKeyStream(buf, buf, &counter, salsaKey256(key))
	return buf
}

func salsa20Stream(key, nonce []byte, seq uint32, dst, src []byte) error {
	ks := salsaKeystream(key, nonce, seq, len(src))
	for i := range src {
		dst[i] = src[i] ^ ks[i]
	}
	return nil
}

// salsa20poly1305Seal authenticates under Salsa20 keystream the same way
// govpn's Peer.EthProcess/PktProcess does: the first 32 bytes of keystream
// become a one-time Poly1305 key, and the payload is encrypted starting
// immediately after that reserved prefix.
func salsa20poly1305Seal(key, nonce []byte, seq uint32, plaintext, aad []byte) ([]byte, []byte, error) {
	ks := salsaKeystream(key, nonce, seq, salsaBlockSize+len(plaintext))
	var macKey [32]byte
	copy(macKey[:], ks[:32])
	defer zeroArr32(&macKey)

	ct := make([]byte, len(plaintext))
	for i := range plaintext {
		ct[i] = plaintext[i] ^ ks[salsaBlockSize+i]
	}
	tag := polyMAC(&macKey, aad, ct)
	return ct, tag[:], nil
}

func salsa20poly1305Open(key, nonce []byte, seq uint32, ciphertext, tag, aad []byte) ([]byte, bool) {
	ks := salsaKeystream(key, nonce, seq, salsaBlockSize+len(ciphertext))
	var macKey [32]byte
	copy(macKey[:], ks[:32])
	defer zeroArr32(&macKey)

	want := polyMAC(&macKey, aad, ciphertext)
	if !constTimeEqual(want[:], tag) {
		return nil, false
	}

	pt := make([]byte, len(ciphertext))
	for i := range ciphertext {
		pt[i] = ciphertext[i] ^ ks[salsaBlockSize+i]
	}
	return pt, true
}

func zeroArr32(a *[32]byte) {
	for i := range a {
		a[i] = 0
	}
}
