package envelope

import (
	"encoding/binary"

	"github.com/nalix-go/nalix/envelope/speck"
)

const speckBlockSize = speck.BlockSize // 16

// speckKeystreamBlocks writes len(dst)-worth of 16-byte Speck-CTR keystream
// blocks, starting at counter offset `from`. Per "Speck CTR
// block = Speck(key, (nonce_low_u64 + counter_low) || (nonce_high_u64 +
// carry)) little-endian" — the low word carries the counter, and the high
// word absorbs the carry on overflow of the low addition.
func speckKeystreamBlocks(key, nonce []byte, from uint64, dst []byte) {
	c := speck.New(key)
	nonceLow := binary.LittleEndian.Uint64(nonce[0:8])
	nonceHigh := binary.LittleEndian.Uint64(nonce[8:16])

	var in, out [16]byte
	for off := 0; off < len(dst); off += speckBlockSize {
		low := nonceLow + from
		carry := uint64(0)
		if low < nonceLow { // unsigned overflow
			carry = 1
		}
		binary.LittleEndian.PutUint64(in[0:8], low)
		binary.LittleEndian.PutUint64(in[8:16], nonceHigh+carry)
		c.Encrypt(out[:], in[:])

		end := off + speckBlockSize
		if end > len(dst) {
			copy(dst[off:], out[:len(dst)-off])
		} else {
			copy(dst[off:end], out[:])
		}
		from++
	}
}

func speckXOR(key, nonce []byte, seq uint32, dst, src []byte) error {
	ks := make([]byte, len(src))
	speckKeystreamBlocks(key, nonce, uint64(seq), ks)
	for i := range src {
		dst[i] = src[i] ^ ks[i]
	}
	return nil
}

func speckStream(key, nonce []byte, seq uint32, dst, src []byte) error {
	return speckXOR(key, nonce, seq, dst, src)
}

// speckBlockMACKey reserves the first two keystream blocks (32 bytes, two
// 16-byte Speck blocks) as a one-time Poly1305 key, the same
// reserve-a-keystream-prefix idiom the Salsa20 and XTEA AEAD suites use.
func speckBlockMACKey(key, nonce []byte, seq uint32) [32]byte {
	var macKey [32]byte
	speckKeystreamBlocks(key, nonce, uint64(seq), macKey[:])
	return macKey
}

func speckpoly1305Seal(key, nonce []byte, seq uint32, plaintext, aad []byte) ([]byte, []byte, error) {
	macKey := speckBlockMACKey(key, nonce, seq)
	defer zeroArr32(&macKey)

	ct := make([]byte, len(plaintext))
	if err := speckXOR(key, nonce, seq+2, ct, plaintext); err != nil {
		return nil, nil, err
	}
	tag := polyMAC(&macKey, aad, ct)
	return ct, tag[:], nil
}

func speckpoly1305Open(key, nonce []byte, seq uint32, ciphertext, tag, aad []byte) ([]byte, bool) {
	macKey := speckBlockMACKey(key, nonce, seq)
	defer zeroArr32(&macKey)

	want := polyMAC(&macKey, aad, ciphertext)
	if !constTimeEqual(want[:], tag) {
		return nil, false
	}
	pt := make([]byte, len(ciphertext))
	if err := speckXOR(key, nonce, seq+2, pt, ciphertext); err != nil {
		return nil, false
	}
	return pt, true
}
