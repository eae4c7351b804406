package envelope

import (
	"encoding/binary"

	"golang.org/x/crypto/xtea"
)

const xteaBlockSize = 8

// xteaKey16 applies the key reduction (out[i] = key[i] XOR
// key[i+16]) for 32-byte keys; 16-byte keys pass through unchanged.
func xteaKey16(key []byte) [16]byte {
	var k [16]byte
	if len(key) == 32 {
		for i := 0; i < 16; i++ {
			k[i] = key[i] ^ key[i+16]
		}
	} else {
		copy(k[:], key)
	}
	return k
}

// xteaKeystreamBlocks writes nBlocks 8-byte XTEA-CTR keystream blocks into
// dst, starting at counter offset `from` (block =
// XTEA(key16, nonce_u64 + counter) little-endian).
func xteaKeystreamBlocks(key, nonce []byte, from uint64, dst []byte) error {
	k := xteaKey16(key)
	defer zero16(&k)
	c, err := xtea.NewCipher(k[:])
	if err != nil {
		return err
	}
	nonceVal := binary.LittleEndian.Uint64(nonce)
	var ctrBlock [8]byte
	for off := 0; off < len(dst); off += xteaBlockSize {
		binary.LittleEndian.PutUint64(ctrBlock[:], nonceVal+from)
		end := off + xteaBlockSize
		if end > len(dst) {
			var full [8]byte
			c.Encrypt(full[:], ctrBlock[:])
			copy(dst[off:], full[:len(dst)-off])
		} else {
			c.Encrypt(dst[off:end], ctrBlock[:])
		}
		from++
	}
	return nil
}

func xteaXOR(key, nonce []byte, seq uint32, dst, src []byte) error {
	ks := make([]byte, len(src))
	if err := xteaKeystreamBlocks(key, nonce, uint64(seq), ks); err != nil {
		return err
	}
	for i := range src {
		dst[i] = src[i] ^ ks[i]
	}
	return nil
}

func xteaStream(key, nonce []byte, seq uint32, dst, src []byte) error {
	return xteaXOR(key, nonce, seq, dst, src)
}

// xteaBlockMACKey reserves one 8-byte keystream block (at counter `seq`,
// zero-padded to 32 bytes) as a one-time Poly1305 key, following the same
// reserve-a-keystream-prefix idiom used for the Salsa20/Speck AEAD suites.
// Payload encryption then starts at counter seq+1.
func xteaBlockMACKey(key, nonce []byte, seq uint32) [32]byte {
	var block [8]byte
	_ = xteaKeystreamBlocks(key, nonce, uint64(seq), block[:])
	var macKey [32]byte
	copy(macKey[:8], block[:])
	return macKey
}

func xteapoly1305Seal(key, nonce []byte, seq uint32, plaintext, aad []byte) ([]byte, []byte, error) {
	macKey := xteaBlockMACKey(key, nonce, seq)
	defer zeroArr32(&macKey)

	ct := make([]byte, len(plaintext))
	if err := xteaXOR(key, nonce, seq+1, ct, plaintext); err != nil {
		return nil, nil, err
	}
	tag := polyMAC(&macKey, aad, ct)
	return ct, tag[:], nil
}

func xteapoly1305Open(key, nonce []byte, seq uint32, ciphertext, tag, aad []byte) ([]byte, bool) {
	macKey := xteaBlockMACKey(key, nonce, seq)
	defer zeroArr32(&macKey)

	want := polyMAC(&macKey, aad, ciphertext)
	if !constTimeEqual(want[:], tag) {
		return nil, false
	}
	pt := make([]byte, len(ciphertext))
	if err := xteaXOR(key, nonce, seq+1, pt, ciphertext); err != nil {
		return nil, false
	}
	return pt, true
}

func zero16(b *[16]byte) {
	for i := range b {
		b[i] = 0
	}
}
