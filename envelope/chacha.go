package envelope

import (
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/chacha20poly1305"
)

// chacha20Stream implements the CHACHA20 suite: the initial block counter
// is set to seq ("ChaCha20 family: initial block counter =
// seq (low 32 bits)").
func chacha20Stream(key, nonce []byte, seq uint32, dst, src []byte) error {
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return err
	}
	c.SetCounter(seq)
	c.XORKeyStream(dst, src)
	return nil
}

func chacha20poly1305Seal(key, nonce []byte, seq uint32, plaintext, aad []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, aad)
	ct := sealed[:len(sealed)-aead.Overhead()]
	tag := sealed[len(sealed)-aead.Overhead():]
	return ct, tag, nil
}

func chacha20poly1305Open(key, nonce []byte, seq uint32, ciphertext, tag, aad []byte) ([]byte, bool) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, false
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	pt, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, false
	}
	return pt, true
}
