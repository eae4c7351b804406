package envelope

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: version0, SuiteID: ChaCha20Poly1305, Flags: FlagAEAD, NonceLen: 12, Seq: 0xDEADBEEF}
	var buf [HeaderSize]byte
	h.Marshal(buf[:])

	got, err := ParseHeader(buf[:])
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestChaCha20Poly1305EncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	plaintext := []byte("hello")

	env, err := Encrypt(key, plaintext, ChaCha20Poly1305, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	wantLen := HeaderSize + 12 + len(plaintext) + TagSize
	if len(env) != wantLen {
		t.Fatalf("envelope length = %d, want %d", len(env), wantLen)
	}

	ok, pt := Decrypt(key, env, nil)
	if !ok {
		t.Fatal("decrypt failed on an untampered envelope")
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("got %q, want %q", pt, plaintext)
	}

	tampered := append([]byte{}, env...)
	tampered[len(tampered)-1] ^= 0xFF
	ok, pt = Decrypt(key, tampered, nil)
	if ok {
		t.Fatal("decrypt succeeded on a tampered tag")
	}
	if pt != nil {
		t.Fatal("plaintext not nil after failed decrypt")
	}
}

func TestAllSuitesRoundTrip(t *testing.T) {
	plaintext := bytes.Repeat([]byte("the quick brown fox "), 10)
	aad := []byte("connection-id-7")

	cases := []struct {
		name string
		id   SuiteID
		key  []byte
	}{
		{"chacha20", ChaCha20, make([]byte, 32)},
		{"chacha20poly1305", ChaCha20Poly1305, make([]byte, 32)},
		{"salsa20-16", Salsa20, make([]byte, 16)},
		{"salsa20-32", Salsa20, make([]byte, 32)},
		{"salsa20poly1305", Salsa20Poly1305, make([]byte, 32)},
		{"speck", Speck, make([]byte, 16)},
		{"speckpoly1305", SpeckPoly1305, make([]byte, 16)},
		{"xtea-16", XTEA, make([]byte, 16)},
		{"xtea-32-reduced", XTEA, make([]byte, 32)},
		{"xteapoly1305", XTEAPoly1305, make([]byte, 16)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for i := range c.key {
				c.key[i] = byte(i * 7)
			}
			env, err := Encrypt(c.key, plaintext, c.id, aad)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			ok, pt := Decrypt(c.key, env, aad)
			if !ok {
				t.Fatal("decrypt failed on untampered envelope")
			}
			if !bytes.Equal(pt, plaintext) {
				t.Fatalf("round-trip mismatch")
			}

			tampered := append([]byte{}, env...)
			tampered[len(tampered)-1] ^= 0x01
			if ok, _ := Decrypt(c.key, tampered, aad); ok && suites[c.id].aead {
				t.Fatal("AEAD suite accepted a tampered envelope")
			}
		})
	}
}

func TestDecryptRejectsShortEnvelope(t *testing.T) {
	if ok, pt := Decrypt(make([]byte, 32), []byte{1, 2, 3}, nil); ok || pt != nil {
		t.Fatal("expected rejection of a too-short envelope")
	}
}

func TestDecryptRejectsBadMagic(t *testing.T) {
	key := make([]byte, 32)
	env, _ := Encrypt(key, []byte("x"), ChaCha20Poly1305, nil)
	env[0] ^= 0xFF
	if ok, _ := Decrypt(key, env, nil); ok {
		t.Fatal("expected rejection of a corrupted magic")
	}
}

func TestEncryptRejectsInvalidKeyLength(t *testing.T) {
	if _, err := Encrypt(make([]byte, 5), []byte("x"), ChaCha20, nil); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}

func TestEncryptRejectsUnsupportedSuite(t *testing.T) {
	if _, err := Encrypt(make([]byte, 32), []byte("x"), SuiteID(200), nil); err == nil {
		t.Fatal("expected error for unsupported suite")
	}
}
