package packet

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/nalix-go/nalix/alloc"
	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/envelope"
)

func newCodec(t *testing.T) *Codec {
	t.Helper()
	a := alloc.New(1<<12, 1<<20)
	t.Cleanup(a.Stop)
	return NewCodec(a, 64*1024, 512)
}

// scenario 1: CRC-32("123456789") == 0xCBF43926, and a raw
// packet built with that checksum validates.
func TestCRCRoundTripVector(t *testing.T) {
	c := newCodec(t)
	payload := []byte("123456789")
	p, err := c.New(1, 1, 0xCBF43926, 0, 0, 0, 0, payload)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !p.IsValidChecksum() {
		t.Fatal("expected checksum to validate against the RFC CRC-32 vector")
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	c := newCodec(t)
	payload := bytes.Repeat([]byte("abcdefgh"), 128) // 1024 compressible bytes
	p, err := c.NewChecksummed(1, 1, 0, 0, 0, 0, payload)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	compressed, err := c.Compress(p)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if compressed.Flags()&FlagCompressed == 0 {
		t.Fatal("expected COMPRESSED flag set")
	}
	if len(compressed.Payload()) >= len(payload) {
		t.Fatal("expected compressed payload to be smaller")
	}

	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if decompressed.Flags()&FlagCompressed != 0 {
		t.Fatal("expected COMPRESSED flag cleared")
	}
	if !bytes.Equal(decompressed.Payload(), payload) {
		t.Fatal("round-trip payload mismatch")
	}
}

// scenario 3: incompressible random data must refuse with
// NotBeneficial, leaving the original packet usable.
func TestCompressRefusesIncompressibleData(t *testing.T) {
	c := newCodec(t)
	payload := make([]byte, 768)
	_, _ = rand.Read(payload)
	p, err := c.NewChecksummed(1, 1, 0, 0, 0, 0, payload)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Compress(p)
	if err == nil {
		t.Fatal("expected compression of random data to fail")
	}
	var cerr *cmn.Error
	if e, ok := err.(*cmn.Error); ok {
		cerr = e
	}
	if cerr == nil || cerr.Kind != cmn.KindNotBeneficial {
		t.Fatalf("expected KindNotBeneficial, got %v", err)
	}
	if !bytes.Equal(p.Payload(), payload) {
		t.Fatal("original packet must remain usable after refusal")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newCodec(t)
	key := make([]byte, 32)
	payload := []byte("connection handshake payload")
	p, err := c.NewChecksummed(2, 1, 0, 0, 0, 0, payload)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	enc, err := c.Encrypt(p, envelope.ChaCha20Poly1305, key, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if enc.Flags()&FlagEncrypted == 0 {
		t.Fatal("expected ENCRYPTED flag set")
	}

	dec, err := c.Decrypt(enc, key, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if dec.Flags()&FlagEncrypted != 0 {
		t.Fatal("expected ENCRYPTED flag cleared")
	}
	if !bytes.Equal(dec.Payload(), payload) {
		t.Fatal("round-trip payload mismatch")
	}
}

func TestDecryptFailureLeavesPacketUsable(t *testing.T) {
	c := newCodec(t)
	key := make([]byte, 32)
	otherKey := make([]byte, 32)
	otherKey[0] = 1

	p, _ := c.NewChecksummed(2, 1, 0, 0, 0, 0, []byte("secret"))
	enc, err := c.Encrypt(p, envelope.ChaCha20Poly1305, key, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	_, err = c.Decrypt(enc, otherKey, nil)
	if err == nil {
		t.Fatal("expected decrypt with wrong key to fail")
	}
	if enc.Flags()&FlagEncrypted == 0 {
		t.Fatal("packet must remain marked ENCRYPTED after a failed decrypt")
	}
}

func TestCompressRejectsEncryptedPacket(t *testing.T) {
	c := newCodec(t)
	key := make([]byte, 32)
	payload := bytes.Repeat([]byte("x"), 1024)
	p, _ := c.NewChecksummed(1, 1, 0, 0, 0, 0, payload)

	enc, err := c.Encrypt(p, envelope.ChaCha20Poly1305, key, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := c.Compress(enc); err == nil {
		t.Fatal("expected Compress to refuse an already-encrypted packet")
	}
}

func TestClone(t *testing.T) {
	c := newCodec(t)
	p, _ := c.NewChecksummed(1, 1, 0, 0, 0, 0, []byte("hello"))
	clone := c.Clone(p)
	if !bytes.Equal(clone.Payload(), p.Payload()) {
		t.Fatal("clone payload mismatch")
	}
	clone.Payload()[0] = 'H'
	if p.Payload()[0] == 'H' {
		t.Fatal("clone must not alias the source packet's buffer")
	}
}

func TestValidateChecksumOnRawBytes(t *testing.T) {
	payload := []byte("123456789")
	raw := make([]byte, HeaderSize+len(payload))
	raw[checksumOffset] = 0x26
	raw[checksumOffset+1] = 0x39
	raw[checksumOffset+2] = 0xf4
	raw[checksumOffset+3] = 0xcb
	copy(raw[HeaderSize:], payload)

	if !ValidateChecksum(raw) {
		t.Fatal("expected raw buffer to validate against the CRC-32 vector")
	}
	raw[HeaderSize] ^= 0xFF
	if ValidateChecksum(raw) {
		t.Fatal("expected corrupted payload to fail validation")
	}
}
