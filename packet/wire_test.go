package packet

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newCodec(t)
	p, err := c.NewChecksummed(7, 42, 1234567890, 3, FlagCompressed, 9, []byte("hello wire"))
	if err != nil {
		t.Fatalf("NewChecksummed: %v", err)
	}
	defer p.Release()

	raw := p.Encode()
	if len(raw) != HeaderSize+len("hello wire") {
		t.Fatalf("Encode length = %d, want %d", len(raw), HeaderSize+len("hello wire"))
	}
	if !ValidateChecksum(raw) {
		t.Fatal("expected encoded record to carry a valid checksum")
	}

	got, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer got.Release()

	if got.OpCode() != p.OpCode() || got.Number() != p.Number() ||
		got.Checksum() != p.Checksum() || got.Timestamp() != p.Timestamp() ||
		got.Type() != p.Type() || got.Flags() != p.Flags() || got.Priority() != p.Priority() {
		t.Fatalf("decoded header mismatch: got %+v, want fields of %+v", got, p)
	}
	if string(got.Payload()) != "hello wire" {
		t.Fatalf("Payload() = %q, want %q", got.Payload(), "hello wire")
	}
}

func TestDecodeRejectsShortRecord(t *testing.T) {
	c := newCodec(t)
	if _, err := c.Decode(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("expected an error decoding a record shorter than the header")
	}
}
