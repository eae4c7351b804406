package alloc

import (
	"bytes"
	"testing"
)

func TestAllocateTierSelection(t *testing.T) {
	a := New(16, 256)
	defer a.Stop()

	if b := a.Allocate(nil); b.Tier() != TierEmpty {
		t.Fatalf("empty payload: got tier %v", b.Tier())
	}
	if b := a.Allocate(make([]byte, 8)); b.Tier() != TierInline {
		t.Fatalf("8 bytes: got tier %v, want inline", b.Tier())
	}
	if b := a.Allocate(make([]byte, 128)); b.Tier() != TierPinned {
		t.Fatalf("128 bytes: got tier %v, want pinned", b.Tier())
	}
	if b := a.Allocate(make([]byte, 1024)); b.Tier() != TierPooled {
		t.Fatalf("1024 bytes: got tier %v, want pooled", b.Tier())
	}
}

func TestAllocateCopiesContent(t *testing.T) {
	a := New(16, 256)
	defer a.Stop()

	src := []byte("hello, world")
	b := a.Allocate(src)
	if !bytes.Equal(b.Bytes(), src) {
		t.Fatalf("got %q, want %q", b.Bytes(), src)
	}
	src[0] = 'X'
	if b.Bytes()[0] == 'X' {
		t.Fatal("allocated buffer aliases source slice")
	}
}

func TestReleaseZeroesPooledBuffer(t *testing.T) {
	a := New(4, 8)
	defer a.Stop()

	src := bytes.Repeat([]byte{0xAB}, 64)
	b := a.Allocate(src)
	if b.Tier() != TierPooled {
		t.Fatalf("expected pooled tier, got %v", b.Tier())
	}
	buf := b.Bytes()
	b.Release()
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("byte %d not zeroed after release: %x", i, v)
		}
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	a := New(4, 8)
	defer a.Stop()

	b := a.Allocate(bytes.Repeat([]byte{1}, 64))
	b.Release()
	b.Release() // must not panic or double-free
}

func TestSweepReclaimsUnusedPooledBuffers(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	a := New(4, 8, WithClock(clock))
	defer a.Stop()

	b := a.Allocate(bytes.Repeat([]byte{1}, 64))
	clock.ms += DefaultUnusedThresholdMs + 1
	n := a.pool.sweep(DefaultUnusedThresholdMs)
	if n != 1 {
		t.Fatalf("expected 1 reclaimed buffer, got %d", n)
	}
	for _, v := range b.Bytes() {
		if v != 0 {
			t.Fatal("reclaimed buffer not zeroed")
		}
	}
}

func TestWithSweepIntervalsOverridesDefaults(t *testing.T) {
	a := New(4, 8, WithSweepIntervals(1234, 5678))
	defer a.Stop()

	if a.cleanupIntervalMs != 1234 {
		t.Fatalf("cleanupIntervalMs = %d, want 1234", a.cleanupIntervalMs)
	}
	if a.unusedThresholdMs != 5678 {
		t.Fatalf("unusedThresholdMs = %d, want 5678", a.unusedThresholdMs)
	}
}

type fakeClock struct{ ms int64 }

func (f *fakeClock) NowMs() int64 { return f.ms }
