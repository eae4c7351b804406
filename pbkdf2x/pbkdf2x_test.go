package pbkdf2x

import (
	"bytes"
	"testing"
)

func TestDeriveKeyIsDeterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	k1, err := DeriveKey([]byte("hunter2"), salt, 1000, 32, nil)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := DeriveKey([]byte("hunter2"), salt, 1000, 32, nil)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatal("expected identical inputs to derive the same key")
	}
	if len(k1) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1))
	}
}

func TestDeriveKeyDiffersByPassword(t *testing.T) {
	salt, _ := NewSalt()
	k1, _ := DeriveKey([]byte("hunter2"), salt, 1000, 32, nil)
	k2, _ := DeriveKey([]byte("hunter3"), salt, 1000, 32, nil)
	if bytes.Equal(k1, k2) {
		t.Fatal("expected different passwords to derive different keys")
	}
}

func TestDeriveKeyRejectsEmptySalt(t *testing.T) {
	if _, err := DeriveKey([]byte("pw"), nil, 1000, 32, nil); err == nil {
		t.Fatal("expected an error for an empty salt")
	}
}

func TestNewSaltProducesDistinctValues(t *testing.T) {
	a, _ := NewSalt()
	b, _ := NewSalt()
	if bytes.Equal(a, b) {
		t.Fatal("expected two calls to NewSalt to produce distinct output")
	}
}
