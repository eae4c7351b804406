package ed25519x

import "testing"

func TestGenerateSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	msg := []byte("connection handshake")
	sig := Sign(kp.Private, msg)
	if !Verify(kp.Public, msg, sig) {
		t.Fatal("expected signature to verify")
	}
	if Verify(kp.Public, []byte("tampered"), sig) {
		t.Fatal("expected verification of a different message to fail")
	}
}

func TestKeyPairFromSeedIsDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	kp1, err := KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	kp2, err := KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	if string(kp1.Public) != string(kp2.Public) {
		t.Fatal("expected the same seed to produce the same public key")
	}
}

func TestKeyPairFromSeedRejectsWrongLength(t *testing.T) {
	if _, err := KeyPairFromSeed(make([]byte, 16)); err == nil {
		t.Fatal("expected an error for a non-32-byte seed")
	}
}
