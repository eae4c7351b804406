// Package ed25519x is a thin connection-identity wrapper around the
// standard library's crypto/ed25519: lists Ed25519 among the
// peripheral crypto utilities, and the stdlib implementation is the
// correct choice (no third-party package in the retrieved corpus should
// ever substitute for it).
package ed25519x

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/nalix-go/nalix/cmn"
)

const op = "ed25519x"

// KeyPair is a generated Ed25519 identity.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair draws a fresh key pair from the CSPRNG.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, cmn.NewErr(op+".GenerateKeyPair", cmn.KindValidation, "key generation failed", err)
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// KeyPairFromSeed deterministically derives a key pair from a 32-byte
// seed, e.g. one stretched out of a password via pbkdf2x.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return KeyPair{}, cmn.NewErr(op+".KeyPairFromSeed", cmn.KindValidation, "seed must be 32 bytes", nil)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

// Sign produces a detached signature over msg.
func Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// Verify reports whether sig is a valid Ed25519 signature over msg under
// pub.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}
