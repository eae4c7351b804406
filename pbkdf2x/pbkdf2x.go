// Package pbkdf2x wraps golang.org/x/crypto/pbkdf2 for deriving
// connection secrets and SRP-6 verifiers from passwords, the peripheral
// PBKDF2 utility names alongside CRC/SRP-6/Ed25519.
package pbkdf2x

import (
	"crypto/rand"
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/nalix-go/nalix/cmn"
)

const (
	// DefaultIterations is a conservative default for interactive
	// connection-secret derivation; callers deriving long-lived keys should
	// pass a higher count explicitly.
	DefaultIterations = 100_000
	// SaltSize is the recommended salt length for NewSalt.
	SaltSize = 16
)

const op = "pbkdf2x"

// DeriveKey stretches password into a keyLen-byte key using PBKDF2-HMAC
// with the given hash constructor (sha256.New if nil).
func DeriveKey(password, salt []byte, iterations, keyLen int, newHash func() hash.Hash) ([]byte, error) {
	if len(salt) == 0 {
		return nil, cmn.NewErr(op+".DeriveKey", cmn.KindValidation, "salt must be non-empty", nil)
	}
	if iterations <= 0 {
		return nil, cmn.NewErr(op+".DeriveKey", cmn.KindValidation, "iterations must be positive", nil)
	}
	if newHash == nil {
		newHash = sha256.New
	}
	return pbkdf2.Key(password, salt, iterations, keyLen, newHash), nil
}

// NewSalt draws a fresh random salt of SaltSize bytes from the CSPRNG.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, cmn.NewErr(op+".NewSalt", cmn.KindValidation, "salt generation failed", err)
	}
	return salt, nil
}
