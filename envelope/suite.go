package envelope

// SuiteID is the wire-stable enumeration of cipher suites. Ordering here
// is the wire contract — never renumber an existing entry, only append.
type SuiteID byte

const (
	ChaCha20 SuiteID = iota
	Salsa20
	Speck
	XTEA
	ChaCha20Poly1305
	Salsa20Poly1305
	SpeckPoly1305
	XTEAPoly1305
)

func (s SuiteID) String() string {
	if d, ok := suites[s]; ok {
		return d.name
	}
	return "unknown"
}

// streamCipher produces a keystream of exactly len(dst) bytes starting at
// block offset `seq` ("counter semantics") and XORs it into
// dst in place (dst and src may be the same underlying buffer's payload
// portion: callers pass plaintext/ciphertext symmetrically since CTR/stream
// XOR is its own inverse).
type streamCipher func(key, nonce []byte, seq uint32, dst, src []byte) error

// aeadSeal/aeadOpen implement suites where an authentication tag backs the
// ciphertext. aad is the envelope's associated data per AAD
// convention: header || nonce || user_aad.
type aeadSeal func(key, nonce []byte, seq uint32, plaintext, aad []byte) (ciphertext, tag []byte, err error)
type aeadOpen func(key, nonce []byte, seq uint32, ciphertext, tag, aad []byte) (plaintext []byte, ok bool)

type suiteDescriptor struct {
	name     string
	nonceLen int
	aead     bool
	keyLens  []int // acceptable key lengths; a single reducible length is still listed

	stream streamCipher // set iff !aead
	seal   aeadSeal     // set iff aead
	open   aeadOpen     // set iff aead
}

// suites is the tagged-enum-plus-function-table dispatch asks
// for in place of virtual classes (grounded on transform.makeCommunicator's
// switch-on-tag dispatch, and cmn.XactsDtor's statically declared table).
var suites = map[SuiteID]suiteDescriptor{
	ChaCha20: {
		name: "CHACHA20", nonceLen: 12, aead: false,
		keyLens: []int{32},
		stream:  chacha20Stream,
	},
	ChaCha20Poly1305: {
		name: "CHACHA20_POLY1305", nonceLen: 12, aead: true,
		keyLens: []int{32},
		seal:    chacha20poly1305Seal,
		open:    chacha20poly1305Open,
	},
	Salsa20: {
		name: "SALSA20", nonceLen: 8, aead: false,
		keyLens: []int{16, 32},
		stream:  salsa20Stream,
	},
	Salsa20Poly1305: {
		name: "SALSA20_POLY1305", nonceLen: 8, aead: true,
		keyLens: []int{16, 32},
		seal:    salsa20poly1305Seal,
		open:    salsa20poly1305Open,
	},
	Speck: {
		name: "SPECK", nonceLen: 16, aead: false,
		keyLens: []int{16},
		stream:  speckStream,
	},
	SpeckPoly1305: {
		name: "SPECK_POLY1305", nonceLen: 16, aead: true,
		keyLens: []int{16},
		seal:    speckpoly1305Seal,
		open:    speckpoly1305Open,
	},
	XTEA: {
		name: "XTEA", nonceLen: 8, aead: false,
		keyLens: []int{16, 32},
		stream:  xteaStream,
	},
	XTEAPoly1305: {
		name: "XTEA_POLY1305", nonceLen: 8, aead: true,
		keyLens: []int{16, 32},
		seal:    xteapoly1305Seal,
		open:    xteapoly1305Open,
	},
}

// reduceXTEAKey deterministically folds a 32-byte key down to 16 bytes
// (out[i] = key[i] XOR key[i+16]); 16-byte keys are copied as-is. It
// does not zero the returned key; that is left to the caller.
func reduceXTEAKey(key []byte) (reduced [16]byte, is32 bool) {
	if len(key) == 32 {
		for i := 0; i < 16; i++ {
			reduced[i] = key[i] ^ key[i+16]
		}
		return reduced, true
	}
	copy(reduced[:], key)
	return reduced, false
}
