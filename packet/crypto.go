package packet

import (
	"github.com/nalix-go/nalix/cmn"
	"github.com/nalix-go/nalix/envelope"
)

// Encrypt invokes C5 on p's payload under the given suite and key.
// Preconditions: payload non-empty, ENCRYPTED clear. On success the new
// packet carries the envelope bytes as its payload with ENCRYPTED set; the
// source packet's buffer is released.
func (c *Codec) Encrypt(p *Packet, suite envelope.SuiteID, key, aad []byte) (*Packet, error) {
	payload := p.Payload()
	if len(payload) == 0 {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "empty payload", nil)
	}
	if p.flags&FlagEncrypted != 0 {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "payload already encrypted", nil)
	}
	env, err := envelope.Encrypt(key, payload, suite, aad)
	if err != nil {
		return nil, cmn.NewErr(op+".Encrypt", cmn.KindValidation, "envelope encrypt failed", err)
	}
	out := clonePacket(p, c.allocator.Allocate(env), p.flags|FlagEncrypted)
	p.Release()
	return out, nil
}

// Decrypt invokes C5 on p's payload. Preconditions: payload non-empty,
// ENCRYPTED set. On authentication failure the source packet is left
// untouched and an auth-failed-kind error is returned rather than mutating
// state, matching "surface a packet-level error without
// mutating state" failure semantics.
func (c *Codec) Decrypt(p *Packet, key, aad []byte) (*Packet, error) {
	payload := p.Payload()
	if len(payload) == 0 {
		return nil, cmn.NewErr(op+".Decrypt", cmn.KindValidation, "empty payload", nil)
	}
	if p.flags&FlagEncrypted == 0 {
		return nil, cmn.NewErr(op+".Decrypt", cmn.KindValidation, "packet not marked encrypted", nil)
	}
	ok, plaintext := envelope.Decrypt(key, payload, aad)
	if !ok {
		return nil, cmn.NewErr(op+".Decrypt", cmn.KindAuthFailed, "envelope authentication failed", nil)
	}
	out := clonePacket(p, c.allocator.Allocate(plaintext), p.flags&^FlagEncrypted)
	p.Release()
	return out, nil
}
