package ed25519

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ucanengine/core/did"
	"github.com/ucanengine/core/ucan"
)

// Verifier holds only the public half of an ed25519 keypair.
type Verifier struct {
	pub ed25519.PublicKey
	id  did.DID
}

var _ ucan.Verifier = (*Verifier)(nil)

// Parse builds a Verifier from a did:key string, the shape the validator's
// default PrincipalResolver needs when it has only a principal's DID and
// must verify a signature claimed to be theirs.
func Parse(id string) (ucan.Verifier, error) {
	d, err := did.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing verifier did: %w", err)
	}
	if d.Method() != did.MethodKey {
		return nil, fmt.Errorf("ed25519 verifier requires a did:key, got %q", id)
	}
	if len(d.Bytes()) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("did:key embeds %d bytes, want an ed25519 public key (%d bytes)", len(d.Bytes()), ed25519.PublicKeySize)
	}
	return &Verifier{pub: ed25519.PublicKey(d.Bytes()), id: d}, nil
}

func (v *Verifier) DID() ucan.DID { return v.id }

func (v *Verifier) Verify(payload []byte, sig ucan.Signature) bool {
	return ed25519.Verify(v.pub, payload, sig.Bytes())
}
