package delegation

import (
	"fmt"

	"github.com/ucanengine/core/core/dag/blockstore"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/ucan"
)

// Delegate signs a new delegation from issuer to audience over the given
// wire-shaped capabilities, attaching whatever proofs and facts the
// options supply.
func Delegate(issuer ucan.Signer, audience ucan.Principal, capabilities []RawCapability, opts ...Option) (Delegation, error) {
	if len(capabilities) == 0 {
		return nil, fmt.Errorf("delegation: at least one capability is required")
	}
	state := newBuildState(opts)

	payload := Payload{
		Version:      SupportedVersion,
		Issuer:       issuer.DID().String(),
		Audience:     audience.DID().String(),
		Capabilities: capabilities,
		Proofs:       state.proofs,
		Facts:        state.facts,
		Expiration:   state.expiration,
		NotBefore:    state.notBefore,
		Nonce:        state.nonce,
	}

	signingBytes, err := encodePayload(payload, false)
	if err != nil {
		return nil, fmt.Errorf("delegation: encoding signing payload: %w", err)
	}
	sig, err := issuer.Sign(signingBytes)
	if err != nil {
		return nil, fmt.Errorf("delegation: signing payload: %w", err)
	}
	payload.Signature = sig

	root, err := encodePayloadBlock(payload, true)
	if err != nil {
		return nil, fmt.Errorf("delegation: encoding signed payload: %w", err)
	}

	bs := blockstore.NewMapBlockStore()
	for _, att := range state.proofBlocks {
		for b := range att.source.IterateBlocks() {
			bs.Put(b)
		}
	}
	return newView(root, bs), nil
}

// DelegateCapability is sugar over Delegate for the common case of one
// typed capability: it renders nb through T's ipld.Builder once, so
// callers needn't build a RawCapability by hand.
func DelegateCapability[T ipld.Builder](issuer ucan.Signer, audience ucan.Principal, can, with string, nb T, opts ...Option) (Delegation, error) {
	n, err := nb.ToIPLD()
	if err != nil {
		return nil, fmt.Errorf("delegation: encoding capability nb: %w", err)
	}
	return Delegate(issuer, audience, []RawCapability{NewRawCapability(can, with, n)}, opts...)
}

// DelegateMany is sugar over Delegate for a batch of capabilities that all
// share one caveat type, the shape a CapabilityParser's own Delegate
// convenience method produces.
func DelegateMany[T ipld.Builder](issuer ucan.Signer, audience ucan.Principal, capabilities []ucan.Capability[T], opts ...Option) (Delegation, error) {
	raw := make([]RawCapability, len(capabilities))
	for i, c := range capabilities {
		n, err := c.Nb().ToIPLD()
		if err != nil {
			return nil, fmt.Errorf("delegation: encoding capability %d nb: %w", i, err)
		}
		raw[i] = NewRawCapability(c.Can(), c.With(), n)
	}
	return Delegate(issuer, audience, raw, opts...)
}
