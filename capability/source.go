package capability

import "github.com/ucanengine/core/core/delegation"

// Source pairs a raw capability with the delegation it was read from, so
// a validator rejecting it can point back at exactly which link in the
// proof chain made the claim.
type Source struct {
	Capability delegation.RawCapability
	Delegation delegation.Delegation
}

// NewSource builds a Source from a capability found while walking a
// delegation's own Capabilities() or one of its resolved proofs'.
func NewSource(cap delegation.RawCapability, dlg delegation.Delegation) Source {
	return Source{Capability: cap, Delegation: dlg}
}

// Sources flattens a delegation's own capabilities into Source values
// tagged with that delegation, the starting point for gathering every
// capability claim available across a proof chain.
func Sources(dlg delegation.Delegation) []Source {
	caps := dlg.Capabilities()
	out := make([]Source, len(caps))
	for i, c := range caps {
		out[i] = NewSource(c, dlg)
	}
	return out
}
