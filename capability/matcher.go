// Package capability implements the capability algebra: a Descriptor
// parses a wire-shaped RawCapability into a typed Match (or explains why
// it could not), and the Or/Derive combinators build new selectors out of
// existing ones.
package capability

import (
	"fmt"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/core/schema"
	"github.com/ucanengine/core/ucan"
)

// MatchResult is the outcome of running a Descriptor over a RawCapability:
// exactly one of Unknown (the ability pattern didn't apply at all),
// Malformed (the pattern applied but with/nb failed to parse), or Match
// (a fully typed capability).
type MatchResult[T any] interface {
	isMatchResult()
}

// Unknown means this descriptor's ability pattern does not cover the raw
// capability's `can` at all; a different descriptor might still match it.
type Unknown[T any] struct {
	Capability delegation.RawCapability
}

func (Unknown[T]) isMatchResult() {}

// Malformed means the ability matched but the resource or caveats failed
// to parse under this descriptor's schema.
type Malformed[T any] struct {
	Capability delegation.RawCapability
	Cause      error
}

func (Malformed[T]) isMatchResult() {}
func (m Malformed[T]) Error() string {
	return fmt.Sprintf("malformed capability %q: %v", m.Capability.Can(), m.Cause)
}

// Match is a capability that parsed cleanly under its Descriptor.
type Match[T any] struct {
	Value      ucan.Capability[T]
	Descriptor *Descriptor[T]
}

func (Match[T]) isMatchResult() {}

// Descriptor is a capability's parser: an ability pattern plus how to
// read its `with` resource and `nb` caveats, and how to decide whether
// one claimed instance derives from another (proven) instance once both
// have the same ability and resource.
type Descriptor[T any] struct {
	can     ucan.Ability
	with    schema.Reader[string]
	nb      schema.Reader[T]
	derives func(claimed, proven T) bool
}

// NewDescriptor builds a capability parser. derives may be nil, in which
// case Derives applies only its ability and resource checks (identical
// `with` strings, or a proven `ucan:*`) and ignores nb beyond what nb's
// own parse already validated.
func NewDescriptor[T any](can ucan.Ability, with schema.Reader[string], nb schema.Reader[T], derives func(claimed, proven T) bool) *Descriptor[T] {
	return &Descriptor[T]{can: can, with: with, nb: nb, derives: derives}
}

// Can returns the descriptor's ability pattern.
func (d *Descriptor[T]) Can() ucan.Ability { return d.can }

// Match parses a raw capability against this descriptor. The ability
// check is symmetric under wildcards: a descriptor for "store/add"
// matches a raw capability whose own `can` is "*" or "store/*" just as
// readily as an exact "store/add", since a proof's capability is often
// itself a wildcard grant rather than a restatement of the exact ability
// being claimed.
func (d *Descriptor[T]) Match(raw delegation.RawCapability) MatchResult[T] {
	if _, ok := IntersectAbility(d.can, raw.Can()); !ok {
		return Unknown[T]{Capability: raw}
	}
	withVal, err := d.with.Read(raw.With())
	if err != nil {
		return Malformed[T]{Capability: raw, Cause: err}
	}
	nbRaw, err := ipld.ToAny(raw.Nb())
	if err != nil {
		return Malformed[T]{Capability: raw, Cause: fmt.Errorf("decoding nb: %w", err)}
	}
	nbVal, err := d.nb.Read(nbRaw)
	if err != nil {
		return Malformed[T]{Capability: raw, Cause: err}
	}
	return Match[T]{Value: ucan.NewCapability(raw.Can(), withVal, nbVal), Descriptor: d}
}

// Delegate is the capability-level sugar matching the real library's
// CapabilityParser.Delegate: sign a new delegation granting exactly this
// descriptor's ability/resource/caveats, deferring to core/delegation for
// the envelope and signature.
func (d *Descriptor[T]) Delegate(issuer ucan.Signer, audience ucan.Principal, with string, nb T, opts ...delegation.Option) (delegation.Delegation, error) {
	builder, ok := any(nb).(ipld.Builder)
	if !ok {
		return nil, fmt.Errorf("capability: %T does not implement ipld.Builder", nb)
	}
	n, err := builder.ToIPLD()
	if err != nil {
		return nil, fmt.Errorf("capability: encoding nb: %w", err)
	}
	return delegation.Delegate(issuer, audience, []delegation.RawCapability{delegation.NewRawCapability(d.can, with, n)}, opts...)
}

// Derives reports whether a claimed capability instance is authorized by
// a proven one: their abilities must intersect, their resources must
// match (or the proven resource is the re-delegation meta-resource), and
// the descriptor's own derives predicate (if any) must accept the pair.
func (d *Descriptor[T]) Derives(claimed, proven ucan.Capability[T]) bool {
	if _, ok := IntersectAbility(claimed.Can(), proven.Can()); !ok {
		return false
	}
	if proven.With() != ucan.MetaResource && claimed.With() != proven.With() {
		return false
	}
	if d.derives != nil {
		return d.derives(claimed.Nb(), proven.Nb())
	}
	return true
}

// searchAncestors reports no cross-shape ancestor: a plain Descriptor is a
// leaf of the selector tree, derivable only by something of its own shape.
func (d *Descriptor[T]) searchAncestors(ucan.Capability[T]) []ancestorSearch {
	return nil
}

var _ Selector[ucan.NoCaveats] = (*Descriptor[ucan.NoCaveats])(nil)
