// Package ucan defines the wire-independent vocabulary of UCAN: principals,
// abilities, resources, and the capability triple they compose into.
package ucan

import (
	"fmt"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/ucanengine/core/core/ipld"
)

// Link is a content address over a block's bytes. It is the only type that
// may appear in a proof list without being resolved to a Delegation.
type Link = cid.Cid

// IsLink reports whether v is a bare Link rather than a resolved Delegation
// or some other proof representation. Proof lists are heterogeneous (a
// resolved delegation or a dangling link), so callers type-switch on this.
func IsLink(v any) bool {
	_, ok := v.(Link)
	return ok
}

// Principal is any entity that can be named as an issuer or audience. In
// practice it is a DID, but the capability algebra only ever needs its
// string form and an equality check.
type Principal interface {
	DID() DID
}

// DID is the minimal surface the core needs from a decentralized
// identifier: its canonical string form. Resolution of a DID to a document
// or key material is an external concern (see validator.PrincipalResolver).
type DID interface {
	String() string
}

// did is the simplest possible DID: a string that claims to be one.
// Structured did:key parsing lives in package did; this lets the core
// types stay independent of any one DID method.
type did string

func (d did) String() string { return string(d) }

// ParseDID wraps a raw string as a Principal-compatible DID without
// validating its method. Structured validation belongs to package did.
func ParseDID(s string) DID { return did(s) }

// Signer produces signatures over arbitrary payload bytes and identifies
// itself by DID. Key material and the signing algorithm are entirely an
// external concern; the core only needs this interface.
type Signer interface {
	Principal
	Verifier() Verifier
	Sign(payload []byte) (Signature, error)
}

// Verifier checks a signature produced by the Signer with the same DID.
type Verifier interface {
	Principal
	Verify(payload []byte, sig Signature) bool
}

// Signature is an opaque, algorithm-tagged signature. Its Bytes are exactly
// what was produced by Signer.Sign and consumed by Verifier.Verify.
type Signature struct {
	alg   string
	bytes []byte
}

// NewSignature wraps raw signature bytes under a named algorithm. The core
// never branches on alg; it is carried so error messages can name it.
func NewSignature(alg string, raw []byte) Signature {
	return Signature{alg: alg, bytes: raw}
}

func (s Signature) Algorithm() string { return s.alg }
func (s Signature) Bytes() []byte     { return s.bytes }

// Resource is the `with` field of a capability: an absolute URI, or the
// meta-resource "ucan:*" meaning "whatever proofs I hold".
type Resource = string

// MetaResource is the reserved `with` value requesting re-delegation of
// everything the issuer already holds, rather than naming one resource.
const MetaResource Resource = "ucan:*"

// Ability is the `can` field of a capability: a concrete "namespace/verb",
// a segment wildcard "namespace/*", or the universal "*".
type Ability = string

// AllAbility is the universal ability wildcard.
const AllAbility Ability = "*"

// IsWildcardAbility reports whether a matches "*" or "namespace/*".
func IsWildcardAbility(a Ability) bool {
	return a == AllAbility || strings.HasSuffix(a, "/*")
}

// NoCaveats is the caveat type for capabilities that carry no `nb`
// restrictions at all.
type NoCaveats struct{}

// ToIPLD renders NoCaveats as an empty map, satisfying ipld.Builder so
// NoCaveats capabilities can be delegated through the same path as any
// other caveat type.
func (NoCaveats) ToIPLD() (ipld.Node, error) {
	return ipld.FromMap(map[string]any{})
}

// Capability is the triple {can, with, nb} typed over its caveats. The
// caveats type parameter is chosen by whichever Descriptor parsed it.
type Capability[Caveats any] struct {
	can  Ability
	with Resource
	nb   Caveats
}

// NewCapability builds a Capability value directly, without running it
// through a Descriptor. Used both by callers constructing raw source
// capabilities and by the matcher once it has parsed one.
func NewCapability[Caveats any](can Ability, with Resource, nb Caveats) Capability[Caveats] {
	return Capability[Caveats]{can: can, with: with, nb: nb}
}

func (c Capability[Caveats]) Can() Ability    { return c.can }
func (c Capability[Caveats]) With() Resource  { return c.with }
func (c Capability[Caveats]) Nb() Caveats     { return c.nb }

func (c Capability[Caveats]) String() string {
	return fmt.Sprintf("{can: %q, with: %q}", c.can, c.with)
}

// FactBuilder is anything that can render itself as an IPLD-shaped fact
// entry in a delegation's `facts` list.
type FactBuilder interface {
	ToIPLD() (map[string]any, error)
}

// Now returns the current time as UCAN seconds-since-epoch. Delegation
// construction defaults expiration relative to this.
func Now() uint64 {
	return uint64(time.Now().Unix())
}
