package validator

import (
	"fmt"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/did"
	edverifier "github.com/ucanengine/core/principal/ed25519"
	"github.com/ucanengine/core/ucan"
)

// PrincipalResolver turns a DID into the Verifier a delegation's
// signature must check against. Only did:key is resolved without an
// external lookup; any other method is the caller's concern (a DID
// document fetch, a registry lookup) and is out of scope here.
type PrincipalResolver interface {
	ResolveDIDKey(d ucan.DID) (ucan.Verifier, error)
}

type didKeyResolver struct{}

// DefaultPrincipalResolver resolves did:key directly from its embedded
// public key and rejects every other method with UnresolvedDID.
func DefaultPrincipalResolver() PrincipalResolver { return didKeyResolver{} }

func (didKeyResolver) ResolveDIDKey(d ucan.DID) (ucan.Verifier, error) {
	parsed, err := did.Parse(d.String())
	if err != nil {
		return nil, NewUnresolvedDIDError(d, err)
	}
	if parsed.Method() != did.MethodKey {
		return nil, NewUnresolvedDIDError(d, fmt.Errorf("method %q requires an external resolver", parsed.Method()))
	}
	return edverifier.Parse(d.String())
}

// UnresolvedDID is returned by a PrincipalResolver that cannot turn a DID
// into a Verifier on its own.
type UnresolvedDID struct {
	DID   ucan.DID
	Cause error
}

func NewUnresolvedDIDError(d ucan.DID, cause error) *UnresolvedDID {
	return &UnresolvedDID{DID: d, Cause: cause}
}

func (e *UnresolvedDID) Error() string {
	return fmt.Sprintf("cannot resolve principal %q: %v", e.DID.String(), e.Cause)
}

// IsSelfIssued reports whether a capability's issuer may exercise it
// without any proof at all, the short-circuit every invocation checks
// before walking a proof chain. canIssue is the caller-supplied rule (a
// capability's `with` is the issuer's own DID, by default); when nil, the
// default rule compares `with` against the issuer's DID string directly.
func IsSelfIssued(with ucan.Resource, issuer ucan.DID, canIssue func(with ucan.Resource, issuer ucan.DID) bool) bool {
	if canIssue != nil {
		return canIssue(with, issuer)
	}
	return with == issuer.String() || with == ucan.MetaResource
}

// NotExpiredNotTooEarly checks a delegation's time bounds against now,
// returning nil if it is currently valid.
func NotExpiredNotTooEarly(dlg delegation.Delegation, now uint64) Failure {
	if exp := dlg.Expiration(); exp != nil && now >= *exp {
		return Expired(*exp, now)
	}
	if nbf := dlg.NotBefore(); nbf != nil && now < *nbf {
		return NotValidYet(*nbf, now)
	}
	return nil
}

// ProofUnavailable reports that a proof link in a delegation's proof list
// could not be resolved against any source this validation run knows
// about: the invocation's own attached blocks, the validation context's
// extra proofs, or its ResolveProof callback.
func ProofUnavailable(link ucan.Link) Failure {
	return UnresolvedProof(link)
}

// DefaultDerives is the derives predicate for any comparable caveat type:
// a claimed instance derives from a proven one only if their caveats are
// identical, the common case for capabilities that don't narrow nb
// across a delegation.
func DefaultDerives[T comparable](claimed, proven T) bool {
	return claimed == proven
}
