package validator

import (
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/core/result/failure"
	"github.com/ucanengine/core/ucan"
)

// Failure is the common shape every rejection in this package takes: an
// error that also knows how to render itself as an IPLD node, so a
// rejected invocation's cause can travel back to its caller as data
// rather than a stack trace. It is exactly package failure's contract,
// reused rather than redeclared so a SessionError's causes and a plain
// capability rejection carry the same wire shape.
type Failure = failure.Failure

func namedFailure(name, message string) Failure {
	return failure.Named{Name: name, Message: message}
}

// UnknownCapability reports that none of an invocation's capabilities
// matched the descriptor a handler required at all.
func UnknownCapability(cap delegation.RawCapability) Failure {
	return namedFailure("UnknownCapability", fmt.Sprintf("capability %q with %q is not known to this handler", cap.Can(), cap.With()))
}

// MalformedCapability reports that a capability's ability matched but
// its resource or caveats failed to parse.
func MalformedCapability(cap delegation.RawCapability, cause error) Failure {
	return namedFailure("MalformedCapability", fmt.Sprintf("capability %q with %q is malformed: %v", cap.Can(), cap.With(), cause))
}

// InvalidClaim wraps a generic validation failure that isn't one of the
// more specific named cases below (e.g. a proof block that fails to
// decode at all).
func InvalidClaim(message string) Failure {
	return namedFailure("InvalidClaim", message)
}

// EscalatedCapability reports that every proof in the chain was itself
// valid, but none of them actually grants what the invocation claims.
func EscalatedCapability(claimed ucan.Ability, with ucan.Resource) Failure {
	return namedFailure("EscalatedCapability", fmt.Sprintf("no proof derives capability %q with %q", claimed, with))
}

// InvalidAudience reports that a delegation in the chain was not
// addressed to the principal presenting it as a proof.
func InvalidAudience(expected, actual ucan.DID) Failure {
	return namedFailure("InvalidAudience", fmt.Sprintf("expected audience %q, delegation names %q", expected.String(), actual.String()))
}

// InvalidSignature reports that a delegation's signature did not verify
// against its claimed issuer.
func InvalidSignature(issuer ucan.DID) Failure {
	return namedFailure("InvalidSignature", fmt.Sprintf("signature does not verify against issuer %q", issuer.String()))
}

// Expired reports that a delegation's expiration has already passed.
func Expired(exp uint64, now uint64) Failure {
	return namedFailure("Expired", fmt.Sprintf("expired at %d, now is %d", exp, now))
}

// NotValidYet reports that a delegation's notBefore has not arrived yet.
func NotValidYet(nbf uint64, now uint64) Failure {
	return namedFailure("NotValidYet", fmt.Sprintf("not valid before %d, now is %d", nbf, now))
}

// UnresolvedProof reports that a proof link could not be resolved to a
// delegation through any attached block, external proof, or resolver.
func UnresolvedProof(link ucan.Link) Failure {
	return namedFailure("UnresolvedProof", fmt.Sprintf("proof %s could not be resolved", link))
}

// UnresolvedPrincipal reports that a delegation's issuer DID could not be
// turned into a Verifier: a malformed DID string, or a PrincipalResolver
// that errored. Typed as failure.IPLDBuilderFailure directly rather than
// namedFailure's generic Named, the same "no more specific failure type of
// its own" case the library's own invocation handlers fall back to.
func UnresolvedPrincipal(d ucan.DID, cause error) Failure {
	return failure.IPLDBuilderFailure{Name: "UnresolvedPrincipal", Message: fmt.Sprintf("resolving signer %q: %v", d.String(), cause)}
}

// SessionError aggregates one rejection cause per proof tried, the
// outcome when an invocation has proofs but none of them validates and
// derives the claimed capability.
type SessionError struct {
	Claimed delegation.RawCapability
	causes  *multierror.Error
}

// NewSessionError builds a SessionError from the per-proof failures
// gathered while expanding an invocation's proof chain.
func NewSessionError(claimed delegation.RawCapability, causes []Failure) *SessionError {
	me := &multierror.Error{}
	for _, c := range causes {
		me = multierror.Append(me, c)
	}
	return &SessionError{Claimed: claimed, causes: me}
}

// Causes returns every per-proof failure this error aggregates, in the
// order proofs were tried.
func (e *SessionError) Causes() []error {
	if e.causes == nil {
		return nil
	}
	return e.causes.Errors
}

func (e *SessionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no proof authorizes %q with %q:", e.Claimed.Can(), e.Claimed.With())
	for _, c := range e.Causes() {
		b.WriteString("\n  - ")
		b.WriteString(c.Error())
	}
	return b.String()
}

func (e *SessionError) ToIPLD() (ipld.Node, error) {
	causes := make([]any, 0, len(e.Causes()))
	for _, c := range e.Causes() {
		if f, ok := c.(Failure); ok {
			n, err := f.ToIPLD()
			if err != nil {
				return nil, err
			}
			v, err := ipld.ToAny(n)
			if err != nil {
				return nil, err
			}
			causes = append(causes, v)
			continue
		}
		n, err := failure.FromError(c).ToIPLD()
		if err != nil {
			return nil, err
		}
		v, err := ipld.ToAny(n)
		if err != nil {
			return nil, err
		}
		causes = append(causes, v)
	}
	return ipld.FromMap(map[string]any{
		"name":    "SessionError",
		"message": e.Error(),
		"causes":  causes,
	})
}

var _ Failure = (*SessionError)(nil)
