package validator

import (
	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result"
	"github.com/ucanengine/core/ucan"
)

// ClaimContext carries the state that accumulates while Access walks a
// proof chain: the current time, fixed for the whole call so a long
// chain can't straddle a clock tick inconsistently. Cycle detection lives
// in the capability.Env that Access builds per call instead, since it must
// track visited links across whichever capability shape SearchProofs is
// currently recursing through.
type ClaimContext struct {
	now uint64
}

// NewClaimContext starts a fresh claim evaluation at the given time.
func NewClaimContext(now uint64) *ClaimContext {
	return &ClaimContext{now: now}
}

func (c *ClaimContext) Now() uint64 { return c.now }

// Authorization is the successful outcome of Access: a claimed capability
// together with the chain of delegations that proved it.
type Authorization[T any] struct {
	Capability ucan.Capability[T]
	Issuer     ucan.Principal
	Audience   ucan.Principal
	Proofs     []delegation.Delegation
}

// ValidationContext fixes everything about a capability check that does
// not vary per invocation: the expected audience, the capability shape a
// handler requires, and the collaborators needed to resolve principals
// and proofs.
type ValidationContext[T any] struct {
	Authority             ucan.Verifier
	Capability             capability.Selector[T]
	CanIssue               func(with ucan.Resource, issuer ucan.DID) bool
	ValidateAuthorization  func(auth Authorization[T]) result.Result[struct{}, Failure]
	ResolveProof           func(link ucan.Link) result.Result[delegation.Delegation, Failure]
	ParsePrincipal         func(id string) (ucan.Verifier, error)
	ResolveDIDKey          PrincipalResolver
	Proofs                 []delegation.Delegation
}

// NewValidationContext builds a ValidationContext. cap may be a plain
// Descriptor or any Or/Derive combinator built on top of one — anything
// satisfying capability.Selector[T]. validateAuthorization and
// resolveProof may be nil; a nil validateAuthorization always passes, and
// a nil resolveProof means unresolved proof links are never fetched out of
// band.
func NewValidationContext[T any](
	authority ucan.Verifier,
	cap capability.Selector[T],
	canIssue func(with ucan.Resource, issuer ucan.DID) bool,
	validateAuthorization func(auth Authorization[T]) result.Result[struct{}, Failure],
	resolveProof func(link ucan.Link) result.Result[delegation.Delegation, Failure],
	parsePrincipal func(id string) (ucan.Verifier, error),
	resolveDIDKey PrincipalResolver,
	proofs ...delegation.Delegation,
) *ValidationContext[T] {
	return &ValidationContext[T]{
		Authority:            authority,
		Capability:           cap,
		CanIssue:             canIssue,
		ValidateAuthorization: validateAuthorization,
		ResolveProof:         resolveProof,
		ParsePrincipal:       parsePrincipal,
		ResolveDIDKey:        resolveDIDKey,
		Proofs:               proofs,
	}
}
