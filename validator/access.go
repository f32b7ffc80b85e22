package validator

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result"
	"github.com/ucanengine/core/ucan"
)

var log = logging.Logger("validator")

// Access is the proof-chain validator: given an invocation delegation and
// a ValidationContext describing what capability it must claim and who
// it must be addressed to, it either returns the Authorization the
// invocation earned or the Failure that explains why it didn't.
//
// The checks run in a fixed order so the first applicable rejection wins:
// the claimed capability must parse, the invocation must name vctx's
// authority as its audience, it must currently be valid in time, and its
// signature must verify. Only then does Access decide whether the issuer
// may exercise the capability on their own authority, or must prove it
// through a delegation chain.
func Access[T any](claimCtx *ClaimContext, invocation delegation.Delegation, vctx *ValidationContext[T]) result.Result[Authorization[T], Failure] {
	claimed, raw, failure := findClaim(vctx.Capability, invocation.Capabilities())
	if failure != nil {
		return result.Error[Authorization[T], Failure](failure)
	}

	if f := checkAudience(invocation.Audience().DID(), vctx.Authority.DID()); f != nil {
		return result.Error[Authorization[T], Failure](f)
	}
	if f := NotExpiredNotTooEarly(invocation, claimCtx.Now()); f != nil {
		return result.Error[Authorization[T], Failure](f)
	}
	if f := verifySignature(invocation, vctx); f != nil {
		return result.Error[Authorization[T], Failure](f)
	}

	issuerDID := invocation.Issuer().DID()
	if IsSelfIssued(claimed.Value.With(), issuerDID, vctx.CanIssue) {
		log.Debugw("self-issued claim granted", "capability", claimed.Value.Can(), "with", claimed.Value.With(), "issuer", issuerDID.String())
		auth := Authorization[T]{
			Capability: claimed.Value,
			Issuer:     invocation.Issuer(),
			Audience:   invocation.Audience(),
		}
		return finalizeAuthorization(auth, vctx)
	}

	log.Debugw("walking proof chain", "capability", claimed.Value.Can(), "with", claimed.Value.With(), "proofs", len(invocation.ResolvedProofs()))

	env := capability.NewEnv(
		func(with ucan.Resource, issuer ucan.DID) bool { return IsSelfIssued(with, issuer, vctx.CanIssue) },
		func(dlg delegation.Delegation, expectedAudience ucan.DID) Failure {
			if f := checkAudience(dlg.Audience().DID(), expectedAudience); f != nil {
				return f
			}
			if f := NotExpiredNotTooEarly(dlg, claimCtx.Now()); f != nil {
				return f
			}
			return verifySignature(dlg, vctx)
		},
		func(p delegation.Proof) (delegation.Delegation, Failure) { return resolveProof(p, vctx) },
	)

	proven, causes := capability.SearchProofs(vctx.Capability, invocation, issuerDID, claimed.Value, env)
	if len(causes) == 0 {
		auth := Authorization[T]{
			Capability: claimed.Value,
			Issuer:     invocation.Issuer(),
			Audience:   invocation.Audience(),
			Proofs:     proven,
		}
		return finalizeAuthorization(auth, vctx)
	}
	sessionErr := NewSessionError(raw, causes)
	log.Debugw("no proof authorized claim", "capability", claimed.Value.Can(), "with", claimed.Value.With(), "causes", len(causes))
	return result.Error[Authorization[T], Failure](sessionErr)
}

func checkAudience(actual, expected ucan.DID) Failure {
	if actual.String() != expected.String() {
		return InvalidAudience(expected, actual)
	}
	return nil
}

func verifySignature[T any](dlg delegation.Delegation, vctx *ValidationContext[T]) Failure {
	issuerDID := dlg.Issuer().DID()
	verifier, err := resolveVerifier(issuerDID, vctx)
	if err != nil {
		return UnresolvedPrincipal(issuerDID, err)
	}
	signingBytes, err := delegation.SigningBytes(dlg)
	if err != nil {
		return InvalidClaim(fmt.Sprintf("recomputing signing bytes for %s: %v", dlg.Link(), err))
	}
	if !verifier.Verify(signingBytes, dlg.Signature()) {
		return InvalidSignature(issuerDID)
	}
	return nil
}

func resolveVerifier[T any](d ucan.DID, vctx *ValidationContext[T]) (ucan.Verifier, error) {
	if vctx.ParsePrincipal != nil {
		return vctx.ParsePrincipal(d.String())
	}
	if vctx.ResolveDIDKey != nil {
		return vctx.ResolveDIDKey.ResolveDIDKey(d)
	}
	return nil, fmt.Errorf("validator: no principal resolver configured")
}

// resolveProof resolves one proof entry to a delegation, trying the
// proof's own attached block first, then the validation context's extra
// proofs (matched by link), then its ResolveProof callback.
func resolveProof[T any](proof delegation.Proof, vctx *ValidationContext[T]) (delegation.Delegation, Failure) {
	if dlg, ok := proof.Delegation(); ok {
		return dlg, nil
	}
	for _, extra := range vctx.Proofs {
		if extra.Link() == proof.Link() {
			return extra, nil
		}
	}
	if vctx.ResolveProof != nil {
		r := vctx.ResolveProof(proof.Link())
		if dlg, f := result.Unwrap(r); f == nil {
			return dlg, nil
		} else {
			return nil, f
		}
	}
	return nil, ProofUnavailable(proof.Link())
}

func findClaim[T any](desc capability.Selector[T], raws []delegation.RawCapability) (capability.Match[T], delegation.RawCapability, Failure) {
	if len(raws) == 0 {
		return capability.Match[T]{}, delegation.RawCapability{}, InvalidClaim("invocation carries no capabilities")
	}
	var malformed *capability.Malformed[T]
	for _, raw := range raws {
		switch m := desc.Match(raw).(type) {
		case capability.Match[T]:
			return m, raw, nil
		case capability.Malformed[T]:
			if malformed == nil {
				mm := m
				malformed = &mm
			}
		}
	}
	if malformed != nil {
		return capability.Match[T]{}, delegation.RawCapability{}, MalformedCapability(malformed.Capability, malformed.Cause)
	}
	return capability.Match[T]{}, raws[0], UnknownCapability(raws[0])
}

func finalizeAuthorization[T any](auth Authorization[T], vctx *ValidationContext[T]) result.Result[Authorization[T], Failure] {
	if vctx.ValidateAuthorization != nil {
		if _, f := result.Unwrap(vctx.ValidateAuthorization(auth)); f != nil {
			return result.Error[Authorization[T], Failure](f)
		}
	}
	return result.Ok[Authorization[T], Failure](auth)
}
