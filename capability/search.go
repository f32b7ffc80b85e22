package capability

import (
	"fmt"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result/failure"
	"github.com/ucanengine/core/ucan"
)

// SearchProofs is the proof-chain search of spec §4.G steps 2-4: it tries
// each of dlg's own resolved proofs in turn, looking for one that derives
// claimed under sel (directly, or through any Derive ancestor reachable
// from sel), recursing into whichever proof gets closest. The first
// success wins; every cause collected along the way (an unresolved proof,
// an invalid audience, an escalation at some depth) is returned so a
// caller can fold them into a SessionError.
func SearchProofs[T any](sel Selector[T], dlg delegation.Delegation, expectedAudience ucan.DID, claimed ucan.Capability[T], env *Env) ([]delegation.Delegation, []failure.Failure) {
	if !env.enter(dlg.Link()) {
		return nil, []failure.Failure{cyclicFailure(dlg.Link())}
	}
	var causes []failure.Failure
	for _, proof := range dlg.ResolvedProofs() {
		resolved, f := env.ResolveProof(proof)
		if f != nil {
			causes = append(causes, f)
			continue
		}
		trace, fails := selectFrom(sel, resolved, expectedAudience, claimed, env)
		if len(fails) == 0 {
			return trace, nil
		}
		causes = append(causes, fails...)
	}
	if len(causes) == 0 {
		return nil, []failure.Failure{escalatedFailure(claimed)}
	}
	return nil, causes
}

// selectFrom checks that proof itself is currently valid and addressed to
// expectedAudience, then expands its capabilities (§4.G.1) and looks for
// one that derives claimed, either directly under sel's own shape or, for
// any Derive ancestor sel exposes, under that ancestor's shape. A matching
// source is checked for self-issue authority first; failing that, the
// search recurses one hop further up that source's own proof chain.
func selectFrom[T any](sel Selector[T], proof delegation.Delegation, expectedAudience ucan.DID, claimed ucan.Capability[T], env *Env) ([]delegation.Delegation, []failure.Failure) {
	if f := env.CheckProof(proof, expectedAudience); f != nil {
		return nil, []failure.Failure{f}
	}

	expanded, err := Expand(proof)
	if err != nil {
		return nil, []failure.Failure{failure.Named{Name: "InvalidClaim", Message: fmt.Sprintf("expanding capabilities of %s: %v", proof.Link(), err)}}
	}
	ancestors := sel.searchAncestors(claimed)

	var causes []failure.Failure
	for _, src := range expanded {
		if m, ok := sel.Match(src.Capability).(Match[T]); ok && sel.Derives(claimed, m.Value) {
			trace, fails := grant(proof, src, m.Value.With(), env, func(dlg delegation.Delegation, issuer ucan.DID) ([]delegation.Delegation, []failure.Failure) {
				return SearchProofs(sel, dlg, issuer, m.Value, env)
			})
			if len(fails) == 0 {
				return trace, nil
			}
			causes = append(causes, fails...)
			continue
		}
		for _, anc := range ancestors {
			am, ok := anc(src)
			if !ok {
				continue
			}
			trace, fails := grant(proof, src, am.with, env, func(dlg delegation.Delegation, issuer ucan.DID) ([]delegation.Delegation, []failure.Failure) {
				return am.further(dlg, issuer, env)
			})
			if len(fails) == 0 {
				return trace, nil
			}
			causes = append(causes, fails...)
		}
	}
	if len(causes) == 0 {
		return nil, []failure.Failure{escalatedFailure(claimed)}
	}
	return nil, causes
}

// grant resolves one candidate source: if its issuer may exercise with on
// their own authority, proof (plus src's delegation, when it differs) is
// the whole trace; otherwise recurse continues the search one hop further
// up src's own proof chain under whatever shape the caller is tracking.
func grant(proof delegation.Delegation, src Source, with ucan.Resource, env *Env, recurse func(dlg delegation.Delegation, issuer ucan.DID) ([]delegation.Delegation, []failure.Failure)) ([]delegation.Delegation, []failure.Failure) {
	issuer := src.Delegation.Issuer().DID()
	base := []delegation.Delegation{proof}
	if src.Delegation.Link() != proof.Link() {
		base = append(base, src.Delegation)
	}
	if env.CanIssue(with, issuer) {
		return base, nil
	}
	deeper, fails := recurse(src.Delegation, issuer)
	if len(fails) > 0 {
		return nil, fails
	}
	return append(base, deeper...), nil
}

func escalatedFailure[T any](claimed ucan.Capability[T]) failure.Failure {
	return failure.Named{Name: "EscalatedCapability", Message: fmt.Sprintf("no proof derives capability %q with %q", claimed.Can(), claimed.With())}
}

func cyclicFailure(link ucan.Link) failure.Failure {
	return failure.Named{Name: "InvalidClaim", Message: "cyclic proof chain at " + link.String()}
}
