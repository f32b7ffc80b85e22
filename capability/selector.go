package capability

import (
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result/failure"
	"github.com/ucanengine/core/ucan"
)

// Selector is what validator.Access walks (spec §4.F: a combinator is
// "both a matcher and a selector"): something that can parse a raw
// capability into a T-shaped claim, decide whether one claimed instance
// is entailed by a proven one, and — for a Derive combinator — hand back
// a continuation per cross-shape ancestor so a proof-chain search can try
// those shapes too wherever the exact one is absent from a proof (§4.G
// step 4, "reachable ... directly, or via any Derive combinator"). A
// Descriptor has no ancestors; a Derive exposes its from selector; an Or
// exposes whatever ancestors its alternatives expose.
type Selector[T any] interface {
	Matcher[T]
	Derives(claimed, proven ucan.Capability[T]) bool
	searchAncestors(claimed ucan.Capability[T]) []ancestorSearch
}

// ancestorSearch is one Derive ancestor reduced to something SearchProofs
// can try against a single expanded source without knowing the ancestor's
// own caveats type: it reports whether src both matches that ancestor's
// shape and is accepted as deriving the original claim, and if so the
// resource to self-issue-check plus a continuation that searches the
// source's own further proof chain for that ancestor shape.
type ancestorSearch func(src Source) (ancestorMatch, bool)

type ancestorMatch struct {
	with    ucan.Resource
	further func(dlg delegation.Delegation, expectedAudience ucan.DID, env *Env) ([]delegation.Delegation, []failure.Failure)
}
