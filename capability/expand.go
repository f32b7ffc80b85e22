package capability

import (
	"fmt"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/ucan"
)

// Expand renders dlg's capabilities through the ability-match re-delegation
// rule of §4.G.1, as a list of Source: each pairs a wire-shaped capability
// with the delegation it should be attributed to when a search recurses
// further. A direct (non-`ucan:*`) grant is attributed to dlg itself. A
// `ucan:*` capability first yields itself rewritten to dlg's own issuer
// (the delegator's own resources, what self-issue authority is checked
// against), still attributed to dlg; then, for every proof dlg resolves,
// every capability of that proof whose `can` is compatible with the
// `ucan:*` grant's own `can` is copied through with the more specific
// ability and a shallow nb merge, attributed to that proof so a further
// escalation check walks the proof's own chain rather than dlg's.
func Expand(dlg delegation.Delegation) ([]Source, error) {
	issuerDID := dlg.Issuer().DID().String()
	var out []Source
	for _, raw := range dlg.Capabilities() {
		if raw.With() != ucan.MetaResource {
			out = append(out, NewSource(raw, dlg))
			continue
		}

		out = append(out, NewSource(delegation.NewRawCapability(raw.Can(), issuerDID, raw.Nb()), dlg))

		for _, proof := range dlg.ResolvedProofs() {
			included, ok := proof.Delegation()
			if !ok {
				continue
			}
			for _, inner := range included.Capabilities() {
				merged, ok := IntersectAbility(inner.Can(), raw.Can())
				if !ok {
					continue
				}
				nb, err := mergeNb(raw.Nb(), inner.Nb())
				if err != nil {
					return nil, fmt.Errorf("merging nb for re-delegated %q: %w", merged, err)
				}
				out = append(out, NewSource(delegation.NewRawCapability(merged, inner.With(), nb), included))
			}
		}
	}
	return out, nil
}

// mergeNb shallow-merges own's fields onto child's, own taking precedence
// key-by-key (§4.G.1, §9 "conservative widening"). Nested structures and
// list-typed caveats are not merged recursively — an overridden key
// replaces the child's value wholesale, per the Open Question resolution
// in spec §9: the final derives predicate is the source of truth for
// rejecting a claim this widening made too permissive.
func mergeNb(own, child ipld.Node) (ipld.Node, error) {
	ownAny, err := ipld.ToAny(own)
	if err != nil {
		return nil, err
	}
	childAny, err := ipld.ToAny(child)
	if err != nil {
		return nil, err
	}
	ownMap, _ := ownAny.(map[string]any)
	childMap, ok := childAny.(map[string]any)
	if !ok {
		childMap = map[string]any{}
	}
	merged := make(map[string]any, len(childMap)+len(ownMap))
	for k, v := range childMap {
		merged[k] = v
	}
	for k, v := range ownMap {
		merged[k] = v
	}
	return ipld.FromMap(merged)
}
