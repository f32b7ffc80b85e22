package capability

import (
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result/failure"
	"github.com/ucanengine/core/ucan"
)

type orSelector[T any] struct {
	alternatives []Selector[T]
}

// Or builds a Selector that tries each alternative in order and returns
// the first Match; if none match, it returns the first Malformed result
// seen (a more informative rejection than Unknown), or Unknown if every
// alternative was Unknown. Derives and the Derive-ancestor search both
// delegate to whichever alternatives accept, so two differently-abled
// descriptors (e.g. a current and a legacy ability string) can stand in
// for one Selector wherever a handler is written against a single shape.
func Or[T any](alternatives ...Selector[T]) Selector[T] {
	return &orSelector[T]{alternatives: alternatives}
}

func (m *orSelector[T]) Match(raw delegation.RawCapability) MatchResult[T] {
	var malformed Malformed[T]
	haveMalformed := false
	for _, alt := range m.alternatives {
		switch res := alt.Match(raw).(type) {
		case Match[T]:
			return res
		case Malformed[T]:
			if !haveMalformed {
				malformed, haveMalformed = res, true
			}
		}
	}
	if haveMalformed {
		return malformed
	}
	return Unknown[T]{Capability: raw}
}

func (m *orSelector[T]) Derives(claimed, proven ucan.Capability[T]) bool {
	for _, alt := range m.alternatives {
		if alt.Derives(claimed, proven) {
			return true
		}
	}
	return false
}

func (m *orSelector[T]) searchAncestors(claimed ucan.Capability[T]) []ancestorSearch {
	var out []ancestorSearch
	for _, alt := range m.alternatives {
		out = append(out, alt.searchAncestors(claimed)...)
	}
	return out
}

// deriveSelector is the Selector Derive builds: it matches to directly
// (spec §4.F "derive matches `to` directly") but also exposes from as a
// cross-shape ancestor, so a proof-chain search can authorize a Child
// claim from a proof that only grants a Parent-shaped capability (the
// marquee case: "upload/add" derived from a proof granting "store/add").
type deriveSelector[Child, Parent any] struct {
	to      *Descriptor[Child]
	from    Selector[Parent]
	accepts func(claimed Child, proven Parent) bool
}

// Derive builds a Selector for Child whose direct shape is to, and whose
// single Derive ancestor is from: a Parent-shaped capability found in a
// proof authorizes a Child claim whenever accepts(claimed.Nb(),
// proven.Nb()) holds (spec §4.F "derives(claimed, parent.value)"). from
// may itself be a Derive combinator, in which case the ancestor chain
// continues transitively — SearchProofs recurses into from's own
// searchAncestors once a Parent-shaped match is found.
func Derive[Child, Parent any](to *Descriptor[Child], from Selector[Parent], accepts func(claimedNb Child, provenNb Parent) bool) Selector[Child] {
	return &deriveSelector[Child, Parent]{to: to, from: from, accepts: accepts}
}

func (d *deriveSelector[Child, Parent]) Match(raw delegation.RawCapability) MatchResult[Child] {
	return d.to.Match(raw)
}

func (d *deriveSelector[Child, Parent]) Derives(claimed, proven ucan.Capability[Child]) bool {
	return d.to.Derives(claimed, proven)
}

func (d *deriveSelector[Child, Parent]) searchAncestors(claimed ucan.Capability[Child]) []ancestorSearch {
	self := func(src Source) (ancestorMatch, bool) {
		m, ok := d.from.Match(src.Capability).(Match[Parent])
		if !ok || !d.accepts(claimed.Nb(), m.Value.Nb()) {
			return ancestorMatch{}, false
		}
		return ancestorMatch{
			with: m.Value.With(),
			further: func(dlg delegation.Delegation, expectedAudience ucan.DID, env *Env) ([]delegation.Delegation, []failure.Failure) {
				return SearchProofs(d.from, dlg, expectedAudience, m.Value, env)
			},
		}, true
	}
	return []ancestorSearch{self}
}
