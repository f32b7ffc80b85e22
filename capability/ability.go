package capability

import (
	"strings"

	"github.com/ucanengine/core/ucan"
)

// abilityMatches reports whether a concrete ability (as claimed on an
// invocation or a delegated capability) falls under a descriptor's
// ability pattern: an exact string, a namespace wildcard ("store/*"), or
// the universal wildcard ("*").
func abilityMatches(pattern, can ucan.Ability) bool {
	if pattern == ucan.AllAbility {
		return true
	}
	if ns, ok := wildcardNamespace(pattern); ok {
		return strings.HasPrefix(can, ns)
	}
	return pattern == can
}

// wildcardNamespace splits a "namespace/*" pattern into its namespace
// prefix (including the trailing slash), reporting false for a pattern
// that is not a namespace wildcard.
func wildcardNamespace(pattern ucan.Ability) (string, bool) {
	if !strings.HasSuffix(pattern, "/*") {
		return "", false
	}
	return pattern[:len(pattern)-1], true
}

// IntersectAbility computes the narrowest ability pattern two patterns
// both admit, the rule re-delegation expansion uses when a claimed
// capability's ability must fall within every proof's ability pattern in
// the chain. Two equal patterns intersect to themselves; a wildcard
// intersected with a narrower pattern it covers yields the narrower one;
// two unequal non-wildcard patterns, or two wildcards over different
// namespaces, do not intersect at all.
func IntersectAbility(a, b ucan.Ability) (ucan.Ability, bool) {
	if a == b {
		return a, true
	}
	if !ucan.IsWildcardAbility(a) && !ucan.IsWildcardAbility(b) {
		return "", false
	}
	if a == ucan.AllAbility {
		return b, true
	}
	if b == ucan.AllAbility {
		return a, true
	}
	aNS, aWild := wildcardNamespace(a)
	bNS, bWild := wildcardNamespace(b)
	switch {
	case aWild && !bWild:
		if strings.HasPrefix(b, aNS) {
			return b, true
		}
	case bWild && !aWild:
		if strings.HasPrefix(a, bNS) {
			return a, true
		}
	case aWild && bWild:
		if aNS == bNS {
			return a, true
		}
	}
	return "", false
}
