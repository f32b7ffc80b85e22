package capability

import (
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result/failure"
	"github.com/ucanengine/core/ucan"
)

// Env carries SearchProofs' collaborators that don't depend on which
// capability shape is being searched for: the self-issue rule, however a
// candidate delegation's own audience/time/signature are checked, and
// however a dangling proof link resolves. validator.Access builds one of
// these per call so the proof-chain search in this package never needs to
// import the validator package.
type Env struct {
	CanIssue     func(with ucan.Resource, issuer ucan.DID) bool
	CheckProof   func(dlg delegation.Delegation, expectedAudience ucan.DID) failure.Failure
	ResolveProof func(p delegation.Proof) (delegation.Delegation, failure.Failure)
	visited      map[ucan.Link]bool
}

// NewEnv builds an Env with a fresh cycle-detection set.
func NewEnv(
	canIssue func(with ucan.Resource, issuer ucan.DID) bool,
	checkProof func(dlg delegation.Delegation, expectedAudience ucan.DID) failure.Failure,
	resolveProof func(p delegation.Proof) (delegation.Delegation, failure.Failure),
) *Env {
	return &Env{CanIssue: canIssue, CheckProof: checkProof, ResolveProof: resolveProof, visited: map[ucan.Link]bool{}}
}

// enter marks link as visited, reporting false if it already was (a cycle
// or a diamond the search should not re-walk).
func (e *Env) enter(link ucan.Link) bool {
	if e.visited[link] {
		return false
	}
	e.visited[link] = true
	return true
}
