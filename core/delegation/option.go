package delegation

import (
	"github.com/google/uuid"

	"github.com/ucanengine/core/ucan"
)

// defaultValidity is how long a delegation is valid for when no
// expiration option is given, matching the short-lived-token default the
// consuming services hardcode around their own access grants.
const defaultValidity = 3600 // seconds

type buildState struct {
	expiration   *uint64
	noExpiration bool
	notBefore    *uint64
	nonce        string
	facts        []map[string]any
	proofs       []ucan.Link
	proofBlocks  []proofAttachment
}

type proofAttachment struct {
	link   ucan.Link
	source Delegation
}

// Option configures one optional field of a delegation under construction.
type Option func(*buildState)

// WithExpiration sets the delegation's expiration to an absolute UCAN
// timestamp (seconds since epoch).
func WithExpiration(exp uint64) Option {
	return func(s *buildState) { s.expiration = &exp }
}

// WithNoExpiration marks the delegation as never expiring, overriding the
// default expiration Delegate would otherwise assign.
func WithNoExpiration() Option {
	return func(s *buildState) { s.noExpiration = true }
}

// WithNotBefore sets the delegation's not-valid-before timestamp.
func WithNotBefore(nbf uint64) Option {
	return func(s *buildState) { s.notBefore = &nbf }
}

// WithNonce sets an explicit nonce, overriding the random one Delegate
// would otherwise generate.
func WithNonce(nonce string) Option {
	return func(s *buildState) { s.nonce = nonce }
}

// WithFacts attaches arbitrary fact entries to the delegation.
func WithFacts(facts []ucan.FactBuilder) Option {
	return func(s *buildState) {
		for _, f := range facts {
			if m, err := f.ToIPLD(); err == nil {
				s.facts = append(s.facts, m)
			}
		}
	}
}

// WithProof attaches a delegation as a proof: its link is appended to the
// proofs list, and its own blocks (itself plus everything it already
// transitively resolves) travel with the new delegation so a recipient
// can validate the whole chain without a further fetch.
func WithProof(proofs ...Delegation) Option {
	return func(s *buildState) {
		for _, p := range proofs {
			s.proofs = append(s.proofs, p.Link())
			s.proofBlocks = append(s.proofBlocks, proofAttachment{link: p.Link(), source: p})
		}
	}
}

func newBuildState(opts []Option) *buildState {
	s := &buildState{}
	for _, opt := range opts {
		opt(s)
	}
	if s.expiration == nil && !s.noExpiration {
		exp := ucan.Now() + defaultValidity
		s.expiration = &exp
	}
	if s.nonce == "" {
		s.nonce = uuid.NewString()
	}
	return s
}
