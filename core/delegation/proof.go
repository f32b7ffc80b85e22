package delegation

import (
	"github.com/ucanengine/core/core/dag/blockstore"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/ucan"
)

// Proof is one entry of a delegation's proof list, resolved as far as the
// available blocks allow: either the nested Delegation the link points to,
// or the bare link when its block was never attached.
type Proof struct {
	link       ucan.Link
	delegation Delegation
}

// Link returns the raw link this proof points to, regardless of whether
// it resolved.
func (p Proof) Link() ucan.Link { return p.link }

// Delegation returns the resolved delegation view and true, or the zero
// value and false if this proof's block was not available.
func (p Proof) Delegation() (Delegation, bool) {
	return p.delegation, p.delegation != nil
}

// NewProofsView resolves a delegation's raw proof links against a block
// store, producing one Proof per link. A resolved proof's own Delegation
// view shares bs when bs is a *blockstore.MapBlockStore, and otherwise a
// copy of bs's blocks, so its proofs resolve transitively against the same
// pool of blocks without any further fetching.
func NewProofsView(links []ucan.Link, bs blockstore.BlockStore) []Proof {
	proofs := make([]Proof, len(links))
	for i, link := range links {
		proofs[i] = Proof{link: link}
		block, ok := bs.Get(link)
		if !ok {
			continue
		}
		mbs, ok := bs.(*blockstore.MapBlockStore)
		if !ok {
			mbs, _ = blockstore.NewBlockReader(bs.All())
		}
		n, err := ipld.DecodeBlock(block)
		if err != nil {
			continue
		}
		if _, err := decodePayload(n); err != nil {
			continue
		}
		proofs[i] = Proof{link: link, delegation: newView(block, mbs)}
	}
	return proofs
}
