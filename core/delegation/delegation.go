// Package delegation implements the delegation DAG: a lazy view over a
// signed token payload block plus whatever proof and caveat blocks travel
// with it, and the CAR-based archive codec used to move a delegation (and
// everything it depends on) across a wire.
package delegation

import (
	"fmt"
	"io"
	"iter"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs/go-cid"

	"github.com/ucanengine/core/core/dag/blockstore"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/ucan"
)

var log = logging.Logger("delegation")

// Delegation is a lazy view over a root token-payload block. Its fields
// are decoded from that block on first access and cached; its proofs are
// resolved against whatever blocks travel alongside it, which may be a
// strict subset of the full DAG its issuer originally saw.
type Delegation interface {
	Link() cid.Cid
	Bytes() []byte
	Data() (Payload, error)

	Version() string
	Issuer() ucan.Principal
	Audience() ucan.Principal
	Capabilities() []RawCapability
	Proofs() []ucan.Link
	Facts() []map[string]any
	Expiration() *uint64
	NotBefore() *uint64
	Nonce() string
	Signature() ucan.Signature

	// ResolvedProofs resolves each entry of Proofs() against this
	// delegation's own attached blocks, returning a Proof per link: either
	// a nested Delegation view, or a bare unresolved Link.
	ResolvedProofs() []Proof

	// Iterate walks every delegation reachable through ResolvedProofs,
	// transitively, in post-order (a proof's own proofs before the proof
	// itself), skipping links that do not resolve.
	Iterate() iter.Seq[Delegation]

	// IterateBlocks yields this delegation's own root block followed by
	// every block reachable by walking ResolvedProofs transitively. It is
	// the traversal Archive packs into a CAR.
	IterateBlocks() iter.Seq[ipld.Block]

	// Attach adds a block (a proof's root, or one of its own proofs'
	// blocks) to this delegation's local store, making it resolvable by
	// ResolvedProofs/Iterate without re-fetching it from elsewhere.
	Attach(b ipld.Block)

	// Archive serializes this delegation and its full proof chain as a
	// CARv1 container.
	Archive() io.Reader
}

type delegation struct {
	root   ipld.Block
	blocks *blockstore.MapBlockStore

	payload *Payload // memoized Data()
	proofs  []Proof  // memoized ResolvedProofs()
}

var _ Delegation = (*delegation)(nil)

// newView wraps a root block and its companion blocks into a Delegation,
// without decoding anything yet.
func newView(root ipld.Block, blocks *blockstore.MapBlockStore) *delegation {
	if blocks == nil {
		blocks = blockstore.NewMapBlockStore()
	}
	return &delegation{root: root, blocks: blocks}
}

func (d *delegation) Link() cid.Cid { return d.root.Link() }
func (d *delegation) Bytes() []byte { return d.root.Bytes() }

func (d *delegation) Data() (Payload, error) {
	if d.payload != nil {
		return *d.payload, nil
	}
	n, err := ipld.DecodeBlock(d.root)
	if err != nil {
		return Payload{}, fmt.Errorf("decoding delegation %s: %w", d.root.Link(), err)
	}
	p, err := decodePayload(n)
	if err != nil {
		return Payload{}, fmt.Errorf("decoding delegation %s: %w", d.root.Link(), err)
	}
	log.Debugw("decoded delegation payload", "cid", d.root.Link().String(), "issuer", p.Issuer, "audience", p.Audience)
	d.payload = &p
	return p, nil
}

// mustData is used by the pure-accessor methods below, which the real
// library exposes as zero-error convenience wrappers around Data(). When
// Data() fails (the root block does not decode as a payload) it returns
// the zero Payload, so each accessor yields its field's zero value.
// Extract does not decode the root payload, so such a failure first
// surfaces here or through Data()'s own error.
func (d *delegation) mustData() Payload {
	p, err := d.Data()
	if err != nil {
		return Payload{}
	}
	return p
}

func (d *delegation) Version() string                { return d.mustData().Version }
func (d *delegation) Issuer() ucan.Principal          { return ucan.ParseDID(d.mustData().Issuer) }
func (d *delegation) Audience() ucan.Principal        { return ucan.ParseDID(d.mustData().Audience) }
func (d *delegation) Capabilities() []RawCapability   { return d.mustData().Capabilities }
func (d *delegation) Proofs() []ucan.Link             { return d.mustData().Proofs }
func (d *delegation) Facts() []map[string]any         { return d.mustData().Facts }
func (d *delegation) Expiration() *uint64             { return d.mustData().Expiration }
func (d *delegation) NotBefore() *uint64              { return d.mustData().NotBefore }
func (d *delegation) Nonce() string                   { return d.mustData().Nonce }
func (d *delegation) Signature() ucan.Signature       { return d.mustData().Signature }

func (d *delegation) Attach(b ipld.Block) {
	log.Debugw("attaching block", "delegation", d.Link().String(), "block", b.Link().String())
	d.blocks.Put(b)
	d.proofs = nil // invalidate memoized resolution
}

func (d *delegation) ResolvedProofs() []Proof {
	if d.proofs != nil {
		return d.proofs
	}
	d.proofs = NewProofsView(d.Proofs(), d.blocks)
	return d.proofs
}

func (d *delegation) Iterate() iter.Seq[Delegation] {
	return func(yield func(Delegation) bool) {
		seen := map[cid.Cid]bool{d.Link(): true}
		var walk func(Delegation) bool
		walk = func(dlg Delegation) bool {
			for _, proof := range dlg.ResolvedProofs() {
				resolved, ok := proof.Delegation()
				if !ok || seen[resolved.Link()] {
					continue
				}
				seen[resolved.Link()] = true
				if !walk(resolved) {
					return false
				}
				if !yield(resolved) {
					return false
				}
			}
			return true
		}
		walk(d)
	}
}

func (d *delegation) IterateBlocks() iter.Seq[ipld.Block] {
	return func(yield func(ipld.Block) bool) {
		if !yield(d.root) {
			return
		}
		for dlg := range d.Iterate() {
			v := dlg.(*delegation)
			if !yield(v.root) {
				return
			}
		}
	}
}
