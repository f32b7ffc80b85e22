// Package blockstore provides the read-only, canonical-string-keyed
// mapping from link to block that a Delegation's proof and caveat blocks
// live in (§3, §4.A).
package blockstore

import (
	"iter"

	"github.com/ipfs/go-cid"

	"github.com/ucanengine/core/core/ipld"
)

// BlockStore is a lookup-only mapping from a block's link to the block
// itself. Lookup is keyed by the link's canonical string form rather than
// the native cid.Cid value, since links minted under different codecs or
// hash functions are not guaranteed to compare equal as Go map keys even
// when callers intend the same content address.
type BlockStore interface {
	Get(link cid.Cid) (ipld.Block, bool)
	// All yields every block the store holds, in insertion order.
	All() iter.Seq[ipld.Block]
}

// MapBlockStore is the default in-memory BlockStore: a plain map keyed by
// each link's canonical string form.
type MapBlockStore struct {
	blocks map[string]ipld.Block
	order  []string
}

var _ BlockStore = (*MapBlockStore)(nil)

// NewMapBlockStore builds an empty, mutable block store. Mutability is the
// caller's concern: Delegation.Attach (§4.C) uses one to grow a view's
// block set before the view is first archived.
func NewMapBlockStore() *MapBlockStore {
	return &MapBlockStore{blocks: map[string]ipld.Block{}}
}

// Put adds or overwrites a block under its own link. Overwriting is
// harmless because equality is content-addressed: the same link implies
// the same bytes (§3 invariant).
func (s *MapBlockStore) Put(b ipld.Block) {
	key := b.Link().String()
	if _, exists := s.blocks[key]; !exists {
		s.order = append(s.order, key)
	}
	s.blocks[key] = b
}

func (s *MapBlockStore) Get(link cid.Cid) (ipld.Block, bool) {
	b, ok := s.blocks[link.String()]
	return b, ok
}

func (s *MapBlockStore) All() iter.Seq[ipld.Block] {
	return func(yield func(ipld.Block) bool) {
		for _, k := range s.order {
			if !yield(s.blocks[k]) {
				return
			}
		}
	}
}

// Len reports how many distinct blocks the store holds.
func (s *MapBlockStore) Len() int { return len(s.blocks) }

// FromBlocks builds a populated store from a fixed slice of blocks, the
// shape an archive codec decode produces.
func FromBlocks(blocks []ipld.Block) *MapBlockStore {
	s := NewMapBlockStore()
	for _, b := range blocks {
		s.Put(b)
	}
	return s
}

// NewBlockReader adapts any iterator of blocks (e.g. a Delegation's own
// iterateBlocks(), when handing its blocks to a fresh reader for a
// sub-search) into a BlockStore. Mirrors the
// blockstore.NewBlockReader(blockstore.WithBlocksIterator(...)) idiom used
// throughout the consuming services.
func NewBlockReader(it iter.Seq[ipld.Block]) (*MapBlockStore, error) {
	s := NewMapBlockStore()
	it(func(b ipld.Block) bool {
		s.Put(b)
		return true
	})
	return s, nil
}
