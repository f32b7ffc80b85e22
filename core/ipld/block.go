package ipld

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	basicnode "github.com/ipld/go-ipld-prime/node/basic"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
)

// decodeCacheSize bounds the decoded-node cache below, large enough to
// hold every block of a realistically deep proof chain without growing
// unbounded when a long-lived process decodes many distinct delegations.
const decodeCacheSize = 4096

// decodeCache memoizes DecodeBlock by a block's link, the content
// address of its bytes (§5: "the decode cache is keyed by block bytes
// identity and is safe to share"). Two blocks with the same link are, by
// the content-address invariant (§3), the same bytes, so keying by link
// is exactly keying by byte identity without re-hashing on every lookup.
var decodeCache, _ = lru.New[cid.Cid, Node](decodeCacheSize)

// Block is a content-addressed byte sequence: a link computed from the
// bytes under a declared multicodec and hash function, plus the bytes
// themselves. Equality between blocks is over the CID only (§3).
type Block struct {
	cid   cid.Cid
	bytes []byte
}

// NewBlock wraps bytes with a link computed via sha2-256 under the given
// multicodec, the scheme every block in this module uses.
func NewBlock(code multicodec.Code, data []byte) (Block, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return Block{}, fmt.Errorf("hashing block: %w", err)
	}
	return Block{cid: cid.NewCidV1(uint64(code), mh), bytes: data}, nil
}

// NewBlockWithCID wraps bytes whose link has already been computed
// elsewhere (e.g. a block read back from an archive), without re-hashing.
func NewBlockWithCID(c cid.Cid, data []byte) Block {
	return Block{cid: c, bytes: data}
}

func (b Block) Link() cid.Cid { return b.cid }
func (b Block) Bytes() []byte { return b.bytes }

// Verify re-hashes Bytes() and confirms it still matches Link(), the
// content-address invariant from §3.
func (b Block) Verify() error {
	want, err := multihash.Sum(b.bytes, b.cid.Prefix().MhType, b.cid.Prefix().MhLength)
	if err != nil {
		return fmt.Errorf("re-hashing block: %w", err)
	}
	if !bytes.Equal(want, b.cid.Hash()) {
		return fmt.Errorf("block %s fails content-address check", b.cid)
	}
	return nil
}

// EncodeBlock DAG-CBOR encodes n and wraps the result as a Block under the
// dag-cbor multicodec, the canonical representation every UCAN payload and
// delegation proof block uses.
func EncodeBlock(n Node) (Block, error) {
	var buf bytes.Buffer
	if err := dagcbor.Encode(n, &buf); err != nil {
		return Block{}, fmt.Errorf("dag-cbor encoding node: %w", err)
	}
	return NewBlock(multicodec.DagCbor, buf.Bytes())
}

// DecodeBlock DAG-CBOR decodes a block's bytes back into a Node, without
// checking the content-address (callers that need that call Verify too).
// The result is cached by the block's link so a delegation's proof chain
// (walked repeatedly during validation) decodes each block only once.
func DecodeBlock(b Block) (Node, error) {
	if n, ok := decodeCache.Get(b.cid); ok {
		return n, nil
	}
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := dagcbor.Decode(nb, bytes.NewReader(b.bytes)); err != nil {
		return nil, fmt.Errorf("dag-cbor decoding block %s: %w", b.cid, err)
	}
	n := nb.Build()
	decodeCache.Add(b.cid, n)
	return n, nil
}
