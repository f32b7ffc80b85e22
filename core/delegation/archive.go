package delegation

import (
	"bytes"
	"fmt"
	"io"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	car "github.com/ipld/go-car"

	"github.com/ucanengine/core/core/dag/blockstore"
	"github.com/ucanengine/core/core/ipld"
)

// descriptorKey is the single key of an archive's root block: a
// version-tagged pointer to the delegation's own payload block, letting a
// reader reject an archive encoded under a payload schema it does not
// understand before decoding anything else.
const descriptorKey = "ucan@" + SupportedVersion

// Archive serializes d and everything IterateBlocks reaches into a CARv1
// container: a header naming the descriptor block as its one root, the
// descriptor block itself, then every delegation block in the chain.
func (d *delegation) Archive() io.Reader {
	buf, err := packArchive(d)
	if err != nil {
		log.Debugw("archive failed", "delegation", d.Link().String(), "error", err)
		return errReader{err: fmt.Errorf("archiving delegation %s: %w", d.Link(), err)}
	}
	log.Debugw("archived delegation", "delegation", d.Link().String(), "bytes", len(buf))
	return bytes.NewReader(buf)
}

func packArchive(d *delegation) ([]byte, error) {
	descriptorNode, err := ipld.FromMap(map[string]any{descriptorKey: d.Link()})
	if err != nil {
		return nil, err
	}
	descriptorBlock, err := ipld.EncodeBlock(descriptorNode)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := &car.CarHeader{Roots: []cid.Cid{descriptorBlock.Link()}, Version: 1}
	w, err := car.NewCarWriter(header, &buf)
	if err != nil {
		return nil, err
	}
	if err := w.WriteBlock(toBasicBlock(descriptorBlock)); err != nil {
		return nil, err
	}
	written := map[cid.Cid]bool{descriptorBlock.Link(): true}
	for b := range d.IterateBlocks() {
		if written[b.Link()] {
			continue
		}
		written[b.Link()] = true
		if err := w.WriteBlock(toBasicBlock(b)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Extract reverses Archive: it reads a CARv1 container, locates the
// descriptor block named by its one root, and resolves it to the
// delegation view it names plus every other block in the container.
func Extract(data []byte) (Delegation, error) {
	reader, err := car.NewCarReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	if len(reader.Header.Roots) != 1 {
		return nil, fmt.Errorf("archiving: expected exactly one root, got %d", len(reader.Header.Roots))
	}
	descriptorLink := reader.Header.Roots[0]

	bs := blockstore.NewMapBlockStore()
	var descriptor *ipld.Block
	for {
		blk, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive block: %w", err)
		}
		b := ipld.NewBlockWithCID(blk.Cid(), blk.RawData())
		bs.Put(b)
		if blk.Cid() == descriptorLink {
			descriptor = &b
		}
	}
	if descriptor == nil {
		return nil, fmt.Errorf("archiving: descriptor block %s not found", descriptorLink)
	}

	descriptorNode, err := ipld.DecodeBlock(*descriptor)
	if err != nil {
		return nil, fmt.Errorf("decoding descriptor block: %w", err)
	}
	descriptorMap, err := ipld.ToAny(descriptorNode)
	if err != nil {
		return nil, fmt.Errorf("decoding descriptor block: %w", err)
	}
	m, ok := descriptorMap.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("archiving: malformed descriptor block")
	}
	rootLink, ok := m[descriptorKey].(cid.Cid)
	if !ok {
		return nil, fmt.Errorf("archiving: descriptor does not name a %q root; unsupported payload version", descriptorKey)
	}

	root, ok := bs.Get(rootLink)
	if !ok {
		return nil, fmt.Errorf("archiving: root delegation block %s missing from archive", rootLink)
	}
	log.Debugw("extracted archive", "root", rootLink.String(), "blocks", bs.Len())
	return newView(root, bs), nil
}

func toBasicBlock(b ipld.Block) blocks.Block {
	blk, err := blocks.NewBlockWithCid(b.Bytes(), b.Link())
	if err != nil {
		// Link() is computed from Bytes() by construction, so the CID
		// mismatch NewBlockWithCid guards against cannot happen here.
		panic(err)
	}
	return blk
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
