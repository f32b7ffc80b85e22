package delegation

import (
	"fmt"
	"sort"

	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/ucan"
)

// SupportedVersion is the one token payload schema version this module
// encodes and decodes (§6: version ∈ {"0.9.1"}).
const SupportedVersion = "0.9.1"

// RawCapability is a capability exactly as it appears on the wire: an
// ability string, a resource string, and an untyped caveat node. A
// Descriptor (package capability) turns this into a typed Match; the
// delegation codec never needs to know a caveat's Go shape.
type RawCapability struct {
	can string
	with string
	nb   ipld.Node
}

// NewRawCapability builds a wire-shaped capability directly from an
// already-encoded caveat node.
func NewRawCapability(can, with string, nb ipld.Node) RawCapability {
	return RawCapability{can: can, with: with, nb: nb}
}

func (c RawCapability) Can() string     { return c.can }
func (c RawCapability) With() string    { return c.with }
func (c RawCapability) Nb() ipld.Node   { return c.nb }

// Payload is the decoded token envelope (§3 "Token payload").
type Payload struct {
	Version      string
	Issuer       string
	Audience     string
	Capabilities []RawCapability
	Proofs       []ucan.Link
	Facts        []map[string]any
	Expiration   *uint64
	NotBefore    *uint64
	Nonce        string
	Signature    ucan.Signature
}

// toIPLD renders the payload as a map node. When includeSignature is
// false the "s" field is omitted, producing exactly the bytes a Signer
// must sign; the stored/archived block always includes it.
func (p Payload) toIPLD(includeSignature bool) (ipld.Node, error) {
	att := make([]any, len(p.Capabilities))
	for i, c := range p.Capabilities {
		nbVal, err := ipld.ToAny(c.nb)
		if err != nil {
			return nil, fmt.Errorf("encoding capability %d nb: %w", i, err)
		}
		att[i] = map[string]any{
			"can":  c.can,
			"with": c.with,
			"nb":   nbVal,
		}
	}

	prf := make([]any, len(p.Proofs))
	for i, link := range p.Proofs {
		prf[i] = link
	}

	fct := make([]any, len(p.Facts))
	for i, f := range p.Facts {
		fct[i] = map[string]any(f)
	}

	m := map[string]any{
		"v":   p.Version,
		"iss": p.Issuer,
		"aud": p.Audience,
		"att": att,
		"prf": prf,
		"fct": fct,
	}
	if p.Expiration != nil {
		m["exp"] = int64(*p.Expiration)
	} else {
		m["exp"] = nil
	}
	if p.NotBefore != nil {
		m["nbf"] = int64(*p.NotBefore)
	}
	if p.Nonce != "" {
		m["nnc"] = p.Nonce
	}
	if includeSignature {
		m["s"] = map[string]any{
			"alg":   p.Signature.Algorithm(),
			"bytes": p.Signature.Bytes(),
		}
	}
	return ipld.FromMap(m)
}

// SigningBytes recomputes the exact bytes a delegation's issuer signed:
// its payload encoded without the signature field. A verifier checks a
// delegation's Signature() against these bytes, never against the full
// (signed) block bytes.
func SigningBytes(d Delegation) ([]byte, error) {
	p, err := d.Data()
	if err != nil {
		return nil, err
	}
	return encodePayload(p, false)
}

func encodePayloadBlock(p Payload, includeSignature bool) (ipld.Block, error) {
	n, err := p.toIPLD(includeSignature)
	if err != nil {
		return ipld.Block{}, err
	}
	return ipld.EncodeBlock(n)
}

func encodePayload(p Payload, includeSignature bool) ([]byte, error) {
	b, err := encodePayloadBlock(p, includeSignature)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// decodePayload reverses toIPLD, reconstructing a Payload from a decoded
// block's node.
func decodePayload(n ipld.Node) (Payload, error) {
	raw, err := ipld.ToAny(n)
	if err != nil {
		return Payload{}, fmt.Errorf("decoding payload node: %w", err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("payload is not a map")
	}

	p := Payload{}
	p.Version, _ = m["v"].(string)
	p.Issuer, _ = m["iss"].(string)
	p.Audience, _ = m["aud"].(string)

	if att, ok := m["att"].([]any); ok {
		for i, rawCap := range att {
			cm, ok := rawCap.(map[string]any)
			if !ok {
				return Payload{}, fmt.Errorf("capability %d is not a map", i)
			}
			can, _ := cm["can"].(string)
			with, _ := cm["with"].(string)
			nbNode, err := ipld.FromAny(cm["nb"])
			if err != nil {
				return Payload{}, fmt.Errorf("capability %d nb: %w", i, err)
			}
			p.Capabilities = append(p.Capabilities, RawCapability{can: can, with: with, nb: nbNode})
		}
	}

	if prf, ok := m["prf"].([]any); ok {
		for i, v := range prf {
			link, ok := v.(ucan.Link)
			if !ok {
				return Payload{}, fmt.Errorf("proof %d is not a link", i)
			}
			p.Proofs = append(p.Proofs, link)
		}
	}

	if fct, ok := m["fct"].([]any); ok {
		for _, v := range fct {
			if fm, ok := v.(map[string]any); ok {
				p.Facts = append(p.Facts, fm)
			}
		}
	}

	if exp, ok := m["exp"]; ok && exp != nil {
		e := uint64(exp.(int64))
		p.Expiration = &e
	}
	if nbf, ok := m["nbf"]; ok && nbf != nil {
		n := uint64(nbf.(int64))
		p.NotBefore = &n
	}
	p.Nonce, _ = m["nnc"].(string)

	if s, ok := m["s"].(map[string]any); ok {
		alg, _ := s["alg"].(string)
		bs, _ := s["bytes"].([]byte)
		p.Signature = ucan.NewSignature(alg, bs)
	}

	return p, nil
}

// SortedFactKeys returns a fact map's keys in lexicographic (sort.Strings)
// order, so a caller formatting facts for display gets a stable order
// rather than Go's randomized map iteration.
func SortedFactKeys(f map[string]any) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
