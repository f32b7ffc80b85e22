// Package ed25519 is the one concrete Signer/Verifier pair this module
// ships, so the core library and its tests have something to exercise the
// validator with. The spec explicitly does not prescribe a signature
// algorithm (§1 Non-goals); any other implementation of ucan.Signer/
// ucan.Verifier plugs into the same interfaces.
package ed25519

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/ucanengine/core/did"
	"github.com/ucanengine/core/ucan"
)

const algorithm = "EdDSA"

// Signer is an ed25519 keypair implementing ucan.Signer.
type Signer struct {
	priv ed25519.PrivateKey
	id   did.DID
}

var _ ucan.Signer = (*Signer)(nil)

// Generate creates a fresh random ed25519 Signer.
func Generate() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 key: %w", err)
	}
	return fromKey(priv, pub)
}

// FromSeed derives a deterministic ed25519 Signer from a 32-byte seed,
// useful for tests and for CLI tools that take a seed on the command line.
func FromSeed(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return fromKey(priv, priv.Public().(ed25519.PublicKey))
}

func fromKey(priv ed25519.PrivateKey, pub ed25519.PublicKey) (*Signer, error) {
	id, err := did.EncodeKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encoding did:key: %w", err)
	}
	return &Signer{priv: priv, id: id}, nil
}

func (s *Signer) DID() ucan.DID { return s.id }

func (s *Signer) Verifier() ucan.Verifier {
	return &Verifier{pub: s.priv.Public().(ed25519.PublicKey), id: s.id}
}

func (s *Signer) Sign(payload []byte) (ucan.Signature, error) {
	sig := ed25519.Sign(s.priv, payload)
	return ucan.NewSignature(algorithm, sig), nil
}

// Encode returns the raw private key bytes, the form a delegation caveat
// embedding a provisioned identity (as in the fact attached to an
// `http/put` invocation) would carry.
func (s *Signer) Encode() []byte { return []byte(s.priv) }

// FromPrivateKey reconstructs a Signer from the raw private key bytes
// Encode returns.
func FromPrivateKey(priv []byte) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	key := ed25519.PrivateKey(append([]byte(nil), priv...))
	return fromKey(key, key.Public().(ed25519.PublicKey))
}
