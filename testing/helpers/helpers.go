// Package helpers provides small fixtures shared by this module's tests:
// deterministic signers and a minimal caveat type, so individual test
// files don't each reinvent key generation.
package helpers

import (
	"crypto/ed25519"
	"fmt"

	edsigner "github.com/ucanengine/core/principal/ed25519"
	"github.com/ucanengine/core/ucan"
)

// MustSigner generates a fresh ed25519 signer or panics, for table-driven
// tests where a generation failure would be a test infrastructure bug, not
// a case under test.
func MustSigner() *edsigner.Signer {
	s, err := edsigner.Generate()
	if err != nil {
		panic(fmt.Sprintf("helpers: generating signer: %v", err))
	}
	return s
}

// SignerFromSeed builds a deterministic signer for tests that need the
// same DID across runs.
func SignerFromSeed(b byte) *edsigner.Signer {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	s, err := edsigner.FromSeed(seed)
	if err != nil {
		panic(fmt.Sprintf("helpers: signer from seed: %v", err))
	}
	return s
}

// NoCaveatsCapability builds a bare ability/resource capability with no
// caveats, the common case across delegation and validator tests.
func NoCaveatsCapability(can, with string) ucan.Capability[ucan.NoCaveats] {
	return ucan.NewCapability(can, with, ucan.NoCaveats{})
}
