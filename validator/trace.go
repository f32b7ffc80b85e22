package validator

import (
	"fmt"
	"strings"
)

// ProofTrace renders an Authorization's proof chain as a human-readable
// list, issuer by issuer, the shape a CLI or log line prints to explain
// why an invocation was authorized.
func ProofTrace[T any](auth Authorization[T]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s with %s", auth.Capability.Can(), "claimed by", auth.Issuer.DID().String())
	for i, proof := range auth.Proofs {
		fmt.Fprintf(&b, "\n%sproof[%d]: %s issued by %s to %s",
			strings.Repeat("  ", i+1), i, proof.Link(), proof.Issuer().DID().String(), proof.Audience().DID().String())
	}
	return b.String()
}
