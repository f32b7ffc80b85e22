// Package principal re-exports the Signer/Verifier contracts package ucan
// defines, as the stable import path concrete key-material packages (e.g.
// principal/ed25519) implement against, mirroring how consuming services
// depend on "principal" rather than on one algorithm's package directly.
package principal

import "github.com/ucanengine/core/ucan"

type Signer = ucan.Signer
type Verifier = ucan.Verifier
type Signature = ucan.Signature
