// Package did implements the did:key method: the one DID representation
// this module resolves without an external document fetch, because the
// public key is embedded in the identifier itself. Other methods (did:web,
// did:pkh, ...) are represented opaquely and require a
// validator.PrincipalResolver to turn into a verifying key.
package did

import (
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

// Method is the did: method name, e.g. "key" or "web".
type Method string

const (
	MethodKey Method = "key"
	MethodWeb Method = "web"
)

// ed25519PubMulticodec is the multicodec prefix (0xed) did:key uses for
// ed25519 public keys per the multicodec table.
const ed25519PubMulticodec = 0xed

// DID is a parsed decentralized identifier. For did:key it additionally
// carries the decoded public key bytes; for every other method it is
// opaque and String() is the only thing the core algebra needs from it.
type DID struct {
	method Method
	value  string // the method-specific-id, undecoded
	key    []byte // non-nil only for did:key
}

// Undef is the zero DID, returned alongside errors.
var Undef = DID{}

// Parse validates that s has the "did:<method>:<value>" shape and, for
// did:key, decodes and validates the embedded public key. It does not
// perform any network resolution.
func Parse(s string) (DID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != "did" {
		return Undef, fmt.Errorf("did: %q is not a valid DID", s)
	}
	method, value := Method(parts[1]), parts[2]
	if method != MethodKey {
		return DID{method: method, value: value}, nil
	}

	d, err := Decode(value)
	if err != nil {
		return Undef, fmt.Errorf("did: decoding did:key %q: %w", s, err)
	}
	return d, nil
}

// Decode parses a did:key public key from its multibase-encoded
// method-specific-id alone (without the "did:key:" prefix), the form
// capability caveats that embed a raw principal string use (e.g. a
// delegated `space` field).
func Decode(methodSpecificID string) (DID, error) {
	key, err := decodeKeyMethodID(methodSpecificID)
	if err != nil {
		return Undef, fmt.Errorf("did: decoding key %q: %w", methodSpecificID, err)
	}
	return DID{method: MethodKey, value: methodSpecificID, key: key}, nil
}

func decodeKeyMethodID(value string) ([]byte, error) {
	_, data, err := multibase.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("multibase decoding: %w", err)
	}
	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("reading multicodec prefix: %w", err)
	}
	if code != ed25519PubMulticodec {
		return nil, fmt.Errorf("unsupported did:key multicodec 0x%x", code)
	}
	return data[n:], nil
}

// String renders the DID in its canonical "did:<method>:<value>" form.
func (d DID) String() string {
	if d.method == "" {
		return ""
	}
	return fmt.Sprintf("did:%s:%s", d.method, d.value)
}

// Bytes returns the raw public key bytes for a did:key DID, or nil for any
// other method (callers must resolve those through a PrincipalResolver).
func (d DID) Bytes() []byte { return d.key }

// Method reports which DID method this identifier uses.
func (d DID) Method() Method { return d.method }

// Empty reports whether this is the zero value (Parse/Decode failed, or
// the DID was never assigned).
func (d DID) Empty() bool { return d.method == "" }

// Equal compares DIDs by their canonical string form.
func (d DID) Equal(other DID) bool { return d.String() == other.String() }

// EncodeKey renders raw ed25519 public key bytes as a did:key string, the
// inverse of Parse applied to a full did:key string.
func EncodeKey(pub []byte) (DID, error) {
	prefixed := append(varint.ToUvarint(ed25519PubMulticodec), pub...)
	enc, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return Undef, fmt.Errorf("did: multibase encoding key: %w", err)
	}
	return DID{method: MethodKey, value: enc, key: pub}, nil
}
