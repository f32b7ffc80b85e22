// Package schema provides the small parser-combinator vocabulary a
// Descriptor uses to turn an untyped `with` URI string or `nb` caveat map
// into a typed Go value, or a well-typed parse failure (§4.E).
//
// This is a deliberately narrower surface than full IPLD schema/bindnode
// codegen: caveats here are plain Go structs populated from the generic
// map[string]any a capability's `nb` node decodes to (see core/ipld.ToAny).
// That keeps a Descriptor's field parsers composable functions instead of
// requiring a compiled IPLD schema per capability, while the wire bytes
// underneath are still real DAG-CBOR (core/ipld).
package schema

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/ucanengine/core/did"
)

// Reader parses a raw value (the `with` string, or the full `nb` map) into
// T, or returns a structured error describing why it could not.
type Reader[T any] interface {
	Read(raw any) (T, error)
}

// ReaderFunc adapts a plain function to the Reader interface.
type ReaderFunc[T any] func(raw any) (T, error)

func (f ReaderFunc[T]) Read(raw any) (T, error) { return f(raw) }

// Text reads a raw value already known to be a string.
func Text() Reader[string] {
	return ReaderFunc[string](func(raw any) (string, error) {
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("schema: expected a string, got %T", raw)
		}
		return s, nil
	})
}

// URI reads a `with` value as an absolute URI string, additionally
// requiring it carry one of the given schemes (empty allows any scheme).
// `ucan:*`, the re-delegation meta-resource, always passes regardless of
// the scheme allowlist, since it is not itself a resource URI.
func URI(schemes ...string) Reader[string] {
	return ReaderFunc[string](func(raw any) (string, error) {
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("schema: expected a URI string, got %T", raw)
		}
		if s == "ucan:*" {
			return s, nil
		}
		if len(schemes) == 0 {
			return s, nil
		}
		for _, scheme := range schemes {
			if hasScheme(s, scheme) {
				return s, nil
			}
		}
		return "", fmt.Errorf("schema: %q does not use an allowed scheme %v", s, schemes)
	})
}

func hasScheme(uri, scheme string) bool {
	return len(uri) > len(scheme)+1 && uri[:len(scheme)+1] == scheme+":"
}

// DIDString reads a `with` value as a DID string of any method (the common
// case: a capability resource is a principal's DID, but the parser does
// not require did:key specifically — did:web and friends are valid
// resources too). A did:key must embed a decodable ed25519 public key;
// other methods are checked only for the "did:<method>:<id>" shape. The
// meta-resource `ucan:*` also passes; any other URI is rejected. This matches the real library's schema.DIDString() used pervasively
// as the `with` parser for resource-scoped capabilities.
func DIDString() Reader[string] {
	return ReaderFunc[string](func(raw any) (string, error) {
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("schema: expected a DID string, got %T", raw)
		}
		if s == "ucan:*" {
			return s, nil
		}
		if _, err := did.Parse(s); err != nil {
			return "", fmt.Errorf("schema: %q is not a valid DID: %w", s, err)
		}
		return s, nil
	})
}

// Link reads a raw value already decoded to a CID (core/ipld.ToAny
// decodes a DAG-CBOR link to a cid.Cid directly), the reader a caveat
// field naming a content-addressed blob or prior delegation uses.
func Link() Reader[cid.Cid] {
	return ReaderFunc[cid.Cid](func(raw any) (cid.Cid, error) {
		c, ok := raw.(cid.Cid)
		if !ok {
			return cid.Undef, fmt.Errorf("schema: expected a link, got %T", raw)
		}
		return c, nil
	})
}

// UInt64 reads a raw numeric value as a non-negative uint64, the shape a
// caveat field like a byte size or offset takes on the wire. DAG-CBOR
// decodes an unsigned integer field as an int64 (core/ipld.ToAny), so
// this accepts either Go type and rejects anything negative.
func UInt64() Reader[uint64] {
	return ReaderFunc[uint64](func(raw any) (uint64, error) {
		switch v := raw.(type) {
		case uint64:
			return v, nil
		case int64:
			if v < 0 {
				return 0, fmt.Errorf("schema: expected a non-negative integer, got %d", v)
			}
			return uint64(v), nil
		default:
			return 0, fmt.Errorf("schema: expected an integer, got %T", raw)
		}
	})
}

// Struct reads the `nb` map into T using a field-by-field spec: a map from
// JSON-style field name to a (required, elementReader) pair. Optional
// fields that are absent are left at T's zero value for that field; the
// assemble callback receives the decoded field values by name and builds T.
func Struct[T any](fields map[string]FieldSpec, assemble func(values map[string]any) (T, error)) Reader[T] {
	return ReaderFunc[T](func(raw any) (T, error) {
		var zero T
		m, ok := raw.(map[string]any)
		if raw == nil {
			m = map[string]any{}
		} else if !ok {
			return zero, fmt.Errorf("schema: expected a caveat map, got %T", raw)
		}
		values := make(map[string]any, len(fields))
		for name, spec := range fields {
			v, present := m[name]
			if !present {
				if spec.Required {
					return zero, fmt.Errorf("schema: missing required caveat field %q", name)
				}
				continue
			}
			parsed, err := spec.Reader.read(v)
			if err != nil {
				return zero, fmt.Errorf("schema: caveat field %q: %w", name, err)
			}
			values[name] = parsed
		}
		return assemble(values)
	})
}

// FieldSpec describes one named caveat field: whether it must be present,
// and how to parse its raw value.
type FieldSpec struct {
	Required bool
	Reader   anyReader
}

// Field builds a required FieldSpec from a typed Reader.
func Field[T any](r Reader[T]) FieldSpec {
	return FieldSpec{Required: true, Reader: anyReaderFunc(func(raw any) (any, error) { return r.Read(raw) })}
}

// OptionalField builds an absent-tolerant FieldSpec from a typed Reader.
func OptionalField[T any](r Reader[T]) FieldSpec {
	return FieldSpec{Required: false, Reader: anyReaderFunc(func(raw any) (any, error) { return r.Read(raw) })}
}

type anyReader interface {
	read(raw any) (any, error)
}

type anyReaderFunc func(raw any) (any, error)

func (f anyReaderFunc) read(raw any) (any, error) { return f(raw) }

// Mapped composes a Reader[A] with a function A -> (B, error), the idiom
// used when a capability's caveats need post-processing beyond field
// extraction (e.g. decoding a digest, validating a DID belongs to a
// particular method).
func Mapped[A, B any](r Reader[A], fn func(A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(raw any) (B, error) {
		var zero B
		a, err := r.Read(raw)
		if err != nil {
			return zero, err
		}
		return fn(a)
	})
}

// Any reads the raw value through unchanged, for capabilities whose
// caveats are deliberately untyped (e.g. `ucan/*` wildcards).
func Any() Reader[any] {
	return ReaderFunc[any](func(raw any) (any, error) { return raw, nil })
}
