// Package ipld wraps the small slice of go-ipld-prime's data model the core
// needs: a Node type capability caveats and token fields are expressed in,
// and helpers to build/walk one without pulling in full IPLD schema codegen.
package ipld

import (
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	basicnode "github.com/ipld/go-ipld-prime/node/basic"
)

// Node is the IPLD data model value type. Capability caveats, facts, and
// the decoded token payload are all expressed as Nodes so they can be
// DAG-CBOR encoded deterministically regardless of their Go shape.
type Node = datamodel.Node

// Builder renders a Go value as an IPLD Node. Caveat types and facts
// implement this so the delegation codec can embed them without knowing
// their concrete Go type.
type Builder interface {
	ToIPLD() (Node, error)
}

// WrapWithRecovery calls build and converts a panic (ipld-prime's
// assemblers panic on programmer error, e.g. wrong BeginMap size hint)
// into a plain error, so a caveat type's ToIPLD stays a one-liner.
func WrapWithRecovery(build func() (Node, error)) (node Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("building ipld node: %v", r)
		}
	}()
	return build()
}

// FromAny converts a plain Go value (nil, bool, string, []byte, int64,
// uint64, float64, []any, or map[string]any) into a Node, with
// deterministic (sorted) map key order as DAG-CBOR's canonical encoding
// requires.
func FromAny(v any) (Node, error) {
	return WrapWithRecovery(func() (Node, error) {
		na := basicnode.Prototype.Any.NewBuilder()
		if err := assign(na, v); err != nil {
			return nil, err
		}
		return na.Build(), nil
	})
}

// FromMap is the common case of FromAny: a top-level map.
func FromMap(m map[string]any) (Node, error) {
	return FromAny(m)
}

func assign(na datamodel.NodeAssembler, v any) error {
	switch val := v.(type) {
	case nil:
		return na.AssignNull()
	case bool:
		return na.AssignBool(val)
	case string:
		return na.AssignString(val)
	case []byte:
		return na.AssignBytes(val)
	case int:
		return na.AssignInt(int64(val))
	case int64:
		return na.AssignInt(val)
	case uint64:
		return na.AssignInt(int64(val))
	case float64:
		return na.AssignFloat(val)
	case datamodel.Link:
		return na.AssignLink(val)
	case cid.Cid:
		return na.AssignLink(cidlink.Link{Cid: val})
	case []any:
		la, err := na.BeginList(int64(len(val)))
		if err != nil {
			return err
		}
		for _, item := range val {
			if err := assign(la.AssembleValue(), item); err != nil {
				return err
			}
		}
		return la.Finish()
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ma, err := na.BeginMap(int64(len(val)))
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := ma.AssembleKey().AssignString(k); err != nil {
				return err
			}
			if err := assign(ma.AssembleValue(), val[k]); err != nil {
				return err
			}
		}
		return ma.Finish()
	default:
		return fmt.Errorf("ipld: unsupported value type %T", v)
	}
}

// ToAny walks a Node back into the restricted plain-Go-value shape that
// FromAny accepts, so schema decoders can work with plain maps instead of
// re-implementing datamodel traversal at every capability descriptor.
func ToAny(n Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind() {
	case datamodel.Kind_Null, datamodel.Kind_Invalid:
		return nil, nil
	case datamodel.Kind_Bool:
		return n.AsBool()
	case datamodel.Kind_Int:
		return n.AsInt()
	case datamodel.Kind_Float:
		return n.AsFloat()
	case datamodel.Kind_String:
		return n.AsString()
	case datamodel.Kind_Bytes:
		return n.AsBytes()
	case datamodel.Kind_Link:
		l, err := n.AsLink()
		if err != nil {
			return nil, err
		}
		if cl, ok := l.(cidlink.Link); ok {
			return cl.Cid, nil
		}
		return l, nil
	case datamodel.Kind_List:
		out := make([]any, 0, n.Length())
		it := n.ListIterator()
		for !it.Done() {
			_, v, err := it.Next()
			if err != nil {
				return nil, err
			}
			av, err := ToAny(v)
			if err != nil {
				return nil, err
			}
			out = append(out, av)
		}
		return out, nil
	case datamodel.Kind_Map:
		out := map[string]any{}
		it := n.MapIterator()
		for !it.Done() {
			k, v, err := it.Next()
			if err != nil {
				return nil, err
			}
			ks, err := k.AsString()
			if err != nil {
				return nil, err
			}
			av, err := ToAny(v)
			if err != nil {
				return nil, err
			}
			out[ks] = av
		}
		return out, nil
	default:
		return nil, fmt.Errorf("ipld: unsupported node kind %v", n.Kind())
	}
}
