// Package storecap is a concrete capability built on top of package
// capability: `store/add`, a space owner authorizing a blob of a given
// size (and, for a replacing write, the blob it supersedes) to be
// written to their storage. It exists to give the generic Descriptor/
// schema machinery a real, structured caveat type to parse, the way
// `go-w3up`'s own `store/add`/`assertcap.Location` capabilities do
// rather than the caveat-free capabilities used elsewhere in tests.
package storecap

import (
	"github.com/ipfs/go-cid"

	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/core/schema"
	"github.com/ucanengine/core/ucan"
)

// Ability is the `can` value this package's descriptor matches.
const Ability = "store/add"

// Caveats restricts a store/add grant to a specific blob, identified by
// its content address and declared size, optionally naming the blob it
// replaces.
type Caveats struct {
	Link   cid.Cid
	Size   uint64
	Origin *cid.Cid
}

// ToIPLD renders Caveats as the wire map a RawCapability's `nb` node
// holds, satisfying ipld.Builder so a Caveats value can be delegated
// through delegation.DelegateCapability directly.
func (c Caveats) ToIPLD() (ipld.Node, error) {
	return ipld.WrapWithRecovery(func() (ipld.Node, error) {
		m := map[string]any{
			"link": c.Link,
			"size": c.Size,
		}
		if c.Origin != nil {
			m["origin"] = *c.Origin
		}
		return ipld.FromMap(m)
	})
}

var nbSchema = schema.Struct[Caveats](
	map[string]schema.FieldSpec{
		"link":   schema.Field(schema.Link()),
		"size":   schema.Field(schema.UInt64()),
		"origin": schema.OptionalField(schema.Link()),
	},
	func(values map[string]any) (Caveats, error) {
		c := Caveats{
			Link: values["link"].(cid.Cid),
			Size: values["size"].(uint64),
		}
		if origin, ok := values["origin"].(cid.Cid); ok {
			c.Origin = &origin
		}
		return c, nil
	},
)

// derives reports whether a claimed store/add is covered by a proven
// one: the proven grant must name the same blob (link and size), and
// any origin the claim restricts to must be at least as narrow as the
// proof's own (an unrestricted proof covers any claimed origin, narrow
// or not; a proof restricted to one origin cannot authorize a claim
// naming a different one).
func derives(claimed, proven Caveats) bool {
	if claimed.Link != proven.Link || claimed.Size != proven.Size {
		return false
	}
	if proven.Origin == nil {
		return true
	}
	return claimed.Origin != nil && *claimed.Origin == *proven.Origin
}

// Descriptor is the store/add capability parser: `with` is the
// space/owner DID storage is written under, `nb` is Caveats.
var Descriptor = capability.NewDescriptor[Caveats](Ability, schema.DIDString(), nbSchema, derives)

// New builds a typed store/add capability value directly, for callers
// constructing a delegation without going through Descriptor.Match.
func New(space string, nb Caveats) ucan.Capability[Caveats] {
	return ucan.NewCapability(Ability, space, nb)
}
