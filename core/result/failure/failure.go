// Package failure gives error values occurring inside a Result an IPLD
// shape, so a rejected capability invocation's cause can be carried across
// the wire the same way a successful value would be (§4.H renders every
// rejection as a first-class, not-thrown value).
package failure

import "github.com/ucanengine/core/core/ipld"

// Failure is an error that can additionally render itself as an IPLD node,
// the shape a `{error: true, name, message}` wire failure takes.
type Failure interface {
	error
	ToIPLD() (ipld.Node, error)
}

// Named is the common Failure shape: a machine-readable name plus a
// human-readable message, mirroring the {name, message} pattern every
// capability's *Failure type in the consuming services uses.
type Named struct {
	Name    string
	Message string
}

func (f Named) Error() string { return f.Name + ": " + f.Message }

func (f Named) ToIPLD() (ipld.Node, error) {
	return ipld.FromMap(map[string]any{
		"name":    f.Name,
		"message": f.Message,
	})
}

// FromError wraps a plain Go error as a Failure named "Error".
func FromError(err error) Failure {
	return Named{Name: "Error", Message: err.Error()}
}

// IPLDBuilderFailure is the Failure type callers use as the error channel
// of a Result when they have no more specific failure type of their own;
// it is exactly Named under another name, kept distinct so call sites can
// document intent (matches the real library's naming, carried through
// every example in the retrieval pack).
type IPLDBuilderFailure = Named
