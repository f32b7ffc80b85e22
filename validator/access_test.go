package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/core/result"
	"github.com/ucanengine/core/core/schema"
	"github.com/ucanengine/core/testing/helpers"
	"github.com/ucanengine/core/ucan"
	"github.com/ucanengine/core/validator"
)

func storeAddDescriptor() *capability.Descriptor[ucan.NoCaveats] {
	return capability.NewDescriptor[ucan.NoCaveats](
		"store/add",
		schema.DIDString(),
		schema.Mapped(schema.Any(), func(any) (ucan.NoCaveats, error) { return ucan.NoCaveats{}, nil }),
		validator.DefaultDerives[ucan.NoCaveats],
	)
}

func emptyCaveats(t *testing.T) ipld.Node {
	t.Helper()
	n, err := ipld.FromMap(map[string]any{})
	require.NoError(t, err)
	return n
}

func vctxFor(authority ucan.Verifier, desc *capability.Descriptor[ucan.NoCaveats], proofs ...delegation.Delegation) *validator.ValidationContext[ucan.NoCaveats] {
	return validator.NewValidationContext[ucan.NoCaveats](
		authority, desc, nil, nil, nil, nil, validator.DefaultPrincipalResolver(), proofs...,
	)
}

func TestAccessDirectInvocationSelfIssued(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	service := helpers.SignerFromSeed(9)

	invocation, err := delegation.Delegate(alice, service,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	desc := storeAddDescriptor()
	vctx := vctxFor(service.Verifier(), desc)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.True(t, result.IsOk(res))
	auth, _ := result.Unwrap(res)
	require.Equal(t, "store/add", auth.Capability.Can())
	require.Empty(t, auth.Proofs)
}

func TestAccessDelegatedInvocation(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	service := helpers.SignerFromSeed(9)

	grant, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	invocation, err := delegation.Delegate(bob, service,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithProof(grant),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	desc := storeAddDescriptor()
	vctx := vctxFor(service.Verifier(), desc)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.True(t, result.IsOk(res))
	auth, _ := result.Unwrap(res)
	require.Len(t, auth.Proofs, 1)
	require.Equal(t, grant.Link(), auth.Proofs[0].Link())
}

func TestAccessEscalationRejected(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	carol := helpers.SignerFromSeed(3)
	service := helpers.SignerFromSeed(9)

	// bob was only granted store/add over carol's space, not alice's.
	grant, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", carol.DID().String(), emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	invocation, err := delegation.Delegate(bob, service,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithProof(grant),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	desc := storeAddDescriptor()
	vctx := vctxFor(service.Verifier(), desc)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.False(t, result.IsOk(res))
	_, failure := result.Unwrap(res)
	require.IsType(t, &validator.SessionError{}, failure)
}

func TestAccessReDelegationExpansion(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	service := helpers.SignerFromSeed(9)

	grant, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("*", ucan.MetaResource, emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	invocation, err := delegation.Delegate(bob, service,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithProof(grant),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	desc := storeAddDescriptor()
	vctx := vctxFor(service.Verifier(), desc)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.True(t, result.IsOk(res))
}

func uploadAddDescriptor() *capability.Descriptor[ucan.NoCaveats] {
	return capability.NewDescriptor[ucan.NoCaveats](
		"upload/add",
		schema.DIDString(),
		schema.Mapped(schema.Any(), func(any) (ucan.NoCaveats, error) { return ucan.NoCaveats{}, nil }),
		validator.DefaultDerives[ucan.NoCaveats],
	)
}

// TestAccessDerivedCapability proves a Derive selector lets a claim of one
// shape (upload/add) be authorized by a proof that only grants a different
// shape (store/add): the marquee case from spec §4.F.
func TestAccessDerivedCapability(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	service := helpers.SignerFromSeed(9)

	grant, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	invocation, err := delegation.Delegate(bob, service,
		[]delegation.RawCapability{delegation.NewRawCapability("upload/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithProof(grant),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	sel := capability.Derive(uploadAddDescriptor(), storeAddDescriptor(),
		func(claimedNb, provenNb ucan.NoCaveats) bool { return true },
	)
	vctx := validator.NewValidationContext[ucan.NoCaveats](
		service.Verifier(), sel, nil, nil, nil, nil, validator.DefaultPrincipalResolver(),
	)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.True(t, result.IsOk(res))
	auth, _ := result.Unwrap(res)
	require.Equal(t, "upload/add", auth.Capability.Can())
	require.Len(t, auth.Proofs, 1)
	require.Equal(t, grant.Link(), auth.Proofs[0].Link())
}

// TestAccessDerivedCapabilityWithoutMatchingAncestorRejected confirms a
// Derive selector still rejects a proof that grants neither the child nor
// any ancestor shape.
func TestAccessDerivedCapabilityWithoutMatchingAncestorRejected(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	service := helpers.SignerFromSeed(9)

	grant, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/remove", alice.DID().String(), emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	invocation, err := delegation.Delegate(bob, service,
		[]delegation.RawCapability{delegation.NewRawCapability("upload/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithProof(grant),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	sel := capability.Derive(uploadAddDescriptor(), storeAddDescriptor(),
		func(claimedNb, provenNb ucan.NoCaveats) bool { return true },
	)
	vctx := validator.NewValidationContext[ucan.NoCaveats](
		service.Verifier(), sel, nil, nil, nil, nil, validator.DefaultPrincipalResolver(),
	)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.False(t, result.IsOk(res))
}

func TestAccessInvalidAudienceRejected(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	wrongService := helpers.SignerFromSeed(8)
	service := helpers.SignerFromSeed(9)

	invocation, err := delegation.Delegate(alice, wrongService,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	desc := storeAddDescriptor()
	vctx := vctxFor(service.Verifier(), desc)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.False(t, result.IsOk(res))
	_, failure := result.Unwrap(res)
	require.Contains(t, failure.Error(), "InvalidAudience")
}

func TestAccessExpiredRejected(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	service := helpers.SignerFromSeed(9)

	invocation, err := delegation.Delegate(alice, service,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", alice.DID().String(), emptyCaveats(t))},
		delegation.WithExpiration(1),
	)
	require.NoError(t, err)

	desc := storeAddDescriptor()
	vctx := vctxFor(service.Verifier(), desc)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	require.False(t, result.IsOk(res))
	_, failure := result.Unwrap(res)
	require.Contains(t, failure.Error(), "Expired")
}
