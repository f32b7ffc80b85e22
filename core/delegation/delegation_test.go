package delegation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/testing/helpers"
	"github.com/ucanengine/core/ucan"
)

func TestDelegateRoundTripsFields(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)

	exp := ucan.Now() + 600
	dlg, err := delegation.Delegate(
		alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", "did:key:z6Mkalice", nil)},
		delegation.WithExpiration(exp),
		delegation.WithNonce("fixed-nonce"),
	)
	require.NoError(t, err)

	require.Equal(t, alice.DID().String(), dlg.Issuer().DID().String())
	require.Equal(t, bob.DID().String(), dlg.Audience().DID().String())
	require.Equal(t, "fixed-nonce", dlg.Nonce())
	require.NotNil(t, dlg.Expiration())
	require.Equal(t, exp, *dlg.Expiration())
	require.Empty(t, dlg.Proofs())

	caps := dlg.Capabilities()
	require.Len(t, caps, 1)
	require.Equal(t, "store/add", caps[0].Can())
	require.Equal(t, "did:key:z6Mkalice", caps[0].With())
}

func TestDelegateRejectsEmptyCapabilities(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	_, err := delegation.Delegate(alice, bob, nil)
	require.Error(t, err)
}

func TestWithProofAttachesResolvedChain(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	carol := helpers.SignerFromSeed(3)

	root, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", ucan.MetaResource, nil)},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	chained, err := delegation.Delegate(bob, carol,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", ucan.MetaResource, nil)},
		delegation.WithProof(root),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	require.Equal(t, []ucan.Link{root.Link()}, chained.Proofs())

	resolved := chained.ResolvedProofs()
	require.Len(t, resolved, 1)
	proofDlg, ok := resolved[0].Delegation()
	require.True(t, ok)
	require.Equal(t, root.Link(), proofDlg.Link())

	var seen []ucan.Link
	for d := range chained.Iterate() {
		seen = append(seen, d.Link())
	}
	require.Equal(t, []ucan.Link{root.Link()}, seen)
}

func TestWithNoExpirationLeavesExpirationNil(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	dlg, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", ucan.MetaResource, nil)},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)
	require.Nil(t, dlg.Expiration())
}

func TestDelegateManyEncodesEachCapabilityNb(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)

	caps := []ucan.Capability[ucan.NoCaveats]{
		ucan.NewCapability("store/add", "did:key:z6Mkalice", ucan.NoCaveats{}),
		ucan.NewCapability("store/remove", "did:key:z6Mkalice", ucan.NoCaveats{}),
	}
	dlg, err := delegation.DelegateMany(alice, bob, caps, delegation.WithNoExpiration())
	require.NoError(t, err)

	raw := dlg.Capabilities()
	require.Len(t, raw, 2)
	require.Equal(t, "store/add", raw[0].Can())
	require.Equal(t, "store/remove", raw[1].Can())
	require.Equal(t, "did:key:z6Mkalice", raw[0].With())
}

func TestDelegateDefaultsExpirationWhenUnset(t *testing.T) {
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	before := ucan.Now()
	dlg, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", ucan.MetaResource, nil)},
	)
	require.NoError(t, err)
	require.NotNil(t, dlg.Expiration())
	require.Greater(t, *dlg.Expiration(), before)
}
