package capability_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/core/schema"
	"github.com/ucanengine/core/testing/helpers"
	"github.com/ucanengine/core/ucan"
)

func storeAddDescriptor() *capability.Descriptor[ucan.NoCaveats] {
	return capability.NewDescriptor[ucan.NoCaveats](
		"store/add",
		schema.DIDString(),
		schema.Mapped(schema.Any(), func(any) (ucan.NoCaveats, error) { return ucan.NoCaveats{}, nil }),
		nil,
	)
}

func rawCap(t *testing.T, can, with string) delegation.RawCapability {
	t.Helper()
	n, err := ipld.FromMap(map[string]any{})
	require.NoError(t, err)
	return delegation.NewRawCapability(can, with, n)
}

func TestDescriptorMatchUnknownAbility(t *testing.T) {
	d := storeAddDescriptor()
	res := d.Match(rawCap(t, "store/remove", "did:key:z6Mkalice"))
	_, ok := res.(capability.Unknown[ucan.NoCaveats])
	require.True(t, ok)
}

func TestDescriptorMatchMalformedResource(t *testing.T) {
	d := storeAddDescriptor()
	res := d.Match(rawCap(t, "store/add", "not-a-did"))
	_, ok := res.(capability.Malformed[ucan.NoCaveats])
	require.True(t, ok)
}

func TestDescriptorMatchSuccess(t *testing.T) {
	d := storeAddDescriptor()
	alice := helpers.SignerFromSeed(1).DID().String()
	res := d.Match(rawCap(t, "store/add", alice))
	m, ok := res.(capability.Match[ucan.NoCaveats])
	require.True(t, ok)
	require.Equal(t, "store/add", m.Value.Can())
	require.Equal(t, alice, m.Value.With())
}

func TestDescriptorDerivesRequiresMatchingResource(t *testing.T) {
	d := storeAddDescriptor()
	claimed := ucan.NewCapability[ucan.NoCaveats]("store/add", "did:key:z6Mkalice", ucan.NoCaveats{})
	proven := ucan.NewCapability[ucan.NoCaveats]("store/add", "did:key:z6Mkbob", ucan.NoCaveats{})
	require.False(t, d.Derives(claimed, proven))

	metaProven := ucan.NewCapability[ucan.NoCaveats]("store/add", ucan.MetaResource, ucan.NoCaveats{})
	require.True(t, d.Derives(claimed, metaProven))
}

func TestIntersectAbility(t *testing.T) {
	cases := []struct {
		a, b ucan.Ability
		want ucan.Ability
		ok   bool
	}{
		{"store/add", "store/add", "store/add", true},
		{"*", "store/add", "store/add", true},
		{"store/*", "store/add", "store/add", true},
		{"store/*", "blob/*", "", false},
		{"store/add", "blob/add", "", false},
	}
	for _, tc := range cases {
		got, ok := capability.IntersectAbility(tc.a, tc.b)
		require.Equal(t, tc.ok, ok, "intersecting %q and %q", tc.a, tc.b)
		if ok {
			require.Equal(t, tc.want, got)
		}
	}
}

func TestOrTriesAlternativesInOrder(t *testing.T) {
	storeAdd := storeAddDescriptor()
	storeRemove := capability.NewDescriptor[ucan.NoCaveats](
		"store/remove",
		schema.DIDString(),
		schema.Mapped(schema.Any(), func(any) (ucan.NoCaveats, error) { return ucan.NoCaveats{}, nil }),
		nil,
	)
	either := capability.Or[ucan.NoCaveats](storeAdd, storeRemove)

	res := either.Match(rawCap(t, "store/remove", helpers.SignerFromSeed(1).DID().String()))
	m, ok := res.(capability.Match[ucan.NoCaveats])
	require.True(t, ok)
	require.Equal(t, "store/remove", m.Value.Can())

	res = either.Match(rawCap(t, "store/list", "did:key:z6Mkalice"))
	_, ok = res.(capability.Unknown[ucan.NoCaveats])
	require.True(t, ok)
}
