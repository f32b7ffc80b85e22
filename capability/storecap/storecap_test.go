package storecap_test

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/capability/storecap"
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/ipld"
	"github.com/ucanengine/core/testing/helpers"
)

func testLink(t *testing.T, data string) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte(data), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, mh)
}

func rawCap(t *testing.T, with string, nb storecap.Caveats) delegation.RawCapability {
	t.Helper()
	n, err := nb.ToIPLD()
	require.NoError(t, err)
	return delegation.NewRawCapability(storecap.Ability, with, n)
}

func TestDescriptorMatchParsesCaveats(t *testing.T) {
	link := testLink(t, "blob")
	res := storecap.Descriptor.Match(rawCap(t, helpers.SignerFromSeed(1).DID().String(), storecap.Caveats{Link: link, Size: 42}))
	m, ok := res.(capability.Match[storecap.Caveats])
	require.True(t, ok)
	require.Equal(t, link, m.Value.Nb().Link)
	require.Equal(t, uint64(42), m.Value.Nb().Size)
	require.Nil(t, m.Value.Nb().Origin)
}

func TestDescriptorMatchRejectsMissingSize(t *testing.T) {
	n, err := ipld.FromMap(map[string]any{"link": testLink(t, "blob")})
	require.NoError(t, err)
	res := storecap.Descriptor.Match(delegation.NewRawCapability(storecap.Ability, helpers.SignerFromSeed(1).DID().String(), n))
	_, ok := res.(capability.Malformed[storecap.Caveats])
	require.True(t, ok)
}

func TestDerivesRequiresSameBlob(t *testing.T) {
	a := testLink(t, "a")
	b := testLink(t, "b")

	claimed := storecap.New("did:key:z6Mkalice", storecap.Caveats{Link: a, Size: 10})
	proven := storecap.New("did:key:z6Mkalice", storecap.Caveats{Link: a, Size: 10})
	require.True(t, storecap.Descriptor.Derives(claimed, proven))

	wrongBlob := storecap.New("did:key:z6Mkalice", storecap.Caveats{Link: b, Size: 10})
	require.False(t, storecap.Descriptor.Derives(claimed, wrongBlob))
}

func TestDerivesRejectsMismatchedOrigin(t *testing.T) {
	link := testLink(t, "blob")
	origin := testLink(t, "origin")
	otherOrigin := testLink(t, "other-origin")

	claimed := storecap.New("did:key:z6Mkalice", storecap.Caveats{Link: link, Size: 1, Origin: &otherOrigin})
	proven := storecap.New("did:key:z6Mkalice", storecap.Caveats{Link: link, Size: 1, Origin: &origin})
	require.False(t, storecap.Descriptor.Derives(claimed, proven))

	unrestricted := storecap.New("did:key:z6Mkalice", storecap.Caveats{Link: link, Size: 1})
	require.True(t, storecap.Descriptor.Derives(claimed, unrestricted))
}
