package delegation_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/testing/helpers"
	"github.com/ucanengine/core/ucan"
)

func buildChain(t *testing.T) (root, leaf delegation.Delegation) {
	t.Helper()
	alice := helpers.SignerFromSeed(1)
	bob := helpers.SignerFromSeed(2)
	carol := helpers.SignerFromSeed(3)

	root, err := delegation.Delegate(alice, bob,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", ucan.MetaResource, nil)},
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)

	leaf, err = delegation.Delegate(bob, carol,
		[]delegation.RawCapability{delegation.NewRawCapability("store/add", ucan.MetaResource, nil)},
		delegation.WithProof(root),
		delegation.WithNoExpiration(),
	)
	require.NoError(t, err)
	return root, leaf
}

func TestArchiveExtractRoundTrip(t *testing.T) {
	_, leaf := buildChain(t)

	archived, err := io.ReadAll(leaf.Archive())
	require.NoError(t, err)
	require.NotEmpty(t, archived)

	extracted, err := delegation.Extract(archived)
	require.NoError(t, err)

	require.Equal(t, leaf.Link(), extracted.Link())
	require.Equal(t, leaf.Issuer().DID().String(), extracted.Issuer().DID().String())
	require.Equal(t, leaf.Audience().DID().String(), extracted.Audience().DID().String())

	resolved := extracted.ResolvedProofs()
	require.Len(t, resolved, 1)
	proofDlg, ok := resolved[0].Delegation()
	require.True(t, ok, "proof chain should survive archive round trip")
	require.Equal(t, leaf.Proofs()[0], proofDlg.Link())
}

func TestFormatParseRoundTrip(t *testing.T) {
	_, leaf := buildChain(t)

	encoded, err := delegation.Format(leaf)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	parsed, err := delegation.Parse(encoded)
	require.NoError(t, err)
	require.Equal(t, leaf.Link(), parsed.Link())
}

func TestExtractRejectsTruncatedArchive(t *testing.T) {
	_, leaf := buildChain(t)
	archived, err := io.ReadAll(leaf.Archive())
	require.NoError(t, err)

	_, err = delegation.Extract(archived[:len(archived)/2])
	require.Error(t, err)
}
