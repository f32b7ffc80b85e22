package ed25519_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ucanengine/core/principal/ed25519"
)

func TestSignerEncodeRoundTripsThroughFromPrivateKey(t *testing.T) {
	signer, err := ed25519.Generate()
	require.NoError(t, err)

	restored, err := ed25519.FromPrivateKey(signer.Encode())
	require.NoError(t, err)
	require.Equal(t, signer.DID().String(), restored.DID().String())

	payload := []byte("round trip")
	sig, err := restored.Sign(payload)
	require.NoError(t, err)
	require.True(t, signer.Verifier().Verify(payload, sig))
}

func TestFromPrivateKeyRejectsWrongLength(t *testing.T) {
	_, err := ed25519.FromPrivateKey([]byte("too short"))
	require.Error(t, err)
}
