package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateSolanaKeypair returns a fresh signer, such as a fee payer or the
// owner of compressed accounts.
func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

// GenerateSolanaKeys returns n random addresses for trees, queues, programs
// and recipients.
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := range keys {
		keys[i] = GenerateSolanaKeypair(t).Public().(ed25519.PublicKey)
	}
	return keys
}

// GenerateHash returns a random 32 byte value usable as a compressed account
// hash, merkle root or blockhash.
func GenerateHash(t *testing.T) (hash [32]byte) {
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}
