package light

import (
	"crypto/ed25519"

	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
)

// CompressedAccountWithMerkleContext is a compressed account together with
// the position of its hash in a state tree.
type CompressedAccountWithMerkleContext struct {
	lightsystem.CompressedAccount

	Hash           [32]byte
	MerkleTree     ed25519.PublicKey
	NullifierQueue ed25519.PublicKey
	LeafIndex      uint32
}

// ValidityProof proves the inclusion of input accounts and the non-inclusion
// of new addresses against recent tree roots.
type ValidityProof struct {
	CompressedProof lightsystem.CompressedProof

	Roots           [][32]byte
	RootIndices     []uint16
	LeafIndices     []uint32
	Leaves          [][32]byte
	MerkleTrees     []ed25519.PublicKey
	NullifierQueues []ed25519.PublicKey
}

// StateTreeInfo identifies a state tree and its companion accounts.
type StateTreeInfo struct {
	Tree       ed25519.PublicKey
	Queue      ed25519.PublicKey
	CpiContext ed25519.PublicKey
}

// DefaultStateTreeInfo returns the public v1 state tree.
func DefaultStateTreeInfo() StateTreeInfo {
	return StateTreeInfo{
		Tree:       lightsystem.DEFAULT_STATE_TREE,
		Queue:      lightsystem.DEFAULT_NULLIFIER_QUEUE,
		CpiContext: lightsystem.DEFAULT_CPI_CONTEXT,
	}
}

// NewAddressParams requests the creation of a compressed account address.
type NewAddressParams struct {
	Seed                       [32]byte
	AddressMerkleTreeRootIndex uint16
	AddressMerkleTree          ed25519.PublicKey
	AddressQueue               ed25519.PublicKey
}
