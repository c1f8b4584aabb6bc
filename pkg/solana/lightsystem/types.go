package lightsystem

import (
	"crypto/ed25519"
)

// Fields of every type in this file are serialized with Borsh in declaration
// order. Pointers encode as Option and slices carry a u32 length prefix, so
// keys are held as [32]byte rather than ed25519.PublicKey.

type CompressedProof struct {
	A [32]byte
	B [64]byte
	C [32]byte
}

type CompressedAccountData struct {
	Discriminator [8]byte
	Data          []byte
	DataHash      [32]byte
}

type CompressedAccount struct {
	Owner    [32]byte
	Lamports uint64
	Address  *[32]byte
	Data     *CompressedAccountData
}

func NewCompressedAccount(owner ed25519.PublicKey, lamports uint64) CompressedAccount {
	return CompressedAccount{
		Owner:    toKey32(owner),
		Lamports: lamports,
	}
}

func (a CompressedAccount) OwnerKey() ed25519.PublicKey {
	return ed25519.PublicKey(a.Owner[:])
}

type QueueIndex struct {
	QueueId uint8
	Index   uint16
}

type PackedMerkleContext struct {
	MerkleTreePubkeyIndex     uint8
	NullifierQueuePubkeyIndex uint8
	LeafIndex                 uint32
	QueueIndex                *QueueIndex
}

type PackedCompressedAccountWithMerkleContext struct {
	CompressedAccount CompressedAccount
	MerkleContext     PackedMerkleContext
	RootIndex         uint16
	ReadOnly          bool
}

type OutputCompressedAccountWithPackedContext struct {
	CompressedAccount CompressedAccount
	MerkleTreeIndex   uint8
}

type NewAddressParamsPacked struct {
	Seed                          [32]byte
	AddressQueueAccountIndex      uint8
	AddressMerkleTreeAccountIndex uint8
	AddressMerkleTreeRootIndex    uint16
}

type InstructionDataInvoke struct {
	Proof                                    *CompressedProof
	InputCompressedAccountsWithMerkleContext []PackedCompressedAccountWithMerkleContext
	OutputCompressedAccounts                 []OutputCompressedAccountWithPackedContext
	RelayFee                                 *uint64
	NewAddressParams                         []NewAddressParamsPacked
	CompressOrDecompressLamports             *uint64
	IsCompress                               bool
}
