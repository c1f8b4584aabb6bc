package rpc

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
)

// AccountsPage is one page of compressed accounts returned by a paginated
// query. Cursor is nil on the last page.
type AccountsPage struct {
	Items  []light.CompressedAccountWithMerkleContext
	Cursor *string
}

type accountIdentifier struct {
	Address *string `json:"address,omitempty"`
	Hash    *string `json:"hash,omitempty"`
}

type ownerRequest struct {
	Owner  string  `json:"owner"`
	Cursor *string `json:"cursor,omitempty"`
	Limit  *uint16 `json:"limit,omitempty"`
}

type addressWithTree struct {
	Address string `json:"address"`
	Tree    string `json:"tree"`
}

type validityProofRequest struct {
	Hashes                []string          `json:"hashes"`
	NewAddressesWithTrees []addressWithTree `json:"newAddressesWithTrees"`
}

type compressedAccountData struct {
	Discriminator uint64 `json:"discriminator"`
	Data          string `json:"data"`
	DataHash      string `json:"dataHash"`
}

type compressedAccount struct {
	Address     *string                `json:"address"`
	Data        *compressedAccountData `json:"data"`
	Hash        string                 `json:"hash"`
	Lamports    uint64                 `json:"lamports"`
	LeafIndex   uint32                 `json:"leafIndex"`
	Owner       string                 `json:"owner"`
	Seq         *uint64                `json:"seq"`
	SlotCreated uint64                 `json:"slotCreated"`
	Tree        string                 `json:"tree"`
}

type compressedProof struct {
	A []int `json:"a"`
	B []int `json:"b"`
	C []int `json:"c"`
}

type validityProof struct {
	CompressedProof compressedProof `json:"compressedProof"`
	Roots           []string        `json:"roots"`
	RootIndices     []uint16        `json:"rootIndices"`
	LeafIndices     []uint32        `json:"leafIndices"`
	Leaves          []string        `json:"leaves"`
	MerkleTrees     []string        `json:"merkleTrees"`
}

func decodeKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base58 encoded key %q", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid key size: %d", len(decoded))
	}
	return decoded, nil
}

func decodeHash(value string) (hash [32]byte, err error) {
	decoded, err := decodeKey(value)
	if err != nil {
		return hash, err
	}
	copy(hash[:], decoded)
	return hash, nil
}

func decodeProofBytes(dst []byte, values []int) error {
	if len(values) != len(dst) {
		return errors.Errorf("expected %d proof bytes, got %d", len(dst), len(values))
	}
	for i, v := range values {
		if v < 0 || v > 255 {
			return errors.Errorf("invalid proof byte at %d: %d", i, v)
		}
		dst[i] = byte(v)
	}
	return nil
}

// treeInfos maps state trees to their nullifier queues.
type treeInfos []light.StateTreeInfo

func (t treeInfos) queueFor(tree ed25519.PublicKey) (ed25519.PublicKey, error) {
	for _, info := range t {
		if bytes.Equal(info.Tree, tree) {
			return info.Queue, nil
		}
	}
	return nil, errors.Errorf("unknown state tree %s", base58.Encode(tree))
}

func (t treeInfos) toAccount(raw *compressedAccount) (account light.CompressedAccountWithMerkleContext, err error) {
	owner, err := decodeKey(raw.Owner)
	if err != nil {
		return account, errors.Wrap(err, "invalid owner")
	}
	copy(account.Owner[:], owner)
	account.Lamports = raw.Lamports
	account.LeafIndex = raw.LeafIndex

	if account.Hash, err = decodeHash(raw.Hash); err != nil {
		return account, errors.Wrap(err, "invalid hash")
	}

	if raw.Address != nil {
		address, err := decodeHash(*raw.Address)
		if err != nil {
			return account, errors.Wrap(err, "invalid address")
		}
		account.Address = &address
	}

	if raw.Data != nil {
		data := &lightsystem.CompressedAccountData{}
		binary.LittleEndian.PutUint64(data.Discriminator[:], raw.Data.Discriminator)
		if data.Data, err = base64.StdEncoding.DecodeString(raw.Data.Data); err != nil {
			return account, errors.Wrap(err, "invalid base64 encoded data")
		}
		if data.DataHash, err = decodeHash(raw.Data.DataHash); err != nil {
			return account, errors.Wrap(err, "invalid data hash")
		}
		account.Data = data
	}

	if account.MerkleTree, err = decodeKey(raw.Tree); err != nil {
		return account, errors.Wrap(err, "invalid tree")
	}
	if account.NullifierQueue, err = t.queueFor(account.MerkleTree); err != nil {
		return account, err
	}

	return account, nil
}

func (t treeInfos) toValidityProof(raw *validityProof) (*light.ValidityProof, error) {
	proof := &light.ValidityProof{
		RootIndices: raw.RootIndices,
		LeafIndices: raw.LeafIndices,
	}

	if err := decodeProofBytes(proof.CompressedProof.A[:], raw.CompressedProof.A); err != nil {
		return nil, errors.Wrap(err, "invalid proof a")
	}
	if err := decodeProofBytes(proof.CompressedProof.B[:], raw.CompressedProof.B); err != nil {
		return nil, errors.Wrap(err, "invalid proof b")
	}
	if err := decodeProofBytes(proof.CompressedProof.C[:], raw.CompressedProof.C); err != nil {
		return nil, errors.Wrap(err, "invalid proof c")
	}

	for _, root := range raw.Roots {
		decoded, err := decodeHash(root)
		if err != nil {
			return nil, errors.Wrap(err, "invalid root")
		}
		proof.Roots = append(proof.Roots, decoded)
	}
	for _, leaf := range raw.Leaves {
		decoded, err := decodeHash(leaf)
		if err != nil {
			return nil, errors.Wrap(err, "invalid leaf")
		}
		proof.Leaves = append(proof.Leaves, decoded)
	}
	for _, tree := range raw.MerkleTrees {
		decoded, err := decodeKey(tree)
		if err != nil {
			return nil, errors.Wrap(err, "invalid merkle tree")
		}
		proof.MerkleTrees = append(proof.MerkleTrees, decoded)

		// Address trees are not state trees and have no nullifier queue.
		queue, _ := t.queueFor(decoded)
		proof.NullifierQueues = append(proof.NullifierQueues, queue)
	}

	if len(proof.RootIndices) != len(proof.MerkleTrees) {
		return nil, errors.Errorf("expected %d root indices, got %d", len(proof.MerkleTrees), len(proof.RootIndices))
	}

	return proof, nil
}
