package light

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
)

var (
	ErrInsufficientBalance = errors.New("insufficient compressed balance")
	ErrMismatchedOwners    = errors.New("input compressed accounts have different owners")

	// Instruction data refers to packed accounts with a u8 index.
	ErrTooManyPackedAccounts = errors.New("packed account index exceeds u8 range")
)

// PackCompressedAccounts inserts the trees referenced by inputs and outputs
// into packed and returns the instruction representation of both, with every
// tree replaced by its packed index.
//
// Outputs are appended to outputTree, falling back to the tree of the first
// input and then to the default state tree.
func PackCompressedAccounts(
	inputs []CompressedAccountWithMerkleContext,
	rootIndices []uint16,
	outputs []lightsystem.CompressedAccount,
	outputTree ed25519.PublicKey,
	packed *PackedAccounts,
) ([]lightsystem.PackedCompressedAccountWithMerkleContext, []lightsystem.OutputCompressedAccountWithPackedContext, error) {
	if len(inputs) != len(rootIndices) {
		return nil, nil, errors.Errorf("got %d root indices for %d input accounts", len(rootIndices), len(inputs))
	}

	packedInputs := make([]lightsystem.PackedCompressedAccountWithMerkleContext, len(inputs))
	for i, input := range inputs {
		treeIndex, err := packedIndex(packed, input.MerkleTree)
		if err != nil {
			return nil, nil, err
		}
		queueIndex, err := packedIndex(packed, input.NullifierQueue)
		if err != nil {
			return nil, nil, err
		}

		packedInputs[i] = lightsystem.PackedCompressedAccountWithMerkleContext{
			CompressedAccount: input.CompressedAccount,
			MerkleContext: lightsystem.PackedMerkleContext{
				MerkleTreePubkeyIndex:     treeIndex,
				NullifierQueuePubkeyIndex: queueIndex,
				LeafIndex:                 input.LeafIndex,
			},
			RootIndex: rootIndices[i],
		}
	}

	if len(outputs) == 0 {
		return packedInputs, nil, nil
	}

	if outputTree == nil {
		if len(inputs) > 0 {
			outputTree = inputs[0].MerkleTree
		} else {
			outputTree = lightsystem.DEFAULT_STATE_TREE
		}
	}
	outputTreeIndex, err := packedIndex(packed, outputTree)
	if err != nil {
		return nil, nil, err
	}

	packedOutputs := make([]lightsystem.OutputCompressedAccountWithPackedContext, len(outputs))
	for i, output := range outputs {
		packedOutputs[i] = lightsystem.OutputCompressedAccountWithPackedContext{
			CompressedAccount: output,
			MerkleTreeIndex:   outputTreeIndex,
		}
	}

	return packedInputs, packedOutputs, nil
}

// PackNewAddressParams inserts every address tree, then every address queue,
// into packed.
func PackNewAddressParams(params []NewAddressParams, packed *PackedAccounts) ([]lightsystem.NewAddressParamsPacked, error) {
	result := make([]lightsystem.NewAddressParamsPacked, len(params))

	var err error
	for i, p := range params {
		result[i].Seed = p.Seed
		result[i].AddressMerkleTreeRootIndex = p.AddressMerkleTreeRootIndex
		if result[i].AddressMerkleTreeAccountIndex, err = packedIndex(packed, p.AddressMerkleTree); err != nil {
			return nil, err
		}
	}
	for i, p := range params {
		if result[i].AddressQueueAccountIndex, err = packedIndex(packed, p.AddressQueue); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func packedIndex(packed *PackedAccounts, pubkey ed25519.PublicKey) (uint8, error) {
	index := packed.InsertOrGet(pubkey)
	if index > math.MaxUint8 {
		return 0, errors.Wrapf(ErrTooManyPackedAccounts, "index %d", index)
	}
	return uint8(index), nil
}

// SumLamports returns the total lamports held by accounts.
func SumLamports(accounts []CompressedAccountWithMerkleContext) uint64 {
	var total uint64
	for _, account := range accounts {
		total += account.Lamports
	}
	return total
}

// SelectMinCompressedSolAccountsForTransfer picks the largest accounts first
// until their sum covers lamports. It returns the selection and its total.
func SelectMinCompressedSolAccountsForTransfer(
	accounts []CompressedAccountWithMerkleContext,
	lamports uint64,
) ([]CompressedAccountWithMerkleContext, uint64, error) {
	sorted := make([]CompressedAccountWithMerkleContext, len(accounts))
	copy(sorted, accounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Lamports > sorted[j].Lamports
	})

	var selected []CompressedAccountWithMerkleContext
	var total uint64
	for _, account := range sorted {
		if total >= lamports && len(selected) > 0 {
			break
		}
		if account.Lamports == 0 {
			continue
		}

		selected = append(selected, account)
		total += account.Lamports
	}

	if total < lamports {
		return nil, 0, errors.Wrapf(ErrInsufficientBalance, "need %d lamports, have %d", lamports, total)
	}

	return selected, total, nil
}

func commonOwner(accounts []CompressedAccountWithMerkleContext) (ed25519.PublicKey, error) {
	if len(accounts) == 0 {
		return nil, errors.New("no input compressed accounts")
	}

	owner := accounts[0].OwnerKey()
	for _, account := range accounts[1:] {
		if !bytes.Equal(owner, account.OwnerKey()) {
			return nil, ErrMismatchedOwners
		}
	}
	return owner, nil
}
