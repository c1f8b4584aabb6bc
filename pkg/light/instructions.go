package light

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana"
	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
	"github.com/code-payments/compression-sdk/pkg/solana/system"
)

type CompressArgs struct {
	Payer     ed25519.PublicKey
	ToAddress ed25519.PublicKey
	Lamports  uint64

	// Optional, defaults to the public state tree
	OutputStateTree ed25519.PublicKey
}

// Compress moves lamports from Payer into the sol pool and creates a
// compressed account owned by ToAddress holding them.
func Compress(args *CompressArgs) (solana.Instruction, error) {
	packed := NewPackedAccounts()

	outputTree := args.OutputStateTree
	if outputTree == nil {
		outputTree = lightsystem.DEFAULT_STATE_TREE
	}

	_, outputs, err := PackCompressedAccounts(
		nil,
		nil,
		[]lightsystem.CompressedAccount{lightsystem.NewCompressedAccount(args.ToAddress, args.Lamports)},
		outputTree,
		packed,
	)
	if err != nil {
		return solana.Instruction{}, err
	}

	lamports := args.Lamports
	return newInvokeInstruction(
		&invokeParams{
			payer:     args.Payer,
			authority: args.Payer,
			withPool:  true,
		},
		packed,
		&lightsystem.InstructionDataInvoke{
			OutputCompressedAccounts:     outputs,
			CompressOrDecompressLamports: &lamports,
			IsCompress:                   true,
		},
	)
}

type DecompressArgs struct {
	Payer     ed25519.PublicKey
	ToAddress ed25519.PublicKey
	Lamports  uint64

	InputCompressedAccounts     []CompressedAccountWithMerkleContext
	RecentValidityProof         lightsystem.CompressedProof
	RecentInputStateRootIndices []uint16

	// Optional, defaults to the tree of the first input
	OutputStateTree ed25519.PublicKey
}

// Decompress spends InputCompressedAccounts, pays Lamports out of the sol pool
// to ToAddress and returns any remainder to the inputs' owner as a new
// compressed account. The owner signs as authority.
func Decompress(args *DecompressArgs) (solana.Instruction, error) {
	owner, err := commonOwner(args.InputCompressedAccounts)
	if err != nil {
		return solana.Instruction{}, err
	}

	change, err := changeLamports(args.InputCompressedAccounts, args.Lamports)
	if err != nil {
		return solana.Instruction{}, err
	}

	var outputs []lightsystem.CompressedAccount
	if change > 0 {
		outputs = append(outputs, lightsystem.NewCompressedAccount(owner, change))
	}

	packed := NewPackedAccounts()
	inputs, packedOutputs, err := PackCompressedAccounts(
		args.InputCompressedAccounts,
		args.RecentInputStateRootIndices,
		outputs,
		args.OutputStateTree,
		packed,
	)
	if err != nil {
		return solana.Instruction{}, err
	}

	proof := args.RecentValidityProof
	lamports := args.Lamports
	return newInvokeInstruction(
		&invokeParams{
			payer:     args.Payer,
			authority: owner,
			withPool:  true,
			recipient: args.ToAddress,
		},
		packed,
		&lightsystem.InstructionDataInvoke{
			Proof:                                    &proof,
			InputCompressedAccountsWithMerkleContext: inputs,
			OutputCompressedAccounts:                 packedOutputs,
			CompressOrDecompressLamports:             &lamports,
			IsCompress:                               false,
		},
	)
}

type TransferArgs struct {
	Payer     ed25519.PublicKey
	ToAddress ed25519.PublicKey
	Lamports  uint64

	InputCompressedAccounts     []CompressedAccountWithMerkleContext
	RecentValidityProof         lightsystem.CompressedProof
	RecentInputStateRootIndices []uint16

	// Optional, defaults to the tree of the first input
	OutputStateTree ed25519.PublicKey
}

// Transfer spends InputCompressedAccounts into a compressed account owned by
// ToAddress. The remainder, if any, stays with the inputs' owner and comes
// first in the outputs.
func Transfer(args *TransferArgs) (solana.Instruction, error) {
	owner, err := commonOwner(args.InputCompressedAccounts)
	if err != nil {
		return solana.Instruction{}, err
	}

	change, err := changeLamports(args.InputCompressedAccounts, args.Lamports)
	if err != nil {
		return solana.Instruction{}, err
	}

	var outputs []lightsystem.CompressedAccount
	if change > 0 {
		outputs = append(outputs, lightsystem.NewCompressedAccount(owner, change))
	}
	outputs = append(outputs, lightsystem.NewCompressedAccount(args.ToAddress, args.Lamports))

	packed := NewPackedAccounts()
	inputs, packedOutputs, err := PackCompressedAccounts(
		args.InputCompressedAccounts,
		args.RecentInputStateRootIndices,
		outputs,
		args.OutputStateTree,
		packed,
	)
	if err != nil {
		return solana.Instruction{}, err
	}

	proof := args.RecentValidityProof
	return newInvokeInstruction(
		&invokeParams{
			payer:     args.Payer,
			authority: owner,
		},
		packed,
		&lightsystem.InstructionDataInvoke{
			Proof:                                    &proof,
			InputCompressedAccountsWithMerkleContext: inputs,
			OutputCompressedAccounts:                 packedOutputs,
		},
	)
}

type invokeParams struct {
	payer     ed25519.PublicKey
	authority ed25519.PublicKey
	withPool  bool
	recipient ed25519.PublicKey
}

func newInvokeInstruction(
	params *invokeParams,
	packed *PackedAccounts,
	data *lightsystem.InstructionDataInvoke,
) (solana.Instruction, error) {
	compressionAuthority, _, err := lightsystem.GetAccountCompressionAuthorityAddress()
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error deriving account compression authority")
	}

	var solPool ed25519.PublicKey
	if params.withPool {
		solPool, _, err = lightsystem.GetSolPoolPdaAddress()
		if err != nil {
			return solana.Instruction{}, errors.Wrap(err, "error deriving sol pool pda")
		}
	}

	return lightsystem.NewInvokeInstruction(
		&lightsystem.InvokeInstructionAccounts{
			FeePayer:                    params.payer,
			Authority:                   params.authority,
			RegisteredProgramPda:        lightsystem.REGISTERED_PROGRAM_PDA,
			NoopProgram:                 lightsystem.NOOP_PROGRAM_ID,
			AccountCompressionAuthority: compressionAuthority,
			AccountCompressionProgram:   lightsystem.ACCOUNT_COMPRESSION_PROGRAM_ID,
			SolPoolPda:                  solPool,
			DecompressionRecipient:      params.recipient,
			SystemProgram:               system.ProgramKey[:],
			RemainingAccounts:           packed.PackedAccountMetas(),
		},
		data,
	)
}

func changeLamports(inputs []CompressedAccountWithMerkleContext, lamports uint64) (uint64, error) {
	total := SumLamports(inputs)
	if total < lamports {
		return 0, errors.Wrapf(ErrInsufficientBalance, "need %d lamports, have %d", lamports, total)
	}
	return total - lamports, nil
}
