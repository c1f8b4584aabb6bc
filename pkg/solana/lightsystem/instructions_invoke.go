package lightsystem

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana"
)

var InvokeInstructionDiscriminator = []byte{26, 16, 169, 7, 21, 202, 242, 25}

type InvokeInstructionAccounts struct {
	FeePayer                    ed25519.PublicKey
	Authority                   ed25519.PublicKey
	RegisteredProgramPda        ed25519.PublicKey
	NoopProgram                 ed25519.PublicKey
	AccountCompressionAuthority ed25519.PublicKey
	AccountCompressionProgram   ed25519.PublicKey
	SolPoolPda                  ed25519.PublicKey // Optional
	DecompressionRecipient      ed25519.PublicKey // Optional
	SystemProgram               ed25519.PublicKey

	// Accounts referenced by index from the instruction data
	RemainingAccounts []solana.AccountMeta
}

func NewInvokeInstruction(
	accounts *InvokeInstructionAccounts,
	args *InstructionDataInvoke,
) (solana.Instruction, error) {
	serialized, err := borsh.Serialize(*args)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error serializing invoke instruction data")
	}

	var offset int

	// Serialize instruction arguments
	data := make([]byte, 8+4+len(serialized))

	putDiscriminator(data, InvokeInstructionDiscriminator, &offset)
	putUint32(data, uint32(len(serialized)), &offset)
	copy(data[offset:], serialized)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: append([]solana.AccountMeta{
			{
				PublicKey:  accounts.FeePayer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.RegisteredProgramPda,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.NoopProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.AccountCompressionAuthority,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.AccountCompressionProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			getOptionalWritableAccountMeta(accounts.SolPoolPda),
			getOptionalWritableAccountMeta(accounts.DecompressionRecipient),
			{
				PublicKey:  accounts.SystemProgram,
				IsWritable: false,
				IsSigner:   false,
			},
		}, accounts.RemainingAccounts...),
	}, nil
}

// UnmarshalInvokeInstructionData decodes the data produced by
// NewInvokeInstruction.
func UnmarshalInvokeInstructionData(data []byte) (*InstructionDataInvoke, error) {
	if len(data) < 8+4 {
		return nil, ErrInvalidInstructionData
	}

	if !bytes.Equal(data[:8], InvokeInstructionDiscriminator) {
		return nil, ErrInvalidInstructionData
	}

	size := binary.LittleEndian.Uint32(data[8:])
	if int(size) != len(data)-8-4 {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "length prefix %d does not match payload of %d bytes", size, len(data)-8-4)
	}

	var args InstructionDataInvoke
	if err := borsh.Deserialize(&args, data[8+4:]); err != nil {
		return nil, errors.Wrap(err, "error deserializing invoke instruction data")
	}
	return &args, nil
}

// Optional accounts that are absent are replaced by the program address.
func getOptionalWritableAccountMeta(account ed25519.PublicKey) solana.AccountMeta {
	if account == nil {
		return solana.AccountMeta{
			PublicKey:  PROGRAM_ADDRESS,
			IsWritable: false,
			IsSigner:   false,
		}
	}

	return solana.AccountMeta{
		PublicKey:  account,
		IsWritable: true,
		IsSigner:   false,
	}
}
