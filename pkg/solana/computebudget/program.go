package compute_budget

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

var ErrInvalidInstructionData = errors.New("invalid compute budget instruction data")

// Instruction discriminators. Only the unit limit and unit price commands are
// emitted; the first two are deprecated on chain.
const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

// SetComputeUnitLimit caps the compute units a transaction may consume. Light
// system program invocations need far more than the 200k default, so every
// compressed-account transaction carries one.
func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := []byte{commandSetComputeUnitLimit}
	data = binary.LittleEndian.AppendUint32(data, computeUnitLimit)
	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per compute unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := []byte{commandSetComputeUnitPrice}
	data = binary.LittleEndian.AppendUint64(data, microLamports)
	return solana.NewInstruction(ProgramKey, data)
}

// ParseSetComputeUnitLimitIxnData decodes the data of a SetComputeUnitLimit
// instruction.
func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	payload, err := payloadFor(data, commandSetComputeUnitLimit, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(payload), nil
}

// ParseSetComputeUnitPriceIxnData decodes the data of a SetComputeUnitPrice
// instruction.
func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	payload, err := payloadFor(data, commandSetComputeUnitPrice, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(payload), nil
}

func payloadFor(data []byte, command uint8, size int) ([]byte, error) {
	if len(data) != 1+size {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "length %d, expected %d", len(data), 1+size)
	}
	if data[0] != command {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "command %d, expected %d", data[0], command)
	}
	return data[1:], nil
}
