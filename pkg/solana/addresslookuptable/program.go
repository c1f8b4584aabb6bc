package address_lookup_table

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana"
	"github.com/code-payments/compression-sdk/pkg/solana/binary"
	"github.com/code-payments/compression-sdk/pkg/solana/system"
)

// Reference: https://github.com/solana-program/address-lookup-table/blob/main/program/src/instruction.rs

// AddressLookupTab1e1111111111111111111111111
var ProgramKey = ed25519.PublicKey{2, 119, 166, 175, 151, 51, 155, 122, 200, 141, 24, 146, 201, 4, 70, 245, 0, 2, 48, 146, 102, 246, 46, 83, 193, 24, 36, 73, 130, 0, 0, 0}

const (
	commandCreateLookupTable uint32 = iota
	commandFreezeLookupTable
	commandExtendLookupTable
	commandDeactivateLookupTable
	commandCloseLookupTable
)

// MaxExtendAddresses is the most addresses a single Extend instruction can
// carry while fitting in a legacy transaction.
const MaxExtendAddresses = 20

// GetAddress derives the lookup table address for authority created at
// recentSlot, along with its bump seed. The slot must be recent enough to be
// present in the SlotHashes sysvar when Create executes.
func GetAddress(authority ed25519.PublicKey, recentSlot uint64) (ed25519.PublicKey, uint8, error) {
	if len(authority) != ed25519.PublicKeySize {
		return nil, 0, errors.Errorf("invalid authority size: %d", len(authority))
	}

	slot := binary.NewWriter(8)
	slot.Uint64(recentSlot)

	alt, bump, err := solana.FindProgramAddressAndBump(ProgramKey, authority, slot.Bytes())
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to derive lookup table address")
	}
	return alt, bump, nil
}

// Create initializes the lookup table alt, which must be the address derived
// by GetAddress for authority and recentSlot.
func Create(alt, authority, payer ed25519.PublicKey, recentSlot uint64, bumpSeed uint8) solana.Instruction {
	w := binary.NewWriter(4 + 8 + 1)
	w.Uint32(commandCreateLookupTable)
	w.Uint64(recentSlot)
	w.Uint8(bumpSeed)

	return solana.NewInstruction(
		ProgramKey[:],
		w.Bytes(),
		solana.NewAccountMeta(alt, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(payer, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)
}

// Extend appends addresses to alt. The payer funds the additional rent.
func Extend(alt, authority, payer ed25519.PublicKey, addresses ...ed25519.PublicKey) solana.Instruction {
	w := binary.NewWriter(4 + 8 + len(addresses)*ed25519.PublicKeySize)
	w.Uint32(commandExtendLookupTable)
	w.Uint64(uint64(len(addresses)))
	for _, address := range addresses {
		w.Key(address)
	}

	return solana.NewInstruction(
		ProgramKey[:],
		w.Bytes(),
		solana.NewAccountMeta(alt, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(payer, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)
}
