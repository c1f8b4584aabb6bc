package light

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
	"github.com/code-payments/compression-sdk/pkg/solana/system"
)

// DefaultLookupTableAddresses returns the protocol accounts referenced by
// every compression transaction, for loading from an address lookup table.
func DefaultLookupTableAddresses() ([]ed25519.PublicKey, error) {
	cpiAuthority, _, err := lightsystem.GetAccountCompressionAuthorityAddress()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving account compression authority")
	}

	solPool, _, err := lightsystem.GetSolPoolPdaAddress()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving sol pool pda")
	}

	return []ed25519.PublicKey{
		system.ProgramKey[:],
		lightsystem.PROGRAM_ID,
		lightsystem.ACCOUNT_COMPRESSION_PROGRAM_ID,
		lightsystem.NOOP_PROGRAM_ID,
		lightsystem.REGISTERED_PROGRAM_PDA,
		cpiAuthority,
		solPool,
		lightsystem.DEFAULT_STATE_TREE,
		lightsystem.DEFAULT_NULLIFIER_QUEUE,
		lightsystem.DEFAULT_CPI_CONTEXT,
		lightsystem.DEFAULT_ADDRESS_TREE,
		lightsystem.DEFAULT_ADDRESS_QUEUE,
	}, nil
}
