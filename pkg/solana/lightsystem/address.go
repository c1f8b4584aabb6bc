package lightsystem

import (
	"crypto/ed25519"

	"github.com/code-payments/compression-sdk/pkg/solana"
)

var (
	CpiAuthorityPrefix = []byte("cpi_authority")
	SolPoolPdaPrefix   = []byte("sol_pool_pda")
)

type GetCpiAuthorityAddressArgs struct {
	Program ed25519.PublicKey
}

// GetCpiAuthorityAddress derives the authority a program signs with when it
// invokes the light system program through CPI.
func GetCpiAuthorityAddress(args *GetCpiAuthorityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		args.Program,
		CpiAuthorityPrefix,
	)
}

// GetAccountCompressionAuthorityAddress derives the authority the light system
// program uses towards the account compression program.
func GetAccountCompressionAuthorityAddress() (ed25519.PublicKey, uint8, error) {
	return GetCpiAuthorityAddress(&GetCpiAuthorityAddressArgs{
		Program: PROGRAM_ID,
	})
}

// GetSolPoolPdaAddress derives the account holding the lamports of every
// compressed SOL account.
func GetSolPoolPdaAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		SolPoolPdaPrefix,
	)
}

type GetRegisteredProgramPdaAddressArgs struct {
	Program ed25519.PublicKey
}

func GetRegisteredProgramPdaAddress(args *GetRegisteredProgramPdaAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ACCOUNT_COMPRESSION_PROGRAM_ID,
		args.Program,
	)
}
