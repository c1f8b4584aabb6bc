package light

import (
	"crypto/ed25519"

	"github.com/code-payments/compression-sdk/pkg/solana"
	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
	"github.com/code-payments/compression-sdk/pkg/solana/system"
)

// SystemAccountMetaConfig describes the program invoking the light system
// program and the optional accounts its instruction needs.
type SystemAccountMetaConfig struct {
	// SelfProgram is the program performing the CPI. Required.
	SelfProgram ed25519.PublicKey

	CpiContext              ed25519.PublicKey
	SolCompressionRecipient ed25519.PublicKey
	SolPoolPda              ed25519.PublicKey
}

// NewSystemAccountMetaConfig returns a config with only SelfProgram set.
func NewSystemAccountMetaConfig(selfProgram ed25519.PublicKey) SystemAccountMetaConfig {
	return SystemAccountMetaConfig{
		SelfProgram: selfProgram,
	}
}

// NewSystemAccountMetaConfigWithCpiContext returns a config for a program
// that batches CPIs through a cpi context account.
func NewSystemAccountMetaConfigWithCpiContext(selfProgram, cpiContext ed25519.PublicKey) SystemAccountMetaConfig {
	return SystemAccountMetaConfig{
		SelfProgram: selfProgram,
		CpiContext:  cpiContext,
	}
}

// AddressDeriver derives a program address from seeds.
type AddressDeriver func(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error)

type systemAccountOptions struct {
	lightSystemProgram          ed25519.PublicKey
	accountCompressionAuthority ed25519.PublicKey
	accountCompressionProgram   ed25519.PublicKey
	registeredProgramPda        ed25519.PublicKey
	deriveAddress               AddressDeriver
}

// SystemAccountOption overrides one of the protocol defaults used by
// GetSystemAccountMetas.
type SystemAccountOption func(*systemAccountOptions)

// WithLightSystemProgram sets the program the system accounts are resolved
// for. Defaults to the light system program.
func WithLightSystemProgram(program ed25519.PublicKey) SystemAccountOption {
	return func(o *systemAccountOptions) {
		o.lightSystemProgram = program
	}
}

// WithAccountCompressionAuthority skips deriving the compression authority.
func WithAccountCompressionAuthority(authority ed25519.PublicKey) SystemAccountOption {
	return func(o *systemAccountOptions) {
		o.accountCompressionAuthority = authority
	}
}

func WithAccountCompressionProgram(program ed25519.PublicKey) SystemAccountOption {
	return func(o *systemAccountOptions) {
		o.accountCompressionProgram = program
	}
}

func WithRegisteredProgramPda(pda ed25519.PublicKey) SystemAccountOption {
	return func(o *systemAccountOptions) {
		o.registeredProgramPda = pda
	}
}

// WithAddressDeriver replaces solana.FindProgramAddress for both derivations.
func WithAddressDeriver(deriver AddressDeriver) SystemAccountOption {
	return func(o *systemAccountOptions) {
		o.deriveAddress = deriver
	}
}

// GetSystemAccountMetas returns the accounts the light system program expects
// after the accounts of the invoking program, in this order:
//
//  0. [] light system program
//  1. [] cpi authority of SelfProgram
//  2. [] registered program pda
//  3. [] account compression authority
//  4. [] account compression program
//  5. [] system program
//  6. [WRITE] sol pool pda (optional)
//  7. [WRITE] sol compression recipient (optional)
//  8. [WRITE] cpi context (optional)
//
// Optional accounts are omitted, not replaced, when unset. Derivation errors
// are returned as is.
func GetSystemAccountMetas(config SystemAccountMetaConfig, opts ...SystemAccountOption) ([]solana.AccountMeta, error) {
	o := &systemAccountOptions{
		lightSystemProgram:        lightsystem.PROGRAM_ID,
		accountCompressionProgram: lightsystem.ACCOUNT_COMPRESSION_PROGRAM_ID,
		registeredProgramPda:      lightsystem.REGISTERED_PROGRAM_PDA,
		deriveAddress:             solana.FindProgramAddress,
	}
	for _, opt := range opts {
		opt(o)
	}

	if len(config.SelfProgram) == 0 {
		panic("light: system account config is missing the self program")
	}
	if len(o.lightSystemProgram) == 0 {
		panic("light: system accounts require a light system program")
	}

	cpiAuthority, err := o.deriveAddress(config.SelfProgram, lightsystem.CpiAuthorityPrefix)
	if err != nil {
		return nil, err
	}

	compressionAuthority := o.accountCompressionAuthority
	if compressionAuthority == nil {
		compressionAuthority, err = o.deriveAddress(o.lightSystemProgram, lightsystem.CpiAuthorityPrefix)
		if err != nil {
			return nil, err
		}
	}

	metas := []solana.AccountMeta{
		solana.NewReadonlyAccountMeta(o.lightSystemProgram, false),
		solana.NewReadonlyAccountMeta(cpiAuthority, false),
		solana.NewReadonlyAccountMeta(o.registeredProgramPda, false),
		solana.NewReadonlyAccountMeta(compressionAuthority, false),
		solana.NewReadonlyAccountMeta(o.accountCompressionProgram, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	}

	if config.SolPoolPda != nil {
		metas = append(metas, solana.NewAccountMeta(config.SolPoolPda, false))
	}
	if config.SolCompressionRecipient != nil {
		metas = append(metas, solana.NewAccountMeta(config.SolCompressionRecipient, false))
	}
	if config.CpiContext != nil {
		metas = append(metas, solana.NewAccountMeta(config.CpiContext, false))
	}

	return metas, nil
}
