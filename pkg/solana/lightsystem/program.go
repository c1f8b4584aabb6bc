package lightsystem

import (
	"crypto/ed25519"
	"errors"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("SySTEM1eSU2p4BGQfQpimFEWWSC1XDFeun3Nqzz3rT7")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	ACCOUNT_COMPRESSION_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("compr6CUsB5m2jS4Y3831ztGSTnDpnKJTKS95d64XVq"))
	NOOP_PROGRAM_ID                = ed25519.PublicKey(mustBase58Decode("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV"))
)

var (
	// Registration of the light system program with the account compression
	// program, derived from ACCOUNT_COMPRESSION_PROGRAM_ID and PROGRAM_ID.
	REGISTERED_PROGRAM_PDA = ed25519.PublicKey(mustBase58Decode("35hkDgaAKwMCaxRz2ocSZ6NaUrtKkyNqU6c4RV3tYJRh"))
)

// Public v1 trees shared by every client on devnet, mainnet and the local
// test validator.
var (
	DEFAULT_STATE_TREE      = ed25519.PublicKey(mustBase58Decode("smt1NamzXdq4AMqS2fS2F1i5KTYPZRhoHgWx38d8WsT"))
	DEFAULT_NULLIFIER_QUEUE = ed25519.PublicKey(mustBase58Decode("nfq1NvQDJ2GEgnS8zt9prAe8rjjpAW1zFkrvZoBR148"))
	DEFAULT_CPI_CONTEXT     = ed25519.PublicKey(mustBase58Decode("cpi1uHzrEhBG733DoEJNgHCyRS3XmmyVNZx5fonubE4"))
	DEFAULT_ADDRESS_TREE    = ed25519.PublicKey(mustBase58Decode("amt1Ayt45jfbdw5YSo7iz6WZxUmnZsQTYXy82hVwyC2"))
	DEFAULT_ADDRESS_QUEUE   = ed25519.PublicKey(mustBase58Decode("aq1S9z4reTSQAdgWHGD2zDaS39sjGrAxbR31vxJ2F4F"))
)
