package action

import (
	"crypto/ed25519"

	"github.com/code-payments/compression-sdk/pkg/light/transaction"
	"github.com/code-payments/compression-sdk/pkg/solana"
	"github.com/code-payments/compression-sdk/pkg/solana/memo"
)

type options struct {
	computeUnitLimit uint32
	computeUnitPrice uint64
	memo             string
	lookupTables     []solana.AddressLookupTable
	outputStateTree  ed25519.PublicKey
}

// Option configures an action.
type Option func(*options)

// WithComputeUnitLimit overrides the compute unit limit of the transaction.
func WithComputeUnitLimit(units uint32) Option {
	return func(o *options) {
		o.computeUnitLimit = units
	}
}

// WithComputeUnitPrice sets a priority fee in micro lamports per compute unit.
func WithComputeUnitPrice(microLamports uint64) Option {
	return func(o *options) {
		o.computeUnitPrice = microLamports
	}
}

// WithMemo attaches a memo instruction to the transaction.
func WithMemo(value string) Option {
	return func(o *options) {
		o.memo = value
	}
}

// WithLookupTables compiles the transaction against lookupTables.
func WithLookupTables(lookupTables ...solana.AddressLookupTable) Option {
	return func(o *options) {
		o.lookupTables = lookupTables
	}
}

// WithOutputStateTree sets the state tree new compressed accounts are
// written to.
func WithOutputStateTree(tree ed25519.PublicKey) Option {
	return func(o *options) {
		o.outputStateTree = tree
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		computeUnitLimit: transaction.DefaultComputeUnitLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// instructions wraps instruction with the compute budget and memo
// instructions requested by o.
func (o *options) instructions(instruction solana.Instruction) ([]solana.Instruction, error) {
	instructions := []solana.Instruction{instruction}

	if len(o.memo) > 0 {
		memoInstruction, err := memo.Instruction(o.memo)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, memoInstruction)
	}

	instructions = transaction.WithComputeUnitLimit(o.computeUnitLimit, instructions...)
	if o.computeUnitPrice > 0 {
		instructions = transaction.WithComputeUnitPrice(o.computeUnitPrice, instructions...)
	}

	return instructions, nil
}
