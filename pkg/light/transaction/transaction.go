package transaction

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/compression-sdk/pkg/solana"
	compute_budget "github.com/code-payments/compression-sdk/pkg/solana/computebudget"
)

// DefaultComputeUnitLimit covers a compression instruction with a validity
// proof.
const DefaultComputeUnitLimit = 1_000_000

var ErrDuplicateSigner = errors.New("payer is also listed as an additional signer")

var log = logrus.StandardLogger().WithField("type", "light/transaction")

// WithComputeUnitLimit prepends a compute unit limit instruction to
// instructions.
func WithComputeUnitLimit(units uint32, instructions ...solana.Instruction) []solana.Instruction {
	return append(
		[]solana.Instruction{compute_budget.SetComputeUnitLimit(units)},
		instructions...,
	)
}

// WithComputeUnitPrice prepends a compute unit price instruction, in micro
// lamports per unit, to instructions.
func WithComputeUnitPrice(microLamports uint64, instructions ...solana.Instruction) []solana.Instruction {
	return append(
		[]solana.Instruction{compute_budget.SetComputeUnitPrice(microLamports)},
		instructions...,
	)
}

// BuildTx compiles an unsigned transaction. It is a versioned transaction
// when any account is loaded from lookupTables, and a legacy one otherwise.
func BuildTx(
	instructions []solana.Instruction,
	payer ed25519.PublicKey,
	blockhash solana.Blockhash,
	lookupTables []solana.AddressLookupTable,
) solana.Transaction {
	txn := solana.NewVersionedTransaction(payer, lookupTables, instructions)
	txn.SetBlockhash(blockhash)
	return txn
}

// BuildAndSignTx compiles a transaction and signs it with payer followed by
// additionalSigners.
func BuildAndSignTx(
	instructions []solana.Instruction,
	payer ed25519.PrivateKey,
	blockhash solana.Blockhash,
	additionalSigners []ed25519.PrivateKey,
	lookupTables []solana.AddressLookupTable,
) (solana.Transaction, error) {
	payerKey := payer.Public().(ed25519.PublicKey)
	for _, signer := range additionalSigners {
		if bytes.Equal(signer.Public().(ed25519.PublicKey), payerKey) {
			return solana.Transaction{}, ErrDuplicateSigner
		}
	}

	txn := BuildTx(instructions, payerKey, blockhash, lookupTables)

	signers := append([]ed25519.PrivateKey{payer}, additionalSigners...)
	if err := txn.Sign(signers...); err != nil {
		return solana.Transaction{}, errors.Wrap(err, "failed to sign transaction")
	}

	if err := txn.VerifySignatures(); err != nil {
		return solana.Transaction{}, err
	}

	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		return solana.Transaction{}, errors.Wrapf(solana.ErrTransactionTooLarge, "%d bytes", size)
	}

	return txn, nil
}

// SendAndConfirmTx submits txn and waits for it to reach commitment.
func SendAndConfirmTx(client solana.Client, txn solana.Transaction, commitment solana.Commitment) (solana.Signature, error) {
	sig, err := client.SubmitTransaction(txn, commitment)
	if err != nil {
		return sig, errors.Wrap(err, "failed to submit transaction")
	}

	if err := ConfirmTx(client, sig, commitment); err != nil {
		return sig, err
	}

	return sig, nil
}

// ConfirmTx polls the status of sig until it reaches commitment. A failed
// transaction is returned as a *solana.TransactionError.
func ConfirmTx(client solana.Client, sig solana.Signature, commitment solana.Commitment) error {
	status, err := client.GetSignatureStatus(sig, commitment)
	if err != nil {
		log.WithFields(logrus.Fields{
			"signature":  base58.Encode(sig[:]),
			"commitment": commitment.Commitment,
		}).WithError(err).Debug("transaction not confirmed")

		if txErr, ok := err.(*solana.TransactionError); ok {
			return txErr
		}
		return errors.Wrapf(err, "failed to confirm transaction %s", sig.String())
	}

	if status != nil && status.ErrorResult != nil {
		return status.ErrorResult
	}

	return nil
}
