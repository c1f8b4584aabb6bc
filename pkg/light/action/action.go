package action

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/light/rpc"
	"github.com/code-payments/compression-sdk/pkg/light/transaction"
	"github.com/code-payments/compression-sdk/pkg/solana"
)

var log = logrus.StandardLogger().WithField("type", "light/action")

// CompressSol moves lamports from payer into a compressed account owned by
// toAddress.
func CompressSol(
	ctx context.Context,
	r *rpc.Rpc,
	payer ed25519.PrivateKey,
	lamports uint64,
	toAddress ed25519.PublicKey,
	opts ...Option,
) (solana.Signature, error) {
	o := applyOptions(opts)
	payerKey := payer.Public().(ed25519.PublicKey)

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	blockhash, err := r.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error getting latest blockhash")
	}

	instruction, err := light.Compress(&light.CompressArgs{
		Payer:           payerKey,
		ToAddress:       toAddress,
		Lamports:        lamports,
		OutputStateTree: o.outputStateTree,
	})
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error building compress instruction")
	}

	return signAndSend(ctx, r, "compress_sol", o, instruction, payer, blockhash, nil)
}

// DecompressSol spends the payer's compressed accounts to send lamports to
// recipient. The payer owns the compressed accounts.
func DecompressSol(
	ctx context.Context,
	r *rpc.Rpc,
	payer ed25519.PrivateKey,
	lamports uint64,
	recipient ed25519.PublicKey,
	opts ...Option,
) (solana.Signature, error) {
	o := applyOptions(opts)
	payerKey := payer.Public().(ed25519.PublicKey)

	spend, err := prepareSpend(ctx, r, payerKey, lamports)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := light.Decompress(&light.DecompressArgs{
		Payer:                       payerKey,
		ToAddress:                   recipient,
		Lamports:                    lamports,
		InputCompressedAccounts:     spend.inputs,
		RecentValidityProof:         spend.proof.CompressedProof,
		RecentInputStateRootIndices: spend.proof.RootIndices,
		OutputStateTree:             o.outputStateTree,
	})
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error building decompress instruction")
	}

	return signAndSend(ctx, r, "decompress_sol", o, instruction, payer, spend.blockhash, nil)
}

// TransferCompressedSol moves lamports from owner's compressed accounts into a
// new compressed account owned by toAddress. The payer covers fees and may be
// the owner.
func TransferCompressedSol(
	ctx context.Context,
	r *rpc.Rpc,
	payer ed25519.PrivateKey,
	lamports uint64,
	owner ed25519.PrivateKey,
	toAddress ed25519.PublicKey,
	opts ...Option,
) (solana.Signature, error) {
	o := applyOptions(opts)
	payerKey := payer.Public().(ed25519.PublicKey)
	ownerKey := owner.Public().(ed25519.PublicKey)

	spend, err := prepareSpend(ctx, r, ownerKey, lamports)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := light.Transfer(&light.TransferArgs{
		Payer:                       payerKey,
		ToAddress:                   toAddress,
		Lamports:                    lamports,
		InputCompressedAccounts:     spend.inputs,
		RecentValidityProof:         spend.proof.CompressedProof,
		RecentInputStateRootIndices: spend.proof.RootIndices,
		OutputStateTree:             o.outputStateTree,
	})
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error building transfer instruction")
	}

	var additionalSigners []ed25519.PrivateKey
	if !bytes.Equal(payerKey, ownerKey) {
		additionalSigners = append(additionalSigners, owner)
	}

	return signAndSend(ctx, r, "transfer_compressed_sol", o, instruction, payer, spend.blockhash, additionalSigners)
}

type spend struct {
	blockhash solana.Blockhash
	inputs    []light.CompressedAccountWithMerkleContext
	proof     *light.ValidityProof
}

// prepareSpend fetches the latest blockhash while selecting owner's accounts
// covering lamports and proving them.
func prepareSpend(ctx context.Context, r *rpc.Rpc, owner ed25519.PublicKey, lamports uint64) (*spend, error) {
	var result spend

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		blockhash, err := r.GetLatestBlockhash()
		if err != nil {
			return errors.Wrap(err, "error getting latest blockhash")
		}
		result.blockhash = blockhash
		return nil
	})

	g.Go(func() error {
		accounts, err := r.GetCompressedAccountsByOwner(owner)
		if err != nil {
			return errors.Wrap(err, "error getting compressed accounts")
		}

		inputs, _, err := light.SelectMinCompressedSolAccountsForTransfer(accounts, lamports)
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		hashes := make([][32]byte, len(inputs))
		for i := range inputs {
			hashes[i] = inputs[i].Hash
		}

		proof, err := r.GetValidityProof(hashes, nil)
		if err != nil {
			return errors.Wrap(err, "error getting validity proof")
		}
		if len(proof.RootIndices) < len(inputs) {
			return errors.Errorf("expected %d root indices, got %d", len(inputs), len(proof.RootIndices))
		}
		proof.RootIndices = proof.RootIndices[:len(inputs)]

		result.inputs = inputs
		result.proof = proof
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

func signAndSend(
	ctx context.Context,
	r *rpc.Rpc,
	action string,
	o *options,
	instruction solana.Instruction,
	payer ed25519.PrivateKey,
	blockhash solana.Blockhash,
	additionalSigners []ed25519.PrivateKey,
) (solana.Signature, error) {
	instructions, err := o.instructions(instruction)
	if err != nil {
		return solana.Signature{}, err
	}

	txn, err := transaction.BuildAndSignTx(instructions, payer, blockhash, additionalSigners, o.lookupTables)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error building transaction")
	}

	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	sig, err := transaction.SendAndConfirmTx(r, txn, r.Commitment())
	if err != nil {
		log.WithFields(logrus.Fields{
			"action":    action,
			"signature": sig.String(),
		}).WithError(err).Warn("transaction failed")
		return sig, err
	}

	log.WithFields(logrus.Fields{
		"action":    action,
		"signature": sig.String(),
	}).Debug("transaction confirmed")

	return sig, nil
}
