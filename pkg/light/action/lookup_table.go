package action

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/light/rpc"
	"github.com/code-payments/compression-sdk/pkg/light/transaction"
	"github.com/code-payments/compression-sdk/pkg/solana"
	address_lookup_table "github.com/code-payments/compression-sdk/pkg/solana/addresslookuptable"
)

// CreateLookupTable creates an address lookup table owned by authority and
// extends it with addresses. When addresses is empty the protocol accounts
// from light.DefaultLookupTableAddresses are used.
func CreateLookupTable(
	ctx context.Context,
	r *rpc.Rpc,
	payer ed25519.PrivateKey,
	authority ed25519.PrivateKey,
	addresses ...ed25519.PublicKey,
) (ed25519.PublicKey, []solana.Signature, error) {
	if len(addresses) == 0 {
		var err error
		addresses, err = light.DefaultLookupTableAddresses()
		if err != nil {
			return nil, nil, err
		}
	}

	slot, err := r.GetSlot(solana.CommitmentFinalized)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error getting slot")
	}

	authorityKey := authority.Public().(ed25519.PublicKey)
	alt, bump, err := address_lookup_table.GetAddress(authorityKey, slot)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error deriving lookup table address")
	}

	sig, err := sendLookupTableTx(
		ctx,
		r,
		payer,
		authority,
		address_lookup_table.Create(alt, authorityKey, payer.Public().(ed25519.PublicKey), slot, bump),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error creating lookup table")
	}

	sigs := []solana.Signature{sig}

	extendSigs, err := ExtendLookupTable(ctx, r, payer, authority, alt, addresses...)
	sigs = append(sigs, extendSigs...)
	if err != nil {
		return alt, sigs, err
	}

	return alt, sigs, nil
}

// ExtendLookupTable appends addresses to alt, splitting them across as many
// transactions as needed.
func ExtendLookupTable(
	ctx context.Context,
	r *rpc.Rpc,
	payer ed25519.PrivateKey,
	authority ed25519.PrivateKey,
	alt ed25519.PublicKey,
	addresses ...ed25519.PublicKey,
) ([]solana.Signature, error) {
	authorityKey := authority.Public().(ed25519.PublicKey)
	payerKey := payer.Public().(ed25519.PublicKey)

	var sigs []solana.Signature
	for start := 0; start < len(addresses); start += address_lookup_table.MaxExtendAddresses {
		end := start + address_lookup_table.MaxExtendAddresses
		if end > len(addresses) {
			end = len(addresses)
		}

		sig, err := sendLookupTableTx(
			ctx,
			r,
			payer,
			authority,
			address_lookup_table.Extend(alt, authorityKey, payerKey, addresses[start:end]...),
		)
		if err != nil {
			return sigs, errors.Wrapf(err, "error extending lookup table with addresses [%d, %d)", start, end)
		}
		sigs = append(sigs, sig)
	}

	return sigs, nil
}

func sendLookupTableTx(
	ctx context.Context,
	r *rpc.Rpc,
	payer ed25519.PrivateKey,
	authority ed25519.PrivateKey,
	instruction solana.Instruction,
) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	blockhash, err := r.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "error getting latest blockhash")
	}

	var additionalSigners []ed25519.PrivateKey
	if !authority.Public().(ed25519.PublicKey).Equal(payer.Public()) {
		additionalSigners = append(additionalSigners, authority)
	}

	txn, err := transaction.BuildAndSignTx([]solana.Instruction{instruction}, payer, blockhash, additionalSigners, nil)
	if err != nil {
		return solana.Signature{}, err
	}

	return transaction.SendAndConfirmTx(r, txn, r.Commitment())
}
