package transaction

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/compression-sdk/pkg/solana"
	address_lookup_table "github.com/code-payments/compression-sdk/pkg/solana/addresslookuptable"
	compute_budget "github.com/code-payments/compression-sdk/pkg/solana/computebudget"
	"github.com/code-payments/compression-sdk/pkg/solana/system"
	"github.com/code-payments/compression-sdk/pkg/testutil"
)

func TestWithComputeUnitLimit(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	transfer := system.Transfer(keys[0], keys[1], 10)

	instructions := WithComputeUnitLimit(DefaultComputeUnitLimit, transfer)
	require.Len(t, instructions, 2)
	assert.Equal(t, compute_budget.SetComputeUnitLimit(DefaultComputeUnitLimit), instructions[0])
	assert.Equal(t, transfer, instructions[1])

	limit, err := compute_budget.ParseSetComputeUnitLimitIxnData(instructions[0].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, limit)

	instructions = WithComputeUnitPrice(5, instructions...)
	require.Len(t, instructions, 3)
	price, err := compute_budget.ParseSetComputeUnitPriceIxnData(instructions[0].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 5, price)
}

func TestBuildTx(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	blockhash := solana.Blockhash{9}

	txn := BuildTx([]solana.Instruction{system.Transfer(keys[0], keys[1], 10)}, keys[0], blockhash, nil)
	assert.Equal(t, solana.MessageVersionLegacy, txn.Version())
	assert.Equal(t, blockhash, txn.Message.RecentBlockhash)
	assert.EqualValues(t, keys[0], txn.Message.Accounts[0])
	assert.Len(t, txn.Signatures, 1)

	table := solana.AddressLookupTable{
		PublicKey: testutil.GenerateSolanaKeys(t, 1)[0],
		Addresses: []ed25519.PublicKey{keys[1]},
	}
	txn = BuildTx([]solana.Instruction{system.Transfer(keys[0], keys[1], 10)}, keys[0], blockhash, []solana.AddressLookupTable{table})
	assert.Equal(t, solana.MessageVersion0, txn.Version())
	require.Len(t, txn.Message.AddressTableLookups, 1)
	assert.Equal(t, []byte{0}, txn.Message.AddressTableLookups[0].WritableIndexes)
}

func TestBuildAndSignTx(t *testing.T) {
	payer := testutil.GenerateSolanaKeypair(t)
	owner := testutil.GenerateSolanaKeypair(t)
	recipient := testutil.GenerateSolanaKeys(t, 1)[0]

	payerKey := payer.Public().(ed25519.PublicKey)
	ownerKey := owner.Public().(ed25519.PublicKey)

	instructions := []solana.Instruction{
		system.Transfer(payerKey, recipient, 1),
		system.Transfer(ownerKey, recipient, 1),
	}

	txn, err := BuildAndSignTx(instructions, payer, solana.Blockhash{1}, []ed25519.PrivateKey{owner}, nil)
	require.NoError(t, err)
	require.Len(t, txn.Signatures, 2)
	assert.NoError(t, txn.VerifySignatures())

	var decoded solana.Transaction
	require.NoError(t, decoded.Unmarshal(txn.Marshal()))
	assert.Equal(t, txn.Signatures, decoded.Signatures)
	assert.NoError(t, decoded.VerifySignatures())

	_, err = BuildAndSignTx(instructions, payer, solana.Blockhash{1}, []ed25519.PrivateKey{owner, payer}, nil)
	assert.Equal(t, ErrDuplicateSigner, err)

	// Missing the owner's signature.
	_, err = BuildAndSignTx(instructions, payer, solana.Blockhash{1}, nil, nil)
	assert.True(t, errors.Is(err, solana.ErrMissingSignature))

	// Signing with an account the transaction doesn't reference.
	_, err = BuildAndSignTx(instructions, payer, solana.Blockhash{1}, []ed25519.PrivateKey{owner, testutil.GenerateSolanaKeypair(t)}, nil)
	assert.Error(t, err)
}

func TestSendAndConfirmTx(t *testing.T) {
	client := testutil.NewSolanaClient()

	payer := testutil.GenerateSolanaKeypair(t)
	recipient := testutil.GenerateSolanaKeys(t, 1)[0]

	txn, err := BuildAndSignTx(
		[]solana.Instruction{system.Transfer(payer.Public().(ed25519.PublicKey), recipient, 1)},
		payer,
		solana.Blockhash{1},
		nil,
		nil,
	)
	require.NoError(t, err)

	sig, err := SendAndConfirmTx(client, txn, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], sig)
	assert.Len(t, client.SubmittedTransactions(), 1)

	require.NoError(t, ConfirmTx(client, sig, solana.CommitmentConfirmed))

	client.StatusErr = solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	_, err = SendAndConfirmTx(client, txn, solana.CommitmentConfirmed)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, txErr.ErrorKey())

	client.StatusErr = nil
	client.SubmitErr = errors.New("rejected")
	_, err = SendAndConfirmTx(client, txn, solana.CommitmentConfirmed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit transaction")
}

func TestGetAddressLookupTables(t *testing.T) {
	client := testutil.NewSolanaClient()

	keys := testutil.GenerateSolanaKeys(t, 4)
	active, deactivated, notTable, addresses := keys[0], keys[1], keys[2], keys[3:]

	data := make([]byte, 56)
	data[0] = 1
	for i := 4; i < 12; i++ {
		data[i] = 0xff
	}
	for _, address := range addresses {
		data = append(data, address...)
	}

	client.SetAccount(active, solana.AccountInfo{Owner: address_lookup_table.ProgramKey, Data: data})

	deactivatedData := append([]byte{}, data...)
	deactivatedData[4] = 0
	deactivatedData[11] = 0
	client.SetAccount(deactivated, solana.AccountInfo{Owner: address_lookup_table.ProgramKey, Data: deactivatedData})

	client.SetAccount(notTable, solana.AccountInfo{Owner: system.ProgramKey[:], Data: data})

	tables, err := GetAddressLookupTables(client, active)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, active, tables[0].PublicKey)
	assert.Equal(t, addresses, tables[0].Addresses)

	_, err = GetAddressLookupTables(client, active, deactivated)
	assert.True(t, errors.Is(err, ErrLookupTableDeactivated))

	_, err = GetAddressLookupTables(client, notTable)
	assert.Error(t, err)

	_, err = GetAddressLookupTables(client, testutil.GenerateSolanaKeys(t, 1)[0])
	assert.True(t, errors.Is(err, solana.ErrNoAccountInfo))

}
