package testutil

import (
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/code-payments/compression-sdk/pkg/solana"
)

// SolanaClient is an in-memory solana.Client. Submitted transactions are
// recorded and confirmed immediately unless StatusErr is set.
type SolanaClient struct {
	sync.Mutex

	Blockhash    solana.Blockhash
	Slot         uint64
	Accounts     map[string]solana.AccountInfo
	Submitted    []solana.Transaction
	SubmitErr    error
	StatusErr    *solana.TransactionError
	BlockhashErr error
}

var _ solana.Client = (*SolanaClient)(nil)

func NewSolanaClient() *SolanaClient {
	return &SolanaClient{
		Blockhash: solana.Blockhash{1, 2, 3},
		Slot:      1000,
		Accounts:  make(map[string]solana.AccountInfo),
	}
}

// SetAccount stores info for account.
func (c *SolanaClient) SetAccount(account ed25519.PublicKey, info solana.AccountInfo) {
	c.Lock()
	defer c.Unlock()

	c.Accounts[base58.Encode(account)] = info
}

// SubmittedTransactions returns a copy of every transaction submitted so far.
func (c *SolanaClient) SubmittedTransactions() []solana.Transaction {
	c.Lock()
	defer c.Unlock()

	return append([]solana.Transaction(nil), c.Submitted...)
}

func (c *SolanaClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.Lock()
	defer c.Unlock()

	info, ok := c.Accounts[base58.Encode(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *SolanaClient) GetBalance(account ed25519.PublicKey) (uint64, error) {
	c.Lock()
	defer c.Unlock()

	info, ok := c.Accounts[base58.Encode(account)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return info.Lamports, nil
}

func (c *SolanaClient) GetLatestBlockhash() (solana.Blockhash, error) {
	c.Lock()
	defer c.Unlock()

	if c.BlockhashErr != nil {
		return solana.Blockhash{}, c.BlockhashErr
	}
	return c.Blockhash, nil
}

func (c *SolanaClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	// Matches the default rent schedule.
	return (size + 128) * 6960, nil
}

func (c *SolanaClient) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	c.Lock()
	defer c.Unlock()

	if !c.isSubmitted(sig) {
		return nil, solana.ErrSignatureNotFound
	}
	if c.StatusErr != nil {
		return &solana.SignatureStatus{Slot: c.Slot, ErrorResult: c.StatusErr}, c.StatusErr
	}
	return &solana.SignatureStatus{Slot: c.Slot, ConfirmationStatus: "finalized"}, nil
}

func (c *SolanaClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.Lock()
	defer c.Unlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if !c.isSubmitted(sig) {
			continue
		}
		statuses[i] = &solana.SignatureStatus{
			Slot:               c.Slot,
			ErrorResult:        c.StatusErr,
			ConfirmationStatus: "finalized",
		}
	}
	return statuses, nil
}

func (c *SolanaClient) GetSlot(_ solana.Commitment) (uint64, error) {
	c.Lock()
	defer c.Unlock()

	return c.Slot, nil
}

func (c *SolanaClient) RequestAirdrop(account ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	c.Lock()
	defer c.Unlock()

	info := c.Accounts[base58.Encode(account)]
	info.Lamports += lamports
	c.Accounts[base58.Encode(account)] = info

	var sig solana.Signature
	copy(sig[:], account)
	return sig, nil
}

func (c *SolanaClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.Lock()
	defer c.Unlock()

	sig := txn.Signatures[0]
	if c.SubmitErr != nil {
		return sig, c.SubmitErr
	}

	c.Submitted = append(c.Submitted, txn)
	return sig, nil
}

func (c *SolanaClient) isSubmitted(sig solana.Signature) bool {
	for _, txn := range c.Submitted {
		if txn.Signatures[0] == sig {
			return true
		}
	}
	return false
}
