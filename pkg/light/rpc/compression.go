package rpc

import (
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/compression-sdk/pkg/cache"
	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/rate"
	"github.com/code-payments/compression-sdk/pkg/retry"
	"github.com/code-payments/compression-sdk/pkg/retry/backoff"
)

const (
	// Largest page the indexer serves for owner queries.
	maxPageSize = 1000

	indexerHealthy = "ok"
)

var (
	ErrCompressedAccountNotFound = errors.New("compressed account not found")
	ErrIndexerUnhealthy          = errors.New("indexer is unhealthy")
)

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// CompressionClient queries the compression indexer for compressed accounts
// and validity proofs.
type CompressionClient interface {
	// GetCompressedAccount looks up an account by address or by hash. At
	// least one must be provided.
	GetCompressedAccount(address, hash *[32]byte) (*light.CompressedAccountWithMerkleContext, error)
	GetCompressedAccountsByOwner(owner ed25519.PublicKey) ([]light.CompressedAccountWithMerkleContext, error)
	GetCompressedAccountsByOwnerPage(owner ed25519.PublicKey, cursor *string, limit uint16) (*AccountsPage, error)
	GetCompressedBalance(address, hash *[32]byte) (uint64, error)
	GetCompressedBalanceByOwner(owner ed25519.PublicKey) (uint64, error)
	GetMultipleCompressedAccounts(hashes [][32]byte) ([]light.CompressedAccountWithMerkleContext, error)
	GetValidityProof(hashes [][32]byte, newAddresses []AddressWithTree) (*light.ValidityProof, error)
	GetIndexerHealth() error
	GetIndexerSlot() (uint64, error)
}

// AddressWithTree is a new address and the address tree it will be
// inserted into.
type AddressWithTree struct {
	Address [32]byte
	Tree    ed25519.PublicKey
}

type compressionClient struct {
	log      *logrus.Entry
	client   jsonrpc.RPCClient
	retrier  retry.Retrier
	limiter  rate.Limiter
	accounts cache.Cache[light.CompressedAccountWithMerkleContext]
	trees    treeInfos
}

// NewCompressionClient returns an indexer client for endpoint. Account
// state trees are resolved to their nullifier queues using the trees set by
// WithStateTreeInfos, which defaults to the public state tree.
func NewCompressionClient(endpoint string, opts ...Option) CompressionClient {
	return newCompressionClient(endpoint, applyOptions(opts))
}

func newCompressionClient(endpoint string, o options) *compressionClient {
	stateTrees := o.stateTrees
	if len(stateTrees) == 0 {
		stateTrees = []light.StateTreeInfo{light.DefaultStateTreeInfo()}
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if o.rateLimit > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(o.rateLimit))
	}

	c := &compressionClient{
		log:    logrus.StandardLogger().WithField("type", "light/rpc/compression"),
		client: jsonrpc.NewClientWithOpts(endpoint, o.rpcOpts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter: limiter,
		trees:   treeInfos(stateTrees),
	}
	if o.accountCacheSize > 0 {
		c.accounts = cache.NewCache[light.CompressedAccountWithMerkleContext](o.accountCacheSize)
	}
	return c
}

func (c *compressionClient) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		if !c.limiter.Allow(method) {
			return errRateLimited
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		if typed, ok := err.(*jsonrpc.HTTPError); ok {
			if typed.Code == 429 {
				c.log.WithField("method", method).Warn("rate limited")
				return errRateLimited
			}
			if typed.Code >= 500 {
				return errServiceError
			}
		}
		return err
	})

	return err
}

func newAccountIdentifier(address, hash *[32]byte) (accountIdentifier, error) {
	var id accountIdentifier
	if address == nil && hash == nil {
		return id, errors.New("address or hash is required")
	}
	if address != nil {
		encoded := base58.Encode(address[:])
		id.Address = &encoded
	}
	if hash != nil {
		encoded := base58.Encode(hash[:])
		id.Hash = &encoded
	}
	return id, nil
}

// cached returns the account with hash if it was fetched before. Accounts are
// immutable once written, so a hash always identifies the same account.
func (c *compressionClient) cached(hash [32]byte) (*light.CompressedAccountWithMerkleContext, bool) {
	if c.accounts == nil {
		return nil, false
	}

	account, ok := c.accounts.Retrieve(base58.Encode(hash[:]))
	if !ok {
		return nil, false
	}
	return &account, true
}

func (c *compressionClient) store(account light.CompressedAccountWithMerkleContext) {
	if c.accounts == nil {
		return
	}
	c.accounts.Insert(base58.Encode(account.Hash[:]), account, 1)
}

func (c *compressionClient) GetCompressedAccount(address, hash *[32]byte) (*light.CompressedAccountWithMerkleContext, error) {
	req, err := newAccountIdentifier(address, hash)
	if err != nil {
		return nil, err
	}

	if address == nil {
		if account, ok := c.cached(*hash); ok {
			return account, nil
		}
	}

	type response struct {
		Value *compressedAccount `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getCompressedAccount", req); err != nil {
		return nil, errors.Wrap(err, "getCompressedAccount() failed to send request")
	}

	if resp.Value == nil {
		return nil, ErrCompressedAccountNotFound
	}

	account, err := c.trees.toAccount(resp.Value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid account in response")
	}

	c.store(account)
	return &account, nil
}

func (c *compressionClient) GetCompressedAccountsByOwnerPage(owner ed25519.PublicKey, cursor *string, limit uint16) (*AccountsPage, error) {
	req := ownerRequest{
		Owner:  base58.Encode(owner),
		Cursor: cursor,
	}
	if limit > 0 {
		req.Limit = &limit
	}

	type response struct {
		Value struct {
			Items  []*compressedAccount `json:"items"`
			Cursor *string              `json:"cursor"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getCompressedAccountsByOwner", req); err != nil {
		return nil, errors.Wrap(err, "getCompressedAccountsByOwner() failed to send request")
	}

	page := &AccountsPage{
		Items:  make([]light.CompressedAccountWithMerkleContext, 0, len(resp.Value.Items)),
		Cursor: resp.Value.Cursor,
	}
	for i, item := range resp.Value.Items {
		if item == nil {
			return nil, errors.Errorf("missing account at index %d", i)
		}

		account, err := c.trees.toAccount(item)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid account at index %d", i)
		}
		page.Items = append(page.Items, account)
	}

	return page, nil
}

// GetCompressedAccountsByOwner returns every compressed account owned by
// owner, following the indexer's cursor until it is exhausted.
func (c *compressionClient) GetCompressedAccountsByOwner(owner ed25519.PublicKey) ([]light.CompressedAccountWithMerkleContext, error) {
	var accounts []light.CompressedAccountWithMerkleContext
	var cursor *string

	for {
		page, err := c.GetCompressedAccountsByOwnerPage(owner, cursor, maxPageSize)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, page.Items...)

		if page.Cursor == nil || len(page.Items) == 0 {
			return accounts, nil
		}
		cursor = page.Cursor
	}
}

func (c *compressionClient) GetCompressedBalance(address, hash *[32]byte) (uint64, error) {
	req, err := newAccountIdentifier(address, hash)
	if err != nil {
		return 0, err
	}

	type response struct {
		Value *uint64 `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getCompressedBalance", req); err != nil {
		return 0, errors.Wrap(err, "getCompressedBalance() failed to send request")
	}

	if resp.Value == nil {
		return 0, ErrCompressedAccountNotFound
	}
	return *resp.Value, nil
}

func (c *compressionClient) GetCompressedBalanceByOwner(owner ed25519.PublicKey) (uint64, error) {
	req := ownerRequest{
		Owner: base58.Encode(owner),
	}

	type response struct {
		Value uint64 `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getCompressedBalanceByOwner", req); err != nil {
		return 0, errors.Wrap(err, "getCompressedBalanceByOwner() failed to send request")
	}
	return resp.Value, nil
}

// GetMultipleCompressedAccounts returns the accounts for hashes in request
// order. Any unknown hash fails the whole request.
func (c *compressionClient) GetMultipleCompressedAccounts(hashes [][32]byte) ([]light.CompressedAccountWithMerkleContext, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	req := struct {
		Hashes []string `json:"hashes"`
	}{
		Hashes: encodeHashes(hashes),
	}

	type response struct {
		Value struct {
			Items []*compressedAccount `json:"items"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getMultipleCompressedAccounts", req); err != nil {
		return nil, errors.Wrap(err, "getMultipleCompressedAccounts() failed to send request")
	}

	if len(resp.Value.Items) != len(hashes) {
		return nil, errors.Errorf("expected %d accounts, got %d", len(hashes), len(resp.Value.Items))
	}

	accounts := make([]light.CompressedAccountWithMerkleContext, len(hashes))
	for i, item := range resp.Value.Items {
		if item == nil {
			return nil, errors.Wrapf(ErrCompressedAccountNotFound, "hash %s", base58.Encode(hashes[i][:]))
		}

		account, err := c.trees.toAccount(item)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid account at index %d", i)
		}

		c.store(account)
		accounts[i] = account
	}

	return accounts, nil
}

// GetValidityProof fetches a proof of inclusion for hashes and of
// non-inclusion for newAddresses. Proof entries for hashes precede those for
// new addresses.
func (c *compressionClient) GetValidityProof(hashes [][32]byte, newAddresses []AddressWithTree) (*light.ValidityProof, error) {
	if len(hashes) == 0 && len(newAddresses) == 0 {
		return nil, errors.New("at least one hash or new address is required")
	}

	req := validityProofRequest{
		Hashes:                encodeHashes(hashes),
		NewAddressesWithTrees: make([]addressWithTree, len(newAddresses)),
	}
	for i, address := range newAddresses {
		req.NewAddressesWithTrees[i] = addressWithTree{
			Address: base58.Encode(address.Address[:]),
			Tree:    base58.Encode(address.Tree),
		}
	}

	type response struct {
		Value *validityProof `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getValidityProof", req); err != nil {
		return nil, errors.Wrap(err, "getValidityProof() failed to send request")
	}

	if resp.Value == nil {
		return nil, errors.New("no validity proof in response")
	}

	proof, err := c.trees.toValidityProof(resp.Value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid validity proof in response")
	}

	c.log.WithFields(logrus.Fields{
		"method":        "getValidityProof",
		"hashes":        len(hashes),
		"new_addresses": len(newAddresses),
	}).Debug("fetched validity proof")

	return proof, nil
}

func (c *compressionClient) GetIndexerHealth() error {
	var status string
	if err := c.call(&status, "getIndexerHealth"); err != nil {
		return errors.Wrap(err, "getIndexerHealth() failed to send request")
	}

	if status != indexerHealthy {
		return errors.Wrapf(ErrIndexerUnhealthy, "status %q", status)
	}
	return nil
}

func (c *compressionClient) GetIndexerSlot() (slot uint64, err error) {
	if err := c.call(&slot, "getIndexerSlot"); err != nil {
		return 0, errors.Wrap(err, "getIndexerSlot() failed to send request")
	}
	return slot, nil
}

func encodeHashes(hashes [][32]byte) []string {
	encoded := make([]string, len(hashes))
	for i := range hashes {
		encoded[i] = base58.Encode(hashes[i][:])
	}
	return encoded
}
