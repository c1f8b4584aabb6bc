package testutil

import (
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/light/rpc"
	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
)

// CompressionClient is an in-memory rpc.CompressionClient.
type CompressionClient struct {
	sync.Mutex

	Accounts []light.CompressedAccountWithMerkleContext
	Slot     uint64
	ProofErr error

	ProofRequests [][][32]byte
}

var _ rpc.CompressionClient = (*CompressionClient)(nil)

func NewCompressionClient() *CompressionClient {
	return &CompressionClient{Slot: 1000}
}

// AddAccount stores an account in the default state tree and returns it.
func (c *CompressionClient) AddAccount(owner ed25519.PublicKey, lamports uint64, hash [32]byte) light.CompressedAccountWithMerkleContext {
	c.Lock()
	defer c.Unlock()

	var account light.CompressedAccountWithMerkleContext
	copy(account.Owner[:], owner)
	account.Lamports = lamports
	account.Hash = hash
	account.MerkleTree = lightsystem.DEFAULT_STATE_TREE
	account.NullifierQueue = lightsystem.DEFAULT_NULLIFIER_QUEUE
	account.LeafIndex = uint32(len(c.Accounts))

	c.Accounts = append(c.Accounts, account)
	return account
}

func (c *CompressionClient) find(match func(light.CompressedAccountWithMerkleContext) bool) []light.CompressedAccountWithMerkleContext {
	var found []light.CompressedAccountWithMerkleContext
	for _, account := range c.Accounts {
		if match(account) {
			found = append(found, account)
		}
	}
	return found
}

func (c *CompressionClient) GetCompressedAccount(address, hash *[32]byte) (*light.CompressedAccountWithMerkleContext, error) {
	c.Lock()
	defer c.Unlock()

	found := c.find(func(account light.CompressedAccountWithMerkleContext) bool {
		if hash != nil {
			return account.Hash == *hash
		}
		return address != nil && account.Address != nil && *account.Address == *address
	})
	if len(found) == 0 {
		return nil, rpc.ErrCompressedAccountNotFound
	}
	return &found[0], nil
}

func (c *CompressionClient) GetCompressedAccountsByOwner(owner ed25519.PublicKey) ([]light.CompressedAccountWithMerkleContext, error) {
	c.Lock()
	defer c.Unlock()

	return c.find(func(account light.CompressedAccountWithMerkleContext) bool {
		return account.OwnerKey().Equal(owner)
	}), nil
}

func (c *CompressionClient) GetCompressedAccountsByOwnerPage(owner ed25519.PublicKey, _ *string, _ uint16) (*rpc.AccountsPage, error) {
	accounts, err := c.GetCompressedAccountsByOwner(owner)
	if err != nil {
		return nil, err
	}
	return &rpc.AccountsPage{Items: accounts}, nil
}

func (c *CompressionClient) GetCompressedBalance(address, hash *[32]byte) (uint64, error) {
	account, err := c.GetCompressedAccount(address, hash)
	if err != nil {
		return 0, err
	}
	return account.Lamports, nil
}

func (c *CompressionClient) GetCompressedBalanceByOwner(owner ed25519.PublicKey) (uint64, error) {
	accounts, err := c.GetCompressedAccountsByOwner(owner)
	if err != nil {
		return 0, err
	}
	return light.SumLamports(accounts), nil
}

func (c *CompressionClient) GetMultipleCompressedAccounts(hashes [][32]byte) ([]light.CompressedAccountWithMerkleContext, error) {
	accounts := make([]light.CompressedAccountWithMerkleContext, len(hashes))
	for i := range hashes {
		account, err := c.GetCompressedAccount(nil, &hashes[i])
		if err != nil {
			return nil, errors.Wrapf(err, "hash %s", base58.Encode(hashes[i][:]))
		}
		accounts[i] = *account
	}
	return accounts, nil
}

// GetValidityProof returns a proof whose root index for each hash is its
// position plus one.
func (c *CompressionClient) GetValidityProof(hashes [][32]byte, newAddresses []rpc.AddressWithTree) (*light.ValidityProof, error) {
	c.Lock()
	defer c.Unlock()

	c.ProofRequests = append(c.ProofRequests, hashes)

	if c.ProofErr != nil {
		return nil, c.ProofErr
	}

	proof := &light.ValidityProof{}
	proof.CompressedProof.A[0] = 1
	proof.CompressedProof.B[0] = 2
	proof.CompressedProof.C[0] = 3

	for i, hash := range hashes {
		proof.Roots = append(proof.Roots, hash)
		proof.RootIndices = append(proof.RootIndices, uint16(i+1))
		proof.LeafIndices = append(proof.LeafIndices, uint32(i))
		proof.Leaves = append(proof.Leaves, hash)
		proof.MerkleTrees = append(proof.MerkleTrees, lightsystem.DEFAULT_STATE_TREE)
		proof.NullifierQueues = append(proof.NullifierQueues, lightsystem.DEFAULT_NULLIFIER_QUEUE)
	}
	for _, address := range newAddresses {
		proof.Roots = append(proof.Roots, address.Address)
		proof.RootIndices = append(proof.RootIndices, 0)
		proof.Leaves = append(proof.Leaves, address.Address)
		proof.MerkleTrees = append(proof.MerkleTrees, address.Tree)
		proof.NullifierQueues = append(proof.NullifierQueues, nil)
	}
	return proof, nil
}

func (c *CompressionClient) GetIndexerHealth() error {
	return nil
}

func (c *CompressionClient) GetIndexerSlot() (uint64, error) {
	c.Lock()
	defer c.Unlock()

	return c.Slot, nil
}
