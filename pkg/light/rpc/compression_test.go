package rpc

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/compression-sdk/pkg/light"
	"github.com/code-payments/compression-sdk/pkg/solana/lightsystem"
)

type rpcRequest struct {
	ID     interface{}     `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcHandler func(params json.RawMessage) (result interface{}, rpcErr map[string]interface{})

func newTestServer(t *testing.T, handlers map[string]rpcHandler) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		handler, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected method: %s", req.Method)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		result, rpcErr := handler(req.Params)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return server
}

func withContext(value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 100},
		"value":   value,
	}
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func randomHash(t *testing.T) (hash [32]byte) {
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}

func testAccountJSON(owner ed25519.PublicKey, hash [32]byte, lamports uint64, leafIndex uint32) map[string]interface{} {
	return map[string]interface{}{
		"address":     nil,
		"data":        nil,
		"hash":        base58.Encode(hash[:]),
		"lamports":    lamports,
		"leafIndex":   leafIndex,
		"owner":       base58.Encode(owner),
		"seq":         leafIndex,
		"slotCreated": 90,
		"tree":        base58.Encode(lightsystem.DEFAULT_STATE_TREE),
	}
}

func TestCompressionClient_GetCompressedAccount(t *testing.T) {
	owner := generateKey(t)
	hash := randomHash(t)
	address := randomHash(t)
	dataHash := randomHash(t)

	server := newTestServer(t, map[string]rpcHandler{
		"getCompressedAccount": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			var req accountIdentifier
			require.NoError(t, json.Unmarshal(params, &req))
			require.NotNil(t, req.Hash)
			assert.Nil(t, req.Address)

			if *req.Hash != base58.Encode(hash[:]) {
				return withContext(nil), nil
			}

			account := testAccountJSON(owner, hash, 1_000, 7)
			account["address"] = base58.Encode(address[:])
			account["data"] = map[string]interface{}{
				"discriminator": 2,
				"data":          base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
				"dataHash":      base58.Encode(dataHash[:]),
			}
			return withContext(account), nil
		},
	})

	client := NewCompressionClient(server.URL)

	account, err := client.GetCompressedAccount(nil, &hash)
	require.NoError(t, err)

	assert.EqualValues(t, owner, account.OwnerKey())
	assert.EqualValues(t, 1_000, account.Lamports)
	assert.EqualValues(t, 7, account.LeafIndex)
	assert.Equal(t, hash, account.Hash)
	require.NotNil(t, account.Address)
	assert.Equal(t, address, *account.Address)
	require.NotNil(t, account.Data)
	assert.Equal(t, [8]byte{2}, account.Data.Discriminator)
	assert.Equal(t, []byte{1, 2, 3}, account.Data.Data)
	assert.Equal(t, dataHash, account.Data.DataHash)
	assert.EqualValues(t, lightsystem.DEFAULT_STATE_TREE, account.MerkleTree)
	assert.EqualValues(t, lightsystem.DEFAULT_NULLIFIER_QUEUE, account.NullifierQueue)

	other := randomHash(t)
	_, err = client.GetCompressedAccount(nil, &other)
	assert.Equal(t, ErrCompressedAccountNotFound, err)

	_, err = client.GetCompressedAccount(nil, nil)
	assert.Error(t, err)
}

func TestCompressionClient_UnknownStateTree(t *testing.T) {
	owner := generateKey(t)
	hash := randomHash(t)

	server := newTestServer(t, map[string]rpcHandler{
		"getCompressedAccount": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			account := testAccountJSON(owner, hash, 1, 0)
			account["tree"] = base58.Encode(generateKey(t))
			return withContext(account), nil
		},
	})

	client := NewCompressionClient(server.URL)
	_, err := client.GetCompressedAccount(nil, &hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown state tree")

	// Custom trees resolve to their own queue.
	tree, queue := generateKey(t), generateKey(t)
	server = newTestServer(t, map[string]rpcHandler{
		"getCompressedAccount": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			account := testAccountJSON(owner, hash, 1, 0)
			account["tree"] = base58.Encode(tree)
			return withContext(account), nil
		},
	})

	client = NewCompressionClient(server.URL, WithStateTreeInfos(light.StateTreeInfo{Tree: tree, Queue: queue}))
	account, err := client.GetCompressedAccount(nil, &hash)
	require.NoError(t, err)
	assert.EqualValues(t, queue, account.NullifierQueue)
}

func TestCompressionClient_GetCompressedAccountsByOwner(t *testing.T) {
	owner := generateKey(t)

	var hashes [][32]byte
	for i := 0; i < 3; i++ {
		hashes = append(hashes, randomHash(t))
	}

	var cursors []*string
	server := newTestServer(t, map[string]rpcHandler{
		"getCompressedAccountsByOwner": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			var req ownerRequest
			require.NoError(t, json.Unmarshal(params, &req))
			assert.Equal(t, base58.Encode(owner), req.Owner)
			require.NotNil(t, req.Limit)
			assert.EqualValues(t, maxPageSize, *req.Limit)

			cursors = append(cursors, req.Cursor)

			if req.Cursor == nil {
				return withContext(map[string]interface{}{
					"items": []interface{}{
						testAccountJSON(owner, hashes[0], 10, 0),
						testAccountJSON(owner, hashes[1], 20, 1),
					},
					"cursor": "next",
				}), nil
			}

			return withContext(map[string]interface{}{
				"items": []interface{}{
					testAccountJSON(owner, hashes[2], 30, 2),
				},
				"cursor": nil,
			}), nil
		},
	})

	client := NewCompressionClient(server.URL)

	accounts, err := client.GetCompressedAccountsByOwner(owner)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	for i, account := range accounts {
		assert.Equal(t, hashes[i], account.Hash)
		assert.EqualValues(t, 10*(i+1), account.Lamports)
	}
	assert.EqualValues(t, 60, light.SumLamports(accounts))

	require.Len(t, cursors, 2)
	assert.Nil(t, cursors[0])
	require.NotNil(t, cursors[1])
	assert.Equal(t, "next", *cursors[1])
}

func TestCompressionClient_GetBalances(t *testing.T) {
	owner := generateKey(t)
	hash := randomHash(t)

	server := newTestServer(t, map[string]rpcHandler{
		"getCompressedBalance": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			var req accountIdentifier
			require.NoError(t, json.Unmarshal(params, &req))
			require.NotNil(t, req.Hash)
			if *req.Hash == base58.Encode(hash[:]) {
				return withContext(1234), nil
			}
			return withContext(nil), nil
		},
		"getCompressedBalanceByOwner": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			var req ownerRequest
			require.NoError(t, json.Unmarshal(params, &req))
			assert.Equal(t, base58.Encode(owner), req.Owner)
			return withContext(5678), nil
		},
	})

	client := NewCompressionClient(server.URL)

	balance, err := client.GetCompressedBalance(nil, &hash)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, balance)

	other := randomHash(t)
	_, err = client.GetCompressedBalance(nil, &other)
	assert.Equal(t, ErrCompressedAccountNotFound, err)

	balance, err = client.GetCompressedBalanceByOwner(owner)
	require.NoError(t, err)
	assert.EqualValues(t, 5678, balance)
}

func TestCompressionClient_GetMultipleCompressedAccounts(t *testing.T) {
	owner := generateKey(t)
	known := randomHash(t)
	unknown := randomHash(t)

	server := newTestServer(t, map[string]rpcHandler{
		"getMultipleCompressedAccounts": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			var req struct {
				Hashes []string `json:"hashes"`
			}
			require.NoError(t, json.Unmarshal(params, &req))

			var items []interface{}
			for _, h := range req.Hashes {
				if h == base58.Encode(known[:]) {
					items = append(items, testAccountJSON(owner, known, 42, 3))
				} else {
					items = append(items, nil)
				}
			}
			return withContext(map[string]interface{}{"items": items}), nil
		},
	})

	client := NewCompressionClient(server.URL)

	accounts, err := client.GetMultipleCompressedAccounts([][32]byte{known})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, known, accounts[0].Hash)

	_, err = client.GetMultipleCompressedAccounts([][32]byte{known, unknown})
	assert.True(t, errors.Is(err, ErrCompressedAccountNotFound))

	accounts, err = client.GetMultipleCompressedAccounts(nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCompressionClient_GetValidityProof(t *testing.T) {
	hash := randomHash(t)
	root := randomHash(t)
	address := randomHash(t)

	proofBytes := func(n int, v int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	server := newTestServer(t, map[string]rpcHandler{
		"getValidityProof": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			var req validityProofRequest
			require.NoError(t, json.Unmarshal(params, &req))
			assert.Equal(t, []string{base58.Encode(hash[:])}, req.Hashes)
			require.Len(t, req.NewAddressesWithTrees, 1)
			assert.Equal(t, base58.Encode(address[:]), req.NewAddressesWithTrees[0].Address)
			assert.Equal(t, base58.Encode(lightsystem.DEFAULT_ADDRESS_TREE), req.NewAddressesWithTrees[0].Tree)

			return withContext(map[string]interface{}{
				"compressedProof": map[string]interface{}{
					"a": proofBytes(32, 1),
					"b": proofBytes(64, 2),
					"c": proofBytes(32, 3),
				},
				"roots":       []string{base58.Encode(root[:]), base58.Encode(root[:])},
				"rootIndices": []int{11, 12},
				"leafIndices": []int{5, 0},
				"leaves":      []string{base58.Encode(hash[:]), base58.Encode(address[:])},
				"merkleTrees": []string{
					base58.Encode(lightsystem.DEFAULT_STATE_TREE),
					base58.Encode(lightsystem.DEFAULT_ADDRESS_TREE),
				},
			}), nil
		},
	})

	client := NewCompressionClient(server.URL)

	proof, err := client.GetValidityProof([][32]byte{hash}, []AddressWithTree{
		{Address: address, Tree: lightsystem.DEFAULT_ADDRESS_TREE},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, proof.CompressedProof.A[0])
	assert.EqualValues(t, 2, proof.CompressedProof.B[63])
	assert.EqualValues(t, 3, proof.CompressedProof.C[31])
	assert.Equal(t, []uint16{11, 12}, proof.RootIndices)
	assert.Equal(t, []uint32{5, 0}, proof.LeafIndices)
	assert.Equal(t, [][32]byte{root, root}, proof.Roots)
	assert.Equal(t, [][32]byte{hash, address}, proof.Leaves)
	require.Len(t, proof.NullifierQueues, 2)
	assert.EqualValues(t, lightsystem.DEFAULT_NULLIFIER_QUEUE, proof.NullifierQueues[0])
	assert.Nil(t, proof.NullifierQueues[1])

	_, err = client.GetValidityProof(nil, nil)
	assert.Error(t, err)
}

func TestCompressionClient_InvalidProof(t *testing.T) {
	hash := randomHash(t)

	server := newTestServer(t, map[string]rpcHandler{
		"getValidityProof": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			return withContext(map[string]interface{}{
				"compressedProof": map[string]interface{}{
					"a": []int{1},
					"b": []int{},
					"c": []int{},
				},
			}), nil
		},
	})

	client := NewCompressionClient(server.URL)
	_, err := client.GetValidityProof([][32]byte{hash}, nil)
	assert.Error(t, err)
}

func TestCompressionClient_Indexer(t *testing.T) {
	status := "ok"

	server := newTestServer(t, map[string]rpcHandler{
		"getIndexerHealth": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			return status, nil
		},
		"getIndexerSlot": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			return 321, nil
		},
	})

	client := NewCompressionClient(server.URL)

	require.NoError(t, client.GetIndexerHealth())

	slot, err := client.GetIndexerSlot()
	require.NoError(t, err)
	assert.EqualValues(t, 321, slot)

	status = "behind"
	assert.True(t, errors.Is(client.GetIndexerHealth(), ErrIndexerUnhealthy))
}

func TestCompressionClient_RPCError(t *testing.T) {
	hash := randomHash(t)

	server := newTestServer(t, map[string]rpcHandler{
		"getCompressedAccount": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			return nil, map[string]interface{}{
				"code":    -32602,
				"message": "invalid params",
			}
		},
	})

	client := NewCompressionClient(server.URL)
	_, err := client.GetCompressedAccount(&hash, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getCompressedAccount() failed to send request")
}

func TestCompressionClient_AccountCache(t *testing.T) {
	owner := generateKey(t)
	hashes := [][32]byte{randomHash(t), randomHash(t)}

	var calls int32
	server := newTestServer(t, map[string]rpcHandler{
		"getCompressedAccount": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			atomic.AddInt32(&calls, 1)
			return withContext(testAccountJSON(owner, hashes[0], 1, 0)), nil
		},
		"getMultipleCompressedAccounts": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			atomic.AddInt32(&calls, 1)
			return withContext(map[string]interface{}{
				"items": []interface{}{testAccountJSON(owner, hashes[1], 2, 1)},
			}), nil
		},
	})

	client := NewCompressionClient(server.URL, WithAccountCache(10))

	for i := 0; i < 3; i++ {
		account, err := client.GetCompressedAccount(nil, &hashes[0])
		require.NoError(t, err)
		assert.Equal(t, hashes[0], account.Hash)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err := client.GetMultipleCompressedAccounts([][32]byte{hashes[1]})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	account, err := client.GetCompressedAccount(nil, &hashes[1])
	require.NoError(t, err)
	assert.EqualValues(t, 2, account.Lamports)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	// Lookups by address always reach the indexer.
	_, err = client.GetCompressedAccount(&hashes[0], nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestCompressionClient_RateLimit(t *testing.T) {
	var calls int32
	server := newTestServer(t, map[string]rpcHandler{
		"getIndexerSlot": func(params json.RawMessage) (interface{}, map[string]interface{}) {
			atomic.AddInt32(&calls, 1)
			return 1, nil
		},
	})

	client := NewCompressionClient(server.URL, WithRateLimit(1))

	// The second request waits out the limit through the retrier's backoff.
	for i := 0; i < 2; i++ {
		_, err := client.GetIndexerSlot()
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
