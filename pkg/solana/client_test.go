package solana

import (
	"crypto/ed25519"
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
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	testCases := []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: "",
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: "random",
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusProcessed,
			},
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &one,
				ConfirmationStatus: "",
			},
			confirmed: true,
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusConfirmed,
			},
			confirmed: true,
		},
		{
			s: SignatureStatus{
				Slot:               10,
				ErrorResult:        nil,
				Confirmations:      &zero,
				ConfirmationStatus: confirmationStatusFinalized,
			},
			confirmed: true,
			finalized: true,
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())
	}
}

func TestCommitmentFromString(t *testing.T) {
	for _, tc := range []struct {
		value    string
		expected Commitment
	}{
		{"processed", CommitmentProcessed},
		{"confirmed", CommitmentConfirmed},
		{"finalized", CommitmentFinalized},
	} {
		actual, err := CommitmentFromString(tc.value)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, actual)
	}

	_, err := CommitmentFromString("recent")
	assert.True(t, errors.Is(err, ErrUnknownCommitment))
}

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int               `json:"id"`
}

// newTestServer serves canned JSON-RPC results keyed by method name. A handler
// returns either a result or an error object.
func newTestServer(t *testing.T, handlers map[string]func(params []json.RawMessage) (interface{}, map[string]interface{})) (*httptest.Server, *int32) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

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

	return server, &calls
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	var expected Blockhash
	expected[0] = 1
	expected[31] = 2

	server, calls := newTestServer(t, map[string]func([]json.RawMessage) (interface{}, map[string]interface{}){
		"getLatestBlockhash": func(params []json.RawMessage) (interface{}, map[string]interface{}) {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 10},
				"value": map[string]interface{}{
					"blockhash":            expected.String(),
					"lastValidBlockHeight": 100,
				},
			}, nil
		},
	})

	c := New(server.URL)

	actual, err := c.GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	// Served from the cache
	actual, err = c.GetLatestBlockhash()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	existing, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	missing, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	server, _ := newTestServer(t, map[string]func([]json.RawMessage) (interface{}, map[string]interface{}){
		"getAccountInfo": func(params []json.RawMessage) (interface{}, map[string]interface{}) {
			var account string
			require.NoError(t, json.Unmarshal(params[0], &account))

			if account == base58.Encode(missing) {
				return map[string]interface{}{"value": nil}, nil
			}

			return map[string]interface{}{
				"value": map[string]interface{}{
					"lamports":   1234,
					"owner":      base58.Encode(owner),
					"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
					"executable": false,
				},
			}, nil
		},
	})

	c := New(server.URL)

	info, err := c.GetAccountInfo(existing, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, info.Lamports)
	assert.EqualValues(t, owner, info.Owner)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)

	_, err = c.GetAccountInfo(missing, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetBalance(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	server, _ := newTestServer(t, map[string]func([]json.RawMessage) (interface{}, map[string]interface{}){
		"getBalance": func(params []json.RawMessage) (interface{}, map[string]interface{}) {
			return map[string]interface{}{"value": 5000}, nil
		},
	})

	balance, err := New(server.URL).GetBalance(account)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, balance)
}

func TestClient_SubmitTransaction_PreflightFailure(t *testing.T) {
	payer, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	server, _ := newTestServer(t, map[string]func([]json.RawMessage) (interface{}, map[string]interface{}){
		"sendTransaction": func(params []json.RawMessage) (interface{}, map[string]interface{}) {
			return nil, map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1771",
				"data": map[string]interface{}{
					"err": map[string]interface{}{
						"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6001}},
					},
					"logs": []string{},
				},
			}
		},
	})

	txn := NewTransaction(payer, NewInstruction(program, []byte{1}, NewAccountMeta(payer, true)))

	_, err = New(server.URL).SubmitTransaction(txn, CommitmentConfirmed)
	require.Error(t, err)

	txErr, ok := err.(*TransactionError)
	require.True(t, ok)
	assert.Equal(t, TransactionErrorInstructionError, txErr.ErrorKey())
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 0, txErr.InstructionError().Index)
	assert.EqualValues(t, 6001, *txErr.InstructionError().CustomError())
}

func TestClient_GetSignatureStatuses(t *testing.T) {
	var found, failed, missing Signature
	found[0] = 1
	failed[0] = 2
	missing[0] = 3

	server, _ := newTestServer(t, map[string]func([]json.RawMessage) (interface{}, map[string]interface{}){
		"getSignatureStatuses": func(params []json.RawMessage) (interface{}, map[string]interface{}) {
			var sigs []string
			require.NoError(t, json.Unmarshal(params[0], &sigs))
			require.Len(t, sigs, 3)
			assert.Equal(t, found.String(), sigs[0])

			return map[string]interface{}{
				"value": []interface{}{
					map[string]interface{}{
						"slot":               10,
						"confirmations":      nil,
						"confirmationStatus": "finalized",
						"err":                nil,
					},
					map[string]interface{}{
						"slot":               11,
						"confirmations":      1,
						"confirmationStatus": "confirmed",
						"err":                map[string]interface{}{"InstructionError": []interface{}{1, "InvalidArgument"}},
					},
					nil,
				},
			}, nil
		},
	})

	statuses, err := New(server.URL).GetSignatureStatuses([]Signature{found, failed, missing})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	require.NotNil(t, statuses[0])
	assert.True(t, statuses[0].Finalized())
	assert.Nil(t, statuses[0].ErrorResult)

	require.NotNil(t, statuses[1])
	assert.True(t, statuses[1].Confirmed())
	require.NotNil(t, statuses[1].ErrorResult)
	assert.Equal(t, 1, statuses[1].ErrorResult.InstructionError().Index)
	assert.Equal(t, InstructionErrorInvalidArgument, statuses[1].ErrorResult.InstructionError().ErrorKey())

	assert.Nil(t, statuses[2])
}
