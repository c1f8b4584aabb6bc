package memo

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/compression-sdk/pkg/solana"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", base58.Encode(ProgramKey))
}

func TestInstruction(t *testing.T) {
	i, err := Instruction("hello, world!")
	require.NoError(t, err)
	assert.Equal(t, ProgramKey, i.Program)
	assert.Empty(t, i.Accounts)
	assert.Equal(t, "hello, world!", string(i.Data))

	signer, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	i, err = Instruction("signed", signer)
	require.NoError(t, err)
	require.Len(t, i.Accounts, 1)
	assert.EqualValues(t, signer, i.Accounts[0].PublicKey)
	assert.True(t, i.Accounts[0].IsSigner)
	assert.False(t, i.Accounts[0].IsWritable)

	_, err = Instruction(strings.Repeat("a", MaxMemoSize+1))
	assert.True(t, errors.Is(err, ErrMemoTooLarge))
}

func TestDecompile(t *testing.T) {
	i, err := Instruction("hello, world")
	require.NoError(t, err)

	tx := solana.NewTransaction(make([]byte, 32), i)

	decompiled, err := DecompileMemo(tx.Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello, world", string(decompiled.Data))

	_, err = DecompileMemo(tx.Message, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	tx.Message.Accounts[1], _, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, err = DecompileMemo(tx.Message, 0)
	assert.Error(t, err)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
