package compute_budget

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "ComputeBudget111111111111111111111111111111", base58.Encode(ProgramKey))
}

func TestSetComputeUnitLimit(t *testing.T) {
	ixn := SetComputeUnitLimit(1_000_000)
	assert.EqualValues(t, ProgramKey, ixn.Program)
	assert.Empty(t, ixn.Accounts)
	assert.Equal(t, []byte{2, 0x40, 0x42, 0x0f, 0x00}, ixn.Data)

	limit, err := ParseSetComputeUnitLimitIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, limit)
}

func TestSetComputeUnitPrice(t *testing.T) {
	ixn := SetComputeUnitPrice(10_000)
	assert.Equal(t, []byte{3, 0x10, 0x27, 0, 0, 0, 0, 0, 0}, ixn.Data)

	price, err := ParseSetComputeUnitPriceIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 10_000, price)
}

func TestParse_InvalidData(t *testing.T) {
	for _, tc := range []struct {
		name  string
		parse func([]byte) error
		data  []byte
	}{
		{
			"limit from price data",
			func(b []byte) error { _, err := ParseSetComputeUnitLimitIxnData(b); return err },
			SetComputeUnitPrice(1).Data,
		},
		{
			"limit with wrong command",
			func(b []byte) error { _, err := ParseSetComputeUnitLimitIxnData(b); return err },
			[]byte{commandRequestHeapFrame, 0, 0, 0, 0},
		},
		{
			"truncated price",
			func(b []byte) error { _, err := ParseSetComputeUnitPriceIxnData(b); return err },
			SetComputeUnitPrice(1).Data[:5],
		},
		{
			"empty",
			func(b []byte) error { _, err := ParseSetComputeUnitPriceIxnData(b); return err },
			nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.parse(tc.data), ErrInvalidInstructionData))
		})
	}
}
