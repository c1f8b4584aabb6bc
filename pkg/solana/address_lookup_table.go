package solana

import (
	"bytes"
	"crypto/ed25519"
	"sort"
)

// AddressLookupTable is the on-chain address list a v0 transaction may load
// non-signer accounts from.
type AddressLookupTable struct {
	PublicKey ed25519.PublicKey
	Addresses []ed25519.PublicKey
}

// IndexOf returns the position of address in the table.
func (t AddressLookupTable) IndexOf(address ed25519.PublicKey) (int, bool) {
	for i, candidate := range t.Addresses {
		if bytes.Equal(candidate, address) {
			return i, true
		}
	}
	return 0, false
}

// sortedLookupTables returns a copy of tables ordered by table address, which
// fixes the order of the message's address table lookups.
func sortedLookupTables(tables []AddressLookupTable) []AddressLookupTable {
	sorted := make([]AddressLookupTable, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].PublicKey, sorted[j].PublicKey) < 0
	})
	return sorted
}
