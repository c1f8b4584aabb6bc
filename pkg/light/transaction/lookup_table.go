package transaction

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/compression-sdk/pkg/solana"
	address_lookup_table "github.com/code-payments/compression-sdk/pkg/solana/addresslookuptable"
)

var ErrLookupTableDeactivated = errors.New("address lookup table is deactivated")

// GetAddressLookupTables loads the lookup tables at addresses for use with
// BuildTx.
func GetAddressLookupTables(client solana.Client, addresses ...ed25519.PublicKey) ([]solana.AddressLookupTable, error) {
	tables := make([]solana.AddressLookupTable, len(addresses))
	for i, address := range addresses {
		info, err := client.GetAccountInfo(address, solana.CommitmentConfirmed)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get lookup table %s", base58.Encode(address))
		}

		if !info.Owner.Equal(address_lookup_table.ProgramKey) {
			return nil, errors.Errorf("account %s is not a lookup table", base58.Encode(address))
		}

		var account address_lookup_table.AddressLookupTableAccount
		if err := account.Unmarshal(info.Data); err != nil {
			return nil, errors.Wrapf(err, "invalid lookup table %s", base58.Encode(address))
		}

		if !account.IsActive() {
			return nil, errors.Wrapf(ErrLookupTableDeactivated, "table %s", base58.Encode(address))
		}

		tables[i] = account.ToLookupTable(address)
	}
	return tables, nil
}
