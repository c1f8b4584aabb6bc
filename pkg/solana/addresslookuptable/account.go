package address_lookup_table

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"math"

	"github.com/mr-tron/base58"

	"github.com/code-payments/compression-sdk/pkg/solana"
	"github.com/code-payments/compression-sdk/pkg/solana/binary"
)

var (
	ErrInvalidAccountSize = errors.New("invalid address lookup table account size")
	ErrInvalidAccountType = errors.New("invalid account type")
)

const (
	altDescriminator = 1

	metadataSize = 56
	maxAddresses = 256
)

type AddressLookupTableAccount struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  ed25519.PublicKey
	Addresses                  []ed25519.PublicKey
}

// Unmarshal decodes the account data of a lookup table: a fixed size metadata
// header followed by the packed list of addresses.
func (obj *AddressLookupTableAccount) Unmarshal(data []byte) error {
	if len(data) < metadataSize {
		return ErrInvalidAccountSize
	}

	r := binary.NewReader(data)
	if r.Uint32() != altDescriminator {
		return ErrInvalidAccountType
	}

	obj.DeactivationSlot = r.Uint64()
	obj.LastExtendedSlot = r.Uint64()
	obj.LastExtendedSlotStartIndex = r.Uint8()
	obj.Authority = r.OptionalKey()
	r.SkipTo(metadataSize)

	if r.Remaining()%ed25519.PublicKeySize != 0 {
		return ErrInvalidAccountSize
	}
	addressCount := r.Remaining() / ed25519.PublicKeySize
	if addressCount > maxAddresses {
		return ErrInvalidAccountSize
	}

	obj.Addresses = make([]ed25519.PublicKey, addressCount)
	for i := range obj.Addresses {
		obj.Addresses[i] = r.Key()
	}

	return r.Err()
}

// IsActive reports whether the table has not been deactivated.
func (obj *AddressLookupTableAccount) IsActive() bool {
	return obj.DeactivationSlot == math.MaxUint64
}

// ToLookupTable returns the table at address in the form used to compile
// versioned transactions.
func (obj *AddressLookupTableAccount) ToLookupTable(address ed25519.PublicKey) solana.AddressLookupTable {
	addresses := make([]ed25519.PublicKey, len(obj.Addresses))
	copy(addresses, obj.Addresses)

	return solana.AddressLookupTable{
		PublicKey: address,
		Addresses: addresses,
	}
}

func (obj *AddressLookupTableAccount) String() string {
	addressesString := "{"
	for i, address := range obj.Addresses {
		addressesString += fmt.Sprintf("%d:%s,", i, base58.Encode(address))
	}
	addressesString += "}"

	return fmt.Sprintf(
		"AddressLookupTable{deactivation_slot=%d,last_extended_slot=%d,last_extended_slot_start_index=%d,authority=%s,addresses=%s}",
		obj.DeactivationSlot,
		obj.LastExtendedSlot,
		obj.LastExtendedSlotStartIndex,
		base58.Encode(obj.Authority),
		addressesString,
	)
}
