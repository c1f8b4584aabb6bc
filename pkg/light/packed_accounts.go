package light

import (
	"crypto/ed25519"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/code-payments/compression-sdk/pkg/solana"
)

type packedAccount struct {
	index int
	meta  solana.AccountMeta
}

// PackedAccounts assembles the account list of a compressed-account
// instruction from three regions: caller supplied pre accounts, the system
// accounts required by the light system program, and deduplicated accounts
// that instruction data refers to by index.
//
// Indices handed out by the Insert methods are relative to the packed region.
// A PackedAccounts is built for a single instruction and is not safe for
// concurrent use. The zero value is ready to use.
type PackedAccounts struct {
	preAccounts    []solana.AccountMeta
	systemAccounts []solana.AccountMeta

	// accounts maps [32]byte keys to packedAccount values. Entries are never
	// removed, so insertion order is index order.
	nextIndex int
	accounts  *linkedhashmap.Map
}

func NewPackedAccounts() *PackedAccounts {
	return &PackedAccounts{}
}

// NewPackedAccountsWithSystemAccounts returns a PackedAccounts whose system
// region is populated from config.
func NewPackedAccountsWithSystemAccounts(config SystemAccountMetaConfig, opts ...SystemAccountOption) (*PackedAccounts, error) {
	p := NewPackedAccounts()
	if err := p.AddSystemAccounts(config, opts...); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PackedAccounts) AddPreAccountsSigner(pubkey ed25519.PublicKey) {
	p.preAccounts = append(p.preAccounts, solana.NewReadonlyAccountMeta(pubkey, true))
}

func (p *PackedAccounts) AddPreAccountsSignerMut(pubkey ed25519.PublicKey) {
	p.preAccounts = append(p.preAccounts, solana.NewAccountMeta(pubkey, true))
}

func (p *PackedAccounts) AddPreAccountsMeta(meta solana.AccountMeta) {
	p.preAccounts = append(p.preAccounts, meta)
}

// AddSystemAccounts appends the light system accounts resolved from config.
func (p *PackedAccounts) AddSystemAccounts(config SystemAccountMetaConfig, opts ...SystemAccountOption) error {
	metas, err := GetSystemAccountMetas(config, opts...)
	if err != nil {
		return err
	}

	p.systemAccounts = append(p.systemAccounts, metas...)
	return nil
}

// InsertOrGet returns the packed index of a writable, non-signer account.
func (p *PackedAccounts) InsertOrGet(pubkey ed25519.PublicKey) int {
	return p.InsertOrGetConfig(pubkey, false, true)
}

// InsertOrGetReadOnly returns the packed index of a read-only, non-signer
// account.
func (p *PackedAccounts) InsertOrGetReadOnly(pubkey ed25519.PublicKey) int {
	return p.InsertOrGetConfig(pubkey, false, false)
}

// InsertOrGetConfig returns the packed index of pubkey, assigning the next
// free index on first use.
//
// The access mode is fixed by the first insertion. Later calls for the same
// account return its index and ignore isSigner and isWritable.
func (p *PackedAccounts) InsertOrGetConfig(pubkey ed25519.PublicKey, isSigner, isWritable bool) int {
	var key [32]byte
	copy(key[:], pubkey)

	if p.accounts == nil {
		p.accounts = linkedhashmap.New()
	}

	if existing, ok := p.accounts.Get(key); ok {
		return existing.(packedAccount).index
	}

	index := p.nextIndex
	p.nextIndex++

	p.accounts.Put(key, packedAccount{
		index: index,
		meta: solana.AccountMeta{
			PublicKey:  append(ed25519.PublicKey(nil), pubkey...),
			IsSigner:   isSigner,
			IsWritable: isWritable,
		},
	})
	return index
}

// Len returns the number of unique packed accounts.
func (p *PackedAccounts) Len() int {
	if p.accounts == nil {
		return 0
	}
	return p.accounts.Size()
}

// PackedAccountMetas returns the packed region alone, ordered by index.
func (p *PackedAccounts) PackedAccountMetas() []solana.AccountMeta {
	metas := make([]solana.AccountMeta, p.Len())
	if p.accounts == nil {
		return metas
	}

	it := p.accounts.Iterator()
	for it.Next() {
		entry := it.Value().(packedAccount)
		metas[entry.index] = entry.meta
	}
	return metas
}

// ToAccountMetas returns pre, system and packed accounts concatenated in that
// order, along with the offsets at which the system and packed regions start.
// A packed index i lives at position packedStart+i of the result.
func (p *PackedAccounts) ToAccountMetas() (metas []solana.AccountMeta, systemStart, packedStart int) {
	packed := p.PackedAccountMetas()

	systemStart = len(p.preAccounts)
	packedStart = systemStart + len(p.systemAccounts)

	metas = make([]solana.AccountMeta, 0, packedStart+len(packed))
	metas = append(metas, p.preAccounts...)
	metas = append(metas, p.systemAccounts...)
	metas = append(metas, packed...)

	return metas, systemStart, packedStart
}
