package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

var (
	ErrTransactionTooLarge = errors.New("transaction exceeds max size")
	ErrMissingSignature    = errors.New("transaction is missing a signature")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

type Message struct {
	version             MessageVersion
	Header              Header
	Accounts            []ed25519.PublicKey
	RecentBlockhash     Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles a legacy transaction paid for by payer.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	return compile(payer, nil, instructions)
}

// NewVersionedTransaction compiles a transaction that may load accounts from the
// provided address lookup tables. If no account is loaded from a table, the
// result is identical to NewTransaction.
func NewVersionedTransaction(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	return compile(payer, addressLookupTables, instructions)
}

func compile(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	metas := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}
	for _, ixn := range instructions {
		metas = append(metas, AccountMeta{PublicKey: ixn.Program, isProgram: true})
		metas = append(metas, ixn.Accounts...)
	}

	// Ordering:
	//   1. The payer is always the first account and signer
	//   2. Signers before non-signers
	//   3. Writable before read-only
	//   4. Programs last
	metas = mergeAccountMetas(metas)
	sort.Sort(SortableAccountMeta(metas))

	tables := sortedLookupTables(addressLookupTables)

	lookups := make([]MessageAddressTableLookup, len(tables))
	for i, table := range tables {
		lookups[i].PublicKey = table.PublicKey
	}

	var m Message
	for _, meta := range metas {
		if tableIndex, addressIndex, ok := findInLookupTables(tables, meta); ok {
			if meta.IsWritable {
				lookups[tableIndex].WritableIndexes = append(lookups[tableIndex].WritableIndexes, byte(addressIndex))
			} else {
				lookups[tableIndex].ReadonlyIndexes = append(lookups[tableIndex].ReadonlyIndexes, byte(addressIndex))
			}
			continue
		}

		m.Accounts = append(m.Accounts, meta.PublicKey)

		switch {
		case meta.IsSigner:
			m.Header.NumSignatures++
			if !meta.IsWritable {
				m.Header.NumReadonlySigned++
			}
		case !meta.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	// Instruction account indexes address the static accounts, followed by
	// every table's writable entries, followed by every table's read-only
	// entries.
	indexed := append([]ed25519.PublicKey{}, m.Accounts...)
	for i := range lookups {
		for _, addressIndex := range lookups[i].WritableIndexes {
			indexed = append(indexed, tables[i].Addresses[addressIndex])
		}
	}
	for i := range lookups {
		for _, addressIndex := range lookups[i].ReadonlyIndexes {
			indexed = append(indexed, tables[i].Addresses[addressIndex])
		}
	}

	for _, ixn := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: byte(indexOf(indexed, ixn.Program)),
			Data:         ixn.Data,
		}
		for _, account := range ixn.Accounts {
			compiled.Accounts = append(compiled.Accounts, byte(indexOf(indexed, account.PublicKey)))
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	for _, lookup := range lookups {
		if len(lookup.WritableIndexes) == 0 && len(lookup.ReadonlyIndexes) == 0 {
			continue
		}
		m.AddressTableLookups = append(m.AddressTableLookups, lookup)
	}
	if len(m.AddressTableLookups) > 0 {
		m.version = MessageVersion0
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// findInLookupTables returns the position of an account in the first lookup
// table that contains it. Payers, signers and programs are never loaded
// dynamically.
func findInLookupTables(tables []AddressLookupTable, meta AccountMeta) (int, int, bool) {
	if meta.isPayer || meta.IsSigner || meta.isProgram {
		return 0, 0, false
	}

	for i, table := range tables {
		if j, ok := table.IndexOf(meta.PublicKey); ok {
			return i, j, true
		}
	}

	return 0, 0, false
}

// mergeAccountMetas removes duplicate accounts, keeping the position of the
// first occurrence and promoting its permissions to the union of every
// occurrence.
func mergeAccountMetas(metas []AccountMeta) []AccountMeta {
	merged := make([]AccountMeta, 0, len(metas))
	positions := make(map[string]int, len(metas))

	for _, meta := range metas {
		pos, ok := positions[string(meta.PublicKey)]
		if !ok {
			positions[string(meta.PublicKey)] = len(merged)
			merged = append(merged, meta)
			continue
		}

		existing := &merged[pos]
		existing.IsSigner = existing.IsSigner || meta.IsSigner
		existing.IsWritable = existing.IsWritable || meta.IsWritable
		existing.isPayer = existing.isPayer || meta.isPayer
	}

	return merged
}

func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

// Version returns the message version the transaction was compiled to.
func (t *Transaction) Version() MessageVersion {
	return t.Message.version
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the message with each of the provided signers. Every signer must
// be one of the transaction's required signers.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, signer := range signers {
		pub := signer.Public().(ed25519.PublicKey)

		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(signer, messageBytes))
	}

	return nil
}

// VerifySignatures checks that every required signature is present and valid.
func (t *Transaction) VerifySignatures() error {
	messageBytes := t.Message.Marshal()

	for i, sig := range t.Signatures {
		if sig == (Signature{}) {
			return errors.Wrapf(ErrMissingSignature, "signer %s", base58.Encode(t.Message.Accounts[i]))
		}
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, sig[:]) {
			return errors.Errorf("invalid signature for signer %s", base58.Encode(t.Message.Accounts[i]))
		}
	}

	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Version: %s\n", t.Message.version.String()))
	sb.WriteString(fmt.Sprintf("  Header: %d signatures, %d readonly signed, %d readonly\n",
		t.Message.Header.NumSignatures,
		t.Message.Header.NumReadonlySigned,
		t.Message.Header.NumReadOnly,
	))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i, ixn := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d: program=%d accounts=%v data=%v\n", i, ixn.ProgramIndex, ixn.Accounts, ixn.Data))
	}
	for _, lookup := range t.Message.AddressTableLookups {
		sb.WriteString(fmt.Sprintf("  Lookup %s: writable=%v readonly=%v\n",
			base58.Encode(lookup.PublicKey),
			lookup.WritableIndexes,
			lookup.ReadonlyIndexes,
		))
	}
	return sb.String()
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}
