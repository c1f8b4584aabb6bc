// Package binary reads and writes the fixed-layout little-endian structures
// of native program accounts and instructions.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

var ErrUnexpectedEnd = errors.New("unexpected end of data")

// Writer appends fields to a growing buffer.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Key appends a 32 byte public key. A nil key is written as zeros.
func (w *Writer) Key(key ed25519.PublicKey) {
	var padded [ed25519.PublicKeySize]byte
	copy(padded[:], key)
	w.buf = append(w.buf, padded[:]...)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes fields from data. The first read past the end of data
// records ErrUnexpectedEnd, after which every read returns a zero value.
type Reader struct {
	data   []byte
	offset int
	err    error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.offset < n {
		r.err = errors.Wrapf(ErrUnexpectedEnd, "reading %d bytes at offset %d", n, r.offset)
		return nil
	}

	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b
}

func (r *Reader) Uint8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) Uint32() uint32 {
	if b := r.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) Uint64() uint64 {
	if b := r.next(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *Reader) Key() ed25519.PublicKey {
	if b := r.next(ed25519.PublicKeySize); b != nil {
		return append(ed25519.PublicKey(nil), b...)
	}
	return nil
}

// OptionalKey reads a one byte presence tag followed by a key slot that is
// always present in the layout. Absent keys are returned as nil.
func (r *Reader) OptionalKey() ed25519.PublicKey {
	present := r.Uint8()
	key := r.Key()
	if present == 0 {
		return nil
	}
	return key
}

// SkipTo advances to offset, which must not be behind the current position.
func (r *Reader) SkipTo(offset int) {
	if offset < r.offset {
		if r.err == nil {
			r.err = errors.Errorf("cannot seek back from %d to %d", r.offset, offset)
		}
		return
	}
	r.next(offset - r.offset)
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

func (r *Reader) Err() error {
	return r.err
}
