// Package shortvec implements the compact-u16 length prefix used by the
// transaction wire format for signatures, accounts, instructions and lookup
// table indexes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedSize = 3

var (
	ErrLengthTooLarge   = errors.New("length exceeds compact-u16 range")
	ErrNonCanonicalForm = errors.New("length is not in canonical compact-u16 form")
)

// EncodeLen writes length as a compact-u16 and returns the number of bytes
// written.
func EncodeLen(w io.Writer, length int) (int, error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Wrapf(ErrLengthTooLarge, "length %d", length)
	}

	var encoded [maxEncodedSize]byte
	size := 0
	for {
		b := byte(length & 0x7f)
		length >>= 7
		if length != 0 {
			b |= 0x80
		}
		encoded[size] = b
		size++

		if length == 0 {
			break
		}
	}

	return w.Write(encoded[:size])
}

// DecodeLen reads a compact-u16 length. Encodings longer than three bytes,
// values above math.MaxUint16 and aliased encodings with a trailing zero byte
// are rejected.
func DecodeLen(r io.Reader) (int, error) {
	var (
		value int
		b     [1]byte
	)

	for i := 0; i < maxEncodedSize; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		if i > 0 && b[0] == 0 {
			return 0, ErrNonCanonicalForm
		}

		value |= int(b[0]&0x7f) << (7 * i)
		if b[0]&0x80 == 0 {
			if value > math.MaxUint16 {
				return 0, errors.Wrapf(ErrLengthTooLarge, "length %d", value)
			}
			return value, nil
		}
	}

	return 0, errors.Errorf("length prefix exceeds %d bytes", maxEncodedSize)
}
