package wire

import (
	"encoding/binary"
	"fmt"
)

// Reader is a bounds-checked cursor over an encoded byte slice.
type Reader struct {
	b   []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

func (r *Reader) Remaining() int {
	if r.pos >= len(r.b) {
		return 0
	}

	return len(r.b) - r.pos
}

func (r *Reader) Pos() int {
	return r.pos
}

// Peek returns the next n bytes without advancing; ok is false when fewer are left.
func (r *Reader) Peek(n int) ([]byte, bool) {
	if n < 0 || r.Remaining() < n {
		return nil, false
	}

	return r.b[r.pos : r.pos+n], true
}

func (r *Reader) ReadExact(n int, field string) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, &TruncatedInputError{Field: field, Needed: n, Have: r.Remaining()}
	}

	start := r.pos
	r.pos += n

	return r.b[start:r.pos], nil
}

func (r *Reader) ReadU8(field string) (byte, error) {
	b, err := r.ReadExact(1, field)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *Reader) ReadU32LE(field string) (uint32, error) {
	b, err := r.ReadExact(4, field)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64LE(field string) (uint64, error) {
	b, err := r.ReadExact(8, field)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadCompactSize(field string) (uint64, error) {
	v, used, err := DecodeCompactSize(r.b[r.pos:], field)
	if err != nil {
		return 0, err
	}

	r.pos += used

	return v, nil
}

// ReadVarBytes reads a CompactSize length followed by that many bytes. The result is a copy so callers may
// keep it after the underlying buffer is reused.
func (r *Reader) ReadVarBytes(field string) ([]byte, error) {
	n, err := r.ReadCompactSize(field + " length")
	if err != nil {
		return nil, err
	}

	if n > MaxCompactSize {
		return nil, NewParseError(field, fmt.Sprintf("length %d exceeds maximum %d", n, MaxCompactSize), nil)
	}

	b, err := r.ReadExact(int(n), field)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out, nil
}

// ReadCount reads a CompactSize element count, rejecting counts that cannot fit in the remaining bytes
// given each element takes at least minElemSize bytes.
func (r *Reader) ReadCount(field string, minElemSize int) (int, error) {
	n, err := r.ReadCompactSize(field)
	if err != nil {
		return 0, err
	}

	if minElemSize > 0 && n > uint64(r.Remaining()/minElemSize) {
		return 0, &TruncatedInputError{Field: field, Needed: int(min(n, MaxCompactSize)) * minElemSize, Have: r.Remaining()}
	}

	return int(n), nil
}
