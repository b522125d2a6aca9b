package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactSize_Boundaries(t *testing.T) {
	cases := []struct {
		n       uint64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{0xfc, []byte{0xfc}},
		{0xfd, []byte{0xfd, 0xfd, 0x00}},
		{0xffff, []byte{0xfd, 0xff, 0xff}},
		{0x10000, []byte{0xfe, 0x00, 0x00, 0x01, 0x00}},
		{0xffffffff, []byte{0xfe, 0xff, 0xff, 0xff, 0xff}},
		{0x100000000, []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}},
	}

	for _, c := range cases {
		got := AppendCompactSize(nil, c.n)
		assert.Equal(t, c.encoded, got, "encode %#x", c.n)
		assert.Equal(t, len(c.encoded), CompactSizeLen(c.n))

		v, used, err := DecodeCompactSize(got, "n")
		require.NoError(t, err)
		assert.Equal(t, c.n, v)
		assert.Equal(t, len(c.encoded), used)
	}
}

func TestDecodeCompactSize_RejectsNonMinimal(t *testing.T) {
	_, _, err := DecodeCompactSize([]byte{0xfd, 0x10, 0x00}, "script length")

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "script length", parseErr.Field)
}

func TestDecodeCompactSize_Truncated(t *testing.T) {
	_, _, err := DecodeCompactSize([]byte{0xfe, 0x01}, "input count")

	var truncErr *TruncatedInputError
	require.True(t, errors.As(err, &truncErr))
	assert.Equal(t, 5, truncErr.Needed)
	assert.Equal(t, 2, truncErr.Have)

	_, _, err = DecodeCompactSize(nil, "input count")
	require.True(t, errors.As(err, &truncErr))
}

func TestReader_ReadsInOrder(t *testing.T) {
	w := NewWriter(32)
	w.WriteU32LE(0xdeadbeef)
	w.WriteVarBytes([]byte{1, 2, 3})
	w.WriteU64LE(42)
	w.WriteU8(7)

	r := NewReader(w.Bytes())

	u32, err := r.ReadU32LE("version")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	b, err := r.ReadVarBytes("script")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	u64, err := r.ReadU64LE("value")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u64)

	u8, err := r.ReadU8("flag")
	require.NoError(t, err)
	assert.Equal(t, byte(7), u8)

	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, w.Len(), r.Pos())
}

func TestReader_ReadVarBytesCopies(t *testing.T) {
	buf := []byte{0x02, 0xaa, 0xbb}
	r := NewReader(buf)

	b, err := r.ReadVarBytes("script")
	require.NoError(t, err)

	buf[1] = 0x00
	assert.Equal(t, []byte{0xaa, 0xbb}, b)
}

func TestReader_ReadVarBytesTruncated(t *testing.T) {
	r := NewReader([]byte{0x05, 0x01, 0x02})

	_, err := r.ReadVarBytes("scriptsig")

	var truncErr *TruncatedInputError
	require.True(t, errors.As(err, &truncErr))
	assert.Equal(t, "scriptsig", truncErr.Field)
	assert.Equal(t, 5, truncErr.Needed)
	assert.Equal(t, 2, truncErr.Have)
}

func TestReader_ReadCountRejectsImpossibleCounts(t *testing.T) {
	r := NewReader([]byte{0xfe, 0xff, 0xff, 0xff, 0x00, 0x01})

	_, err := r.ReadCount("output count", 9)

	var truncErr *TruncatedInputError
	require.True(t, errors.As(err, &truncErr))
}

func TestReader_Peek(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01, 0x02})

	b, ok := r.Peek(2)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x01}, b)
	assert.Equal(t, 0, r.Pos())

	_, ok = r.Peek(4)
	assert.False(t, ok)
}

func TestVarBytesLen(t *testing.T) {
	assert.Equal(t, 1, VarBytesLen(nil))
	assert.Equal(t, 3+300, VarBytesLen(make([]byte, 300)))
}
