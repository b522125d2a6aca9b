package wire

import "encoding/binary"

// MaxCompactSize bounds any length prefix read from untrusted input.
const MaxCompactSize = 0x02000000

// CompactSizeLen returns the number of bytes AppendCompactSize uses for n.
func CompactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// AppendCompactSize appends n as a Bitcoin-style CompactSize varint.
func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= 0xffffffff:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

// DecodeCompactSize decodes one CompactSize value from the front of buf and returns the value and the
// number of bytes consumed. Non-minimal encodings are rejected.
func DecodeCompactSize(buf []byte, field string) (uint64, int, error) {
	if len(buf) < 1 {
		return 0, 0, &TruncatedInputError{Field: field, Needed: 1, Have: 0}
	}

	var (
		v       uint64
		n       int
		minimum uint64
	)

	switch prefix := buf[0]; prefix {
	case 0xfd:
		n, minimum = 3, 0xfd
	case 0xfe:
		n, minimum = 5, 0x10000
	case 0xff:
		n, minimum = 9, 0x100000000
	default:
		return uint64(prefix), 1, nil
	}

	if len(buf) < n {
		return 0, 0, &TruncatedInputError{Field: field, Needed: n, Have: len(buf)}
	}

	switch n {
	case 3:
		v = uint64(binary.LittleEndian.Uint16(buf[1:3]))
	case 5:
		v = uint64(binary.LittleEndian.Uint32(buf[1:5]))
	default:
		v = binary.LittleEndian.Uint64(buf[1:9])
	}

	if v < minimum {
		return 0, 0, NewParseError(field, "non-minimal compact size", nil)
	}

	return v, n, nil
}
