package wire

import "encoding/binary"

// Writer appends little-endian fixed-width integers and length-prefixed byte strings.
type Writer struct {
	b []byte
}

func NewWriter(sizeHint int) *Writer {
	return &Writer{b: make([]byte, 0, sizeHint)}
}

func (w *Writer) Bytes() []byte {
	return w.b
}

func (w *Writer) Len() int {
	return len(w.b)
}

func (w *Writer) WriteU8(v byte) {
	w.b = append(w.b, v)
}

func (w *Writer) WriteU32LE(v uint32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
}

func (w *Writer) WriteU64LE(v uint64) {
	w.b = binary.LittleEndian.AppendUint64(w.b, v)
}

func (w *Writer) WriteBytes(b []byte) {
	w.b = append(w.b, b...)
}

func (w *Writer) WriteCompactSize(n uint64) {
	w.b = AppendCompactSize(w.b, n)
}

func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteCompactSize(uint64(len(b)))
	w.WriteBytes(b)
}

// VarBytesLen is the encoded size of b with its CompactSize prefix.
func VarBytesLen(b []byte) int {
	return CompactSizeLen(uint64(len(b))) + len(b)
}
