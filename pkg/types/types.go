package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	// HashSize is the size of a double-SHA256 identifier
	HashSize = 32

	// BlockHeaderSize is the size of a serialized block header
	BlockHeaderSize = 80
)

// Hash is a 32-byte identifier stored in internal (hashing) byte order.
// It is displayed byte-reversed, as is conventional for transaction and block ids.
type Hash [HashSize]byte

// String returns the byte-reversed hex encoding of the hash
func (h Hash) String() string {
	var reversed Hash
	for i := 0; i < HashSize; i++ {
		reversed[i] = h[HashSize-1-i]
	}

	return hex.EncodeToString(reversed[:])
}

// IsZero reports whether every byte of the hash is zero
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// NewHashFromStr parses a display-order (byte-reversed) hex string
func NewHashFromStr(s string) (Hash, error) {
	var h Hash

	if len(s) != HashSize*2 {
		return h, fmt.Errorf("hash string must be %d hex characters, got %d", HashSize*2, len(s))
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}

	for i := 0; i < HashSize; i++ {
		h[i] = decoded[HashSize-1-i]
	}

	return h, nil
}

// BlockHeader contains the block metadata
type BlockHeader struct {
	Version       int32  // Block version
	PrevBlockHash Hash   // Previous block hash
	MerkleRoot    Hash   // Merkle root of transactions
	Timestamp     uint32 // Seconds since epoch
	Bits          uint32 // Compact difficulty target
	Nonce         uint32 // Nonce for PoW
}

// Serialize converts BlockHeader to its 80-byte wire form
func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, BlockHeaderSize)
	h.SerializeInto(buf)
	return buf
}

// SerializeInto writes the header into buf, which must hold at least BlockHeaderSize bytes
func (h *BlockHeader) SerializeInto(buf []byte) {
	_ = buf[BlockHeaderSize-1]

	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
}

// DeserializeBlockHeader parses an 80-byte header
func DeserializeBlockHeader(b []byte) (*BlockHeader, error) {
	if len(b) != BlockHeaderSize {
		return nil, fmt.Errorf("block header should be %d bytes long, got %d", BlockHeaderSize, len(b))
	}

	h := &BlockHeader{
		Version:   int32(binary.LittleEndian.Uint32(b[0:4])),
		Timestamp: binary.LittleEndian.Uint32(b[68:72]),
		Bits:      binary.LittleEndian.Uint32(b[72:76]),
		Nonce:     binary.LittleEndian.Uint32(b[76:80]),
	}
	copy(h.PrevBlockHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])

	return h, nil
}

// WithNonce returns a copy of the header with the nonce replaced
func (h *BlockHeader) WithNonce(nonce uint32) BlockHeader {
	trial := *h
	trial.Nonce = nonce

	return trial
}
