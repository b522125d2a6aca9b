package crypto

import (
	"crypto/sha256"

	"github.com/yourusername/btminer/pkg/types"
)

// DoubleHash returns SHA-256(SHA-256(data)), the identifier of an encoded transaction or header
func DoubleHash(data []byte) types.Hash {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// DoubleHashPair hashes the 64-byte concatenation of two identifiers
func DoubleHashPair(left, right types.Hash) types.Hash {
	var buf [types.HashSize * 2]byte
	copy(buf[:types.HashSize], left[:])
	copy(buf[types.HashSize:], right[:])

	return DoubleHash(buf[:])
}

// HashBlockHeader computes the identifier of a block header
func HashBlockHeader(header *types.BlockHeader) types.Hash {
	var buf [types.BlockHeaderSize]byte
	header.SerializeInto(buf[:])

	return DoubleHash(buf[:])
}
