package pow

import (
	"fmt"
	"math/big"

	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/pkg/types"
)

const (
	// EasyBits is the compact form of MaxEasyTarget (exponent 0x20, mantissa 0xffff)
	EasyBits = 0x2000ffff

	// DifficultyOneBits is the compact target that defines difficulty 1
	DifficultyOneBits = 0x1d00ffff

	compactSignBit  = 0x00800000
	compactMantissa = 0x007fffff
)

var (
	// MaxTarget is 2^256-1, the ceiling every expanded target saturates to
	MaxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// MaxEasyTarget is 0x00ffff followed by 29 zero bytes
	MaxEasyTarget = CompactToBig(EasyBits)

	difficultyOneTarget = CompactToBig(DifficultyOneBits)
)

// Target is a 256-bit threshold stored big-endian, ready for byte-wise comparison against header hashes
type Target [types.HashSize]byte

// CompactToBig expands a compact target: value = mantissa * 256^(exponent-3). A set sign bit yields a
// negative value; results wider than 256 bits saturate to MaxTarget.
func CompactToBig(bits uint32) *big.Int {
	mantissa := bits & compactMantissa
	exponent := uint(bits >> 24)

	var n *big.Int
	if exponent <= 3 {
		n = big.NewInt(int64(mantissa >> (8 * (3 - exponent))))
	} else {
		n = big.NewInt(int64(mantissa))
		n.Lsh(n, 8*(exponent-3))
	}

	if n.Cmp(MaxTarget) > 0 {
		n.Set(MaxTarget)
	}

	if bits&compactSignBit != 0 && n.Sign() != 0 {
		n.Neg(n)
	}

	return n
}

// BigToCompact is the inverse of CompactToBig for values that fit the 23-bit mantissa
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	abs := new(big.Int).Abs(n)

	var mantissa uint32
	exponent := uint(len(abs.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(abs.Uint64())
		mantissa <<= 8 * (3 - exponent)
	} else {
		mantissa = uint32(new(big.Int).Rsh(abs, 8*(exponent-3)).Uint64())
	}

	// the mantissa is signed, so move a set top bit into the exponent
	if mantissa&compactSignBit != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= compactSignBit
	}

	return compact
}

// TargetFromCompact expands bits into a Target, rejecting zero and negative targets
func TargetFromCompact(bits uint32) (Target, error) {
	n := CompactToBig(bits)
	if n.Sign() <= 0 {
		return Target{}, errors.NewInvalidArgumentError("compact target %08x does not expand to a positive value", bits)
	}

	return NewTarget(n)
}

// NewTarget converts a positive value of at most 256 bits into a Target
func NewTarget(n *big.Int) (Target, error) {
	var t Target

	if n.Sign() <= 0 || n.BitLen() > 256 {
		return t, errors.NewInvalidArgumentError("target must be in (0, 2^256)")
	}

	n.FillBytes(t[:])

	return t, nil
}

func (t Target) Big() *big.Int {
	return new(big.Int).SetBytes(t[:])
}

func (t Target) String() string {
	return fmt.Sprintf("%x", t[:])
}

// HashMeetsTarget reports whether hash, read as a little-endian integer, is <= target. It allocates nothing,
// so it is safe for the nonce loop.
func HashMeetsTarget(hash *types.Hash, target *Target) bool {
	for i := 0; i < types.HashSize; i++ {
		h := hash[types.HashSize-1-i]
		if h != target[i] {
			return h < target[i]
		}
	}

	return true
}

// Difficulty is the ratio of the difficulty-one target to the target encoded by bits
func Difficulty(bits uint32) float64 {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return 0
	}

	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(difficultyOneTarget), new(big.Float).SetInt(target)).Float64()

	return ratio
}
