package pow

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"hash"

	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/pkg/types"
)

const (
	midstateLen = 64
	nonceOffset = types.BlockHeaderSize - midstateLen - 4
)

// headerHasher hashes one header template under varying nonces. The SHA-256 state after the first 64 header
// bytes is computed once; each attempt only feeds the final 16 bytes, of which the last four are the nonce.
type headerHasher struct {
	midstate []byte
	h        hash.Hash
	restore  encoding.BinaryUnmarshaler
	tail     [types.BlockHeaderSize - midstateLen]byte
	first    [sha256.Size]byte
}

func newHeaderHasher(header *types.BlockHeader) (*headerHasher, error) {
	var raw [types.BlockHeaderSize]byte
	header.SerializeInto(raw[:])

	h := sha256.New()
	h.Write(raw[:midstateLen])

	marshaler, ok := h.(encoding.BinaryMarshaler)
	if !ok {
		return nil, errors.NewProcessingError("sha256 state cannot be saved")
	}

	midstate, err := marshaler.MarshalBinary()
	if err != nil {
		return nil, errors.NewProcessingError("failed to save sha256 midstate", err)
	}

	hh, err := hasherFromMidstate(midstate)
	if err != nil {
		return nil, err
	}
	copy(hh.tail[:], raw[midstateLen:])

	return hh, nil
}

func hasherFromMidstate(midstate []byte) (*headerHasher, error) {
	h := sha256.New()

	restore, ok := h.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, errors.NewProcessingError("sha256 state cannot be restored")
	}

	return &headerHasher{
		midstate: midstate,
		h:        h,
		restore:  restore,
	}, nil
}

// clone returns an independent hasher for another worker
func (hh *headerHasher) clone() *headerHasher {
	h := sha256.New()

	return &headerHasher{
		midstate: hh.midstate,
		h:        h,
		restore:  h.(encoding.BinaryUnmarshaler),
		tail:     hh.tail,
	}
}

func (hh *headerHasher) hash(nonce uint32, out *types.Hash) {
	binary.LittleEndian.PutUint32(hh.tail[nonceOffset:], nonce)

	// restoring a state produced by MarshalBinary on the same implementation cannot fail
	_ = hh.restore.UnmarshalBinary(hh.midstate)
	hh.h.Write(hh.tail[:])
	hh.h.Sum(hh.first[:0])

	*out = sha256.Sum256(hh.first[:])
}
