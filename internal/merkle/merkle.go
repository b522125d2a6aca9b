package merkle

import (
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/pkg/types"
)

// BuildMerkleRoot constructs a merkle root from transaction ids, coinbase first.
// Whenever a level has an odd number of nodes its own last node is duplicated.
func BuildMerkleRoot(txIDs []types.Hash) (types.Hash, error) {
	if len(txIDs) == 0 {
		return types.Hash{}, errors.NewInvalidArgumentError("merkle root of an empty transaction list")
	}

	// Work on a copy so the caller's slice is never modified
	level := make([]types.Hash, len(txIDs), len(txIDs)+1)
	copy(level, txIDs)

	for len(level) > 1 {
		level = nextLevel(level)
	}

	return level[0], nil
}

// nextLevel pairs and hashes one level in place, returning the shorter parent level
func nextLevel(level []types.Hash) []types.Hash {
	if len(level)%2 != 0 {
		level = append(level, level[len(level)-1])
	}

	for i := 0; i < len(level); i += 2 {
		level[i/2] = crypto.DoubleHashPair(level[i], level[i+1])
	}

	return level[:len(level)/2]
}

// BuildMerkleBranch returns the sibling hashes on the path from leaf index to the root, bottom up
func BuildMerkleBranch(txIDs []types.Hash, index int) ([]types.Hash, error) {
	if index < 0 || index >= len(txIDs) {
		return nil, errors.NewInvalidArgumentError("merkle branch index %d out of range [0, %d)", index, len(txIDs))
	}

	level := make([]types.Hash, len(txIDs), len(txIDs)+1)
	copy(level, txIDs)

	var branch []types.Hash

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		branch = append(branch, level[index^1])
		index /= 2
		level = nextLevel(level)
	}

	return branch, nil
}

// RootFromBranch recomputes the root for a leaf at index with the given branch
func RootFromBranch(leaf types.Hash, index int, branch []types.Hash) types.Hash {
	node := leaf

	for _, sibling := range branch {
		if index&1 == 0 {
			node = crypto.DoubleHashPair(node, sibling)
		} else {
			node = crypto.DoubleHashPair(sibling, node)
		}

		index >>= 1
	}

	return node
}
