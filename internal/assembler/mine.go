package assembler

import (
	"context"

	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/pow"
	"github.com/yourusername/btminer/internal/ulogger"
	"github.com/yourusername/btminer/pkg/types"
)

// HeaderMiner searches a header for a valid nonce. *pow.Miner implements it.
type HeaderMiner interface {
	Mine(ctx context.Context, header types.BlockHeader) (*pow.Result, error)
}

// MineBlock solves block in place. When the miner exhausts its search, the coinbase extra nonce is bumped, which
// gives the header a new merkle root and a fresh nonce space, up to maxExtraNonceRolls times.
func MineBlock(ctx context.Context, logger ulogger.Logger, block *Block, miner HeaderMiner, maxExtraNonceRolls int) (*pow.Result, error) {
	for rolls := 0; ; rolls++ {
		result, err := miner.Mine(ctx, block.Header)
		if err == nil {
			block.Header = result.Header

			return result, nil
		}

		if !errors.Is(err, errors.ErrSearchExhausted) || rolls >= maxExtraNonceRolls {
			return nil, err
		}

		if err = block.RollExtraNonce(); err != nil {
			return nil, err
		}

		logger.Infof("[Assembler] candidate %s search exhausted, extra nonce now %d, merkle root %s", block.ID, block.ExtraNonce(), block.Header.MerkleRoot)
	}
}
