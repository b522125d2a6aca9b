// Package assembler builds candidate blocks: a coinbase followed by mempool transactions, committed to by a
// draft header that is ready for the nonce search.
package assembler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/mempool"
	"github.com/yourusername/btminer/internal/merkle"
	"github.com/yourusername/btminer/internal/metrics"
	"github.com/yourusername/btminer/internal/pow"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/internal/ulogger"
	"github.com/yourusername/btminer/pkg/types"
)

// Settings are the block parameters supplied by the caller
type Settings struct {
	Version         int32
	PrevBlockHash   types.Hash
	Bits            uint32
	Time            uint32 // 0 uses the wall clock
	MaxTransactions int    // external transactions, the coinbase is not counted

	CoinbaseVersion int32
	CoinbaseHeight  uint32
	CoinbaseText    string
	Payouts         []tx.Payout
}

type Assembler struct {
	logger   ulogger.Logger
	settings Settings
	now      func() time.Time
}

func New(logger ulogger.Logger, settings Settings) (*Assembler, error) {
	if settings.MaxTransactions <= 0 {
		return nil, errors.NewInvalidArgumentError("max transactions must be positive, got %d", settings.MaxTransactions)
	}

	if len(settings.Payouts) == 0 {
		return nil, errors.NewInvalidArgumentError("at least one coinbase payout is required")
	}

	if _, err := pow.TargetFromCompact(settings.Bits); err != nil {
		return nil, err
	}

	if settings.Version == 0 {
		settings.Version = 1
	}

	metrics.Init()

	return &Assembler{
		logger:   logger,
		settings: settings,
		now:      time.Now,
	}, nil
}

// Assemble pulls candidates from source and builds a block. Candidates that failed to decode are logged and
// left out; only a failure of the source itself, or of the coinbase, aborts the block.
func (a *Assembler) Assemble(ctx context.Context, source mempool.Source) (*Block, error) {
	start := time.Now()

	candidates, err := source.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	params := tx.CoinbaseParams{
		Version: a.settings.CoinbaseVersion,
		Height:  a.settings.CoinbaseHeight,
		Text:    a.settings.CoinbaseText,
		Payouts: a.settings.Payouts,
	}

	coinbase, err := tx.NewCoinbaseTx(params)
	if err != nil {
		return nil, err
	}

	a.logger.Debugf("[Assembler] coinbase %s pays %d satoshis to %d outputs", coinbase.TxID(), coinbase.TotalOutput(), len(coinbase.Outputs))

	transactions := make([]*tx.Transaction, 1, 1+min(len(candidates), a.settings.MaxTransactions))
	transactions[0] = coinbase

	rejected := 0

	for _, candidate := range candidates {
		if candidate.Err != nil {
			rejected++

			a.logger.Warnf("[Assembler] skipping record %s: %v", candidate.Name, candidate.Err)

			continue
		}

		if len(transactions)-1 >= a.settings.MaxTransactions {
			a.logger.Warnf("[Assembler] block is full at %d transactions, ignoring %s and later records", a.settings.MaxTransactions, candidate.Name)
			break
		}

		transactions = append(transactions, candidate.Tx)
	}

	ids := make([]types.Hash, len(transactions))
	for i, t := range transactions {
		ids[i] = t.TxID()
	}

	root, err := merkle.BuildMerkleRoot(ids)
	if err != nil {
		return nil, err
	}

	branch, err := merkle.BuildMerkleBranch(ids, 0)
	if err != nil {
		return nil, err
	}

	timestamp := a.settings.Time
	if timestamp == 0 {
		timestamp = uint32(a.now().Unix())
	}

	block := &Block{
		ID: uuid.New(),
		Header: types.BlockHeader{
			Version:       a.settings.Version,
			PrevBlockHash: a.settings.PrevBlockHash,
			MerkleRoot:    root,
			Timestamp:     timestamp,
			Bits:          a.settings.Bits,
			Nonce:         0,
		},
		Transactions:   transactions,
		coinbase:       params,
		coinbaseBranch: branch,
	}

	if err = block.CheckMerkleRoot(); err != nil {
		return nil, err
	}

	metrics.BlockAssemblerCandidates.Inc()
	metrics.BlockAssemblerTransactions.Set(float64(len(transactions)))
	metrics.BlockAssemblerRecordsRejected.Add(float64(rejected))
	metrics.BlockAssemblerAssembleDuration.Observe(time.Since(start).Seconds())

	a.logger.Infof("[Assembler] candidate %s: %d transactions (%d records rejected), merkle root %s, prev %s, bits %08x", block.ID, len(transactions), rejected, root, block.Header.PrevBlockHash, block.Header.Bits)

	return block, nil
}
