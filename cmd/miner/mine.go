package main

import (
	"context"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yourusername/btminer/internal/assembler"
	"github.com/yourusername/btminer/internal/config"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/mempool"
	"github.com/yourusername/btminer/internal/metrics"
	"github.com/yourusername/btminer/internal/output"
	"github.com/yourusername/btminer/internal/pow"
	"github.com/yourusername/btminer/internal/storage"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/internal/ulogger"
	"github.com/yourusername/btminer/pkg/types"
)

var mineBindings = []flagBinding{
	{"mempool-dir", "mempool.dir", stringValue},
	{"max-transactions", "mempool.max_transactions", intValue},
	{"output", "output.path", stringValue},
	{"bits", "mining.bits", stringValue},
	{"prev-block-hash", "mining.prev_block_hash", stringValue},
	{"time", "mining.time", uintValue},
	{"workers", "mining.workers", intValue},
	{"roll-time", "mining.roll_time", boolValue},
	{"address", "coinbase.address", sliceValue},
	{"reward", "coinbase.reward", uint64Value},
	{"text", "coinbase.text", stringValue},
	{"height", "coinbase.height", uintValue},
	{"store", "storage.enabled", boolValue},
	{"metrics-listen", "metrics.listen_address", stringValue},
}

func mineCommand() *cli.Command {
	return &cli.Command{
		Name:  "mine",
		Usage: "assemble and mine one block, writing it to the output file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mempool-dir", Usage: "directory of JSON transaction records"},
			&cli.IntFlag{Name: "max-transactions", Usage: "most mempool transactions to include"},
			&cli.StringFlag{Name: "output", Usage: "output file"},
			&cli.StringFlag{Name: "bits", Usage: "compact target as hex, e.g. 1f00ffff"},
			&cli.StringFlag{Name: "prev-block-hash", Usage: "previous block hash in display order"},
			&cli.UintFlag{Name: "time", Usage: "header timestamp, 0 uses the wall clock"},
			&cli.IntFlag{Name: "workers", Usage: "nonce search workers, 0 uses every CPU"},
			&cli.BoolFlag{Name: "roll-time", Usage: "advance the timestamp when the nonce space runs out"},
			&cli.StringSliceFlag{Name: "address", Usage: "payout address, repeat to split the reward"},
			&cli.Uint64Flag{Name: "reward", Usage: "coinbase reward in satoshis"},
			&cli.StringFlag{Name: "text", Usage: "coinbase text"},
			&cli.UintFlag{Name: "height", Usage: "block height committed in the coinbase"},
			&cli.BoolFlag{Name: "store", Usage: "save the mined block to the block database"},
			&cli.StringFlag{Name: "metrics-listen", Usage: "serve prometheus metrics on this address"},
		},
		Action: mineAction,
	}
}

func mineAction(c *cli.Context) error {
	cfg, _, logger, err := loadConfig(c, mineBindings)
	if err != nil {
		return err
	}

	ctx := c.Context

	if cfg.Metrics.ListenAddress != "" {
		stop := serveMetrics(cfg.Metrics.ListenAddress, logger)
		defer stop()
	}

	var store *storage.Storage

	if cfg.Storage.Enabled {
		if store, err = storage.NewStorage(cfg.Storage.Path); err != nil {
			return err
		}

		defer store.Close()
	}

	settings, err := blockSettings(cfg, store, logger)
	if err != nil {
		return err
	}

	asm, err := assembler.New(logger, settings)
	if err != nil {
		return err
	}

	block, err := asm.Assemble(ctx, mempool.NewDirSource(cfg.Mempool.Dir, cfg.Mempool.MaxTransactions))
	if err != nil {
		return err
	}

	maxRolls := cfg.Mining.MaxTimeRolls
	if !cfg.Mining.RollTime {
		maxRolls = 0
	}

	miner := pow.NewMiner(logger, pow.WithWorkers(cfg.Mining.Workers), pow.WithTimeRolling(maxRolls))

	result, err := assembler.MineBlock(ctx, logger, block, miner, cfg.Mining.MaxExtraNonceRolls)
	if err != nil {
		return err
	}

	if err = output.WriteFile(cfg.Output.Path, block); err != nil {
		return err
	}

	logger.Infof("[Miner] block %s with %d transactions written to %s", result.Hash, len(block.Transactions), cfg.Output.Path)

	if store != nil {
		stored := &storage.StoredBlock{
			ID:           block.ID,
			MinedAt:      time.Now(),
			Header:       block.Header,
			Transactions: block.Transactions,
		}

		if err = store.SaveBlock(stored); err != nil {
			return err
		}

		logger.Infof("[Miner] block %s stored at height %d", result.Hash, stored.Height)
	}

	return nil
}

// blockSettings turns the config into assembler settings. With a block database and no explicit previous hash,
// the new block extends the stored tip.
func blockSettings(cfg config.Config, store *storage.Storage, logger ulogger.Logger) (assembler.Settings, error) {
	bits, err := cfg.TargetBits()
	if err != nil {
		return assembler.Settings{}, err
	}

	scripts, err := cfg.PayoutScripts()
	if err != nil {
		return assembler.Settings{}, err
	}

	if len(cfg.Coinbase.Address) == 0 && store != nil {
		stored, err := storedPayoutScripts(store)
		if err != nil {
			return assembler.Settings{}, err
		}

		if len(stored) > 0 {
			logger.Infof("[Miner] paying the coinbase to %d stored payout keys", len(stored))
			scripts = stored
		}
	}

	settings := assembler.Settings{
		Version:         cfg.Mining.Version,
		Bits:            bits,
		Time:            cfg.Mining.Time,
		MaxTransactions: cfg.Mempool.MaxTransactions,
		CoinbaseVersion: 1,
		CoinbaseHeight:  cfg.Coinbase.Height,
		CoinbaseText:    cfg.Coinbase.Text,
		Payouts:         tx.SplitReward(cfg.Coinbase.Reward, scripts),
	}

	prev, ok, err := cfg.PrevBlockHash()
	if err != nil {
		return settings, err
	}

	if ok || store == nil {
		settings.PrevBlockHash = prev
		return settings, nil
	}

	tip, err := store.GetChainTip()
	if errors.Is(err, errors.ErrNotFound) {
		settings.PrevBlockHash = types.Hash{}
		return settings, nil
	}

	if err != nil {
		return settings, err
	}

	parent, err := store.GetBlock(tip)
	if err != nil {
		return settings, err
	}

	settings.PrevBlockHash = tip

	if settings.CoinbaseHeight == 0 {
		settings.CoinbaseHeight = parent.Height + 1
	}

	logger.Infof("[Miner] extending stored tip %s at height %d", tip, parent.Height)

	return settings, nil
}

// storedPayoutScripts returns a P2PKH script for every key in the keystore, checking that each key still
// hashes to the address it is stored under
func storedPayoutScripts(store *storage.Storage) ([][]byte, error) {
	addresses, err := store.PayoutAddresses()
	if err != nil {
		return nil, err
	}

	scripts := make([][]byte, 0, len(addresses))

	for _, address := range addresses {
		key, err := store.GetPayoutKey(address)
		if err != nil {
			return nil, err
		}

		if key.Address() != address {
			return nil, errors.NewStorageError("payout key stored under %s belongs to %s", address, key.Address())
		}

		scripts = append(scripts, crypto.PayToPubKeyHashScript(crypto.Hash160(key.PublicKey)))
	}

	return scripts, nil
}

func serveMetrics(address string, logger ulogger.Logger) func() {
	server := &http.Server{
		Addr:              address,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("[Miner] serving metrics on %s", address)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[Miner] metrics server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_ = server.Shutdown(ctx)
	}
}
