package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/pow"
	"github.com/yourusername/btminer/internal/storage"
)

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print the stored chain tip, recent blocks and payout addresses",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Usage: "number of blocks to print", Value: 10},
		},
		Action: func(c *cli.Context) error {
			cfg, _, _, err := loadConfig(c, nil)
			if err != nil {
				return err
			}

			if count := c.Int("count"); count <= 0 {
				return errors.NewInvalidArgumentError("--count must be positive, got %d", count)
			}

			store, err := storage.NewStorage(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			w := c.App.Writer

			tip, err := store.GetChainTip()
			switch {
			case errors.Is(err, errors.ErrNotFound):
				fmt.Fprintln(w, "No blocks stored")
			case err != nil:
				return err
			default:
				blocks, err := store.Ancestors(tip, c.Int("count"))
				if err != nil {
					return err
				}

				total, err := store.CountBlocks()
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "Tip: %s (%d blocks stored)\n", tip, total)

				for _, block := range blocks {
					fmt.Fprintf(w, "%6d  %s  %s  txs=%d  nonce=%d  difficulty=%.4f\n",
						block.Height,
						block.Hash(),
						block.MinedAt.UTC().Format(time.RFC3339),
						len(block.Transactions),
						block.Header.Nonce,
						pow.Difficulty(block.Header.Bits),
					)
				}
			}

			addresses, err := store.PayoutAddresses()
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "Payout addresses: %d\n", len(addresses))

			for _, address := range addresses {
				fmt.Fprintf(w, "  %s\n", address)
			}

			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective configuration as YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Usage: "also write the configuration as environment variables"},
		},
		Action: func(c *cli.Context) error {
			_, loader, _, err := loadConfig(c, nil)
			if err != nil {
				return err
			}

			data, err := loader.YAML()
			if err != nil {
				return err
			}

			if _, err = c.App.Writer.Write(data); err != nil {
				return err
			}

			if path := c.String("env-file"); path != "" {
				return loader.ToEnv(path)
			}

			return nil
		},
	}
}
