package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/storage"
)

var keygenBindings = []flagBinding{
	{"store", "storage.enabled", boolValue},
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "generate or import a payout key and print its address",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "store", Usage: "keep the key in the block database"},
			&cli.StringFlag{Name: "import", Usage: "use this 32-byte hex private key instead of a fresh one"},
			&cli.StringFlag{Name: "delete", Usage: "remove the stored key for this address"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, logger, err := loadConfig(c, keygenBindings)
			if err != nil {
				return err
			}

			if address := c.String("delete"); address != "" {
				store, err := storage.NewStorage(cfg.Storage.Path)
				if err != nil {
					return err
				}
				defer store.Close()

				// a missing key is reported rather than silently ignored
				if _, err = store.GetPayoutKey(address); err != nil {
					return err
				}

				if err = store.DeletePayoutKey(address); err != nil {
					return err
				}

				fmt.Fprintf(c.App.Writer, "Deleted:     %s\n", address)

				return nil
			}

			var key *crypto.PayoutKey

			if privateKey := c.String("import"); privateKey != "" {
				key, err = crypto.PayoutKeyFromHex(privateKey)
			} else {
				key, err = crypto.NewPayoutKey()
			}

			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Address:     %s\n", key.Address())
			fmt.Fprintf(w, "Public key:  %s\n", hex.EncodeToString(key.PublicKey))
			fmt.Fprintf(w, "Private key: %s\n", key.PrivateKeyHex())

			if !cfg.Storage.Enabled {
				return nil
			}

			store, err := storage.NewStorage(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if err = store.SavePayoutKey(key); err != nil {
				return err
			}

			logger.Infof("[Keygen] payout key %s saved to %s", key.Address(), cfg.Storage.Path)

			return nil
		},
	}
}
