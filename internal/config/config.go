// Package config loads the miner settings from defaults, an optional YAML/JSON file and BTMINER_* environment
// variables.
package config

import (
	"strconv"
	"strings"

	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/pow"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/internal/ulogger"
	"github.com/yourusername/btminer/pkg/types"
)

// MempoolConfig is where candidate transactions are read from
type MempoolConfig struct {
	Dir             string `mapstructure:"dir"`
	MaxTransactions int    `mapstructure:"max_transactions"`
}

type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// MiningConfig holds the header parameters and the search policy
type MiningConfig struct {
	Version            int32  `mapstructure:"version"`
	PrevBlockHash      string `mapstructure:"prev_block_hash"`
	Bits               string `mapstructure:"bits"`
	Time               uint32 `mapstructure:"time"`
	Workers            int    `mapstructure:"workers"`
	RollTime           bool   `mapstructure:"roll_time"`
	MaxTimeRolls       uint32 `mapstructure:"max_time_rolls"`
	MaxExtraNonceRolls int    `mapstructure:"max_extra_nonce_rolls"`
}

// CoinbaseConfig describes the reward transaction
type CoinbaseConfig struct {
	Reward  uint64   `mapstructure:"reward"`
	Address []string `mapstructure:"address"`
	Text    string   `mapstructure:"text"`
	Height  uint32   `mapstructure:"height"`
}

type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MetricsConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}

// Config represents the miner configuration
type Config struct {
	Mempool  MempoolConfig  `mapstructure:"mempool"`
	Output   OutputConfig   `mapstructure:"output"`
	Mining   MiningConfig   `mapstructure:"mining"`
	Coinbase CoinbaseConfig `mapstructure:"coinbase"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DefaultConfig returns the default miner configuration
func DefaultConfig() Config {
	return Config{
		Mempool: MempoolConfig{
			Dir:             "mempool",
			MaxTransactions: 10,
		},
		Output: OutputConfig{
			Path: "out.txt",
		},
		Mining: MiningConfig{
			Version:            1,
			Bits:               "1f00ffff",
			RollTime:           true,
			MaxTimeRolls:       pow.DefaultMaxTimeRolls,
			MaxExtraNonceRolls: 4,
		},
		Coinbase: CoinbaseConfig{
			Reward:  5000000000,
			Address: []string{},
			Text:    "/btminer/",
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "blocks.db",
		},
		Logger: LoggerConfig{
			Level:  "INFO",
			Pretty: true,
		},
	}
}

// Validate checks every field that can be checked without touching the filesystem
func (c *Config) Validate() error {
	if c.Mempool.Dir == "" {
		return errors.NewConfigurationError("mempool.dir must be set")
	}

	if c.Mempool.MaxTransactions <= 0 {
		return errors.NewConfigurationError("mempool.max_transactions must be positive, got %d", c.Mempool.MaxTransactions)
	}

	if c.Output.Path == "" {
		return errors.NewConfigurationError("output.path must be set")
	}

	if _, err := c.TargetBits(); err != nil {
		return err
	}

	if _, _, err := c.PrevBlockHash(); err != nil {
		return err
	}

	if c.Mining.Workers < 0 {
		return errors.NewConfigurationError("mining.workers must not be negative, got %d", c.Mining.Workers)
	}

	if c.Mining.MaxExtraNonceRolls < 0 {
		return errors.NewConfigurationError("mining.max_extra_nonce_rolls must not be negative, got %d", c.Mining.MaxExtraNonceRolls)
	}

	if _, err := c.PayoutScripts(); err != nil {
		return err
	}

	if _, err := tx.CoinbaseScript(c.Coinbase.Height, c.Coinbase.Text, 0); err != nil {
		return errors.NewConfigurationError("coinbase.text is too long", err)
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		return errors.NewConfigurationError("storage.path must be set when storage is enabled")
	}

	if !ulogger.ValidLevel(c.Logger.Level) {
		return errors.NewConfigurationError("unknown logger.level %q", c.Logger.Level)
	}

	return nil
}

// TargetBits parses mining.bits, a hex compact target with or without 0x
func (c *Config) TargetBits() (uint32, error) {
	s := strings.TrimPrefix(strings.ToLower(c.Mining.Bits), "0x")

	bits, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.NewConfigurationError("mining.bits %q is not a 32-bit hex value", c.Mining.Bits, err)
	}

	if _, err = pow.TargetFromCompact(uint32(bits)); err != nil {
		return 0, errors.NewConfigurationError("mining.bits %q", c.Mining.Bits, err)
	}

	return uint32(bits), nil
}

// PrevBlockHash parses mining.prev_block_hash; ok is false when it is not set
func (c *Config) PrevBlockHash() (hash types.Hash, ok bool, err error) {
	if c.Mining.PrevBlockHash == "" {
		return hash, false, nil
	}

	hash, err = types.NewHashFromStr(c.Mining.PrevBlockHash)
	if err != nil {
		return hash, false, errors.NewConfigurationError("mining.prev_block_hash is not a block hash", err)
	}

	return hash, true, nil
}

// PayoutScripts returns one locking script per coinbase.address, or a single OP_TRUE script when none is set
func (c *Config) PayoutScripts() ([][]byte, error) {
	addresses := c.Coinbase.Address
	if len(addresses) == 0 {
		addresses = []string{""}
	}

	scripts := make([][]byte, 0, len(addresses))

	for _, address := range addresses {
		script, err := crypto.ScriptForAddress(strings.TrimSpace(address))
		if err != nil {
			return nil, errors.NewConfigurationError("coinbase.address %q", address, err)
		}

		scripts = append(scripts, script)
	}

	return scripts, nil
}
