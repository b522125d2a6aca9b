package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/yourusername/btminer/internal/config"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/ulogger"
)

// exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitExhausted = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp().RunContext(ctx, os.Args)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "miner: %v\n", err)
	}

	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errors.ErrSearchExhausted):
		return exitExhausted
	default:
		return exitFailure
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "miner",
		Usage: "assemble a block from mempool records and search for a proof of work",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a yaml or json config file",
				Value: config.DefaultConfigFilePath,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
			},
			&cli.StringFlag{
				Name:  "store-path",
				Usage: "block database directory",
			},
		},
		Commands: []*cli.Command{
			mineCommand(),
			keygenCommand(),
			showCommand(),
			configCommand(),
		},
	}
}

// flagBinding maps a command line flag onto a config key
type flagBinding struct {
	flag  string
	key   string
	value func(c *cli.Context, name string) any
}

func stringValue(c *cli.Context, name string) any { return c.String(name) }
func intValue(c *cli.Context, name string) any    { return c.Int(name) }
func uintValue(c *cli.Context, name string) any   { return c.Uint(name) }
func uint64Value(c *cli.Context, name string) any { return c.Uint64(name) }
func boolValue(c *cli.Context, name string) any   { return c.Bool(name) }
func sliceValue(c *cli.Context, name string) any  { return c.StringSlice(name) }

var globalBindings = []flagBinding{
	{"log-level", "logger.level", stringValue},
	{"store-path", "storage.path", stringValue},
}

// loadConfig resolves the effective configuration: defaults, file, environment, then the flags that were set
func loadConfig(c *cli.Context, bindings []flagBinding) (config.Config, *config.Load, ulogger.Logger, error) {
	bootLevel := "INFO"
	if c.IsSet("log-level") {
		bootLevel = c.String("log-level")
	}

	logger := ulogger.New("miner", ulogger.WithLevel(bootLevel), ulogger.WithWriter(c.App.ErrWriter))

	loader := config.NewLoader(logger, config.DefaultEnvPrefix)
	if err := loader.SetConfigFilePath(c.String("config")); err != nil {
		return config.Config{}, nil, logger, err
	}

	for _, b := range append(append([]flagBinding{}, globalBindings...), bindings...) {
		if c.IsSet(b.flag) {
			loader.Set(b.key, b.value(c, b.flag))
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return cfg, nil, logger, err
	}

	if err = cfg.Validate(); err != nil {
		return cfg, nil, logger, err
	}

	logger = ulogger.New("miner",
		ulogger.WithLevel(cfg.Logger.Level),
		ulogger.WithPretty(cfg.Logger.Pretty),
		ulogger.WithWriter(c.App.ErrWriter),
	)

	return cfg, loader, logger, nil
}
