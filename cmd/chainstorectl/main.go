package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaspanet/chainstore/domain/blockindex"
	"github.com/kaspanet/chainstore/infrastructure/logger"
	"github.com/kaspanet/chainstore/infrastructure/os/signal"
	"github.com/pkg/errors"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}
	if cfg.ListCommands {
		printCommands()
		return
	}
	defer logger.BackendLog.Close()

	ctx, cancelInterrupt := signal.InterruptContext(context.Background())
	defer cancelInterrupt()
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error opening the %s store: %s", cfg.Backend, err))
	}
	defer store.Close()

	output, err := runCommand(ctx, store, cfg.CommandAndParameters)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			printErrorAndExit(fmt.Sprintf("timeout of %s has been exceeded", timeout))
		}
		if errors.Is(err, context.Canceled) {
			printErrorAndExit("interrupted")
		}
		printErrorAndExit(fmt.Sprintf("error running %s: %s", cfg.CommandAndParameters[0], err))
	}
	if output != "" {
		fmt.Println(output)
	}
}

func openStore(ctx context.Context, cfg *configFlags) (*blockindex.Store, error) {
	// chainstorectl has no payload decoder. Payloads are read raw.
	storeConfig := blockindex.DefaultConfig(nil)

	switch cfg.Backend {
	case backendPostgres:
		return blockindex.OpenPostgres(ctx, cfg.DSN, storeConfig)
	case backendLevelDB:
		return blockindex.OpenLevelDB(filepath.Join(cfg.DataDir, "ldb"), storeConfig)
	default:
		err := os.MkdirAll(cfg.DataDir, 0700)
		if err != nil {
			return nil, errors.Wrapf(err, "failed creating data directory %s", cfg.DataDir)
		}
		return blockindex.OpenFile(ctx, filepath.Join(cfg.DataDir, "chainstore.sqlite"), storeConfig)
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(1)
}
