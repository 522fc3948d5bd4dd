// bt3anim is a CLI utility for editing Budokai Tenkaichi 3 skeletal animations.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kkteam/bt3-animation-worker/internal/config"
	"github.com/kkteam/bt3-animation-worker/internal/logger"
)

// errUsage marks errors caused by bad command-line usage.
var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	args := config.Args()
	if len(args) == 0 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err := run(cfg, args, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
